package logic

import (
	"math"
	"testing"
)

// A base time comfortably above the epoch floor.
const base = int64(1700000000)

func TestClassifyNoReading(t *testing.T) {
	if got := Classify(nil, base, 0); got != StatusNoData {
		t.Errorf("nil reading, no reset: got %s, want %s", got, StatusNoData)
	}
	if got := Classify(nil, base, base-10); got != StatusSyncing {
		t.Errorf("nil reading, reset pending: got %s, want %s", got, StatusSyncing)
	}
}

func TestClassifyFreshnessBoundaries(t *testing.T) {
	tests := []struct {
		name       string
		secondsAgo int64
		want       DeviceStatus
	}{
		{"zero seconds", 0, StatusLive},
		{"exactly live threshold", 15, StatusLive},
		{"one past live threshold", 16, StatusDelayed},
		{"exactly delayed threshold", 35, StatusDelayed},
		{"one past delayed threshold", 36, StatusOffline},
		{"long offline", 86400, StatusOffline},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &Reading{Timestamp: base - tt.secondsAgo}
			if got := Classify(r, base, 0); got != tt.want {
				t.Errorf("secondsAgo=%d: got %s, want %s", tt.secondsAgo, got, tt.want)
			}
		})
	}
}

func TestClassifyTimestampFloor(t *testing.T) {
	// Exactly the floor is invalid; one second past it is valid.
	r := &Reading{Timestamp: TimestampEpochFloor}
	if got := Classify(r, base, 0); got != StatusNoData {
		t.Errorf("timestamp at floor: got %s, want %s", got, StatusNoData)
	}

	r = &Reading{Timestamp: TimestampEpochFloor + 1}
	if got := Classify(r, base, 0); got != StatusOffline {
		t.Errorf("timestamp just past floor: got %s, want %s", got, StatusOffline)
	}

	r = &Reading{Timestamp: 0}
	if got := Classify(r, base, 0); got != StatusNoData {
		t.Errorf("zero timestamp: got %s, want %s", got, StatusNoData)
	}
}

func TestClassifyResetGraceWindow(t *testing.T) {
	resetAt := base

	// Within the grace window, even a well-formed reading stays syncing.
	r := &Reading{Timestamp: resetAt + 10, WifiSSID: sptr("Home"), Temperature: fptr(20)}
	if got := Classify(r, resetAt+12, resetAt); got != StatusSyncing {
		t.Errorf("within grace: got %s, want %s", got, StatusSyncing)
	}

	// Exactly at the boundary (timestamp == resetAt + grace) is still inside.
	r = &Reading{Timestamp: resetAt + ResetGraceSec, WifiSSID: sptr("Home"), Temperature: fptr(20)}
	if got := Classify(r, resetAt+ResetGraceSec+1, resetAt); got != StatusSyncing {
		t.Errorf("at grace boundary: got %s, want %s", got, StatusSyncing)
	}

	// One second past the grace window with WiFi and a sensor value: live.
	r = &Reading{Timestamp: resetAt + 31, WifiSSID: sptr("Home"), Temperature: fptr(20)}
	if got := Classify(r, resetAt+35, resetAt); got != StatusLive {
		t.Errorf("past grace: got %s, want %s", got, StatusLive)
	}
}

func TestClassifyPostResetStages(t *testing.T) {
	resetAt := base
	now := resetAt + 45

	tests := []struct {
		name string
		r    *Reading
		want DeviceStatus
	}{
		{
			"post-reset without wifi",
			&Reading{Timestamp: resetAt + 40},
			StatusSyncing,
		},
		{
			"post-reset with empty ssid",
			&Reading{Timestamp: resetAt + 40, WifiSSID: sptr("")},
			StatusSyncing,
		},
		{
			"wifi back, no temperature yet",
			&Reading{Timestamp: resetAt + 40, WifiSSID: sptr("Home")},
			StatusWifiConnected,
		},
		{
			"wifi back, NaN temperature",
			&Reading{Timestamp: resetAt + 40, WifiSSID: sptr("Home"), Temperature: fptr(math.NaN())},
			StatusWifiConnected,
		},
		{
			"wifi and sensor back",
			&Reading{Timestamp: resetAt + 40, WifiSSID: sptr("Home"), Temperature: fptr(22.5)},
			StatusLive,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.r, now, resetAt); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestClassifyResetWithInvalidTimestamp(t *testing.T) {
	// An untrusted timestamp can never count as post-reset.
	r := &Reading{Timestamp: 123, WifiSSID: sptr("Home"), Temperature: fptr(20)}
	if got := Classify(r, base, base-60); got != StatusSyncing {
		t.Errorf("invalid timestamp during reset: got %s, want %s", got, StatusSyncing)
	}
}

// TestClassifyResetLifecycle walks the full end-to-end sequence a reset
// produces, from request through reconnection.
func TestClassifyResetLifecycle(t *testing.T) {
	resetAt := base

	steps := []struct {
		name string
		r    *Reading
		now  int64
		want DeviceStatus
	}{
		{"readings cleared", nil, resetAt + 1, StatusSyncing},
		{"last-gasp packet within grace", &Reading{Timestamp: resetAt + 5, WifiSSID: sptr("Home"), Temperature: fptr(20)}, resetAt + 6, StatusSyncing},
		{"post-grace, no wifi yet", &Reading{Timestamp: resetAt + 40}, resetAt + 41, StatusSyncing},
		{"wifi reconnected", &Reading{Timestamp: resetAt + 40, WifiSSID: sptr("Home")}, resetAt + 42, StatusWifiConnected},
		{"sensor loop back", &Reading{Timestamp: resetAt + 40, WifiSSID: sptr("Home"), Temperature: fptr(22.5)}, resetAt + 45, StatusLive},
	}
	for _, s := range steps {
		t.Run(s.name, func(t *testing.T) {
			if got := Classify(s.r, s.now, resetAt); got != s.want {
				t.Errorf("got %s, want %s", got, s.want)
			}
		})
	}
}

// TestClassifyDeterminism spot-checks that repeat evaluations of the same
// triple agree and never mutate the reading.
func TestClassifyDeterminism(t *testing.T) {
	r := &Reading{Timestamp: base - 20, WifiSSID: sptr("Home"), Temperature: fptr(19.5)}
	first := Classify(r, base, 0)
	for i := 0; i < 100; i++ {
		if got := Classify(r, base, 0); got != first {
			t.Fatalf("iteration %d: got %s, want %s", i, got, first)
		}
	}
	if r.Timestamp != base-20 || *r.Temperature != 19.5 {
		t.Error("Classify mutated its input")
	}
}

func TestSecondsAgo(t *testing.T) {
	if _, ok := SecondsAgo(nil, base); ok {
		t.Error("nil reading: expected ok=false")
	}
	if _, ok := SecondsAgo(&Reading{Timestamp: TimestampEpochFloor}, base); ok {
		t.Error("timestamp at floor: expected ok=false")
	}

	age, ok := SecondsAgo(&Reading{Timestamp: base - 42}, base)
	if !ok {
		t.Fatal("valid timestamp: expected ok=true")
	}
	if age != 42 {
		t.Errorf("age: got %d, want 42", age)
	}
}
