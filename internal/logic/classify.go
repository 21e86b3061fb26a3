package logic

import "math"

// Freshness and reset timing constants, in seconds.
const (
	// LiveThresholdSec is the maximum age of a reading considered live.
	LiveThresholdSec = 15
	// DelayedThresholdSec is the maximum age of a reading considered delayed.
	// Older readings classify as offline.
	DelayedThresholdSec = 35
	// ResetGraceSec is the window after a WiFi reset request during which
	// incoming readings are presumed to be pre-reboot stragglers and ignored.
	ResetGraceSec = 30
	// TimestampEpochFloor is 2020-01-01T00:00:00Z. Device timestamps at or
	// below it are untrustworthy (unsynced RTC reporting epoch-ish values).
	TimestampEpochFloor = 1577836800
)

// Classify maps the latest reading snapshot to one of the six device states.
// It is a total, deterministic function of its arguments: all state (the
// reset-request timestamp) is passed in by the caller, and the reading is
// never mutated. resetRequestedAt is epoch seconds, 0 = no pending reset.
//
// Store pushes are not ordered, so a reading with an older timestamp may
// arrive after a newer one; callers simply reclassify from scratch on every
// change and on every clock tick.
func Classify(r *Reading, nowSec, resetRequestedAt int64) DeviceStatus {
	if r == nil {
		if resetRequestedAt > 0 {
			// No data at all but a reset is in flight — mid-reboot.
			return StatusSyncing
		}
		return StatusNoData
	}

	tsValid := r.Timestamp > TimestampEpochFloor

	if resetRequestedAt > 0 {
		// A reading only counts as post-reset once its timestamp clears the
		// grace window. Packets that were in flight when the reset command
		// landed must not be mistaken for an already-reconnected device.
		postReset := tsValid && r.Timestamp > resetRequestedAt+ResetGraceSec
		if !postReset {
			return StatusSyncing
		}
		if r.WifiSSID == nil || *r.WifiSSID == "" {
			// Rebooted but not yet reporting a network.
			return StatusSyncing
		}
		if r.Temperature == nil || math.IsNaN(*r.Temperature) {
			// WiFi is back but the sensor loop hasn't produced a value.
			return StatusWifiConnected
		}
		// Genuinely fresh post-reset reading: classify normally below.
	}

	if !tsValid {
		return StatusNoData
	}

	secondsAgo := nowSec - r.Timestamp
	switch {
	case secondsAgo <= LiveThresholdSec:
		return StatusLive
	case secondsAgo <= DelayedThresholdSec:
		return StatusDelayed
	default:
		return StatusOffline
	}
}

// SecondsAgo returns the age of the reading relative to nowSec. ok is false
// when the reading is absent or its timestamp fails the epoch floor — an
// invalid timestamp must read as unknown, never as "0 seconds ago".
func SecondsAgo(r *Reading, nowSec int64) (age int64, ok bool) {
	if r == nil || r.Timestamp <= TimestampEpochFloor {
		return 0, false
	}
	return nowSec - r.Timestamp, true
}
