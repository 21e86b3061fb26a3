package store

import (
	"fmt"
	"testing"
)

func msg(i int) pendingWrite {
	return pendingWrite{topic: fmt.Sprintf("t/%d", i), payload: []byte{byte(i)}, retained: true}
}

func TestRingBufferEmpty(t *testing.T) {
	r := newRingBuffer(4)
	if r.len() != 0 {
		t.Errorf("len: got %d, want 0", r.len())
	}
	if got := r.drainAll(); got != nil {
		t.Errorf("drainAll on empty: got %v, want nil", got)
	}
}

func TestRingBufferFIFOOrder(t *testing.T) {
	r := newRingBuffer(4)
	for i := 0; i < 3; i++ {
		if dropped := r.push(msg(i)); dropped {
			t.Errorf("push %d reported drop", i)
		}
	}
	if r.len() != 3 {
		t.Fatalf("len: got %d, want 3", r.len())
	}

	out := r.drainAll()
	if len(out) != 3 {
		t.Fatalf("drained %d, want 3", len(out))
	}
	for i, w := range out {
		if w.topic != fmt.Sprintf("t/%d", i) {
			t.Errorf("position %d: got topic %s", i, w.topic)
		}
	}
	if r.len() != 0 {
		t.Errorf("len after drain: got %d, want 0", r.len())
	}
}

func TestRingBufferOverflowDropsOldest(t *testing.T) {
	r := newRingBuffer(3)
	for i := 0; i < 3; i++ {
		r.push(msg(i))
	}

	// Fourth push overwrites the oldest and reports the first drop.
	if dropped := r.push(msg(3)); !dropped {
		t.Error("first overflow push should report drop")
	}
	if dropped := r.push(msg(4)); dropped {
		t.Error("subsequent overflow pushes should not re-report")
	}

	out := r.drainAll()
	want := []string{"t/2", "t/3", "t/4"}
	if len(out) != len(want) {
		t.Fatalf("drained %d, want %d", len(out), len(want))
	}
	for i, w := range out {
		if w.topic != want[i] {
			t.Errorf("position %d: got %s, want %s", i, w.topic, want[i])
		}
	}
}

func TestRingBufferReuseAfterDrain(t *testing.T) {
	r := newRingBuffer(2)
	r.push(msg(0))
	r.drainAll()

	// Overflow flag and positions reset; a fresh overflow reports again.
	r.push(msg(1))
	r.push(msg(2))
	if dropped := r.push(msg(3)); !dropped {
		t.Error("overflow after drain should report drop again")
	}
	out := r.drainAll()
	if len(out) != 2 || out[0].topic != "t/2" || out[1].topic != "t/3" {
		t.Errorf("got %v", out)
	}
}
