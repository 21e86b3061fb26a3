package logic

import "testing"

func TestResetRequestZeroValue(t *testing.T) {
	var r ResetRequest
	if r.Pending() {
		t.Error("zero value should not be pending")
	}
	if r.IsExpired(base) {
		t.Error("zero value should never be expired")
	}
}

func TestResetRequestLifecycle(t *testing.T) {
	var r ResetRequest
	r.Mark(base)

	if !r.Pending() {
		t.Fatal("marked request should be pending")
	}
	if r.IsExpired(base + ResetExpirySec) {
		t.Error("request exactly at expiry age should not be expired yet")
	}
	if !r.IsExpired(base + ResetExpirySec + 1) {
		t.Error("request past expiry age should be expired")
	}

	r.Clear()
	if r.Pending() {
		t.Error("cleared request should not be pending")
	}
	if r.IsExpired(base + 10000) {
		t.Error("cleared request should not be expired")
	}
}
