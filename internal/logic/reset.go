package logic

// Reset lifecycle constants, in seconds.
const (
	// ResetExpirySec bounds how long a reset request can keep the UI in
	// "syncing" if the device never comes back.
	ResetExpirySec = 300
	// SyncedConfirmSec is how long the caller keeps the reset flag after the
	// classifier first reports live again, so the user sees a brief "synced"
	// confirmation before normal display resumes.
	SyncedConfirmSec = 4
)

// ResetRequest records a pending WiFi-reset request. It is the single home
// of the 300-second expiry rule: every read path (initial load, periodic
// re-check) asks IsExpired instead of re-deriving the cutoff.
//
// The zero value means no pending reset. The struct is persisted by the
// caller so a pending reset survives view teardown and reload.
type ResetRequest struct {
	// RequestedAt is epoch seconds of the request, 0 = none.
	RequestedAt int64
}

// Pending reports whether a reset request is outstanding.
func (r ResetRequest) Pending() bool {
	return r.RequestedAt > 0
}

// IsExpired reports whether a pending request is older than ResetExpirySec.
// A non-pending request is never expired.
func (r ResetRequest) IsExpired(nowSec int64) bool {
	return r.Pending() && nowSec-r.RequestedAt > ResetExpirySec
}

// Mark records a new reset request at nowSec.
func (r *ResetRequest) Mark(nowSec int64) {
	r.RequestedAt = nowSec
}

// Clear forgets the pending request.
func (r *ResetRequest) Clear() {
	r.RequestedAt = 0
}
