package client

import "time"

// deadline is a single cancellable timer. Arming it replaces any pending
// timer, so at most one callback is ever outstanding. Callers provide their
// own locking.
type deadline struct {
	timer *time.Timer
}

// arm schedules fn after d, cancelling any pending callback first.
func (dl *deadline) arm(d time.Duration, fn func()) {
	dl.cancel()
	dl.timer = time.AfterFunc(d, fn)
}

// cancel stops the pending callback, if any. A callback already running is
// not interrupted; callers re-check state when it fires.
func (dl *deadline) cancel() {
	if dl.timer != nil {
		dl.timer.Stop()
		dl.timer = nil
	}
}

func (dl *deadline) pending() bool {
	return dl.timer != nil
}
