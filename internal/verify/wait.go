package verify

import "time"

// waitFor polls cond until it returns true or the timeout elapses.
// The bound keeps a missing asynchronous update from blocking the test's
// single control flow indefinitely.
func waitFor(timeout, poll time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(timeout)
	for {
		if cond() {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(poll)
	}
}

// holdFor polls cond over the whole window and reports whether it stayed
// true throughout. Distinguishes genuine stability from a late-arriving
// change.
func holdFor(window, poll time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(window)
	for {
		if !cond() {
			return false
		}
		if time.Now().After(deadline) {
			return true
		}
		time.Sleep(poll)
	}
}
