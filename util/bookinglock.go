package util

import "sync"

// doctorLocks serializes the check-then-insert window of booking and
// availability writes per doctor. Two concurrent requests for the same
// doctor cannot both pass the conflict check; requests for different
// doctors do not contend.
var doctorLocks = struct {
	mu    sync.Mutex
	locks map[uint]*sync.Mutex
}{locks: make(map[uint]*sync.Mutex)}

// LockDoctor acquires the per-doctor booking lock and returns the unlock
// function. Callers must release on every exit path:
//
//	unlock := util.LockDoctor(doctorID)
//	defer unlock()
func LockDoctor(doctorID uint) func() {
	doctorLocks.mu.Lock()
	l, ok := doctorLocks.locks[doctorID]
	if !ok {
		l = &sync.Mutex{}
		doctorLocks.locks[doctorID] = l
	}
	doctorLocks.mu.Unlock()

	l.Lock()
	return l.Unlock
}
