package engage

import (
	"sync"
)

// subjectLocks hands out one mutex per subject ID so events for the same
// subject serialize while events for different subjects run in parallel.
// Entries are never evicted; one idle mutex per subject is cheaper than
// the bookkeeping to reap them safely.
type subjectLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newSubjectLocks() *subjectLocks {
	return &subjectLocks{
		locks: make(map[string]*sync.Mutex),
	}
}

func (l *subjectLocks) get(subjectID string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	lock, ok := l.locks[subjectID]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[subjectID] = lock
	}
	return lock
}
