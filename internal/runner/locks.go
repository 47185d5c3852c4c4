package runner

import (
	"errors"
	"sync"
)

// ErrRunActive is returned when a run is requested for an app that already
// has one in flight. Interleaved writes from two concurrent runs would break
// the consistent-file-state view the model depends on.
var ErrRunActive = errors.New("another run is active for this app")

// Locks provides per-app mutual exclusion. One Locks instance is shared by
// every runner in the process.
type Locks struct {
	mu    sync.Mutex
	byApp map[string]*sync.Mutex
}

// NewLocks creates an empty lock table.
func NewLocks() *Locks {
	return &Locks{byApp: make(map[string]*sync.Mutex)}
}

// Acquire takes the app's lock without blocking. It returns a release
// function, or ErrRunActive when the lock is held.
func (l *Locks) Acquire(appID string) (func(), error) {
	l.mu.Lock()
	m, ok := l.byApp[appID]
	if !ok {
		m = &sync.Mutex{}
		l.byApp[appID] = m
	}
	l.mu.Unlock()

	if !m.TryLock() {
		return nil, ErrRunActive
	}
	return m.Unlock, nil
}
