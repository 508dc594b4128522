package dialog

import (
	"context"
	"sync"
)

// sessionLocks serializes turns per user. Entries are reference counted and
// removed once no goroutine holds or waits for them.
type sessionLocks struct {
	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	ch   chan struct{}
	refs int
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{locks: make(map[string]*sessionLock)}
}

// Lock blocks until userID is free or ctx is done. The returned func releases the lock.
func (l *sessionLocks) Lock(ctx context.Context, userID string) (func(), error) {
	l.mu.Lock()
	sl, ok := l.locks[userID]
	if !ok {
		sl = &sessionLock{ch: make(chan struct{}, 1)}
		l.locks[userID] = sl
	}
	sl.refs++
	l.mu.Unlock()

	select {
	case sl.ch <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-sl.ch
				l.release(userID, sl)
			})
		}, nil
	case <-ctx.Done():
		l.release(userID, sl)
		return nil, ctx.Err()
	}
}

func (l *sessionLocks) release(userID string, sl *sessionLock) {
	l.mu.Lock()
	defer l.mu.Unlock()

	sl.refs--
	if sl.refs == 0 {
		delete(l.locks, userID)
	}
}

func (l *sessionLocks) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
