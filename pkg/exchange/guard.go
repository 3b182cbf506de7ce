package exchange

import "sync/atomic"

// reentryGuard models the non-reentrant fence around every state-mutating
// public operation. Execution is logically sequential; the guard trips when
// a call re-enters a guarded operation from within the same invocation
// chain (an external callback calling back in), failing fast instead of
// corrupting state. It is acquired before the engine mutex so a reentrant
// call on the same goroutine errors rather than deadlocks.
type reentryGuard struct {
	busy atomic.Bool
}

func (g *reentryGuard) enter() error {
	if !g.busy.CompareAndSwap(false, true) {
		return ErrReentrantCall
	}
	return nil
}

func (g *reentryGuard) exit() {
	g.busy.Store(false)
}

// matchLock tracks orders a match loop is currently touching. Cancellation
// of a flagged order fails fast instead of racing the in-flight match.
type matchLock struct {
	ids map[int64]struct{}
}

func newMatchLock() *matchLock {
	return &matchLock{ids: make(map[int64]struct{})}
}

func (l *matchLock) lock(id int64)   { l.ids[id] = struct{}{} }
func (l *matchLock) unlock(id int64) { delete(l.ids, id) }

func (l *matchLock) locked(id int64) bool {
	_, ok := l.ids[id]
	return ok
}
