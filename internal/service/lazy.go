package service

import (
	"context"
	"sync"
)

const (
	StatePending = "pending"
	StateLoading = "loading"
	StateReady   = "ready"
	StateFailed  = "failed"
)

// lazy runs its loader once, on first use. A success is kept for the process
// lifetime; a failure is kept too, so a flow whose models failed to load stays
// halted instead of running on a half initialised value.
//
// The loader runs detached from the caller's cancellation: a client going away
// mid load must not leave a permanent failure behind.
type lazy[T any] struct {
	load func(ctx context.Context) (T, error)

	loadMu sync.Mutex // held for the duration of the one load

	mu      sync.Mutex // guards the fields below, never held while loading
	loading bool
	done    bool
	value   T
	err     error
}

func newLazy[T any](load func(ctx context.Context) (T, error)) *lazy[T] {
	return &lazy[T]{load: load}
}

func (l *lazy[T]) result() (T, error, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.value, l.err, l.done
}

func (l *lazy[T]) setLoading() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.loading = true
}

func (l *lazy[T]) finish(value T, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.value, l.err = value, err
	l.done = true
	l.loading = false
}

func (l *lazy[T]) Get(ctx context.Context) (T, error) {
	if v, err, ok := l.result(); ok {
		return v, err
	}
	l.loadMu.Lock()
	defer l.loadMu.Unlock()
	if v, err, ok := l.result(); ok {
		return v, err
	}
	l.setLoading()
	v, err := l.load(context.WithoutCancel(ctx))
	l.finish(v, err)
	return v, err
}

func (l *lazy[T]) State() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	switch {
	case l.loading:
		return StateLoading
	case !l.done:
		return StatePending
	case l.err != nil:
		return StateFailed
	default:
		return StateReady
	}
}
