package service

import (
	"context"
	"sync"
)

// waitGroup is a sync.WaitGroup that can be waited on with a deadline
type waitGroup struct {
	mu      sync.Mutex
	n       int
	drained chan struct{}
}

func (w *waitGroup) add() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.n == 0 {
		w.drained = make(chan struct{})
	}
	w.n++
}

func (w *waitGroup) done() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.n--
	if w.n == 0 {
		close(w.drained)
	}
}

func (w *waitGroup) wait(ctx context.Context) error {
	w.mu.Lock()
	if w.n == 0 {
		w.mu.Unlock()
		return nil
	}
	ch := w.drained
	w.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
