package background

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

var ErrShuttingDown = errors.New("background runner is shutting down")

// Background runs fire-and-forget tasks. Panics inside a task are logged,
// never propagated.
type Background struct {
	log logrus.FieldLogger

	mu      sync.Mutex
	closing bool
	wg      sync.WaitGroup
}

func New(log logrus.FieldLogger) *Background {
	return &Background{log: log}
}

func (b *Background) Go(fn func()) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closing {
		return ErrShuttingDown
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				b.log.WithField("panic", fmt.Sprint(r)).Error("background task panicked")
			}
		}()

		fn()
	}()

	return nil
}

// Shutdown stops accepting tasks and waits for the running ones.
func (b *Background) Shutdown(ctx context.Context) error {
	b.mu.Lock()
	b.closing = true
	b.mu.Unlock()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
