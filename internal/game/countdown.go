package game

import (
	"context"
	"time"
)

// Countdown calls tick on every interval until stopped
type Countdown struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// StartCountdown starts a ticker goroutine
func StartCountdown(interval time.Duration, tick func()) *Countdown {
	ctx, cancel := context.WithCancel(context.Background())
	cd := &Countdown{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(cd.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				tick()
			}
		}
	}()

	return cd
}

// Stop cancels the countdown without waiting for it to exit. It is safe
// to call while holding a lock the tick function takes.
func (cd *Countdown) Stop() {
	cd.cancel()
}

// Wait blocks until the countdown goroutine has exited
func (cd *Countdown) Wait() {
	<-cd.done
}
