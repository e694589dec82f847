package challenge

import (
	"sync"
	"time"
)

// Runner calls tick once per second until the challenge ends or Stop is called.
type Runner struct {
	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// Run starts a runner. tick advances the challenge and returns the event it
// produced; onEvent receives every event except EventNone. The ticker is
// created before Run returns.
func Run(clock Clock, tick func() Event, onEvent func(Event)) *Runner {
	r := &Runner{stop: make(chan struct{}), done: make(chan struct{})}
	t := clock.NewTicker(time.Second)
	go func() {
		defer close(r.done)
		defer t.Stop()
		for {
			select {
			case <-r.stop:
				return
			case <-t.C():
				ev := tick()
				if ev == EventNone {
					// challenge left Running underneath us
					return
				}
				if onEvent != nil {
					onEvent(ev)
				}
				if ev == EventEnded {
					return
				}
			}
		}
	}()
	return r
}

// Stop cancels the periodic tick. It is safe on a nil runner, on a runner
// that already finished, and when called more than once.
func (r *Runner) Stop() {
	if r == nil {
		return
	}
	r.once.Do(func() { close(r.stop) })
}

// Done is closed once the runner goroutine has exited.
func (r *Runner) Done() <-chan struct{} { return r.done }
