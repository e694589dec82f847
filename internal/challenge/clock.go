package challenge

import (
	"sync"
	"time"
)

// Clock creates tickers. RealClock is used in production; ManualClock lets
// tests decide when a second has passed.
type Clock interface {
	NewTicker(d time.Duration) Ticker
}

type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type RealClock struct{}

func (RealClock) NewTicker(d time.Duration) Ticker { return realTicker{time.NewTicker(d)} }

type realTicker struct{ t *time.Ticker }

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

// ManualClock delivers ticks only when Tick is called.
type ManualClock struct {
	mu      sync.Mutex
	tickers []*manualTicker
}

func NewManualClock() *ManualClock { return &ManualClock{} }

func (m *ManualClock) NewTicker(time.Duration) Ticker {
	t := &manualTicker{c: make(chan time.Time), stopped: make(chan struct{})}
	m.mu.Lock()
	m.tickers = append(m.tickers, t)
	m.mu.Unlock()
	return t
}

// Tick hands one tick to every live ticker and blocks until each has
// received it or been stopped.
func (m *ManualClock) Tick() {
	m.mu.Lock()
	live := make([]*manualTicker, 0, len(m.tickers))
	for _, t := range m.tickers {
		select {
		case <-t.stopped:
		default:
			live = append(live, t)
		}
	}
	m.tickers = live
	m.mu.Unlock()

	now := time.Now()
	for _, t := range live {
		select {
		case t.c <- now:
		case <-t.stopped:
		}
	}
}

// Live is the number of tickers not yet stopped.
func (m *ManualClock) Live() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.tickers {
		select {
		case <-t.stopped:
		default:
			n++
		}
	}
	return n
}

type manualTicker struct {
	c       chan time.Time
	stopped chan struct{}
	once    sync.Once
}

func (t *manualTicker) C() <-chan time.Time { return t.c }
func (t *manualTicker) Stop()               { t.once.Do(func() { close(t.stopped) }) }
