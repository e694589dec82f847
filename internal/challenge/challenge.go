// Package challenge implements the timed mode: solve as many puzzles as
// possible before a countdown runs out.
//
// State machine:
//
//	Idle --Start--> Running --Tick (remaining hits 0)--> Ended
//	Running/Ended --Stop--> Idle
//	any --Start--> Running (timer restarts from the full duration)
package challenge

type State string

const (
	StateIdle    State = "idle"
	StateRunning State = "running"
	StateEnded   State = "ended"
)

// Event is what a tick produced.
type Event string

const (
	EventNone    Event = ""
	EventTick    Event = "tick"
	EventWarning Event = "warning"
	EventEnded   Event = "ended"
)

const (
	DefaultDuration = 120 // seconds
	WarningAt       = 30  // seconds remaining
)

// Challenge is the countdown and success counter of one player.
// It is a plain value; callers serialise access.
type Challenge struct {
	state     State
	duration  int
	remaining int
	successes int
	warned    bool
}

// New returns an idle challenge lasting DefaultDuration seconds.
func New() *Challenge { return NewWithDuration(DefaultDuration) }

// NewWithDuration returns an idle challenge lasting seconds (DefaultDuration
// when seconds <= 0).
func NewWithDuration(seconds int) *Challenge {
	if seconds <= 0 {
		seconds = DefaultDuration
	}
	return &Challenge{state: StateIdle, duration: seconds, remaining: seconds}
}

// Start (re)starts the countdown from the full duration with zero successes.
func (c *Challenge) Start() {
	c.state = StateRunning
	c.remaining = c.duration
	c.successes = 0
	c.warned = false
}

// Stop returns to Idle. Calling it while idle does nothing.
func (c *Challenge) Stop() {
	if c.state == StateIdle {
		return
	}
	c.state = StateIdle
	c.remaining = c.duration
	c.warned = false
}

// Tick advances the countdown by one second. Ticks outside Running are ignored.
func (c *Challenge) Tick() Event {
	if c.state != StateRunning {
		return EventNone
	}
	c.remaining--
	switch {
	case c.remaining <= 0:
		c.remaining = 0
		c.state = StateEnded
		return EventEnded
	case c.remaining == WarningAt:
		c.warned = true
		return EventWarning
	}
	return EventTick
}

// Success counts a solved puzzle. It reports false when not running.
func (c *Challenge) Success() bool {
	if c.state != StateRunning {
		return false
	}
	c.successes++
	return true
}

func (c *Challenge) State() State   { return c.state }
func (c *Challenge) Remaining() int { return c.remaining }
func (c *Challenge) Successes() int { return c.successes }
func (c *Challenge) Duration() int  { return c.duration }

// Warned reports whether the low-time warning has fired in this run.
func (c *Challenge) Warned() bool { return c.warned }

// Snapshot is the serialisable view of a challenge.
type Snapshot struct {
	State     State `json:"state"`
	Remaining int   `json:"remaining"`
	Successes int   `json:"successes"`
	Warning   bool  `json:"warning"`
}

func (c *Challenge) Snapshot() Snapshot {
	return Snapshot{
		State:     c.state,
		Remaining: c.remaining,
		Successes: c.successes,
		Warning:   c.warned,
	}
}
