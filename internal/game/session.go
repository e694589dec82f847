package game

import (
	"errors"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/buchstabensalat/salad/internal/challenge"
	"github.com/buchstabensalat/salad/internal/history"
	"github.com/buchstabensalat/salad/internal/words"
)

// ErrChallengeOver is returned for puzzle actions after the countdown ran out.
var ErrChallengeOver = errors.New("challenge over")

// Session owns everything one player mutates: the current puzzle, the recent
// word history, and the challenge with its own history. Every method takes
// the session lock, so timer ticks and player input never interleave.
type Session struct {
	ID      string
	OwnerID string

	mu           sync.Mutex
	dict         *words.Dictionary
	rng          Rand
	puzzle       *Puzzle
	history      *history.Tracker
	challenge    *challenge.Challenge
	challengeLog *history.Tracker
	lastAccess   time.Time
}

// SessionOption customises a new Session.
type SessionOption func(*Session)

func WithRand(rng Rand) SessionOption { return func(s *Session) { s.rng = rng } }

func WithHistory(h *history.Tracker) SessionOption {
	return func(s *Session) { s.history = h }
}

// WithChallengeDuration overrides the countdown length in seconds.
func WithChallengeDuration(seconds int) SessionOption {
	return func(s *Session) { s.challenge = challenge.NewWithDuration(seconds) }
}

// NewSession returns a session with no puzzle dealt yet.
func NewSession(id, ownerID string, dict *words.Dictionary, opts ...SessionOption) *Session {
	s := &Session{
		ID:           id,
		OwnerID:      ownerID,
		dict:         dict,
		rng:          DefaultRand,
		history:      history.New(history.Capacity),
		challenge:    challenge.New(),
		challengeLog: history.New(history.Capacity),
		lastAccess:   time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// View is the client-facing snapshot of a session.
type View struct {
	GameID    string              `json:"gameId"`
	PuzzleID  string              `json:"puzzleId,omitempty"`
	Letters   []string            `json:"letters"`
	State     State               `json:"state"`
	Moves     int                 `json:"moves"`
	Target    string              `json:"target,omitempty"`    // once solved or revealed
	Solutions []string            `json:"solutions,omitempty"` // once solved or revealed
	Challenge *challenge.Snapshot `json:"challenge,omitempty"` // unless idle
}

// MoveResult is returned by Move. SolvedWord is set when the move finished a
// puzzle; in a running challenge View already shows the next puzzle.
type MoveResult struct {
	View
	SolvedWord string `json:"solvedWord,omitempty"`
}

// NewPuzzle deals the next puzzle. During a running challenge it draws from
// the challenge history and does not count as a success.
func (s *Session) NewPuzzle() (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	if s.challenge.State() == challenge.StateEnded {
		return s.view(), ErrChallengeOver
	}
	if err := s.deal(); err != nil {
		return s.view(), err
	}
	return s.view(), nil
}

func (s *Session) deal() error {
	hist := s.history
	if s.challenge.State() == challenge.StateRunning {
		hist = s.challengeLog
	}
	p, err := Start(s.dict, hist, s.rng)
	if err != nil {
		return err
	}
	s.puzzle = p
	return nil
}

// Move applies a letter move to the current puzzle. In a running challenge a
// solving move counts a success and deals the next puzzle immediately.
func (s *Session) Move(from, to int) (MoveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	if s.challenge.State() == challenge.StateEnded {
		return MoveResult{View: s.view()}, ErrChallengeOver
	}
	if s.puzzle == nil {
		return MoveResult{View: s.view()}, ErrInvalidMove
	}
	solved, err := s.puzzle.Move(from, to)
	if err != nil {
		return MoveResult{View: s.view()}, err
	}
	res := MoveResult{}
	if solved {
		res.SolvedWord = s.puzzle.Arrangement()
		if s.challenge.Success() {
			if err := s.deal(); err != nil {
				return MoveResult{View: s.view()}, err
			}
		}
	}
	res.View = s.view()
	return res, nil
}

// Reveal shows the solution of the current puzzle.
func (s *Session) Reveal() (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	if s.challenge.State() == challenge.StateEnded {
		return s.view(), ErrChallengeOver
	}
	if s.puzzle == nil {
		return s.view(), ErrInvalidMove
	}
	s.puzzle.Reveal()
	return s.view(), nil
}

// StartChallenge restarts the countdown, clears the challenge history and
// deals a fresh puzzle.
func (s *Session) StartChallenge() (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	s.challenge.Start()
	s.challengeLog.Clear()
	if err := s.deal(); err != nil {
		s.challenge.Stop()
		return s.view(), err
	}
	return s.view(), nil
}

// StopChallenge returns to normal play. The current puzzle stays.
func (s *Session) StopChallenge() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	s.challenge.Stop()
	return s.view()
}

// Tick advances the challenge countdown by one second.
func (s *Session) Tick() (challenge.Event, challenge.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev := s.challenge.Tick()
	return ev, s.challenge.Snapshot()
}

// ChallengeSnapshot returns the countdown state.
func (s *Session) ChallengeSnapshot() challenge.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.challenge.Snapshot()
}

// ChallengeDuration is the configured countdown length in seconds.
func (s *Session) ChallengeDuration() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.challenge.Duration()
}

// View returns the current snapshot.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view()
}

// History returns the normal-mode recent words, most recent first.
func (s *Session) History() *history.Tracker {
	s.mu.Lock()
	defer s.mu.Unlock()
	return history.FromWords(history.Capacity, s.history.Words())
}

// LastAccess is when the session was last used by the player.
func (s *Session) LastAccess() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAccess
}

func (s *Session) touch() { s.lastAccess = time.Now() }

func (s *Session) view() View {
	v := View{GameID: s.ID, Letters: []string{}, State: StatePlaying}
	if p := s.puzzle; p != nil {
		v.PuzzleID = p.ID
		v.Letters = lo.Map(p.Letters, func(r rune, _ int) string { return string(r) })
		v.State = p.State()
		v.Moves = p.Moves
		if p.Solved {
			v.Target = p.Target
			v.Solutions = p.Anagrams
		}
	}
	if s.challenge.State() != challenge.StateIdle {
		snap := s.challenge.Snapshot()
		v.Challenge = &snap
	}
	return v
}
