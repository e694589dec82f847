package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"

	"github.com/buchstabensalat/salad/internal/challenge"
	"github.com/buchstabensalat/salad/internal/game"
	"github.com/buchstabensalat/salad/internal/history"
	"github.com/buchstabensalat/salad/internal/input"
)

// Screen layout. The letter row is drawn at rowY; every letter takes a
// unit of unitWidth columns: one gap column followed by the letter cell.
const (
	marginX   = 2
	rowY      = 3
	unitWidth = 4
)

// HistorySaver persists the normal-mode word history.
type HistorySaver func(*history.Tracker) error

// tickMsg drives the challenge countdown. gen ties it to one run so ticks
// of a stopped run are dropped.
type tickMsg struct{ gen int }

func tickCmd(gen int) tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg { return tickMsg{gen: gen} })
}

// Model is the bubbletea model of the puzzle screen.
type Model struct {
	sess  *game.Session
	save  HistorySaver
	keys  KeyMap
	help  help.Model
	view  game.View
	width int

	cursor   int         // letter under the keyboard cursor
	gap      int         // gap under the keyboard cursor while a letter is picked
	gesture  input.State // keyboard pick or mouse drag in progress
	keyboard bool        // gesture was started with the pick key
	gen      int         // current countdown generation

	message  string
	showHelp bool
}

// New deals the first puzzle of sess.
func New(sess *game.Session, save HistorySaver) (Model, error) {
	m := Model{
		sess:    sess,
		save:    save,
		keys:    DefaultKeyMap(),
		help:    help.New(),
		gesture: input.State{Hover: input.NoGap},
	}
	if err := m.newPuzzle(); err != nil {
		return m, err
	}
	return m, nil
}

func (m Model) Init() tea.Cmd { return nil }

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.MouseMsg:
		m.handleMouse(msg)
	case tickMsg:
		return m.handleTick(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	n := len(m.view.Letters)
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		m.help.ShowAll = m.showHelp
	case key.Matches(msg, m.keys.Left):
		if m.gesture.Active {
			m.gap = max(m.gap-1, 0)
		} else {
			m.cursor = max(m.cursor-1, 0)
		}
	case key.Matches(msg, m.keys.Right):
		if m.gesture.Active {
			m.gap = min(m.gap+1, n)
		} else {
			m.cursor = min(m.cursor+1, n-1)
		}
	case key.Matches(msg, m.keys.Pick):
		if m.gesture.Active {
			m.apply(input.Drop(m.gap))
		} else if n > 0 {
			m.apply(input.StartDrag(m.cursor))
			m.gap = m.cursor
			m.keyboard = true
		}
	case key.Matches(msg, m.keys.Cancel):
		m.apply(input.EndDrag())
	case key.Matches(msg, m.keys.New):
		if err := m.newPuzzle(); err != nil {
			m.setError(err)
		}
	case key.Matches(msg, m.keys.Solution):
		v, err := m.sess.Reveal()
		m.view = v
		if err != nil {
			m.setError(err)
		} else {
			m.message = "Solution: " + v.Target
		}
	case key.Matches(msg, m.keys.Timed):
		return m.toggleChallenge()
	}
	return m, nil
}

// handleMouse maps a press on a letter, motion and release over a gap onto
// the touch gesture.
func (m *Model) handleMouse(msg tea.MouseMsg) {
	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return
		}
		if i, ok := m.letterAt(msg.X, msg.Y); ok {
			m.apply(input.StartTouch(i))
			m.keyboard = false
		}
	case tea.MouseActionMotion:
		if m.gesture.Active {
			m.apply(input.MoveTouch(m.gapAt(msg.X, msg.Y)))
		}
	case tea.MouseActionRelease:
		if m.gesture.Active {
			m.apply(input.EndTouch(m.gapAt(msg.X, msg.Y)))
		}
	}
}

// letterAt returns the letter under a screen cell.
func (m Model) letterAt(x, y int) (int, bool) {
	if y != rowY || x < marginX {
		return 0, false
	}
	p := x - marginX
	i := p / unitWidth
	if p%unitWidth == 0 || i >= len(m.view.Letters) {
		return 0, false
	}
	return i, true
}

// gapAt returns the gap closest to a screen cell on the letter row, or
// input.NoGap off the row.
func (m Model) gapAt(x, y int) int {
	if y != rowY || x < marginX {
		return input.NoGap
	}
	p := x - marginX
	n := len(m.view.Letters)
	if p > n*unitWidth {
		return input.NoGap
	}
	// the gap column itself, or the nearer side of a letter cell
	g := (p + unitWidth/2) / unitWidth
	return min(g, n)
}

// apply feeds ev to the gesture reducer and performs a completed move.
func (m *Model) apply(ev input.Event) {
	st, mv := input.Reduce(m.gesture, ev)
	m.gesture = st
	if mv == nil {
		return
	}
	res, err := m.sess.Move(mv.From, mv.To)
	m.view = res.View
	if err != nil {
		m.setError(err)
		return
	}
	m.cursor = min(mv.To, len(m.view.Letters)-1)
	switch {
	case res.SolvedWord != "" && res.Challenge != nil:
		m.message = fmt.Sprintf("%s! Next word.", res.SolvedWord)
		m.cursor = 0
	case res.SolvedWord != "":
		m.message = "Solved: " + res.SolvedWord
	default:
		m.message = ""
	}
}

func (m *Model) newPuzzle() error {
	v, err := m.sess.NewPuzzle()
	m.view = v
	if err != nil {
		return err
	}
	m.cursor = 0
	m.gesture = input.State{Hover: input.NoGap}
	m.message = ""
	if m.save != nil {
		if err := m.save(m.sess.History()); err != nil {
			log.Warn().Err(err).Msg("persist history")
		}
	}
	return nil
}

// toggleChallenge starts a countdown from idle and stops a running or
// finished one.
func (m Model) toggleChallenge() (tea.Model, tea.Cmd) {
	m.gen++
	if m.sess.ChallengeSnapshot().State == challenge.StateIdle {
		v, err := m.sess.StartChallenge()
		m.view = v
		if err != nil {
			m.setError(err)
			return m, nil
		}
		m.cursor = 0
		m.gesture = input.State{Hover: input.NoGap}
		m.message = "Challenge started."
		return m, tickCmd(m.gen)
	}
	m.view = m.sess.StopChallenge()
	m.message = "Challenge stopped."
	return m, nil
}

func (m Model) handleTick(msg tickMsg) (tea.Model, tea.Cmd) {
	if msg.gen != m.gen {
		return m, nil
	}
	ev, snap := m.sess.Tick()
	m.view = m.sess.View()
	switch ev {
	case challenge.EventNone:
		return m, nil
	case challenge.EventWarning:
		m.message = fmt.Sprintf("%d seconds left!", snap.Remaining)
	case challenge.EventEnded:
		m.gesture = input.State{Hover: input.NoGap}
		m.message = fmt.Sprintf("Time is up: %d solved. Press c to reset.", snap.Successes)
		return m, nil
	}
	return m, tickCmd(m.gen)
}

func (m *Model) setError(err error) {
	switch {
	case errors.Is(err, game.ErrChallengeOver):
		m.message = "Time is up. Press c to reset."
	case errors.Is(err, game.ErrFinished):
		m.message = "Already solved. Press n for a new word."
	default:
		m.message = err.Error()
	}
}

// View renders the screen
func (m Model) View() string {
	lines := []string{
		TitleStyle.Render("Buchstabensalat"),
		m.renderStatus(),
		"",
		m.renderLetters(),
		"",
		MessageStyle.Render(m.message),
		"",
		m.help.View(m.keys),
	}
	pad := strings.Repeat(" ", marginX)
	return pad + strings.Join(lines, "\n"+pad)
}

func (m Model) renderStatus() string {
	c := m.view.Challenge
	if c == nil {
		return StatusStyle.Render(fmt.Sprintf("moves: %d", m.view.Moves))
	}
	clock := fmt.Sprintf("%d:%02d", c.Remaining/60, c.Remaining%60)
	status := fmt.Sprintf("challenge %s  solved: %d", clock, c.Successes)
	if c.Warning || c.State == challenge.StateEnded {
		return WarningStyle.Render(status)
	}
	return StatusStyle.Render(status)
}

func (m Model) renderLetters() string {
	hover := m.gesture.Hover
	if m.gesture.Active && m.keyboard {
		hover = m.gap
	}
	solved := m.view.State != game.StatePlaying

	var b strings.Builder
	for i, l := range m.view.Letters {
		b.WriteString(m.renderGap(i, hover))
		cell := " " + l + " "
		switch {
		case solved:
			b.WriteString(SolvedStyle.Render(cell))
		case m.gesture.Active && i == m.gesture.From:
			b.WriteString(PickedStyle.Render(cell))
		case !m.gesture.Active && i == m.cursor:
			b.WriteString(CursorStyle.Render(cell))
		default:
			b.WriteString(LetterStyle.Render(cell))
		}
	}
	b.WriteString(m.renderGap(len(m.view.Letters), hover))
	return b.String()
}

func (m Model) renderGap(i, hover int) string {
	if i == hover {
		return GapStyle.Render("│")
	}
	return " "
}

// Run starts the full-screen program.
func Run(sess *game.Session, save HistorySaver) error {
	m, err := New(sess, save)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion()).Run()
	return err
}
