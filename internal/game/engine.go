// Core game engine for a single puzzle.
// Responsibilities:
//   - Pick a word the player has not seen recently.
//   - Scramble it into an order different from the word itself.
//   - Apply single-letter moves (remove at index, insert at gap).
//   - Detect the win: any dictionary anagram of the target counts.
//
// Notes:
//   - Words come from the words package, recent words from the history package.
//   - The default random source draws from crypto/rand.
package game

import (
	"crypto/rand"
	"errors"
	"math/big"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/buchstabensalat/salad/internal/history"
	"github.com/buchstabensalat/salad/internal/words"
)

var (
	ErrInvalidMove   = errors.New("invalid move")
	ErrFinished      = errors.New("puzzle finished")
	ErrUnscramblable = errors.New("word cannot be scrambled")
	ErrNoWords       = errors.New("no playable words")
)

// minCandidates is the smallest pool of unseen words we draw from before the
// history is forgotten and the whole dictionary is eligible again.
const minCandidates = 10

// Pick chooses the next word. Words in hist are skipped while at least
// minCandidates others remain; otherwise hist is cleared and every word is
// eligible. The chosen word is recorded in hist.
func Pick(dict *words.Dictionary, hist *history.Tracker, rng Rand) (string, error) {
	all := lo.Filter(dict.Words(), func(w string, _ int) bool { return scramblable([]rune(w)) })
	if len(all) == 0 {
		return "", ErrNoWords
	}
	candidates := lo.Filter(all, func(w string, _ int) bool { return !hist.Contains(w) })
	if len(candidates) < minCandidates {
		candidates = all
		hist.Clear()
	}
	w := candidates[rng.IntN(len(candidates))]
	hist.Record(w)
	return w, nil
}

// Start deals a new puzzle from dict, avoiding the words in hist.
func Start(dict *words.Dictionary, hist *history.Tracker, rng Rand) (*Puzzle, error) {
	target, err := Pick(dict, hist, rng)
	if err != nil {
		return nil, err
	}
	return NewPuzzle(target, dict.Anagrams(target), rng)
}

// NewPuzzle scrambles target. anagrams lists the accepted solutions; target
// is always accepted.
func NewPuzzle(target string, anagrams []string, rng Rand) (*Puzzle, error) {
	letters, err := Scramble(target, rng)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(anagrams, target) {
		anagrams = append(slices.Clone(anagrams), target)
	}
	return &Puzzle{
		ID:        uuid.NewString(),
		Target:    target,
		Letters:   letters,
		Anagrams:  anagrams,
		StartedAt: time.Now(),
	}, nil
}

// Scramble returns a random permutation of word's letters that differs from
// word. Words with fewer than two letters, or made of one repeated letter,
// have no such permutation and yield ErrUnscramblable.
func Scramble(word string, rng Rand) ([]rune, error) {
	letters := []rune(word)
	if !scramblable(letters) {
		return nil, ErrUnscramblable
	}
	out := slices.Clone(letters)
	for slices.Equal(out, letters) {
		// Fisher–Yates
		for i := len(out) - 1; i > 0; i-- {
			j := rng.IntN(i + 1)
			out[i], out[j] = out[j], out[i]
		}
	}
	return out, nil
}

func scramblable(letters []rune) bool {
	if len(letters) < 2 {
		return false
	}
	return slices.ContainsFunc(letters[1:], func(r rune) bool { return r != letters[0] })
}

// Move takes the letter at from and inserts it into gap to, where gap k is
// the slot before letter k and gap len(Letters) the slot after the last one.
// On ABCD, Move(0, 3) gives BCAD; moving A to the end is Move(0, 4).
// It reports whether the puzzle is solved afterwards.
//
// Errors:
//   - ErrFinished when the puzzle is already solved or revealed.
//   - ErrInvalidMove when from or to is out of range; the order is unchanged.
func (p *Puzzle) Move(from, to int) (bool, error) {
	if p.Solved {
		return true, ErrFinished
	}
	n := len(p.Letters)
	if from < 0 || from >= n || to < 0 || to > n {
		return false, ErrInvalidMove
	}
	p.Letters = moveLetter(p.Letters, from, to)
	p.Moves++
	return p.CheckSolved(), nil
}

// moveLetter removes the element at from and re-inserts it at gap to,
// shifting to down by one when it lies after from.
func moveLetter(letters []rune, from, to int) []rune {
	r := letters[from]
	out := slices.Delete(slices.Clone(letters), from, from+1)
	if to > from {
		to--
	}
	return slices.Insert(out, to, r)
}

// CheckSolved marks the puzzle solved when the current arrangement spells
// any accepted anagram of the target.
func (p *Puzzle) CheckSolved() bool {
	if !p.Solved && slices.Contains(p.Anagrams, p.Arrangement()) {
		p.Solved = true
	}
	return p.Solved
}

// Reveal puts the letters in target order and ends the puzzle. It does
// nothing once the puzzle is solved.
func (p *Puzzle) Reveal() {
	if p.Solved {
		return
	}
	p.Letters = []rune(p.Target)
	p.Solved = true
	p.Revealed = true
}

// Arrangement is the current letter order as a string.
func (p *Puzzle) Arrangement() string { return string(p.Letters) }

// State reports a coarse state of the puzzle.
func (p *Puzzle) State() State {
	switch {
	case p.Revealed:
		return StateRevealed
	case p.Solved:
		return StateSolved
	}
	return StatePlaying
}

// cryptoRand draws uniformly from crypto/rand.
type cryptoRand struct{}

func (cryptoRand) IntN(n int) int {
	nBig, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0
	}
	return int(nBig.Int64())
}

// DefaultRand is the random source used when none is injected.
var DefaultRand Rand = cryptoRand{}
