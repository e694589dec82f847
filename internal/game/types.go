// Core type definitions for the puzzle engine.
//
// Defines:
//   - State: coarse puzzle state (playing/solved/revealed).
//   - Puzzle: one scrambled word and the player's current arrangement.
//   - Rand: the random source used for word choice and scrambling.

package game

import "time"

// State is the coarse state of a puzzle.
type State string

const (
	StatePlaying  State = "playing"
	StateSolved   State = "solved"
	StateRevealed State = "revealed"
)

// Puzzle holds one round of the game.
type Puzzle struct {
	ID        string    // Unique puzzle identifier (uuid).
	Target    string    // The word that was scrambled (uppercase).
	Letters   []rune    // Current arrangement; always a permutation of Target.
	Anagrams  []string  // Dictionary words accepted as a solution (includes Target).
	Solved    bool      // True once the arrangement spelled one of Anagrams.
	Revealed  bool      // True when the solution was shown instead of found.
	Moves     int       // Successful letter moves so far.
	StartedAt time.Time // When the puzzle was dealt.
}

// Rand is satisfied by *math/rand/v2.Rand; tests use seeded sources.
type Rand interface {
	IntN(n int) int
}
