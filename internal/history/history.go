// Package history keeps the bounded list of recently presented words so that
// new puzzles avoid immediate repeats.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"slices"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

// Capacity is the default number of remembered words.
const Capacity = 50

// Tracker is a most-recent-first list of words with a fixed capacity.
// It is not safe for concurrent use; callers serialise access.
type Tracker struct {
	words    []string
	capacity int
}

// New returns an empty tracker holding at most capacity words.
func New(capacity int) *Tracker {
	if capacity <= 0 {
		capacity = Capacity
	}
	return &Tracker{capacity: capacity}
}

// FromWords builds a tracker from a most-recent-first list, truncated to capacity.
func FromWords(capacity int, words []string) *Tracker {
	t := New(capacity)
	t.words = slices.Clone(words[:min(len(words), t.capacity)])
	return t
}

// Record puts w at the front, evicting the oldest word beyond capacity.
func (t *Tracker) Record(w string) {
	t.words = append([]string{w}, t.words...)
	if len(t.words) > t.capacity {
		t.words = t.words[:t.capacity]
	}
}

func (t *Tracker) Contains(w string) bool { return slices.Contains(t.words, w) }

// Words returns a copy, most recent first.
func (t *Tracker) Words() []string { return slices.Clone(t.words) }

func (t *Tracker) Len() int { return len(t.words) }

func (t *Tracker) Clear() { t.words = nil }

// Retain drops every word for which keep returns false.
func (t *Tracker) Retain(keep func(string) bool) {
	t.words = lo.Filter(t.words, func(w string, _ int) bool { return keep(w) })
}

// KV is the persistence collaborator for a tracker.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
}

// ErrNotFound is what KV implementations return for an unknown key.
var ErrNotFound = errors.New("history: key not found")

// Load restores the tracker stored under key. Missing, unreadable, or corrupt
// values yield an empty tracker. Words rejected by known are dropped, so a
// changed word list never resurfaces stale entries.
func Load(ctx context.Context, kv KV, key string, known func(string) bool) *Tracker {
	t := New(Capacity)
	raw, err := kv.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			log.Warn().Err(err).Str("key", key).Msg("read history, starting empty")
		}
		return t
	}
	var words []string
	if err := json.Unmarshal(raw, &words); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("parse history, starting empty")
		return t
	}
	t = FromWords(Capacity, words)
	if known != nil {
		t.Retain(known)
	}
	return t
}

// Save writes the tracker under key as a JSON array.
func Save(ctx context.Context, kv KV, key string, t *Tracker) error {
	words := t.Words()
	if words == nil {
		words = []string{}
	}
	raw, err := json.Marshal(words)
	if err != nil {
		return err
	}
	return kv.Put(ctx, key, raw)
}
