// Package words loads the puzzle dictionary and indexes it by anagram key.
//
// Word sources, in order:
//  1. a newline-delimited UTF-8 file named by the caller (flag --words),
//  2. the list embedded in the assets package,
//  3. a small built-in fallback list when the first two fail or yield nothing.
//
// Every line is trimmed and upper-cased with German case rules (so "ß" becomes
// "SS"), and kept only if it has between MinLength and MaxLength letters.
package words

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/buchstabensalat/salad/assets"
)

const (
	MinLength = 4
	MaxLength = 9
)

// ErrEmpty is returned when a source yields no usable word.
var ErrEmpty = errors.New("words: no usable words")

// Fallback is used when no word source could be read.
var Fallback = []string{
	"HASE", "HAUS", "BUCH", "TISCH", "STUHL",
	"MAUS", "BROT", "WELT", "WALD", "BERG",
	"MEER", "MOND", "SONNE", "BLUME", "BAUM",
	"MÖRDER", "SCHLOSS", "HALUNKE",
}

// Dictionary is an immutable, ordered word list with an anagram index.
// It is safe for concurrent use.
type Dictionary struct {
	words  []string
	set    map[string]struct{}
	groups map[string][]string // anagram key -> words in list order
}

// New normalises and filters list into a Dictionary. Duplicates keep their
// first position.
func New(list []string) (*Dictionary, error) {
	normalized := lo.Uniq(lo.FilterMap(list, func(line string, _ int) (string, bool) {
		w := Normalize(line)
		return w, usable(w)
	}))
	if len(normalized) == 0 {
		return nil, ErrEmpty
	}
	d := &Dictionary{
		words:  normalized,
		set:    make(map[string]struct{}, len(normalized)),
		groups: lo.GroupBy(normalized, Key),
	}
	for _, w := range normalized {
		d.set[w] = struct{}{}
	}
	return d, nil
}

// Parse reads one word per line from r. Lines starting with '#' are comments.
func Parse(r io.Reader) (*Dictionary, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("words: scan: %w", err)
	}
	return New(lines)
}

// Load returns the dictionary from path, or the embedded list when path is
// empty. It never fails: unreadable or empty sources fall back to Fallback.
func Load(path string) *Dictionary {
	d, err := load(path)
	if err == nil {
		log.Info().Str("source", sourceName(path)).Int("words", d.Len()).Msg("dictionary loaded")
		return d
	}
	log.Warn().Err(err).Str("source", sourceName(path)).Msg("dictionary unavailable, using fallback words")
	d, err = New(Fallback)
	if err != nil {
		// Fallback is a compile-time constant list.
		panic(err)
	}
	return d
}

func load(path string) (*Dictionary, error) {
	if path == "" {
		lines, err := assets.WordLines()
		if err != nil {
			return nil, err
		}
		return New(lines)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

func sourceName(path string) string {
	if path == "" {
		return "embedded"
	}
	return path
}

// Normalize trims s and upper-cases it using German case mapping.
func Normalize(s string) string {
	// A Caser keeps state between calls, so each call gets its own.
	return cases.Upper(language.German).String(strings.TrimSpace(s))
}

func usable(w string) bool {
	n := utf8.RuneCountInString(w)
	return n >= MinLength && n <= MaxLength
}

// Key returns the anagram key of w: its letters in sorted order.
func Key(w string) string {
	r := []rune(w)
	slices.Sort(r)
	return string(r)
}

// Anagrams returns every dictionary word sharing w's anagram key, in list
// order. A dictionary word is always part of its own result.
func (d *Dictionary) Anagrams(w string) []string {
	return slices.Clone(d.groups[Key(Normalize(w))])
}

// Contains reports whether w (normalised) is in the dictionary.
func (d *Dictionary) Contains(w string) bool {
	_, ok := d.set[Normalize(w)]
	return ok
}

// Words returns a copy of the ordered word list.
func (d *Dictionary) Words() []string { return slices.Clone(d.words) }

// Len is the number of distinct words.
func (d *Dictionary) Len() int { return len(d.words) }

// Stats returns the word count and the number of anagram groups with more
// than one member.
func (d *Dictionary) Stats() (words int, anagramGroups int) {
	groups := lo.CountBy(lo.Values(d.groups), func(g []string) bool { return len(g) > 1 })
	return len(d.words), groups
}
