package words

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func TestParseFiltersAndNormalizes(t *testing.T) {
	in := strings.Join([]string{
		"  lampe ",
		"",
		"ab",
		"zehnbuchst",
		"# kommentar",
		"Rübe",
		"LAMPE",
		"straße",
	}, "\n")
	d, err := Parse(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := []string{"LAMPE", "RÜBE", "STRASSE"}
	if got := d.Words(); !slices.Equal(got, want) {
		t.Errorf("Words() = %v, want %v", got, want)
	}
}

func TestParseEmpty(t *testing.T) {
	_, err := Parse(strings.NewReader("ab\n\nxyz\n"))
	if !errors.Is(err, ErrEmpty) {
		t.Fatalf("err = %v, want ErrEmpty", err)
	}
}

func TestKey(t *testing.T) {
	tests := []struct{ in, want string }{
		{"LAMPE", "AELMP"},
		{"AMPEL", "AELMP"},
		{"RÜBE", "BERÜ"},
		{"ÜBER", "BERÜ"},
	}
	for _, tt := range tests {
		if got := Key(tt.in); got != tt.want {
			t.Errorf("Key(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// Mirrors the anagram expectations shipped with the word list.
func TestEmbeddedAnagramGroups(t *testing.T) {
	d := Load("")
	tests := []struct {
		word string
		want []string
	}{
		{"WINTER", []string{"WINTER", "WIRTEN"}},
		{"LAMPE", []string{"LAMPE", "PALME", "AMPEL"}},
		{"GANZE", []string{"GANZE", "ZANGE"}},
		{"NEBEL", []string{"NEBEL", "LEBEN"}},
		{"RÜBE", []string{"RÜBE", "ÜBER"}},
		{"SEIL", []string{"SEIL", "LIES"}},
		{"REGAL", []string{"REGAL", "LAGER"}},
		{"EIMER", []string{"EIMER", "REIME"}},
		{"STEIN", []string{"STEIN", "NIEST", "EINST"}},
		{"GARTEN", []string{"GARTEN", "TRAGEN"}},
	}
	for _, tt := range tests {
		t.Run(tt.word, func(t *testing.T) {
			got := d.Anagrams(tt.word)
			a, b := slices.Sorted(slices.Values(got)), slices.Sorted(slices.Values(tt.want))
			if !slices.Equal(a, b) {
				t.Errorf("Anagrams(%s) = %v, want %v", tt.word, got, tt.want)
			}
		})
	}
}

func TestEveryWordIsItsOwnAnagram(t *testing.T) {
	d := Load("")
	for _, w := range d.Words() {
		if !slices.Contains(d.Anagrams(w), w) {
			t.Errorf("Anagrams(%s) does not contain the word itself", w)
		}
	}
}

func TestLoadFallsBack(t *testing.T) {
	d := Load(filepath.Join(t.TempDir(), "missing.txt"))
	if d.Len() != len(Fallback) {
		t.Fatalf("Len() = %d, want %d", d.Len(), len(Fallback))
	}
	if !d.Contains("mörder") {
		t.Error("fallback should contain MÖRDER")
	}

	empty := filepath.Join(t.TempDir(), "empty.txt")
	if err := os.WriteFile(empty, []byte("ab\nc\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if d := Load(empty); d.Len() != len(Fallback) {
		t.Errorf("empty file: Len() = %d, want fallback", d.Len())
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "words.txt")
	if err := os.WriteFile(path, []byte("lampe\npalme\nampel\nhaus\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	d := Load(path)
	if d.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", d.Len())
	}
	words, groups := d.Stats()
	if words != 4 || groups != 1 {
		t.Errorf("Stats() = (%d, %d), want (4, 1)", words, groups)
	}
}
