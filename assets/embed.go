package assets

import (
	"bufio"
	"embed"
	"io/fs"
	"sort"
	"strings"
)

//go:embed words.txt sql/*.sql
var FS embed.FS

func readLines(name string) ([]string, error) {
	f, err := FS.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		out = append(out, s)
	}
	return out, sc.Err()
}

// WordLines returns the raw lines of the bundled word list (comments dropped).
func WordLines() ([]string, error) {
	return readLines("words.txt")
}

// Migrations lists the embedded migration files in lexical order.
func Migrations() ([]string, error) {
	names, err := fs.Glob(FS, "sql/*.sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}
