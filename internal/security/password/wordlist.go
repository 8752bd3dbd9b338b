package password

import (
	"bufio"
	_ "embed"
	"fmt"
	"io"
	"strings"
)

//go:embed wordlist.txt
var seedRaw string

var seed = mustParseSeed()

// Wordlist is an ordered list of known-weak passwords plus an on/off switch.
// Entries are stored lowercased; repeats are kept and each one counts.
type Wordlist struct {
	words   []string
	Enabled bool
}

// NewWordlist copies words into a Wordlist, lowercasing and dropping blank entries.
func NewWordlist(words []string, enabled bool) Wordlist {
	out := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			out = append(out, w)
		}
	}
	return Wordlist{words: out, Enabled: enabled}
}

// DefaultWordlist returns the built-in seed, disabled.
func DefaultWordlist() Wordlist {
	return Wordlist{words: seed}
}

// SeedWords returns a copy of the built-in seed.
func SeedWords() []string {
	return append([]string(nil), seed...)
}

// WithEnabled returns a copy of w with the switch set to on.
func (w Wordlist) WithEnabled(on bool) Wordlist {
	w.Enabled = on
	return w
}

// Words returns a copy of the entries.
func (w Wordlist) Words() []string {
	return append([]string(nil), w.words...)
}

func (w Wordlist) Len() int { return len(w.words) }

// ParseWordlist reads one entry per line. Blank lines and lines starting with '#' are skipped.
func ParseWordlist(r io.Reader) ([]string, error) {
	var words []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words = append(words, strings.ToLower(line))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read wordlist: %w", err)
	}
	return words, nil
}

func mustParseSeed() []string {
	words, err := ParseWordlist(strings.NewReader(seedRaw))
	if err != nil {
		panic(err)
	}
	return words
}

// MatchWordlist warns once per entry contained in pwd. A disabled list matches nothing.
func MatchWordlist(pwd string, w Wordlist) []string {
	if !w.Enabled {
		return nil
	}
	var warnings []string
	lower := strings.ToLower(pwd)
	for _, word := range w.words {
		if strings.Contains(lower, word) {
			warnings = append(warnings, fmt.Sprintf("Contains common weak password: '%s'", word))
		}
	}
	return warnings
}
