package password

import (
	"strings"
	"unicode/utf8"
)

// SpecialChars is the set of symbols that count as special characters.
const SpecialChars = `!@#$%^&*(),.?":{}|<>`

type classes struct {
	lower, upper, digit, special bool
}

func classify(pwd string) classes {
	var c classes
	for _, r := range pwd {
		switch {
		case r >= 'a' && r <= 'z':
			c.lower = true
		case r >= 'A' && r <= 'Z':
			c.upper = true
		case r >= '0' && r <= '9':
			c.digit = true
		case strings.ContainsRune(SpecialChars, r):
			c.special = true
		}
	}
	return c
}

// size is the brute-force alphabet implied by the classes present, never below 1.
func (c classes) size() int {
	n := 0
	if c.lower {
		n += 26
	}
	if c.upper {
		n += 26
	}
	if c.digit {
		n += 10
	}
	if c.special {
		n += 32
	}
	if n == 0 {
		return 1
	}
	return n
}

// CharsetSize reports the alphabet size used for the crack-time estimate.
func CharsetSize(pwd string) int { return classify(pwd).size() }

// length counts characters, not bytes.
func length(pwd string) int { return utf8.RuneCountInString(pwd) }
