package password

import "strings"

// Patterns flags low-entropy structure in a password.
type Patterns struct {
	NumbersOnly        bool `json:"numbers_only"`
	LettersOnly        bool `json:"letters_only"`
	HasCommonSubstring bool `json:"has_common_substring"`
	HasRepeatedRun     bool `json:"has_repeated_run"`
	HasSequentialRun   bool `json:"has_sequential_run"`
	HasKeyboardRun     bool `json:"has_keyboard_run"`
}

var commonSubstrings = []string{"123", "abc", "qwe", "asd", "zxc"}

var sequences = []string{
	"123", "234", "345", "456", "567", "678", "789", "890",
	"abc", "bcd", "cde", "def", "efg", "fgh", "ghi", "hij", "ijk", "jkl", "klm", "lmn",
	"mno", "nop", "opq", "pqr", "qrs", "rst", "stu", "tuv", "uvw", "vwx", "wxy", "xyz",
	"qwe", "wer", "ert", "rty", "tyu", "yui", "uio", "iop",
	"asd", "sdf", "dfg", "fgh", "ghj", "hjk", "jkl",
	"zxc", "xcv", "cvb", "vbn", "bnm",
}

var keyboardRows = []string{
	"qwertyuiop",
	"asdfghjkl",
	"zxcvbnm",
	"1234567890",
}

// ExtractPatterns derives the pattern flags for pwd.
//
// The sequential catalog and the keyboard rows overlap on purpose: both checks
// carry their own penalty and a password can trip both.
func ExtractPatterns(pwd string) Patterns {
	lower := strings.ToLower(pwd)
	return Patterns{
		NumbersOnly:        pwd != "" && all(pwd, func(r rune) bool { return r >= '0' && r <= '9' }),
		LettersOnly:        pwd != "" && all(pwd, isASCIILetter),
		HasCommonSubstring: containsAny(lower, commonSubstrings),
		HasRepeatedRun:     hasRepeatedRun(pwd, 3),
		HasSequentialRun:   containsAny(lower, sequences),
		HasKeyboardRun:     hasKeyboardRun(lower),
	}
}

func isASCIILetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func all(s string, pred func(rune) bool) bool {
	for _, r := range s {
		if !pred(r) {
			return false
		}
	}
	return true
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// hasRepeatedRun reports whether some character repeats at least min times in a row.
// Line terminators never count towards a run.
func hasRepeatedRun(s string, min int) bool {
	var prev rune
	run := 0
	for _, r := range s {
		if isLineTerminator(r) {
			run = 0
			continue
		}
		if run > 0 && r == prev {
			run++
		} else {
			prev, run = r, 1
		}
		if run >= min {
			return true
		}
	}
	return false
}

func isLineTerminator(r rune) bool {
	return r == '\n' || r == '\r' || r == '\u2028' || r == '\u2029'
}

func hasKeyboardRun(lower string) bool {
	for _, row := range keyboardRows {
		for i := 0; i+3 <= len(row); i++ {
			if strings.Contains(lower, row[i:i+3]) {
				return true
			}
		}
	}
	return false
}
