// Package password scores password strength with fixed heuristic rules.
//
// Analyze is a pure function of the password and a Config snapshot; nothing in this
// package holds mutable state, so it is safe to call from any number of goroutines.
package password

// Config is the read-only input an analysis runs against.
type Config struct {
	Profile  Profile
	Wordlist Wordlist
}

// Result is the outcome of one analysis.
type Result struct {
	Score       int      `json:"score"` // 0..100
	CrackTime   string   `json:"crack_time"`
	Weaknesses  []string `json:"weaknesses"`
	Suggestions []string `json:"suggestions"`
}

// Analyze runs every check against pwd and assembles the report.
func Analyze(pwd string, cfg Config) Result {
	f := inspect(pwd, cfg)
	return Result{
		Score:       f.score(),
		CrackTime:   crackTimeLabel(keyspace(f.length, f.classes.size())),
		Weaknesses:  f.weaknesses(),
		Suggestions: f.suggestions(),
	}
}

// Strength maps a score onto a coarse band for display.
func (r Result) Strength() string {
	switch {
	case r.Score >= 80:
		return "strong"
	case r.Score >= 60:
		return "good"
	case r.Score >= 40:
		return "fair"
	default:
		return "weak"
	}
}

// findings holds everything derived from a single password so each check runs once.
type findings struct {
	length   int
	classes  classes
	patterns Patterns
	personal []string
	wordlist []string
	listOn   bool
}

func inspect(pwd string, cfg Config) findings {
	return findings{
		length:   length(pwd),
		classes:  classify(pwd),
		patterns: ExtractPatterns(pwd),
		personal: MatchPersonalInfo(pwd, cfg.Profile),
		wordlist: MatchWordlist(pwd, cfg.Wordlist),
		listOn:   cfg.Wordlist.Enabled,
	}
}
