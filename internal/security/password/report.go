package password

import "fmt"

// Weaknesses lists what is wrong with pwd, most general first.
func Weaknesses(pwd string, cfg Config) []string {
	return inspect(pwd, cfg).weaknesses()
}

// Suggestions lists what would improve pwd.
func Suggestions(pwd string, cfg Config) []string {
	return inspect(pwd, cfg).suggestions()
}

func (f findings) weaknesses() []string {
	out := make([]string, 0, 8+len(f.personal)+len(f.wordlist))
	if f.length < 8 {
		out = append(out, "Password is too short (less than 8 characters)")
	}

	p := f.patterns
	if p.NumbersOnly {
		out = append(out, "Contains only numbers")
	}
	if p.LettersOnly {
		out = append(out, "Contains only letters")
	}
	if p.HasCommonSubstring {
		out = append(out, "Contains common patterns (123, abc, etc.)")
	}
	if p.HasRepeatedRun {
		out = append(out, "Contains repeated characters")
	}
	if p.HasSequentialRun {
		out = append(out, "Contains sequential characters")
	}
	if p.HasKeyboardRun {
		out = append(out, "Contains keyboard patterns")
	}

	out = append(out, f.personal...)
	if f.listOn {
		out = append(out, f.wordlist...)
	}
	return out
}

func (f findings) suggestions() []string {
	out := make([]string, 0, 9)
	if f.length < 12 {
		out = append(out, fmt.Sprintf("Increase length to at least 12 characters (currently %d)", f.length))
	}

	if !f.classes.upper {
		out = append(out, "Add uppercase letters")
	}
	if !f.classes.lower {
		out = append(out, "Add lowercase letters")
	}
	if !f.classes.digit {
		out = append(out, "Add numbers")
	}
	if !f.classes.special {
		out = append(out, "Add special characters")
	}

	p := f.patterns
	if p.HasCommonSubstring {
		out = append(out, "Avoid common patterns like '123' or 'abc'")
	}
	if p.HasSequentialRun {
		out = append(out, "Avoid sequential characters")
	}
	if p.HasKeyboardRun {
		out = append(out, "Avoid keyboard patterns")
	}
	if p.HasRepeatedRun {
		out = append(out, "Avoid repeated characters")
	}
	return out
}
