package password

// Score weights. Pattern penalties apply at most once each, however many times
// the pattern occurs; leak penalties apply per warning.
const (
	bonusLength12 = 25
	bonusLength8  = 15
	bonusLength6  = 5

	bonusLower   = 10
	bonusUpper   = 10
	bonusDigit   = 10
	bonusSpecial = 15

	penaltySingleClass = 30
	penaltyCommon      = 20
	penaltyRepeated    = 15
	penaltySequential  = 25
	penaltyKeyboard    = 20

	penaltyPersonal = 15
	penaltyWordlist = 10
)

// Score computes the 0..100 strength score for pwd.
func Score(pwd string, cfg Config) int {
	return inspect(pwd, cfg).score()
}

func (f findings) score() int {
	s := lengthBonus(f.length)

	if f.classes.lower {
		s += bonusLower
	}
	if f.classes.upper {
		s += bonusUpper
	}
	if f.classes.digit {
		s += bonusDigit
	}
	if f.classes.special {
		s += bonusSpecial
	}

	p := f.patterns
	if p.NumbersOnly || p.LettersOnly {
		s -= penaltySingleClass
	}
	if p.HasCommonSubstring {
		s -= penaltyCommon
	}
	if p.HasRepeatedRun {
		s -= penaltyRepeated
	}
	if p.HasSequentialRun {
		s -= penaltySequential
	}
	if p.HasKeyboardRun {
		s -= penaltyKeyboard
	}

	s -= len(f.personal) * penaltyPersonal
	if f.listOn {
		s -= len(f.wordlist) * penaltyWordlist
	}

	return max(0, min(s, 100))
}

// lengthBonus awards exactly one band.
func lengthBonus(n int) int {
	switch {
	case n >= 12:
		return bonusLength12
	case n >= 8:
		return bonusLength8
	case n >= 6:
		return bonusLength6
	default:
		return 0
	}
}
