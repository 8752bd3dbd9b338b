package validate

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	MaxProfileFields = 16
	MaxProfileValue  = 128
)

var (
	ErrInvalid = errors.New("invalid")
	fieldKeyRe = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9]{0,31}$`)
)

// RequireBounded trims and ensures length bounds.
func RequireBounded(name, s string, min, max int) (string, error) {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) < min || utf8.RuneCountInString(s) > max {
		return "", errors.New(name + " must be between " + strconv.Itoa(min) + " and " + strconv.Itoa(max) + " characters")
	}
	return s, nil
}

// ProfileInput checks a decoded profile document: at most MaxProfileFields keys,
// camelCase keys, scalar values no longer than MaxProfileValue characters.
// Null and blank values are allowed; they clear the field. Object and array
// values pass and are dropped when the profile is built.
func ProfileInput(raw map[string]any) error {
	if len(raw) > MaxProfileFields {
		return fmt.Errorf("%w: at most %d profile fields", ErrInvalid, MaxProfileFields)
	}
	for k, v := range raw {
		if !fieldKeyRe.MatchString(k) {
			return fmt.Errorf("%w: field name %q", ErrInvalid, k)
		}
		switch t := v.(type) {
		case nil, bool, float64, map[string]any, []any:
		case string:
			if _, err := RequireBounded(k, t, 0, MaxProfileValue); err != nil {
				return fmt.Errorf("%w: %v", ErrInvalid, err)
			}
		default:
			if _, ok := v.(fmt.Stringer); ok {
				// json.Number under UseNumber
				if utf8.RuneCountInString(fmt.Sprint(v)) > MaxProfileValue {
					return fmt.Errorf("%w: %s too long", ErrInvalid, k)
				}
				continue
			}
			return fmt.Errorf("%w: %s must be a string", ErrInvalid, k)
		}
	}
	return nil
}

// ParseLimit parses a page size: blank or malformed means def, values above max are clamped.
func ParseLimit(raw string, def, max int) int {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	switch {
	case err != nil || v < 1:
		return def
	case v > max:
		return max
	}
	return v
}
