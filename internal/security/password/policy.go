package password

import (
	"errors"
)

// MaxLen bounds input accepted from untrusted callers; analysis itself has no limit.
const MaxLen = 256

var (
	ErrEmpty   = errors.New("weak_password.empty")
	ErrTooLong = errors.New("weak_password.too_long")
)

// CheckInput rejects input that callers should not analyze. Whitespace is kept
// as typed because it is part of the password.
func CheckInput(pwd string) error {
	if pwd == "" {
		return ErrEmpty
	}
	if length(pwd) > MaxLen {
		return ErrTooLong
	}
	return nil
}
