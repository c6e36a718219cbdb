package app

import (
	"unicode/utf8"

	"github.com/dkeye/Cipher/internal/domain"
)

// KeyPolicy bounds the length of a room secret, counted in characters.
type KeyPolicy struct {
	Min int
	Max int
}

func (p KeyPolicy) Check(secret string) error {
	n := utf8.RuneCountInString(secret)
	if n < p.Min || n > p.Max {
		return domain.KeyLengthError(p.Min, p.Max)
	}
	return nil
}
