package security

import (
	"errors"
	"math/big"
	"strings"
)

const base36Alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// maxBase36Digits bounds decoder input so that attacker-supplied timestamps
// stay small.
const maxBase36Digits = 13

var (
	ErrNegativeBase36 = errors.New("negative base36 conversion input")
	ErrBase36TooLarge = errors.New("base36 input too large")
	ErrInvalidBase36  = errors.New("invalid base36 input")
	ErrBase36Overflow = errors.New("base36 value overflows int64")
)

// Base36Encode converts a non-negative integer to lower-case base36.
func Base36Encode(n int64) (string, error) {
	if n < 0 {
		return "", ErrNegativeBase36
	}
	if n < 36 {
		return base36Alphabet[n : n+1], nil
	}

	var buf [maxBase36Digits]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = base36Alphabet[n%36]
		n /= 36
	}
	return string(buf[i:]), nil
}

// Base36Decode converts base36 text (either case) back to an int64.
// It accepts the same input as Base36DecodeBig but returns ErrBase36Overflow
// for 13-digit values above math.MaxInt64, such as "xxxxxxxxxxxxx". Use
// Base36DecodeBig when every input of up to 13 digits must decode.
func Base36Decode(s string) (int64, error) {
	v, err := Base36DecodeBig(s)
	if err != nil {
		return 0, err
	}
	if !v.IsInt64() {
		return 0, ErrBase36Overflow
	}
	return v.Int64(), nil
}

// Base36DecodeBig decodes any base36 text of 1 to 13 digits. Thirteen
// digits can exceed int64, so callers that need the full accepted range use
// this form.
func Base36DecodeBig(s string) (*big.Int, error) {
	if len(s) > maxBase36Digits {
		return nil, ErrBase36TooLarge
	}
	if s == "" {
		return nil, ErrInvalidBase36
	}

	s = strings.ToLower(s)
	for i := 0; i < len(s); i++ {
		if strings.IndexByte(base36Alphabet, s[i]) < 0 {
			return nil, ErrInvalidBase36
		}
	}

	v, ok := new(big.Int).SetString(s, 36)
	if !ok {
		return nil, ErrInvalidBase36
	}
	return v, nil
}
