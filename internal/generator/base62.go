package generator

import (
	"errors"
	"math/big"
	"strings"
)

// Alphabet lists the base62 symbols in value order: digits, then lowercase, then uppercase.
// Value 0 is '0', 10 is 'a', 36 is 'A' and 61 is 'Z'.
const Alphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

const base = uint64(len(Alphabet))

var (
	ErrEmptyInput    = errors.New("empty base62 string")
	ErrInvalidSymbol = errors.New("invalid base62 symbol")
	ErrOverflow      = errors.New("base62 value overflows uint64")
)

var bigBase = big.NewInt(int64(base))

// Encode converts n to base62, most significant digit first.
func Encode(n uint64) string {
	if n == 0 {
		return Alphabet[:1]
	}

	// 62^11 > 2^64, so eleven symbols always suffice.
	var buf [11]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = Alphabet[n%base]
		n /= base
	}
	return string(buf[i:])
}

// EncodeBig converts an arbitrary non-negative integer to base62.
// Negative or nil values encode as zero.
func EncodeBig(n *big.Int) string {
	if n == nil || n.Sign() <= 0 {
		return Alphabet[:1]
	}

	var digits []byte
	rem := new(big.Int)
	q := new(big.Int).Set(n)
	for q.Sign() > 0 {
		q.QuoRem(q, bigBase, rem)
		digits = append(digits, Alphabet[rem.Int64()])
	}

	for i, j := 0, len(digits)-1; i < j; i, j = i+1, j-1 {
		digits[i], digits[j] = digits[j], digits[i]
	}
	return string(digits)
}

// Decode is the inverse of Encode.
func Decode(s string) (uint64, error) {
	if s == "" {
		return 0, ErrEmptyInput
	}

	var n uint64
	for i := 0; i < len(s); i++ {
		v := strings.IndexByte(Alphabet, s[i])
		if v < 0 {
			return 0, ErrInvalidSymbol
		}
		if n > (^uint64(0)-uint64(v))/base {
			return 0, ErrOverflow
		}
		n = n*base + uint64(v)
	}
	return n, nil
}

// IsBase62 reports whether s is non-empty and uses only alphabet symbols.
func IsBase62(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if strings.IndexByte(Alphabet, s[i]) < 0 {
			return false
		}
	}
	return true
}
