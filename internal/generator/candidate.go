package generator

import (
	"crypto/sha256"
	"math/big"
	"strconv"
)

// MaxLength is the longest candidate a SHA-256 digest can yield in base62.
const MaxLength = 43

// Candidate returns the short identifier proposed for destination on the given attempt.
// The same arguments always produce the same value. The result is the base62 form of
// SHA-256(destination + attempt) truncated to length; it is never padded, so it may be
// shorter than requested when the digest encodes to fewer symbols.
func Candidate(destination string, length, attempt int) string {
	if length <= 0 {
		return ""
	}

	sum := sha256.Sum256([]byte(destination + strconv.Itoa(attempt)))
	id := EncodeBig(new(big.Int).SetBytes(sum[:]))
	if len(id) > length {
		id = id[:length]
	}
	return id
}
