package utils

import (
	"crypto/rand"
	"math/big"
)

// Alphabet without look-alike characters (0/O, 1/l).
const alphanumeric = "abcdefghjkmnpqrstuvwxyz23456789"

// GenerateRandomString returns a random string of n characters.
func GenerateRandomString(n int) string {
	result := make([]byte, n)
	for i := 0; i < n; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphanumeric))))
		if err != nil {
			// fallback when crypto/rand is unavailable
			result[i] = alphanumeric[i%len(alphanumeric)]
			continue
		}
		result[i] = alphanumeric[num.Int64()]
	}
	return string(result)
}

// GenerateSlugSuffix returns the short suffix appended to a slug on
// collision.
func GenerateSlugSuffix() string {
	return GenerateRandomString(6)
}
