// Package slug issues the random tokens used in public prompt links.
package slug

import (
	"github.com/google/uuid"
)

// Alphabet is URL-safe: letters, digits, '_' and '-'.
const Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789_-"

// DefaultLength is the slug length used when none is configured.
const DefaultLength = 10

// Generator returns a fresh slug. Services accept one so tests can pin it.
type Generator func() (string, error)

// New returns a random slug of n characters (DefaultLength if n <= 0).
//
// Each character consumes six random bits from a version-4 UUID; the version
// and variant bits are skipped, leaving 120 usable bits per UUID.
func New(n int) (string, error) {
	if n <= 0 {
		n = DefaultLength
	}
	out := make([]byte, 0, n)
	for len(out) < n {
		u, err := uuid.NewRandom()
		if err != nil {
			return "", err
		}
		for _, v := range randomSixBits(u) {
			out = append(out, Alphabet[v])
			if len(out) == n {
				break
			}
		}
	}
	return string(out), nil
}

// NewGenerator returns a Generator producing slugs of length n.
func NewGenerator(n int) Generator {
	return func() (string, error) { return New(n) }
}

// Valid reports whether s is shaped like a slug this package produces.
func Valid(s string) bool {
	if s == "" || len(s) > 64 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '_', c == '-':
		default:
			return false
		}
	}
	return true
}

// randomSixBits packs the random bits of u into 6-bit values.
func randomSixBits(u uuid.UUID) []byte {
	var bits uint64
	var nbits uint
	out := make([]byte, 0, 20)
	push := func(b byte, width uint) {
		bits = bits<<width | uint64(b)&(1<<width-1)
		nbits += width
		for nbits >= 6 {
			nbits -= 6
			out = append(out, byte(bits>>nbits)&63)
		}
	}
	for i, b := range u {
		switch i {
		case 6: // high nibble is the version
			push(b, 4)
		case 8: // top two bits are the variant
			push(b, 6)
		default:
			push(b, 8)
		}
	}
	return out
}
