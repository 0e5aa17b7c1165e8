// Package cryptox generates secrets from crypto/rand. Every value produced
// here may end up guarding an account, so math/rand must never be used.
package cryptox

import (
	"crypto/rand"
	"errors"
	"math/big"
)

const (
	Lower  = "abcdefghijklmnopqrstuvwxyz"
	Upper  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	Digits = "0123456789"

	// AlphaNumeric is the character space of confirmation tokens.
	AlphaNumeric = Upper + Lower + Digits
)

var ErrEmptyAlphabet = errors.New("empty alphabet")

// RandomString returns length characters drawn uniformly from alphabet.
// rand.Int is used instead of byte-modulo so that no character is favoured.
func RandomString(length int, alphabet string) (string, error) {
	if length <= 0 {
		return "", nil
	}
	if alphabet == "" {
		return "", ErrEmptyAlphabet
	}

	max := big.NewInt(int64(len(alphabet)))
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = alphabet[n.Int64()]
	}
	return string(out), nil
}

// Shuffle permutes b in place (Fisher–Yates over crypto/rand).
func Shuffle(b []byte) error {
	for i := len(b) - 1; i > 0; i-- {
		j, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return err
		}
		b[i], b[j.Int64()] = b[j.Int64()], b[i]
	}
	return nil
}
