// Package password hashes and generates account passwords.
package password

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/cryptox"
	"golang.org/x/crypto/bcrypt"
)

// Hasher turns plaintext passwords into one-way hashes and checks them.
type Hasher interface {
	Hash(plain string) (string, error)
	Check(hash, plain string) bool
}

// Generator produces fresh plaintext passwords.
type Generator interface {
	Generate() (string, error)
}

type BcryptHasher struct {
	cost int
}

// NewBcryptHasher returns a hasher using cost, or bcrypt.DefaultCost when
// cost is outside bcrypt's accepted range.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

func (h *BcryptHasher) Check(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// MinGeneratedLength leaves room for one character of every class.
const MinGeneratedLength = 8

const symbols = "!#$%&*+-=?@^_"

var ErrTooShort = errors.New("generated password too short")

// StrongGenerator draws passwords that always contain a lowercase letter,
// an uppercase letter, a digit and a symbol.
type StrongGenerator struct {
	length int
}

func NewStrongGenerator(length int) *StrongGenerator {
	return &StrongGenerator{length: length}
}

func (g *StrongGenerator) Generate() (string, error) {
	if g.length < MinGeneratedLength {
		return "", ErrTooShort
	}

	classes := []string{cryptox.Lower, cryptox.Upper, cryptox.Digits, symbols}
	out := make([]byte, 0, g.length)
	for _, c := range classes {
		s, err := cryptox.RandomString(1, c)
		if err != nil {
			return "", err
		}
		out = append(out, s...)
	}

	rest, err := cryptox.RandomString(g.length-len(out), cryptox.AlphaNumeric+symbols)
	if err != nil {
		return "", err
	}
	out = append(out, rest...)

	if err := cryptox.Shuffle(out); err != nil {
		return "", err
	}
	return string(out), nil
}
