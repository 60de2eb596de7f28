// Package random provides cryptographically secure random value
// generation for session tokens and generated identifiers.
package random

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"math/big"
)

// Alphanumerics is the default alphabet for generated strings.
const Alphanumerics = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// Generator produces cryptographically secure random values.
type Generator struct{}

// NewGenerator creates a Generator.
func NewGenerator() *Generator {
	return &Generator{}
}

// Bytes returns n cryptographically secure random bytes.
func (g *Generator) Bytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return nil, fmt.Errorf("random: read bytes: %w", err)
	}
	return b, nil
}

// Hex returns a hex-encoded token of n random bytes.
// Common usage: session tokens, one-time links.
func (g *Generator) Hex(n int) (string, error) {
	b, err := g.Bytes(n)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// String returns a random string of length n drawn from chars.
// An empty chars falls back to Alphanumerics.
func (g *Generator) String(n int, chars string) (string, error) {
	if chars == "" {
		chars = Alphanumerics
	}
	alphabet := []rune(chars)
	maxIdx := big.NewInt(int64(len(alphabet)))

	out := make([]rune, n)
	for i := range out {
		idx, err := rand.Int(rand.Reader, maxIdx)
		if err != nil {
			return "", fmt.Errorf("random: pick rune: %w", err)
		}
		out[i] = alphabet[idx.Int64()]
	}
	return string(out), nil
}

// MustHex is Hex that panics on failure. The system random source
// failing is not recoverable.
func (g *Generator) MustHex(n int) string {
	s, err := g.Hex(n)
	if err != nil {
		panic(err)
	}
	return s
}

var defaultGenerator = NewGenerator()

// Hex returns a hex-encoded token of n random bytes from the default
// generator.
func Hex(n int) (string, error) {
	return defaultGenerator.Hex(n)
}

// String returns a random string of length n drawn from chars using the
// default generator.
func String(n int, chars string) (string, error) {
	return defaultGenerator.String(n, chars)
}

// MustHex is Hex on the default generator, panicking on failure.
func MustHex(n int) string {
	return defaultGenerator.MustHex(n)
}
