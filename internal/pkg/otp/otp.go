package otp

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// New generates a 4-digit numeric code, zero-padded, from crypto/rand.
func New() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%04d", n.Int64()), nil
}
