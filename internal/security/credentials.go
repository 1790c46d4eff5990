package security

import (
	"crypto/rand"
	"math/big"
)

// TemporaryPasswordLength is the length of support-issued one-time passwords.
const TemporaryPasswordLength = 10

const temporaryPasswordAlphabet = "abcdefghijkmnopqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GenerateTemporaryPassword returns a random TemporaryPasswordLength-character password drawn
// uniformly from an alphabet without look-alike characters. Uses crypto/rand.
func GenerateTemporaryPassword() (string, error) {
	max := big.NewInt(int64(len(temporaryPasswordAlphabet)))
	out := make([]byte, TemporaryPasswordLength)
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = temporaryPasswordAlphabet[n.Int64()]
	}
	return string(out), nil
}
