package game

import (
	"crypto/rand"
	"errors"
	"strings"
)

// CodeAlphabet omits 0/O and 1/I so codes can be read aloud and typed.
const CodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// CodeGenerator produces room codes. It holds no state and is safe for concurrent use.
type CodeGenerator struct{}

// Generate draws length characters uniformly from CodeAlphabet.
// len(CodeAlphabet) divides 256, so reducing a random byte modulo it is unbiased.
func (CodeGenerator) Generate(length int) (string, error) {
	if length <= 0 {
		return "", errors.New("code length must be positive")
	}
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i := range buf {
		buf[i] = CodeAlphabet[int(buf[i])%len(CodeAlphabet)]
	}
	return string(buf), nil
}

// NormalizeCode upper-cases and trims a user-typed code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidCode reports whether code could have been produced by Generate(length).
func ValidCode(code string, length int) bool {
	if len(code) != length {
		return false
	}
	for _, r := range code {
		if !strings.ContainsRune(CodeAlphabet, r) {
			return false
		}
	}
	return true
}
