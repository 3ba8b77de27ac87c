package transport

import (
	"crypto/rand"
	"strings"
)

// CodeAlphabet has no 0/O, 1/I/L so codes survive being read aloud.
const (
	CodeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"
	CodeLength   = 6

	MaxCreateAttempts = 5
)

// NewCode returns a random room code.
func NewCode() string {
	buf := make([]byte, CodeLength)
	if _, err := rand.Read(buf); err != nil {
		panic("crypto/rand failure: " + err.Error())
	}
	out := make([]byte, CodeLength)
	for i := range out {
		out[i] = CodeAlphabet[int(buf[i])%len(CodeAlphabet)]
	}
	return string(out)
}

// NormalizeCode makes user input comparable to issued codes.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func ValidCode(code string) bool {
	if len(code) != CodeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		if strings.IndexByte(CodeAlphabet, code[i]) < 0 {
			return false
		}
	}
	return true
}
