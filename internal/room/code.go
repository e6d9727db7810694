package room

import (
	"crypto/rand"
	"log"
	"math/big"
	"strings"
)

// codeAlphabet excludes 0/O and 1/I so codes stay readable when spoken
// or scribbled down.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// CodeLength is the canonical room code length.
const CodeLength = 6

// maxCodeAttempts bounds collision retries in GenerateCode. Past this we
// accept the residual collision risk rather than looping forever.
const maxCodeAttempts = 20

// randomIndex returns a cryptographically secure random index for a slice
// of the given length.
func randomIndex(max int) int {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(max)))
	if err != nil {
		log.Panic("Failed to generate random index:", err)
	}
	return int(n.Int64())
}

func randomCode() string {
	var b strings.Builder
	b.Grow(CodeLength)
	for i := 0; i < CodeLength; i++ {
		b.WriteByte(codeAlphabet[randomIndex(len(codeAlphabet))])
	}
	return b.String()
}

// NormalizeCode strips everything that is not a letter or digit, uppercases
// the rest and truncates to the canonical length. It returns false when the
// result is not exactly CodeLength characters.
func NormalizeCode(raw string) (string, bool) {
	var b strings.Builder
	for _, r := range strings.ToUpper(strings.TrimSpace(raw)) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			if b.Len() == CodeLength {
				break
			}
		}
	}
	code := b.String()
	return code, len(code) == CodeLength
}
