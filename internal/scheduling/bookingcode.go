package scheduling

import (
	"errors"

	"github.com/google/uuid"
)

var ErrCodeSpaceExhausted = errors.New("could not generate an unused booking code")

// Crockford base32: no I, L, O or U, so codes survive being read aloud.
const codeAlphabet = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

const defaultCodeAttempts = 8

// NewBookingCode returns a random code of the form XXXX-XXXX.
func NewBookingCode() string {
	id := uuid.New()
	// the first five bytes of a v4 uuid carry no version or variant bits
	var bits uint64
	for _, b := range id[:5] {
		bits = bits<<8 | uint64(b)
	}
	var out [9]byte
	pos := len(out) - 1
	for i := 0; i < 8; i++ {
		if i == 4 {
			out[pos] = '-'
			pos--
		}
		out[pos] = codeAlphabet[bits&0x1f]
		bits >>= 5
		pos--
	}
	return string(out[:])
}

// CodeGenerator hands out booking codes that a caller-supplied check reports
// as unused.
type CodeGenerator struct {
	next        func() string
	maxAttempts int
}

func NewCodeGenerator(next func() string) *CodeGenerator {
	if next == nil {
		next = NewBookingCode
	}
	return &CodeGenerator{next: next, maxAttempts: defaultCodeAttempts}
}

// Generate draws codes until one is not taken. A nil taken accepts the first.
func (g *CodeGenerator) Generate(taken func(string) bool) (string, error) {
	for i := 0; i < g.maxAttempts; i++ {
		code := g.next()
		if taken == nil || !taken(code) {
			return code, nil
		}
	}
	return "", ErrCodeSpaceExhausted
}
