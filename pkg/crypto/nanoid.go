package crypto

import (
	"crypto/rand"
	"errors"
	"math"
	"math/bits"
)

const (
	defaultAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789_-"
	defaultSize     = 22 // 132 bits with the default alphabet
	maxAlphabetSize = 255
	minAlphabetSize = 8
)

var (
	ErrAlphabetTooLong  = errors.New("alphabet must contain no more than 255 characters")
	ErrAlphabetTooShort = errors.New("alphabet must contain at least 8 characters")
	ErrAlphabetNotASCII = errors.New("alphabet must contain only ASCII characters")
	ErrInvalidIDSize    = errors.New("id size must be positive")
)

// NanoID generates short random ids over a fixed ASCII alphabet using
// rejection sampling, so every symbol is equally likely.
type NanoID struct {
	alphabet string
	size     int
	mask     byte
	step     int
}

// NewNanoID uses the URL-safe default alphabet when alphabet is empty and
// the default size when size is zero.
func NewNanoID(alphabet string, size int) (*NanoID, error) {
	if alphabet == "" {
		alphabet = defaultAlphabet
	}
	if size == 0 {
		size = defaultSize
	}
	if size < 0 {
		return nil, ErrInvalidIDSize
	}

	for i := 0; i < len(alphabet); i++ {
		if alphabet[i] > 127 {
			return nil, ErrAlphabetNotASCII
		}
	}
	if len(alphabet) > maxAlphabetSize {
		return nil, ErrAlphabetTooLong
	}
	if len(alphabet) < minAlphabetSize {
		return nil, ErrAlphabetTooShort
	}

	mask := maskFor(len(alphabet))
	return &NanoID{
		alphabet: alphabet,
		size:     size,
		mask:     mask,
		step:     int(math.Ceil(1.6 * float64(int(mask)*size) / float64(len(alphabet)))),
	}, nil
}

// maskFor is the smallest all-ones byte that covers every alphabet index.
func maskFor(alphabetLen int) byte {
	n := bits.Len(uint(alphabetLen - 1))
	if n < 1 {
		n = 1
	}
	return byte(1<<n - 1)
}

func (n *NanoID) Generate() (string, error) {
	id := make([]byte, n.size)
	buf := make([]byte, n.step)

	for pos := 0; pos < n.size; {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			idx := int(b & n.mask)
			if idx >= len(n.alphabet) {
				continue
			}
			id[pos] = n.alphabet[idx]
			pos++
			if pos == n.size {
				break
			}
		}
	}
	return string(id), nil
}

// Func adapts the generator to APIs that take a func() string. A failed
// read yields an empty id.
func (n *NanoID) Func() func() string {
	return func() string {
		id, _ := n.Generate()
		return id
	}
}
