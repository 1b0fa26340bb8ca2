package crypto

import (
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

type Scheme string

const (
	SchemeBcrypt   Scheme = "bcrypt"
	SchemeArgon2id Scheme = "argon2id"
)

// Digest is a stored password hash.
//
// The zero value is not a valid digest. A Digest can only come from
// Hasher.Hash or from ParseDigest, which refuses anything that is not a
// well-formed bcrypt or argon2id encoding, so plaintext can never be
// carried by this type.
type Digest struct {
	encoded string
	scheme  Scheme
}

// ParseDigest validates an encoded digest loaded from storage.
func ParseDigest(encoded string) (Digest, error) {
	switch {
	case strings.HasPrefix(encoded, "$2a$"),
		strings.HasPrefix(encoded, "$2b$"),
		strings.HasPrefix(encoded, "$2y$"):
		if _, err := bcrypt.Cost([]byte(encoded)); err != nil {
			return Digest{}, fmt.Errorf("%w: %v", ErrMalformedDigest, err)
		}
		return Digest{encoded: encoded, scheme: SchemeBcrypt}, nil

	case strings.HasPrefix(encoded, "$argon2id$"):
		if _, _, _, err := decodeArgon2Hash(encoded); err != nil {
			return Digest{}, err
		}
		return Digest{encoded: encoded, scheme: SchemeArgon2id}, nil
	}

	return Digest{}, ErrMalformedDigest
}

// MustParseDigest is for fixtures and tests.
func MustParseDigest(encoded string) Digest {
	d, err := ParseDigest(encoded)
	if err != nil {
		panic(err)
	}
	return d
}

// Encoded returns the storage form.
func (d Digest) Encoded() string { return d.encoded }

func (d Digest) Scheme() Scheme { return d.scheme }

func (d Digest) IsZero() bool { return d.encoded == "" }

// String never prints the digest.
func (d Digest) String() string {
	if d.IsZero() {
		return "<empty digest>"
	}
	return "<" + string(d.scheme) + " digest>"
}

func (d Digest) GoString() string { return d.String() }
