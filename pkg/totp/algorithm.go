package totp

import (
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"hash"
	"strings"
)

// Algorithm is the HMAC hash function of a key.
type Algorithm string

const (
	SHA1   Algorithm = "SHA1"
	SHA256 Algorithm = "SHA256"
	SHA512 Algorithm = "SHA512"
)

// ParseAlgorithm maps a case-insensitive name such as "sha256" to an Algorithm.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch a := Algorithm(strings.ToUpper(strings.TrimSpace(name))); a {
	case SHA1, SHA256, SHA512:
		return a, nil
	default:
		return "", ErrUnsupportedAlgorithm
	}
}

func (a Algorithm) String() string { return string(a) }

func (a Algorithm) hash() func() hash.Hash {
	switch a {
	case SHA256:
		return sha256.New
	case SHA512:
		return sha512.New
	default:
		return sha1.New
	}
}
