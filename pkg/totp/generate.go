package totp

import (
	"crypto/hmac"
	"encoding/binary"
	"strconv"
	"strings"
	"time"
)

// steamAlphabet is the character set of Steam Guard codes.
const steamAlphabet = "23456789BCDFGHJKMNPQRTVWXY"

// Code is a generated one-time code and the period it belongs to.
type Code struct {
	Code        string
	GeneratedAt time.Time // start of the period, not the generation instant
	Period      int       // seconds
}

// ExpiresAt returns the instant the code stops being valid.
func (c Code) ExpiresAt() time.Time {
	return c.GeneratedAt.Add(time.Duration(c.Period) * time.Second)
}

// Remaining returns how long the code stays valid after now.
func (c Code) Remaining(now time.Time) time.Duration {
	return max(c.ExpiresAt().Sub(now), 0)
}

// Generate computes the code of key for the period containing at.
// Two instants in the same period yield identical codes.
func Generate(key Key, at time.Time) (Code, error) {
	if key.period <= 0 || key.digits <= 0 || key.digits > maxDigits {
		return Code{}, ErrInvalidKeyFormat
	}
	secret, err := decodeSecret(key.secret)
	if err != nil {
		return Code{}, err
	}

	period := int64(key.period)
	counter := floorDiv(at.Unix(), period)

	var code string
	if key.kind == KindSteamURI {
		code = steamCode(secret, counter)
	} else {
		code = GenerateHOTP(key.algorithm, secret, counter, key.digits)
	}

	return Code{
		Code:        code,
		GeneratedAt: time.Unix(counter*period, 0).UTC(),
		Period:      key.period,
	}, nil
}

// GenerateHOTP implements the RFC 4226 HMAC-based One-Time Password
// algorithm and returns the code left-padded with zeros to digits.
func GenerateHOTP(alg Algorithm, key []byte, counter int64, digits int) string {
	value := truncate(alg, key, counter)

	mod := uint64(1)
	for range digits {
		mod *= 10
	}
	s := strconv.FormatUint(value%mod, 10)
	if pad := digits - len(s); pad > 0 {
		s = strings.Repeat("0", pad) + s
	}
	return s
}

func steamCode(key []byte, counter int64) string {
	value := truncate(SHA1, key, counter)

	buf := make([]byte, SteamDigits)
	for i := range buf {
		buf[i] = steamAlphabet[value%uint64(len(steamAlphabet))]
		value /= uint64(len(steamAlphabet))
	}
	return string(buf)
}

// truncate returns the 31-bit dynamic truncation (RFC 4226 section 5.3) of
// HMAC(key, counter).
func truncate(alg Algorithm, key []byte, counter int64) uint64 {
	var msg [8]byte
	binary.BigEndian.PutUint64(msg[:], uint64(counter))

	mac := hmac.New(alg.hash(), key)
	mac.Write(msg[:])
	sum := mac.Sum(nil)

	offset := sum[len(sum)-1] & 0x0f
	return uint64(binary.BigEndian.Uint32(sum[offset:offset+4]) & 0x7fffffff)
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
