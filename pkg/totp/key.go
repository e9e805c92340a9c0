package totp

import (
	"crypto/rand"
	"encoding/base32"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultDigits    = 6    // Standard 6-digit TOTP codes
	DefaultPeriod    = 30   // 30-second validity window (RFC 6238 standard)
	DefaultAlgorithm = SHA1 // HMAC-SHA1 algorithm (RFC 6238 standard)

	// SteamDigits is the length of a Steam Guard code.
	SteamDigits = 5

	maxDigits = 10
)

// Kind tells which textual form a key was parsed from.
type Kind int

const (
	KindBase32 Kind = iota + 1
	KindOTPAuthURI
	KindSteamURI
)

func (k Kind) String() string {
	switch k {
	case KindBase32:
		return "base32"
	case KindOTPAuthURI:
		return "otpauth"
	case KindSteamURI:
		return "steam"
	default:
		return "unknown"
	}
}

// Key is a parsed OTP key. The zero value is not a valid key; use ParseKey.
type Key struct {
	kind        Kind
	secret      string
	algorithm   Algorithm
	digits      int
	period      int
	issuer      string
	accountName string
}

func (k Key) Kind() Kind { return k.kind }
func (k Key) Secret() string { return k.secret }
func (k Key) Algorithm() Algorithm { return k.algorithm }
func (k Key) Digits() int { return k.digits }
func (k Key) Period() int { return k.period }
func (k Key) Issuer() string { return k.issuer }
func (k Key) AccountName() string { return k.accountName }
func (k Key) IsSteam() bool { return k.kind == KindSteamURI }

func (k Key) PeriodDuration() time.Duration {
	return time.Duration(k.period) * time.Second
}

// URI renders the key in the Key URI format understood by authenticator
// apps. Steam keys keep their steam:// form.
func (k Key) URI() string {
	if k.kind == KindSteamURI {
		return steamPrefix + k.secret
	}

	label := ""
	if k.accountName != "" {
		label = url.PathEscape(k.accountName)
		if k.issuer != "" {
			label = url.PathEscape(k.issuer) + ":" + label
		}
	}

	var b strings.Builder
	b.WriteString("otpauth://totp/")
	b.WriteString(label)
	b.WriteString("?secret=")
	b.WriteString(url.QueryEscape(k.secret))
	if k.issuer != "" {
		b.WriteString("&issuer=")
		b.WriteString(url.QueryEscape(k.issuer))
	}
	fmt.Fprintf(&b, "&algorithm=%s&digits=%d&period=%d", k.algorithm, k.digits, k.period)
	return b.String()
}

// decodeSecret returns the raw key bytes of a base32 secret, with or
// without padding.
func decodeSecret(secret string) ([]byte, error) {
	secret = strings.TrimRight(strings.ToUpper(secret), "=")
	// A final quantum of 1, 3 or 6 characters cannot encode whole bytes.
	switch len(secret) % 8 {
	case 1, 3, 6:
		return nil, ErrInvalidKeyFormat
	}
	if secret == "" {
		return nil, ErrInvalidKeyFormat
	}
	key, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(secret)
	if err != nil {
		return nil, errors.Join(ErrInvalidKeyFormat, err)
	}
	return key, nil
}

// GenerateSecretKey generates a new Base32-encoded secret key for TOTP.
func GenerateSecretKey() (string, error) {
	secret := make([]byte, 20) // 160-bit secret (RFC 4226 recommendation)
	if _, err := rand.Read(secret); err != nil {
		return "", errors.Join(ErrFailedToGenerateSecretKey, err)
	}
	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(secret), nil
}
