package totp

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

const (
	otpauthPrefix = "otpauth://"
	steamPrefix   = "steam://"
)

// ValidateSecretKeyRegex ensures Base32 format: uppercase A-Z, digits 2-7, optional padding
var ValidateSecretKeyRegex = regexp.MustCompile(`^[A-Z2-7]+=*$`)

// ParseKey recognizes the three key forms in this order and returns false
// for anything else:
//
//   - a bare base32 secret, e.g. "JBSWY3DPEHPK3PXP"
//   - an otpauth://totp URI with a secret parameter
//   - a steam:// URI followed by a base32 secret
//
// Surrounding whitespace is ignored. Missing parameters default to SHA1,
// 6 digits and a 30 second period; Steam keys always produce 5 characters.
func ParseKey(raw string) (Key, bool) {
	raw = strings.TrimSpace(raw)

	switch {
	case ValidateSecretKeyRegex.MatchString(raw):
		return Key{
			kind:      KindBase32,
			secret:    raw,
			algorithm: DefaultAlgorithm,
			digits:    DefaultDigits,
			period:    DefaultPeriod,
		}, true
	case hasPrefixFold(raw, otpauthPrefix):
		return parseOTPAuth(raw)
	case hasPrefixFold(raw, steamPrefix):
		return parseSteam(raw)
	default:
		return Key{}, false
	}
}

func parseOTPAuth(raw string) (Key, bool) {
	u, err := url.Parse(raw)
	if err != nil || !strings.EqualFold(u.Host, "totp") {
		return Key{}, false
	}

	issuer, account, ok := parseLabel(strings.TrimPrefix(u.Path, "/"))
	if !ok {
		return Key{}, false
	}

	query := u.Query()
	secret := strings.ToUpper(strings.TrimSpace(query.Get("secret")))
	if !ValidateSecretKeyRegex.MatchString(secret) {
		return Key{}, false
	}
	if _, err := decodeSecret(secret); err != nil {
		return Key{}, false
	}

	key := Key{
		kind:        KindOTPAuthURI,
		secret:      secret,
		algorithm:   DefaultAlgorithm,
		digits:      DefaultDigits,
		period:      DefaultPeriod,
		issuer:      issuer,
		accountName: account,
	}
	if v := strings.TrimSpace(query.Get("issuer")); v != "" {
		key.issuer = v
	}
	if query.Has("algorithm") {
		if key.algorithm, err = ParseAlgorithm(query.Get("algorithm")); err != nil {
			return Key{}, false
		}
	}
	if query.Has("digits") {
		if key.digits, ok = positiveInt(query.Get("digits")); !ok || key.digits > maxDigits {
			return Key{}, false
		}
	}
	if query.Has("period") {
		if key.period, ok = positiveInt(query.Get("period")); !ok {
			return Key{}, false
		}
	}
	return key, true
}

// parseLabel splits "issuer:account" or "account". Neither part may itself
// contain a colon.
func parseLabel(label string) (issuer, account string, ok bool) {
	parts := strings.Split(label, ":")
	switch len(parts) {
	case 1:
		return "", strings.TrimSpace(parts[0]), true
	case 2:
		return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), true
	default:
		return "", "", false
	}
}

func parseSteam(raw string) (Key, bool) {
	secret := raw[len(steamPrefix):]
	if !ValidateSecretKeyRegex.MatchString(secret) {
		return Key{}, false
	}
	if _, err := decodeSecret(secret); err != nil {
		return Key{}, false
	}
	return Key{
		kind:      KindSteamURI,
		secret:    secret,
		algorithm: SHA1,
		digits:    SteamDigits,
		period:    DefaultPeriod,
	}, true
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

func positiveInt(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
