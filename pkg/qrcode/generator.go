package qrcode

import (
	"errors"
	"strings"

	skipqrcode "github.com/skip2/go-qrcode"

	"github.com/dmitrymomot/otpbridge/pkg/totp"
)

// defaultSize is the size in pixels used when no size is specified
const defaultSize = 256

// Generate creates a PNG QR code of content, size pixels wide.
func Generate(content string, size int) ([]byte, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}
	if size <= 0 {
		size = defaultSize
	}
	png, err := skipqrcode.Encode(content, skipqrcode.Medium, size)
	if err != nil {
		return nil, errors.Join(ErrorFailedToGenerateQRCode, err)
	}
	return png, nil
}

// ForKey creates a PNG QR code of the key's canonical URI.
func ForKey(key totp.Key, size int) ([]byte, error) {
	return Generate(key.URI(), size)
}

// Terminal renders content with half-block characters, two modules per
// line, for printing to a terminal with a dark background.
func Terminal(content string) (string, error) {
	if strings.TrimSpace(content) == "" {
		return "", ErrEmptyContent
	}
	q, err := skipqrcode.New(content, skipqrcode.Low)
	if err != nil {
		return "", errors.Join(ErrorFailedToGenerateQRCode, err)
	}
	return q.ToSmallString(true), nil
}
