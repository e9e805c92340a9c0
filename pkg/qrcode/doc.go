// Package qrcode renders authenticator keys as QR codes, either as PNG images
// or as text for a terminal, so another device can scan them.
//
//	png, err := qrcode.ForKey(key, 256)
//	if err != nil {
//		return err
//	}
//	text, err := qrcode.Terminal(key.URI())
//
// The encoding itself is done by github.com/skip2/go-qrcode.
package qrcode
