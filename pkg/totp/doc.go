// Package totp parses authenticator keys and generates one-time codes for them.
//
// Three key formats are recognised by ParseKey:
//
//   - a bare base32 secret such as "JBSWY3DPEHPK3PXP", using SHA-1, six digits
//     and a 30 second period;
//   - an otpauth://totp/ URI carrying an optional issuer:account label and the
//     secret, issuer, algorithm, digits and period query parameters;
//   - a steam:// URI, producing five character codes over the Steam alphabet.
//
// ParseKey reports success with a boolean rather than an error; unrecognised
// input is simply not a key.
//
// Generate computes the code valid at a point in time following RFC 6238 and
// RFC 4226 dynamic truncation. The returned Code carries the start of its
// period so callers can schedule the next refresh:
//
//	key, ok := totp.ParseKey("otpauth://totp/Example:alice?secret=JBSWY3DPEHPK3PXP")
//	if !ok {
//		return errInvalidKey
//	}
//	code, err := totp.Generate(key, time.Now())
//	if err != nil {
//		return err
//	}
//	fmt.Println(code.Code, "expires", code.ExpiresAt())
//
// Key.URI renders any key back into its canonical URI form, which is what the
// qrcode package encodes for export.
package totp
