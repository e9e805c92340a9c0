// Package item defines the OTP item shared between the two applications, in
// its decrypted (View) and stored (Record) forms.
package item

// View is the decrypted form of a shared item. It only lives in memory.
type View struct {
	ID            string
	Name          string
	Favorite      bool
	TOTPKey       string
	Username      string
	AccountDomain string
	AccountEmail  string
}

// Record is the stored form of a shared item. ID, Name and Favorite are kept
// in plaintext for list rendering; the other fields hold base64 ciphertext,
// and optional fields are empty when the view had no value.
type Record struct {
	ID            string
	UserID        string
	Favorite      bool
	Name          string
	TOTPKey       string
	Username      string
	AccountDomain string
	AccountEmail  string
}

// Field labels bind each ciphertext to the field it was produced for.
const (
	FieldTOTPKey       = "totpKey"
	FieldUsername      = "username"
	FieldAccountDomain = "accountDomain"
	FieldAccountEmail  = "accountEmail"
)
