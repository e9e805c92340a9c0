package keychain

// Application identifies which of the two applications owns a per-user entry.
type Application string

const (
	PasswordManager Application = "passwordManager"
	Authenticator   Application = "authenticator"
)

// Valid reports whether a is one of the known applications.
func (a Application) Valid() bool {
	return a == PasswordManager || a == Authenticator
}

type keyKind uint8

const (
	kindSymmetricKey keyKind = iota + 1
	kindLastActiveTime
	kindSessionTimeout
)

// Key identifies one entry in the shared access group.
// The zero value is not a valid key.
type Key struct {
	kind        keyKind
	application Application
	userID      string
}

// SymmetricKey addresses the 256-bit key shared by both applications.
func SymmetricKey() Key {
	return Key{kind: kindSymmetricKey}
}

// LastActiveTime addresses the last activity timestamp of userID in app.
func LastActiveTime(app Application, userID string) Key {
	return Key{kind: kindLastActiveTime, application: app, userID: userID}
}

// SessionTimeoutPolicy addresses the session timeout policy of userID in app.
func SessionTimeoutPolicy(app Application, userID string) Key {
	return Key{kind: kindSessionTimeout, application: app, userID: userID}
}

// Valid reports whether the key can be formatted into an account.
func (k Key) Valid() bool {
	switch k.kind {
	case kindSymmetricKey:
		return true
	case kindLastActiveTime, kindSessionTimeout:
		return k.application.Valid() && k.userID != ""
	default:
		return false
	}
}

// Account formats the key into the keychain account attribute.
// Both applications depend on this exact encoding; it must not change.
func (k Key) Account() string {
	switch k.kind {
	case kindSymmetricKey:
		return "authenticatorKey"
	case kindLastActiveTime:
		return "lastActiveTime_" + string(k.application) + "_" + k.userID
	case kindSessionTimeout:
		return "vaultTimeout_" + string(k.application) + "_" + k.userID
	default:
		return ""
	}
}

func (k Key) String() string {
	return k.Account()
}
