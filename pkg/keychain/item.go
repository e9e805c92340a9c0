package keychain

// Class is the keychain item class.
type Class string

// ClassGenericPassword is the only class used for shared entries.
const ClassGenericPassword Class = "genp"

// Accessibility is the keychain protection class of an item.
type Accessibility string

// AccessibleAfterFirstUnlockThisDeviceOnly keeps items readable by background
// processes once the device has been unlocked and never migrates them off it.
const AccessibleAfterFirstUnlockThisDeviceOnly Accessibility = "cku"

// Item is the attribute set of a single keychain query.
type Item struct {
	Class       Class
	AccessGroup string
	Accessible  Accessibility
	Account     string
}

// ID returns the backend address of the item. Items in different access
// groups never collide.
func (i Item) ID() string {
	return string(i.Class) + "/" + i.AccessGroup + "/" + i.Account
}
