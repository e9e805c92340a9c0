// Package sessiontimeout lets one application decide whether a user's
// session, governed by the other application's timeout settings, has expired.
//
// The owning application (the password manager) publishes its timeout
// policy and the user's last activity through UpdateTimeout and
// SetLastActiveTime. The reading application (the authenticator) calls
// HasPassedTimeout or IsLocked before showing any shared data.
//
// Policies that cannot be evaluated from stored timestamps alone ("never"
// and "onAppRestart") are not published: UpdateTimeout clears the entries
// instead, and a reader finding no entries gets ErrAccountNotFound.
package sessiontimeout
