// Package session holds the reviewer identity used for authenticated calls.
//
// A Session is an immutable value. Login and logout produce new values;
// consumers receive the value they should use instead of reading shared state.
package session

// Session identifies the reviewer and carries the bearer credential.
type Session struct {
	subject    string
	credential string
}

// New returns an authenticated session.
func New(subject, credential string) Session {
	return Session{subject: subject, credential: credential}
}

// Anonymous returns a session without a credential.
func Anonymous() Session {
	return Session{}
}

// Subject returns the reviewer name, empty for an anonymous session.
func (s Session) Subject() string {
	return s.subject
}

// Credential returns the bearer credential and whether one is present.
func (s Session) Credential() (string, bool) {
	return s.credential, s.credential != ""
}

// Authenticated reports whether the session carries a credential.
func (s Session) Authenticated() bool {
	return s.credential != ""
}
