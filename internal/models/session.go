package models

// Session is what the browser session remembers between page loads.
type Session struct {
	Token string
	User  User
}

// Authenticated reports whether the session carries a token.
func (s Session) Authenticated() bool {
	return s.Token != ""
}
