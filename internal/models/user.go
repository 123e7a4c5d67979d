package models

import "strings"

// User is the profile stored in the session after login.
type User struct {
	Username    string `json:"username"`
	IsSuperuser bool   `json:"is_superuser"`
}

// DirectoryEntry is one row of the user directory used by select lists.
type DirectoryEntry struct {
	Username string `json:"username"`
}

// DisplayName returns the local part of an e-mail style username.
func DisplayName(username string) string {
	if i := strings.Index(username, "@"); i >= 0 {
		return username[:i]
	}
	return username
}

// Credentials are submitted by the login and signup forms.
type Credentials struct {
	Username string
	Password string
}
