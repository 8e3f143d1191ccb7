// Package models defines the client-side data models of the SplitFair CLI.
package models

// Identity is the minimal record of who is logged in. It is used for display
// and access gating only; the backend session cookie is the actual authority.
type Identity struct {
	// ID is the backend user id; zero when the backend did not send one.
	ID int64 `json:"id,omitempty"`

	Username string `json:"username"`

	// Email is optional profile data.
	Email string `json:"email,omitempty"`
}

// LoginCredentials is the transient payload of a login call. It is never
// persisted or logged.
type LoginCredentials struct {
	Username string
	Password string
}

// Registration is the transient payload of a register call. Matching
// Password and Confirmation is the caller's concern.
type Registration struct {
	Username     string
	Email        string
	Password     string
	Confirmation string
}
