package models

import "time"

// APIToken is an opaque credential issued to an admin account. Revoked tokens
// are retained with their revocation timestamp rather than deleted.
type APIToken struct {
	ID             string     `db:"id" json:"id"`
	AdminAccountID string     `db:"admin_account_id" json:"admin_account_id"`
	Name           string     `db:"name" json:"name"`
	Description    string     `db:"description" json:"description"`
	Token          string     `db:"token" json:"token"`
	IssuedTime     time.Time  `db:"issued_time" json:"issued_time"`
	RevokedTime    *time.Time `db:"revoked_time" json:"revoked_time,omitempty"`
}

// Revoked reports whether the token has been revoked.
func (t *APIToken) Revoked() bool {
	return t.RevokedTime != nil
}

// APITokenFilter captures listing criteria for API tokens.
type APITokenFilter struct {
	// AdminAccountID restricts results to a single owner when non-empty.
	AdminAccountID string
	ShowRevoked    bool
}
