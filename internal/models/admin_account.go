package models

import (
	"strconv"
	"strings"
	"time"
)

// AdminAccount represents an administrative login stored in the
// admin_accounts table. Access holds a comma-separated list of access enum
// values (the hash-derived identifiers from the event config), matching how
// the registration system has always persisted access grants.
type AdminAccount struct {
	ID           string    `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	FullName     string    `db:"full_name" json:"full_name"`
	Access       string    `db:"access" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// AccessInts parses the stored access string into enum values. Malformed
// entries are skipped.
func (a *AdminAccount) AccessInts() []int {
	if a.Access == "" {
		return nil
	}
	parts := strings.Split(a.Access, ",")
	vals := make([]int, 0, len(parts))
	for _, part := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		vals = append(vals, v)
	}
	return vals
}
