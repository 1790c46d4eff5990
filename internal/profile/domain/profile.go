package domain

import (
	"errors"
	"strings"
	"time"
)

// Profile holds the personal details attached to an identity. An identity has at most one profile.
type Profile struct {
	ID         int64
	IdentityID int64
	Name       string
	Phone      string // optional
	Address    string // optional
	CreatedAt  time.Time
}

// Validate validates the profile for persistence. Returns an error describing the first validation failure.
func (p *Profile) Validate() error {
	if p.IdentityID == 0 {
		return errors.New("identity id is required")
	}
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("name is required")
	}
	return nil
}
