// Package author defines the book author model.
package author

import "time"

// Author is a catalog author. Email is unique.
type Author struct {
	UID       string    `json:"uid" db:"uid"`
	FirstName string    `json:"first_name" db:"first_name"`
	LastName  string    `json:"last_name" db:"last_name"`
	Email     string    `json:"email" db:"email"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
