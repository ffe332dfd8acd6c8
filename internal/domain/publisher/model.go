// Package publisher defines the book publisher model.
package publisher

import "time"

// Publisher is a catalog publisher. Email is unique.
type Publisher struct {
	UID       string    `json:"uid" db:"uid"`
	FirstName string    `json:"first_name" db:"first_name"`
	LastName  string    `json:"last_name" db:"last_name"`
	Email     string    `json:"email" db:"email"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
