// Package book defines the catalog book model.
package book

import (
	"time"

	"github.com/bookly-io/bookly/internal/domain/author"
	"github.com/bookly-io/bookly/internal/domain/publisher"
)

// Book is a catalog entry. AvailableCopies is the inventory counter the
// loan engine decrements on borrow and increments on return; it never
// drops below zero.
type Book struct {
	UID           string     `json:"uid" db:"uid"`
	Title         string     `json:"title" db:"title"`
	AuthorUID     *string    `json:"author_uid" db:"author_uid"`
	PublisherUID  *string    `json:"publisher_uid" db:"publisher_uid"`
	ISBN          string     `json:"isbn" db:"isbn"`
	Description   string     `json:"description" db:"description"`
	PublishedDate *time.Time `json:"published_date" db:"published_date"`
	Pages         *int       `json:"pages" db:"pages"`
	Language      string     `json:"language" db:"language"`

	AvailableCopies int `json:"available_copies" db:"available_copies"`

	// Author and Publisher are eagerly resolved on the read path.
	Author    *author.Author       `json:"author,omitempty" db:"-"`
	Publisher *publisher.Publisher `json:"publisher,omitempty" db:"-"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ListFilter narrows book listings. Zero values match everything.
type ListFilter struct {
	Title        string
	AuthorUID    string
	PublisherUID string
	ISBN         string
}
