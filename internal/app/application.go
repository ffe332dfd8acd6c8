// Package app wires the domain services to their stores.
package app

import (
	"github.com/bookly-io/bookly/internal/auth"
	"github.com/bookly-io/bookly/internal/logging"
	"github.com/bookly-io/bookly/internal/services/authors"
	"github.com/bookly-io/bookly/internal/services/books"
	"github.com/bookly-io/bookly/internal/services/loans"
	"github.com/bookly-io/bookly/internal/services/members"
	"github.com/bookly-io/bookly/internal/services/publishers"
	"github.com/bookly-io/bookly/internal/services/users"
	"github.com/bookly-io/bookly/internal/storage"
	"github.com/bookly-io/bookly/internal/storage/memory"
)

// Stores encapsulates persistence dependencies. Nil stores default to the
// in-memory implementation.
type Stores struct {
	Users      storage.UserStore
	Authors    storage.AuthorStore
	Publishers storage.PublisherStore
	Books      storage.BookStore
	Members    storage.MemberStore
	Loans      storage.LoanStore
}

// Application ties the domain services together.
type Application struct {
	log *logging.Logger

	Users      *users.Service
	Authors    *authors.Service
	Publishers *publishers.Service
	Books      *books.Service
	Members    *members.Service
	Loans      *loans.Service
}

// New builds a fully initialised application with the provided stores.
func New(stores Stores, issuer *auth.TokenIssuer, log *logging.Logger) *Application {
	if log == nil {
		log = logging.NewDefault("app")
	}

	mem := memory.New()
	if stores.Users == nil {
		stores.Users = mem
	}
	if stores.Authors == nil {
		stores.Authors = mem
	}
	if stores.Publishers == nil {
		stores.Publishers = mem
	}
	if stores.Books == nil {
		stores.Books = mem
	}
	if stores.Members == nil {
		stores.Members = mem
	}
	if stores.Loans == nil {
		stores.Loans = mem
	}

	return &Application{
		log:        log,
		Users:      users.New(stores.Users, issuer, log),
		Authors:    authors.New(stores.Authors, log),
		Publishers: publishers.New(stores.Publishers, log),
		Books:      books.New(stores.Books, log),
		Members:    members.New(stores.Members, log),
		Loans:      loans.New(stores.Loans, log),
	}
}
