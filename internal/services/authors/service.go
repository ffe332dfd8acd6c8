// Package authors manages the author catalog.
package authors

import (
	"context"
	"strings"

	"github.com/bookly-io/bookly/internal/domain/author"
	"github.com/bookly-io/bookly/internal/errors"
	"github.com/bookly-io/bookly/internal/logging"
	"github.com/bookly-io/bookly/internal/storage"
)

// Service manages authors.
type Service struct {
	store storage.AuthorStore
	log   *logging.Logger
}

// New constructs an author service.
func New(store storage.AuthorStore, log *logging.Logger) *Service {
	if log == nil {
		log = logging.NewDefault("authors")
	}
	return &Service{store: store, log: log}
}

func validate(a author.Author) error {
	if strings.TrimSpace(a.FirstName) == "" {
		return errors.Validation("first_name is required")
	}
	if strings.TrimSpace(a.LastName) == "" {
		return errors.Validation("last_name is required")
	}
	if strings.TrimSpace(a.Email) == "" {
		return errors.Validation("email is required")
	}
	return nil
}

// Create registers a new author.
func (s *Service) Create(ctx context.Context, a author.Author) (author.Author, error) {
	if err := validate(a); err != nil {
		return author.Author{}, err
	}
	created, err := s.store.CreateAuthor(ctx, a)
	if err != nil {
		return author.Author{}, err
	}
	s.log.WithContext(ctx).WithField("uid", created.UID).Info("author created")
	return created, nil
}

// Update overwrites an author's mutable fields.
func (s *Service) Update(ctx context.Context, a author.Author) (author.Author, error) {
	if err := validate(a); err != nil {
		return author.Author{}, err
	}
	updated, err := s.store.UpdateAuthor(ctx, a)
	if err != nil {
		return author.Author{}, err
	}
	s.log.WithContext(ctx).WithField("uid", a.UID).Info("author updated")
	return updated, nil
}

// Get retrieves an author by uid.
func (s *Service) Get(ctx context.Context, uid string) (author.Author, error) {
	return s.store.GetAuthor(ctx, uid)
}

// List returns all authors, newest first.
func (s *Service) List(ctx context.Context) ([]author.Author, error) {
	return s.store.ListAuthors(ctx)
}

// Delete removes an author. Authors referenced by books cannot be removed.
func (s *Service) Delete(ctx context.Context, uid string) error {
	if err := s.store.DeleteAuthor(ctx, uid); err != nil {
		return err
	}
	s.log.WithContext(ctx).WithField("uid", uid).Info("author deleted")
	return nil
}
