// Package books manages the book catalog and its inventory counts.
package books

import (
	"context"
	"strings"

	"github.com/bookly-io/bookly/internal/domain/book"
	"github.com/bookly-io/bookly/internal/errors"
	"github.com/bookly-io/bookly/internal/logging"
	"github.com/bookly-io/bookly/internal/storage"
)

// Service manages books.
type Service struct {
	store storage.BookStore
	log   *logging.Logger
}

// New constructs a book service.
func New(store storage.BookStore, log *logging.Logger) *Service {
	if log == nil {
		log = logging.NewDefault("books")
	}
	return &Service{store: store, log: log}
}

func validate(b book.Book) error {
	if strings.TrimSpace(b.Title) == "" {
		return errors.Validation("title is required")
	}
	if strings.TrimSpace(b.ISBN) == "" {
		return errors.Validation("isbn is required")
	}
	if b.AvailableCopies < 0 {
		return errors.Validation("available_copies must not be negative")
	}
	return nil
}

// Create registers a new book. ISBN must be unique across the catalog.
func (s *Service) Create(ctx context.Context, b book.Book) (book.Book, error) {
	if err := validate(b); err != nil {
		return book.Book{}, err
	}
	created, err := s.store.CreateBook(ctx, b)
	if err != nil {
		return book.Book{}, err
	}
	s.log.WithContext(ctx).WithField("uid", created.UID).Info("book created")
	return created, nil
}

// Update overwrites a book's mutable fields, including available_copies.
func (s *Service) Update(ctx context.Context, b book.Book) (book.Book, error) {
	if err := validate(b); err != nil {
		return book.Book{}, err
	}
	updated, err := s.store.UpdateBook(ctx, b)
	if err != nil {
		return book.Book{}, err
	}
	s.log.WithContext(ctx).WithField("uid", b.UID).Info("book updated")
	return updated, nil
}

// Get retrieves a book with its author and publisher resolved.
func (s *Service) Get(ctx context.Context, uid string) (book.Book, error) {
	return s.store.GetBook(ctx, uid)
}

// List returns books matching the filter, newest first.
func (s *Service) List(ctx context.Context, filter book.ListFilter) ([]book.Book, error) {
	return s.store.ListBooks(ctx, filter)
}

// Delete removes a book. Books referenced by loans cannot be removed.
func (s *Service) Delete(ctx context.Context, uid string) error {
	if err := s.store.DeleteBook(ctx, uid); err != nil {
		return err
	}
	s.log.WithContext(ctx).WithField("uid", uid).Info("book deleted")
	return nil
}
