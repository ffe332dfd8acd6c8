// Package publishers manages the publisher catalog.
package publishers

import (
	"context"
	"strings"

	"github.com/bookly-io/bookly/internal/domain/publisher"
	"github.com/bookly-io/bookly/internal/errors"
	"github.com/bookly-io/bookly/internal/logging"
	"github.com/bookly-io/bookly/internal/storage"
)

// Service manages publishers.
type Service struct {
	store storage.PublisherStore
	log   *logging.Logger
}

// New constructs a publisher service.
func New(store storage.PublisherStore, log *logging.Logger) *Service {
	if log == nil {
		log = logging.NewDefault("publishers")
	}
	return &Service{store: store, log: log}
}

func validate(p publisher.Publisher) error {
	if strings.TrimSpace(p.FirstName) == "" {
		return errors.Validation("first_name is required")
	}
	if strings.TrimSpace(p.LastName) == "" {
		return errors.Validation("last_name is required")
	}
	if strings.TrimSpace(p.Email) == "" {
		return errors.Validation("email is required")
	}
	return nil
}

// Create registers a new publisher.
func (s *Service) Create(ctx context.Context, p publisher.Publisher) (publisher.Publisher, error) {
	if err := validate(p); err != nil {
		return publisher.Publisher{}, err
	}
	created, err := s.store.CreatePublisher(ctx, p)
	if err != nil {
		return publisher.Publisher{}, err
	}
	s.log.WithContext(ctx).WithField("uid", created.UID).Info("publisher created")
	return created, nil
}

// Update overwrites a publisher's mutable fields.
func (s *Service) Update(ctx context.Context, p publisher.Publisher) (publisher.Publisher, error) {
	if err := validate(p); err != nil {
		return publisher.Publisher{}, err
	}
	updated, err := s.store.UpdatePublisher(ctx, p)
	if err != nil {
		return publisher.Publisher{}, err
	}
	s.log.WithContext(ctx).WithField("uid", p.UID).Info("publisher updated")
	return updated, nil
}

// Get retrieves a publisher by uid.
func (s *Service) Get(ctx context.Context, uid string) (publisher.Publisher, error) {
	return s.store.GetPublisher(ctx, uid)
}

// List returns all publishers, newest first.
func (s *Service) List(ctx context.Context) ([]publisher.Publisher, error) {
	return s.store.ListPublishers(ctx)
}

// Delete removes a publisher. Publishers referenced by books cannot be
// removed.
func (s *Service) Delete(ctx context.Context, uid string) error {
	if err := s.store.DeletePublisher(ctx, uid); err != nil {
		return err
	}
	s.log.WithContext(ctx).WithField("uid", uid).Info("publisher deleted")
	return nil
}
