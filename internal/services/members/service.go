// Package members manages library member records.
package members

import (
	"context"
	"strings"

	"github.com/bookly-io/bookly/internal/domain/member"
	"github.com/bookly-io/bookly/internal/errors"
	"github.com/bookly-io/bookly/internal/logging"
	"github.com/bookly-io/bookly/internal/storage"
)

// Service manages members.
type Service struct {
	store storage.MemberStore
	log   *logging.Logger
}

// New constructs a member service.
func New(store storage.MemberStore, log *logging.Logger) *Service {
	if log == nil {
		log = logging.NewDefault("members")
	}
	return &Service{store: store, log: log}
}

func validate(m member.Member) error {
	if strings.TrimSpace(m.FirstName) == "" {
		return errors.Validation("first_name is required")
	}
	if strings.TrimSpace(m.LastName) == "" {
		return errors.Validation("last_name is required")
	}
	if strings.TrimSpace(m.Email) == "" {
		return errors.Validation("email is required")
	}
	return nil
}

// Create registers a new member. JoinDate defaults to the current time.
func (s *Service) Create(ctx context.Context, m member.Member) (member.Member, error) {
	if err := validate(m); err != nil {
		return member.Member{}, err
	}
	m.IsActive = true
	created, err := s.store.CreateMember(ctx, m)
	if err != nil {
		return member.Member{}, err
	}
	s.log.WithContext(ctx).WithField("uid", created.UID).Info("member created")
	return created, nil
}

// Update overwrites a member's mutable fields. JoinDate is immutable.
func (s *Service) Update(ctx context.Context, m member.Member) (member.Member, error) {
	if err := validate(m); err != nil {
		return member.Member{}, err
	}
	updated, err := s.store.UpdateMember(ctx, m)
	if err != nil {
		return member.Member{}, err
	}
	s.log.WithContext(ctx).WithField("uid", m.UID).Info("member updated")
	return updated, nil
}

// Get retrieves a member by uid.
func (s *Service) Get(ctx context.Context, uid string) (member.Member, error) {
	return s.store.GetMember(ctx, uid)
}

// List returns all members, newest first.
func (s *Service) List(ctx context.Context) ([]member.Member, error) {
	return s.store.ListMembers(ctx)
}

// Delete removes a member. Members referenced by loans cannot be removed.
func (s *Service) Delete(ctx context.Context, uid string) error {
	if err := s.store.DeleteMember(ctx, uid); err != nil {
		return err
	}
	s.log.WithContext(ctx).WithField("uid", uid).Info("member deleted")
	return nil
}
