// Package loans implements the borrow/reissue/return lifecycle. Inventory
// adjustment is delegated to the store so that the loan row and the book's
// available_copies always change together.
package loans

import (
	"context"
	"math"
	"time"

	"github.com/bookly-io/bookly/internal/domain/loan"
	"github.com/bookly-io/bookly/internal/errors"
	"github.com/bookly-io/bookly/internal/logging"
	"github.com/bookly-io/bookly/internal/storage"
)

// DefaultLoanPeriod is applied when a borrow request carries no due date.
const DefaultLoanPeriod = 14 * 24 * time.Hour

// Service drives the loan lifecycle.
type Service struct {
	store storage.LoanStore
	log   *logging.Logger
}

// New constructs a loan service.
func New(store storage.LoanStore, log *logging.Logger) *Service {
	if log == nil {
		log = logging.NewDefault("loans")
	}
	return &Service{store: store, log: log}
}

// Borrow creates an active loan for the (book, member) pair. The store
// performs the inventory decrement and the loan insert atomically; a sold-out
// book or an existing active loan for the pair fails the whole operation.
func (s *Service) Borrow(ctx context.Context, l loan.Loan) (loan.Loan, error) {
	if l.BookUID == "" {
		return loan.Loan{}, errors.Validation("book_uid is required")
	}
	if l.MemberUID == "" {
		return loan.Loan{}, errors.Validation("member_uid is required")
	}

	now := time.Now().UTC()
	if l.BorrowedAt.IsZero() {
		l.BorrowedAt = now
	}
	if l.DueDate.IsZero() {
		l.DueDate = l.BorrowedAt.Add(DefaultLoanPeriod)
	}
	if !l.DueDate.After(l.BorrowedAt) {
		return loan.Loan{}, errors.Validation("due_date must be after borrowed_at")
	}
	l.ReissuedAt = nil
	l.ReturnedAt = nil
	l.FineAmount = 0
	l.FineGraceAmount = 0

	created, err := s.store.CreateLoan(ctx, l)
	if err != nil {
		return loan.Loan{}, err
	}
	s.log.WithContext(ctx).WithFields(map[string]interface{}{
		"uid":        created.UID,
		"book_uid":   created.BookUID,
		"member_uid": created.MemberUID,
	}).Info("loan created")
	return created, nil
}

// Reissue extends the loan's due date. Reissue is permitted regardless of
// the loan's state, including after return.
func (s *Service) Reissue(ctx context.Context, uid string, dueDate time.Time) (loan.Loan, error) {
	existing, err := s.store.GetLoan(ctx, uid)
	if err != nil {
		return loan.Loan{}, err
	}

	now := time.Now().UTC()
	if dueDate.IsZero() {
		dueDate = now.Add(DefaultLoanPeriod)
	}

	existing.DueDate = dueDate
	existing.ReissuedAt = &now

	updated, err := s.store.ReissueLoan(ctx, existing)
	if err != nil {
		return loan.Loan{}, err
	}
	s.log.WithContext(ctx).WithField("uid", uid).Info("loan reissued")
	return updated, nil
}

// Return closes an active loan and restores the book's inventory. The
// return timestamp defaults to now but may be caller-supplied. Fine
// amounts are caller-supplied, must not be negative and are rounded to two
// decimals. Returning a loan twice is a conflict.
func (s *Service) Return(ctx context.Context, uid string, returnedAt *time.Time, fineAmount, fineGraceAmount float64) (loan.Loan, error) {
	if fineAmount < 0 || fineGraceAmount < 0 {
		return loan.Loan{}, errors.Validation("fine amounts must not be negative")
	}

	if returnedAt == nil {
		now := time.Now().UTC()
		returnedAt = &now
	}
	updated, err := s.store.ReturnLoan(ctx, loan.Loan{
		UID:             uid,
		ReturnedAt:      returnedAt,
		FineAmount:      roundCents(fineAmount),
		FineGraceAmount: roundCents(fineGraceAmount),
	})
	if err != nil {
		return loan.Loan{}, err
	}
	s.log.WithContext(ctx).WithField("uid", uid).Info("loan returned")
	return updated, nil
}

// Get retrieves a loan with its book and member resolved.
func (s *Service) Get(ctx context.Context, uid string) (loan.Loan, error) {
	return s.store.GetLoan(ctx, uid)
}

// Active returns the open loan for the (book, member) pair, if any.
func (s *Service) Active(ctx context.Context, bookUID, memberUID string) (loan.Loan, error) {
	if bookUID == "" {
		return loan.Loan{}, errors.Validation("book_uid is required")
	}
	if memberUID == "" {
		return loan.Loan{}, errors.Validation("member_uid is required")
	}
	return s.store.GetActiveLoan(ctx, bookUID, memberUID)
}

// List returns loans matching the filter, newest first.
func (s *Service) List(ctx context.Context, filter loan.ListFilter) ([]loan.Loan, error) {
	return s.store.ListLoans(ctx, filter)
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
