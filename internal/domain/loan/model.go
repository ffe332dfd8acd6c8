// Package loan defines the loan model and its lifecycle states.
package loan

import (
	"time"

	"github.com/bookly-io/bookly/internal/domain/book"
	"github.com/bookly-io/bookly/internal/domain/member"
)

// Loan ties one book to one member. A nil ReturnedAt marks the loan
// active; at most one active loan may exist per (book, member) pair.
type Loan struct {
	UID        string     `json:"uid" db:"uid"`
	BookUID    string     `json:"book_uid" db:"book_uid"`
	MemberUID  string     `json:"member_uid" db:"member_uid"`
	BorrowedAt time.Time  `json:"borrowed_at" db:"borrowed_at"`
	DueDate    time.Time  `json:"due_date" db:"due_date"`
	ReissuedAt *time.Time `json:"reissued_at" db:"reissued_at"`
	ReturnedAt *time.Time `json:"returned_at" db:"returned_at"`

	// Fine amounts are caller-supplied at return time, non-negative,
	// two-decimal precision.
	FineAmount      float64 `json:"fine_amount" db:"fine_amount"`
	FineGraceAmount float64 `json:"fine_grace_amount" db:"fine_grace_amount"`

	// Book and Member are eagerly resolved on the read path.
	Book   *book.Book     `json:"book,omitempty" db:"-"`
	Member *member.Member `json:"member,omitempty" db:"-"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Active reports whether the loan has not been returned yet.
func (l Loan) Active() bool {
	return l.ReturnedAt == nil
}

// ListFilter narrows loan listings. Zero values match everything.
type ListFilter struct {
	BookUID   string
	MemberUID string
}
