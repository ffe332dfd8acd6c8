// Package storage declares the persistence interfaces implemented by the
// memory and postgres backends.
package storage

import (
	"context"

	"github.com/bookly-io/bookly/internal/domain/author"
	"github.com/bookly-io/bookly/internal/domain/book"
	"github.com/bookly-io/bookly/internal/domain/loan"
	"github.com/bookly-io/bookly/internal/domain/member"
	"github.com/bookly-io/bookly/internal/domain/publisher"
	"github.com/bookly-io/bookly/internal/domain/user"
)

// UserStore persists API users.
type UserStore interface {
	CreateUser(ctx context.Context, u user.User) (user.User, error)
	GetUser(ctx context.Context, uid string) (user.User, error)
	GetUserByEmail(ctx context.Context, email string) (user.User, error)
}

// AuthorStore persists catalog authors.
type AuthorStore interface {
	CreateAuthor(ctx context.Context, a author.Author) (author.Author, error)
	UpdateAuthor(ctx context.Context, a author.Author) (author.Author, error)
	GetAuthor(ctx context.Context, uid string) (author.Author, error)
	ListAuthors(ctx context.Context) ([]author.Author, error)
	DeleteAuthor(ctx context.Context, uid string) error
}

// PublisherStore persists catalog publishers.
type PublisherStore interface {
	CreatePublisher(ctx context.Context, p publisher.Publisher) (publisher.Publisher, error)
	UpdatePublisher(ctx context.Context, p publisher.Publisher) (publisher.Publisher, error)
	GetPublisher(ctx context.Context, uid string) (publisher.Publisher, error)
	ListPublishers(ctx context.Context) ([]publisher.Publisher, error)
	DeletePublisher(ctx context.Context, uid string) error
}

// BookStore persists catalog books.
type BookStore interface {
	CreateBook(ctx context.Context, b book.Book) (book.Book, error)
	UpdateBook(ctx context.Context, b book.Book) (book.Book, error)
	GetBook(ctx context.Context, uid string) (book.Book, error)
	ListBooks(ctx context.Context, filter book.ListFilter) ([]book.Book, error)
	DeleteBook(ctx context.Context, uid string) error
}

// MemberStore persists library members.
type MemberStore interface {
	CreateMember(ctx context.Context, m member.Member) (member.Member, error)
	UpdateMember(ctx context.Context, m member.Member) (member.Member, error)
	GetMember(ctx context.Context, uid string) (member.Member, error)
	ListMembers(ctx context.Context) ([]member.Member, error)
	DeleteMember(ctx context.Context, uid string) error
}

// LoanStore persists loans. CreateLoan and ReturnLoan adjust the book's
// available_copies in the same transaction as the loan row; both changes
// commit or roll back together.
type LoanStore interface {
	CreateLoan(ctx context.Context, l loan.Loan) (loan.Loan, error)
	ReissueLoan(ctx context.Context, l loan.Loan) (loan.Loan, error)
	ReturnLoan(ctx context.Context, l loan.Loan) (loan.Loan, error)
	GetLoan(ctx context.Context, uid string) (loan.Loan, error)
	GetActiveLoan(ctx context.Context, bookUID, memberUID string) (loan.Loan, error)
	ListLoans(ctx context.Context, filter loan.ListFilter) ([]loan.Loan, error)
}
