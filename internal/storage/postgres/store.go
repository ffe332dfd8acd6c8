// Package postgres implements the storage interfaces backed by PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	stderrors "errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/bookly-io/bookly/internal/domain/author"
	"github.com/bookly-io/bookly/internal/domain/book"
	"github.com/bookly-io/bookly/internal/domain/loan"
	"github.com/bookly-io/bookly/internal/domain/member"
	"github.com/bookly-io/bookly/internal/domain/publisher"
	"github.com/bookly-io/bookly/internal/domain/user"
	"github.com/bookly-io/bookly/internal/errors"
	"github.com/bookly-io/bookly/internal/storage"
)

// Store implements the storage interfaces backed by PostgreSQL.
type Store struct {
	db *sqlx.DB
}

var _ storage.UserStore = (*Store)(nil)
var _ storage.AuthorStore = (*Store)(nil)
var _ storage.PublisherStore = (*Store)(nil)
var _ storage.BookStore = (*Store)(nil)
var _ storage.MemberStore = (*Store)(nil)
var _ storage.LoanStore = (*Store)(nil)

// New creates a Store using the provided database handle.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Open connects to PostgreSQL and verifies the connection.
func Open(ctx context.Context, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// pq error codes for constraint violations.
const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

// translate maps database errors to the service error taxonomy. Unique and
// foreign key violations become conflicts, missing rows become not found.
func translate(err error, notFoundMsg, conflictMsg string) error {
	if err == nil {
		return nil
	}
	if stderrors.Is(err, sql.ErrNoRows) {
		return errors.NotFound(notFoundMsg)
	}
	var pqErr *pq.Error
	if stderrors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqUniqueViolation, pqForeignKeyViolation:
			return errors.Conflict(conflictMsg)
		}
	}
	return errors.Internal("Database operation failed", err)
}

// --- UserStore --------------------------------------------------------------

func (s *Store) CreateUser(ctx context.Context, u user.User) (user.User, error) {
	if u.UID == "" {
		u.UID = uuid.NewString()
	}
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (uid, username, email, password_hash, first_name, last_name, is_verified, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, u.UID, u.Username, u.Email, u.PasswordHash, u.FirstName, u.LastName, u.IsVerified, u.IsActive, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return user.User{}, translate(err, "User not found", "Email or username already registered")
	}
	return u, nil
}

func (s *Store) GetUser(ctx context.Context, uid string) (user.User, error) {
	var u user.User
	err := s.db.GetContext(ctx, &u, `
		SELECT uid, username, email, password_hash, first_name, last_name, is_verified, is_active, created_at, updated_at
		FROM users
		WHERE uid = $1
	`, uid)
	if err != nil {
		return user.User{}, translate(err, "User not found", "")
	}
	return u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	var u user.User
	err := s.db.GetContext(ctx, &u, `
		SELECT uid, username, email, password_hash, first_name, last_name, is_verified, is_active, created_at, updated_at
		FROM users
		WHERE lower(email) = lower($1)
	`, email)
	if err != nil {
		return user.User{}, translate(err, "User not found", "")
	}
	return u, nil
}

// --- AuthorStore ------------------------------------------------------------

func (s *Store) CreateAuthor(ctx context.Context, a author.Author) (author.Author, error) {
	if a.UID == "" {
		a.UID = uuid.NewString()
	}
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO authors (uid, first_name, last_name, email, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, a.UID, a.FirstName, a.LastName, a.Email, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return author.Author{}, translate(err, "Author not found", "Author email already exists")
	}
	return a, nil
}

func (s *Store) UpdateAuthor(ctx context.Context, a author.Author) (author.Author, error) {
	existing, err := s.GetAuthor(ctx, a.UID)
	if err != nil {
		return author.Author{}, err
	}

	a.CreatedAt = existing.CreatedAt
	a.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE authors
		SET first_name = $2, last_name = $3, email = $4, updated_at = $5
		WHERE uid = $1
	`, a.UID, a.FirstName, a.LastName, a.Email, a.UpdatedAt)
	if err != nil {
		return author.Author{}, translate(err, "Author not found", "Author email already exists")
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return author.Author{}, errors.NotFound("Author not found")
	}
	return a, nil
}

func (s *Store) GetAuthor(ctx context.Context, uid string) (author.Author, error) {
	var a author.Author
	err := s.db.GetContext(ctx, &a, `
		SELECT uid, first_name, last_name, email, created_at, updated_at
		FROM authors
		WHERE uid = $1
	`, uid)
	if err != nil {
		return author.Author{}, translate(err, "Author not found", "")
	}
	return a, nil
}

func (s *Store) ListAuthors(ctx context.Context) ([]author.Author, error) {
	var result []author.Author
	err := s.db.SelectContext(ctx, &result, `
		SELECT uid, first_name, last_name, email, created_at, updated_at
		FROM authors
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, translate(err, "", "")
	}
	return result, nil
}

func (s *Store) DeleteAuthor(ctx context.Context, uid string) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM authors WHERE uid = $1
	`, uid)
	if err != nil {
		return translate(err, "Author not found", "Author is referenced by existing books")
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return errors.NotFound("Author not found")
	}
	return nil
}

// --- PublisherStore ---------------------------------------------------------

func (s *Store) CreatePublisher(ctx context.Context, p publisher.Publisher) (publisher.Publisher, error) {
	if p.UID == "" {
		p.UID = uuid.NewString()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO publishers (uid, first_name, last_name, email, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, p.UID, p.FirstName, p.LastName, p.Email, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return publisher.Publisher{}, translate(err, "Publisher not found", "Publisher email already exists")
	}
	return p, nil
}

func (s *Store) UpdatePublisher(ctx context.Context, p publisher.Publisher) (publisher.Publisher, error) {
	existing, err := s.GetPublisher(ctx, p.UID)
	if err != nil {
		return publisher.Publisher{}, err
	}

	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE publishers
		SET first_name = $2, last_name = $3, email = $4, updated_at = $5
		WHERE uid = $1
	`, p.UID, p.FirstName, p.LastName, p.Email, p.UpdatedAt)
	if err != nil {
		return publisher.Publisher{}, translate(err, "Publisher not found", "Publisher email already exists")
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return publisher.Publisher{}, errors.NotFound("Publisher not found")
	}
	return p, nil
}

func (s *Store) GetPublisher(ctx context.Context, uid string) (publisher.Publisher, error) {
	var p publisher.Publisher
	err := s.db.GetContext(ctx, &p, `
		SELECT uid, first_name, last_name, email, created_at, updated_at
		FROM publishers
		WHERE uid = $1
	`, uid)
	if err != nil {
		return publisher.Publisher{}, translate(err, "Publisher not found", "")
	}
	return p, nil
}

func (s *Store) ListPublishers(ctx context.Context) ([]publisher.Publisher, error) {
	var result []publisher.Publisher
	err := s.db.SelectContext(ctx, &result, `
		SELECT uid, first_name, last_name, email, created_at, updated_at
		FROM publishers
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, translate(err, "", "")
	}
	return result, nil
}

func (s *Store) DeletePublisher(ctx context.Context, uid string) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM publishers WHERE uid = $1
	`, uid)
	if err != nil {
		return translate(err, "Publisher not found", "Publisher is referenced by existing books")
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return errors.NotFound("Publisher not found")
	}
	return nil
}

// --- BookStore --------------------------------------------------------------

const bookColumns = `uid, title, author_uid, publisher_uid, isbn, description, published_date, pages, language, available_copies, created_at, updated_at`

func (s *Store) CreateBook(ctx context.Context, b book.Book) (book.Book, error) {
	if b.UID == "" {
		b.UID = uuid.NewString()
	}
	now := time.Now().UTC()
	b.CreatedAt = now
	b.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO books (`+bookColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, b.UID, b.Title, b.AuthorUID, b.PublisherUID, b.ISBN, b.Description, b.PublishedDate, b.Pages, b.Language, b.AvailableCopies, b.CreatedAt, b.UpdatedAt)
	if err != nil {
		return book.Book{}, translate(err, "Book not found", "ISBN already exists or referenced author/publisher is missing")
	}
	return s.GetBook(ctx, b.UID)
}

func (s *Store) UpdateBook(ctx context.Context, b book.Book) (book.Book, error) {
	existing, err := s.GetBook(ctx, b.UID)
	if err != nil {
		return book.Book{}, err
	}

	b.CreatedAt = existing.CreatedAt
	b.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE books
		SET title = $2, author_uid = $3, publisher_uid = $4, isbn = $5, description = $6,
		    published_date = $7, pages = $8, language = $9, available_copies = $10, updated_at = $11
		WHERE uid = $1
	`, b.UID, b.Title, b.AuthorUID, b.PublisherUID, b.ISBN, b.Description, b.PublishedDate, b.Pages, b.Language, b.AvailableCopies, b.UpdatedAt)
	if err != nil {
		return book.Book{}, translate(err, "Book not found", "ISBN already exists or referenced author/publisher is missing")
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return book.Book{}, errors.NotFound("Book not found")
	}
	return s.GetBook(ctx, b.UID)
}

func (s *Store) GetBook(ctx context.Context, uid string) (book.Book, error) {
	var b book.Book
	err := s.db.GetContext(ctx, &b, `
		SELECT `+bookColumns+`
		FROM books
		WHERE uid = $1
	`, uid)
	if err != nil {
		return book.Book{}, translate(err, "Book not found", "")
	}
	return s.resolveBook(ctx, b)
}

func (s *Store) ListBooks(ctx context.Context, filter book.ListFilter) ([]book.Book, error) {
	var result []book.Book
	err := s.db.SelectContext(ctx, &result, `
		SELECT `+bookColumns+`
		FROM books
		WHERE ($1 = '' OR title ILIKE '%' || $1 || '%')
		  AND ($2 = '' OR author_uid::text = $2)
		  AND ($3 = '' OR publisher_uid::text = $3)
		  AND ($4 = '' OR isbn = $4)
		ORDER BY created_at DESC
	`, filter.Title, filter.AuthorUID, filter.PublisherUID, filter.ISBN)
	if err != nil {
		return nil, translate(err, "", "")
	}
	for i := range result {
		resolved, err := s.resolveBook(ctx, result[i])
		if err != nil {
			return nil, err
		}
		result[i] = resolved
	}
	return result, nil
}

func (s *Store) DeleteBook(ctx context.Context, uid string) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM books WHERE uid = $1
	`, uid)
	if err != nil {
		return translate(err, "Book not found", "Book is referenced by existing loans")
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return errors.NotFound("Book not found")
	}
	return nil
}

func (s *Store) resolveBook(ctx context.Context, b book.Book) (book.Book, error) {
	if b.AuthorUID != nil {
		a, err := s.GetAuthor(ctx, *b.AuthorUID)
		if err == nil {
			b.Author = &a
		} else if !errors.IsCode(err, errors.CodeNotFound) {
			return book.Book{}, err
		}
	}
	if b.PublisherUID != nil {
		p, err := s.GetPublisher(ctx, *b.PublisherUID)
		if err == nil {
			b.Publisher = &p
		} else if !errors.IsCode(err, errors.CodeNotFound) {
			return book.Book{}, err
		}
	}
	return b, nil
}

// --- MemberStore ------------------------------------------------------------

func (s *Store) CreateMember(ctx context.Context, m member.Member) (member.Member, error) {
	if m.UID == "" {
		m.UID = uuid.NewString()
	}
	now := time.Now().UTC()
	if m.JoinDate.IsZero() {
		m.JoinDate = now
	}
	m.CreatedAt = now
	m.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO members (uid, first_name, last_name, email, phone, address, city, join_date, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, m.UID, m.FirstName, m.LastName, m.Email, m.Phone, m.Address, m.City, m.JoinDate, m.IsActive, m.CreatedAt, m.UpdatedAt)
	if err != nil {
		return member.Member{}, translate(err, "Member not found", "Member email already exists")
	}
	return m, nil
}

func (s *Store) UpdateMember(ctx context.Context, m member.Member) (member.Member, error) {
	existing, err := s.GetMember(ctx, m.UID)
	if err != nil {
		return member.Member{}, err
	}

	m.CreatedAt = existing.CreatedAt
	m.JoinDate = existing.JoinDate
	m.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE members
		SET first_name = $2, last_name = $3, email = $4, phone = $5, address = $6, city = $7, is_active = $8, updated_at = $9
		WHERE uid = $1
	`, m.UID, m.FirstName, m.LastName, m.Email, m.Phone, m.Address, m.City, m.IsActive, m.UpdatedAt)
	if err != nil {
		return member.Member{}, translate(err, "Member not found", "Member email already exists")
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return member.Member{}, errors.NotFound("Member not found")
	}
	return m, nil
}

func (s *Store) GetMember(ctx context.Context, uid string) (member.Member, error) {
	var m member.Member
	err := s.db.GetContext(ctx, &m, `
		SELECT uid, first_name, last_name, email, phone, address, city, join_date, is_active, created_at, updated_at
		FROM members
		WHERE uid = $1
	`, uid)
	if err != nil {
		return member.Member{}, translate(err, "Member not found", "")
	}
	return m, nil
}

func (s *Store) ListMembers(ctx context.Context) ([]member.Member, error) {
	var result []member.Member
	err := s.db.SelectContext(ctx, &result, `
		SELECT uid, first_name, last_name, email, phone, address, city, join_date, is_active, created_at, updated_at
		FROM members
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, translate(err, "", "")
	}
	return result, nil
}

func (s *Store) DeleteMember(ctx context.Context, uid string) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM members WHERE uid = $1
	`, uid)
	if err != nil {
		return translate(err, "Member not found", "Member is referenced by existing loans")
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return errors.NotFound("Member not found")
	}
	return nil
}

// --- LoanStore --------------------------------------------------------------

const loanColumns = `uid, book_uid, member_uid, borrowed_at, due_date, reissued_at, returned_at, fine_amount, fine_grace_amount, created_at, updated_at`

// CreateLoan decrements the book's inventory and inserts the loan row in a
// single transaction. The conditional UPDATE and the partial unique index on
// active (book_uid, member_uid) pairs are the arbiters under concurrency.
func (s *Store) CreateLoan(ctx context.Context, l loan.Loan) (loan.Loan, error) {
	if _, err := s.GetBook(ctx, l.BookUID); err != nil {
		return loan.Loan{}, err
	}
	if _, err := s.GetMember(ctx, l.MemberUID); err != nil {
		return loan.Loan{}, err
	}

	if l.UID == "" {
		l.UID = uuid.NewString()
	}
	now := time.Now().UTC()
	if l.BorrowedAt.IsZero() {
		l.BorrowedAt = now
	}
	l.CreatedAt = now
	l.UpdatedAt = now

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return loan.Loan{}, errors.Internal("Database operation failed", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE books
		SET available_copies = available_copies - 1, updated_at = $2
		WHERE uid = $1 AND available_copies > 0
	`, l.BookUID, now)
	if err != nil {
		return loan.Loan{}, translate(err, "Book not found", "")
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return loan.Loan{}, errors.OutOfStock("Book is out of stock")
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO loans (`+loanColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, l.UID, l.BookUID, l.MemberUID, l.BorrowedAt, l.DueDate, l.ReissuedAt, l.ReturnedAt, l.FineAmount, l.FineGraceAmount, l.CreatedAt, l.UpdatedAt)
	if err != nil {
		return loan.Loan{}, translate(err, "Loan not found", "Member already has an active loan for this book")
	}

	if err := tx.Commit(); err != nil {
		return loan.Loan{}, errors.Internal("Database operation failed", err)
	}
	return s.GetLoan(ctx, l.UID)
}

func (s *Store) ReissueLoan(ctx context.Context, l loan.Loan) (loan.Loan, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE loans
		SET due_date = $2, reissued_at = $3, updated_at = $4
		WHERE uid = $1
	`, l.UID, l.DueDate, l.ReissuedAt, time.Now().UTC())
	if err != nil {
		return loan.Loan{}, translate(err, "Loan not found", "")
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return loan.Loan{}, errors.NotFound("Loan not found")
	}
	return s.GetLoan(ctx, l.UID)
}

// ReturnLoan stamps the loan returned and restores the book's inventory in a
// single transaction. The returned_at IS NULL guard makes the return
// idempotent-unsafe on purpose: a second return is a conflict.
func (s *Store) ReturnLoan(ctx context.Context, l loan.Loan) (loan.Loan, error) {
	existing, err := s.GetLoan(ctx, l.UID)
	if err != nil {
		return loan.Loan{}, err
	}

	now := time.Now().UTC()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return loan.Loan{}, errors.Internal("Database operation failed", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE loans
		SET returned_at = $2, fine_amount = $3, fine_grace_amount = $4, updated_at = $5
		WHERE uid = $1 AND returned_at IS NULL
	`, l.UID, l.ReturnedAt, l.FineAmount, l.FineGraceAmount, now)
	if err != nil {
		return loan.Loan{}, translate(err, "Loan not found", "")
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return loan.Loan{}, errors.Conflict("Loan has already been returned")
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE books
		SET available_copies = available_copies + 1, updated_at = $2
		WHERE uid = $1
	`, existing.BookUID, now)
	if err != nil {
		return loan.Loan{}, translate(err, "Book not found", "")
	}

	if err := tx.Commit(); err != nil {
		return loan.Loan{}, errors.Internal("Database operation failed", err)
	}
	return s.GetLoan(ctx, l.UID)
}

func (s *Store) GetLoan(ctx context.Context, uid string) (loan.Loan, error) {
	var l loan.Loan
	err := s.db.GetContext(ctx, &l, `
		SELECT `+loanColumns+`
		FROM loans
		WHERE uid = $1
	`, uid)
	if err != nil {
		return loan.Loan{}, translate(err, "Loan not found", "")
	}
	return s.resolveLoan(ctx, l)
}

func (s *Store) GetActiveLoan(ctx context.Context, bookUID, memberUID string) (loan.Loan, error) {
	var l loan.Loan
	err := s.db.GetContext(ctx, &l, `
		SELECT `+loanColumns+`
		FROM loans
		WHERE book_uid = $1 AND member_uid = $2 AND returned_at IS NULL
	`, bookUID, memberUID)
	if err != nil {
		return loan.Loan{}, translate(err, "No active loan for this book and member", "")
	}
	return s.resolveLoan(ctx, l)
}

func (s *Store) ListLoans(ctx context.Context, filter loan.ListFilter) ([]loan.Loan, error) {
	var result []loan.Loan
	err := s.db.SelectContext(ctx, &result, `
		SELECT `+loanColumns+`
		FROM loans
		WHERE ($1 = '' OR book_uid::text = $1)
		  AND ($2 = '' OR member_uid::text = $2)
		ORDER BY created_at DESC
	`, filter.BookUID, filter.MemberUID)
	if err != nil {
		return nil, translate(err, "", "")
	}
	for i := range result {
		resolved, err := s.resolveLoan(ctx, result[i])
		if err != nil {
			return nil, err
		}
		result[i] = resolved
	}
	return result, nil
}

func (s *Store) resolveLoan(ctx context.Context, l loan.Loan) (loan.Loan, error) {
	b, err := s.GetBook(ctx, l.BookUID)
	if err == nil {
		l.Book = &b
	} else if !errors.IsCode(err, errors.CodeNotFound) {
		return loan.Loan{}, err
	}
	m, err := s.GetMember(ctx, l.MemberUID)
	if err == nil {
		l.Member = &m
	} else if !errors.IsCode(err, errors.CodeNotFound) {
		return loan.Loan{}, err
	}
	return l, nil
}
