package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/bookly-io/bookly/internal/domain/loan"
	"github.com/bookly-io/bookly/internal/errors"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return New(sqlx.NewDb(db, "sqlmock")), mock
}

func bookRows(uid string, copies int) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{
		"uid", "title", "author_uid", "publisher_uid", "isbn", "description",
		"published_date", "pages", "language", "available_copies", "created_at", "updated_at",
	}).AddRow(uid, "The Go Programming Language", nil, nil, "978-0134190440", "",
		nil, nil, "en", copies, now, now)
}

func memberRows(uid string) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{
		"uid", "first_name", "last_name", "email", "phone", "address", "city",
		"join_date", "is_active", "created_at", "updated_at",
	}).AddRow(uid, "Ada", "Lovelace", "ada@example.com", "", "", "", now, true, now, now)
}

func loanRows(uid, bookUID, memberUID string, returnedAt interface{}) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{
		"uid", "book_uid", "member_uid", "borrowed_at", "due_date", "reissued_at",
		"returned_at", "fine_amount", "fine_grace_amount", "created_at", "updated_at",
	}).AddRow(uid, bookUID, memberUID, now, now.Add(14*24*time.Hour), nil,
		returnedAt, 0.0, 0.0, now, now)
}

func TestCreateLoanOutOfStockRollsBack(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT (.+) FROM books").WillReturnRows(bookRows("book-1", 0))
	mock.ExpectQuery("SELECT (.+) FROM members").WillReturnRows(memberRows("member-1"))
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE books").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := store.CreateLoan(context.Background(), loan.Loan{BookUID: "book-1", MemberUID: "member-1"})
	if !errors.IsCode(err, errors.CodeOutOfStock) {
		t.Fatalf("expected out of stock, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCreateLoanDuplicateActiveLoanRollsBack(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT (.+) FROM books").WillReturnRows(bookRows("book-1", 3))
	mock.ExpectQuery("SELECT (.+) FROM members").WillReturnRows(memberRows("member-1"))
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE books").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO loans").WillReturnError(&pq.Error{Code: pqUniqueViolation})
	mock.ExpectRollback()

	_, err := store.CreateLoan(context.Background(), loan.Loan{BookUID: "book-1", MemberUID: "member-1"})
	if !errors.IsCode(err, errors.CodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCreateLoanCommitsDecrementAndInsert(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT (.+) FROM books").WillReturnRows(bookRows("book-1", 3))
	mock.ExpectQuery("SELECT (.+) FROM members").WillReturnRows(memberRows("member-1"))
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE books").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO loans").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectQuery("SELECT (.+) FROM loans").WillReturnRows(loanRows("loan-1", "book-1", "member-1", nil))
	mock.ExpectQuery("SELECT (.+) FROM books").WillReturnRows(bookRows("book-1", 2))
	mock.ExpectQuery("SELECT (.+) FROM members").WillReturnRows(memberRows("member-1"))

	created, err := store.CreateLoan(context.Background(), loan.Loan{BookUID: "book-1", MemberUID: "member-1"})
	if err != nil {
		t.Fatalf("create loan: %v", err)
	}
	if created.Book == nil || created.Book.AvailableCopies != 2 {
		t.Fatalf("expected eagerly resolved book with 2 copies, got %+v", created.Book)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestReturnLoanAlreadyReturnedConflicts(t *testing.T) {
	store, mock := newMockStore(t)

	returnedAt := time.Now().UTC()
	mock.ExpectQuery("SELECT (.+) FROM loans").WillReturnRows(loanRows("loan-1", "book-1", "member-1", returnedAt))
	mock.ExpectQuery("SELECT (.+) FROM books").WillReturnRows(bookRows("book-1", 3))
	mock.ExpectQuery("SELECT (.+) FROM members").WillReturnRows(memberRows("member-1"))
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE loans").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	now := time.Now().UTC()
	_, err := store.ReturnLoan(context.Background(), loan.Loan{UID: "loan-1", ReturnedAt: &now})
	if !errors.IsCode(err, errors.CodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestTranslateMapsConstraintViolations(t *testing.T) {
	err := translate(&pq.Error{Code: pqForeignKeyViolation}, "missing", "referenced")
	if !errors.IsCode(err, errors.CodeConflict) {
		t.Fatalf("expected conflict for fk violation, got %v", err)
	}
	se := errors.GetServiceError(err)
	if se.Message != "referenced" {
		t.Fatalf("unexpected message %q", se.Message)
	}
}
