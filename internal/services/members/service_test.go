package members

import (
	"context"
	"testing"

	"github.com/bookly-io/bookly/internal/domain/book"
	"github.com/bookly-io/bookly/internal/domain/loan"
	"github.com/bookly-io/bookly/internal/domain/member"
	"github.com/bookly-io/bookly/internal/errors"
	"github.com/bookly-io/bookly/internal/storage/memory"
)

func TestService(t *testing.T) {
	svc := New(memory.New(), nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, member.Member{FirstName: "Paul", LastName: "Atreides", Email: "paul@example.com"})
	if err != nil {
		t.Fatalf("create member: %v", err)
	}
	if !created.IsActive {
		t.Fatal("new member must be active")
	}
	if created.JoinDate.IsZero() {
		t.Fatal("join date must default to now")
	}

	created.City = "Arrakeen"
	updated, err := svc.Update(ctx, created)
	if err != nil {
		t.Fatalf("update member: %v", err)
	}
	if updated.City != "Arrakeen" {
		t.Fatal("expected city update")
	}
	if !updated.JoinDate.Equal(created.JoinDate) {
		t.Fatal("join date must be immutable")
	}

	list, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("list members: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 member, got %d", len(list))
	}

	if err := svc.Delete(ctx, created.UID); err != nil {
		t.Fatalf("delete member: %v", err)
	}
}

func TestDeleteMemberWithLoanConflicts(t *testing.T) {
	store := memory.New()
	svc := New(store, nil)
	ctx := context.Background()

	m, err := svc.Create(ctx, member.Member{FirstName: "Paul", LastName: "Atreides", Email: "paul@example.com"})
	if err != nil {
		t.Fatalf("create member: %v", err)
	}
	b, err := store.CreateBook(ctx, book.Book{Title: "Dune", ISBN: "978-0441013593", AvailableCopies: 1})
	if err != nil {
		t.Fatalf("create book: %v", err)
	}
	if _, err := store.CreateLoan(ctx, loan.Loan{BookUID: b.UID, MemberUID: m.UID}); err != nil {
		t.Fatalf("create loan: %v", err)
	}

	if err := svc.Delete(ctx, m.UID); !errors.IsCode(err, errors.CodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}
