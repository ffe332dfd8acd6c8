// Package memory is an in-memory implementation of the storage
// interfaces. It is safe for concurrent use and is primarily intended for
// tests and local development.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bookly-io/bookly/internal/domain/author"
	"github.com/bookly-io/bookly/internal/domain/book"
	"github.com/bookly-io/bookly/internal/domain/loan"
	"github.com/bookly-io/bookly/internal/domain/member"
	"github.com/bookly-io/bookly/internal/domain/publisher"
	"github.com/bookly-io/bookly/internal/domain/user"
	"github.com/bookly-io/bookly/internal/errors"
	"github.com/bookly-io/bookly/internal/storage"
)

// Store holds every entity table behind a single mutex, which also gives
// loan operations their all-or-nothing semantics.
type Store struct {
	mu         sync.RWMutex
	nextSeq    int64
	seq        map[string]int64
	users      map[string]user.User
	authors    map[string]author.Author
	publishers map[string]publisher.Publisher
	books      map[string]book.Book
	members    map[string]member.Member
	loans      map[string]loan.Loan
}

var _ storage.UserStore = (*Store)(nil)
var _ storage.AuthorStore = (*Store)(nil)
var _ storage.PublisherStore = (*Store)(nil)
var _ storage.BookStore = (*Store)(nil)
var _ storage.MemberStore = (*Store)(nil)
var _ storage.LoanStore = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		seq:        make(map[string]int64),
		users:      make(map[string]user.User),
		authors:    make(map[string]author.Author),
		publishers: make(map[string]publisher.Publisher),
		books:      make(map[string]book.Book),
		members:    make(map[string]member.Member),
		loans:      make(map[string]loan.Loan),
	}
}

func (s *Store) trackLocked(uid string) {
	s.nextSeq++
	s.seq[uid] = s.nextSeq
}

// UserStore implementation ----------------------------------------------------

func (s *Store) CreateUser(_ context.Context, u user.User) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return user.User{}, errors.Conflict("Email already registered")
		}
		if existing.Username == u.Username {
			return user.User{}, errors.Conflict("Username already taken")
		}
	}

	if u.UID == "" {
		u.UID = uuid.NewString()
	}
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	s.users[u.UID] = u
	s.trackLocked(u.UID)
	return u, nil
}

func (s *Store) GetUser(_ context.Context, uid string) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[uid]
	if !ok {
		return user.User{}, errors.NotFound("User not found")
	}
	return u, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return user.User{}, errors.NotFound("User not found")
}

// AuthorStore implementation --------------------------------------------------

func (s *Store) CreateAuthor(_ context.Context, a author.Author) (author.Author, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.authors {
		if strings.EqualFold(existing.Email, a.Email) {
			return author.Author{}, errors.Conflict("Author email already exists")
		}
	}

	if a.UID == "" {
		a.UID = uuid.NewString()
	}
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now

	s.authors[a.UID] = a
	s.trackLocked(a.UID)
	return a, nil
}

func (s *Store) UpdateAuthor(_ context.Context, a author.Author) (author.Author, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.authors[a.UID]
	if !ok {
		return author.Author{}, errors.NotFound("Author not found")
	}
	for uid, other := range s.authors {
		if uid != a.UID && strings.EqualFold(other.Email, a.Email) {
			return author.Author{}, errors.Conflict("Author email already exists")
		}
	}

	a.CreatedAt = existing.CreatedAt
	a.UpdatedAt = time.Now().UTC()
	s.authors[a.UID] = a
	return a, nil
}

func (s *Store) GetAuthor(_ context.Context, uid string) (author.Author, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.authors[uid]
	if !ok {
		return author.Author{}, errors.NotFound("Author not found")
	}
	return a, nil
}

func (s *Store) ListAuthors(_ context.Context) ([]author.Author, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]author.Author, 0, len(s.authors))
	for _, a := range s.authors {
		result = append(result, a)
	}
	sort.Slice(result, func(i, j int) bool { return s.seq[result[i].UID] > s.seq[result[j].UID] })
	return result, nil
}

func (s *Store) DeleteAuthor(_ context.Context, uid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.authors[uid]; !ok {
		return errors.NotFound("Author not found")
	}
	for _, b := range s.books {
		if b.AuthorUID != nil && *b.AuthorUID == uid {
			return errors.Conflict("Author is referenced by existing books")
		}
	}
	delete(s.authors, uid)
	return nil
}

// PublisherStore implementation -----------------------------------------------

func (s *Store) CreatePublisher(_ context.Context, p publisher.Publisher) (publisher.Publisher, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.publishers {
		if strings.EqualFold(existing.Email, p.Email) {
			return publisher.Publisher{}, errors.Conflict("Publisher email already exists")
		}
	}

	if p.UID == "" {
		p.UID = uuid.NewString()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	s.publishers[p.UID] = p
	s.trackLocked(p.UID)
	return p, nil
}

func (s *Store) UpdatePublisher(_ context.Context, p publisher.Publisher) (publisher.Publisher, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.publishers[p.UID]
	if !ok {
		return publisher.Publisher{}, errors.NotFound("Publisher not found")
	}
	for uid, other := range s.publishers {
		if uid != p.UID && strings.EqualFold(other.Email, p.Email) {
			return publisher.Publisher{}, errors.Conflict("Publisher email already exists")
		}
	}

	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = time.Now().UTC()
	s.publishers[p.UID] = p
	return p, nil
}

func (s *Store) GetPublisher(_ context.Context, uid string) (publisher.Publisher, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.publishers[uid]
	if !ok {
		return publisher.Publisher{}, errors.NotFound("Publisher not found")
	}
	return p, nil
}

func (s *Store) ListPublishers(_ context.Context) ([]publisher.Publisher, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]publisher.Publisher, 0, len(s.publishers))
	for _, p := range s.publishers {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return s.seq[result[i].UID] > s.seq[result[j].UID] })
	return result, nil
}

func (s *Store) DeletePublisher(_ context.Context, uid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.publishers[uid]; !ok {
		return errors.NotFound("Publisher not found")
	}
	for _, b := range s.books {
		if b.PublisherUID != nil && *b.PublisherUID == uid {
			return errors.Conflict("Publisher is referenced by existing books")
		}
	}
	delete(s.publishers, uid)
	return nil
}

// BookStore implementation ----------------------------------------------------

func (s *Store) CreateBook(_ context.Context, b book.Book) (book.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.books {
		if existing.ISBN == b.ISBN {
			return book.Book{}, errors.Conflict("A book with this ISBN already exists")
		}
	}
	if b.AuthorUID != nil {
		if _, ok := s.authors[*b.AuthorUID]; !ok {
			return book.Book{}, errors.Conflict("Referenced author does not exist")
		}
	}
	if b.PublisherUID != nil {
		if _, ok := s.publishers[*b.PublisherUID]; !ok {
			return book.Book{}, errors.Conflict("Referenced publisher does not exist")
		}
	}

	if b.UID == "" {
		b.UID = uuid.NewString()
	}
	now := time.Now().UTC()
	b.CreatedAt = now
	b.UpdatedAt = now
	b.Author = nil
	b.Publisher = nil

	s.books[b.UID] = b
	s.trackLocked(b.UID)
	return s.resolveBookLocked(b), nil
}

func (s *Store) UpdateBook(_ context.Context, b book.Book) (book.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.books[b.UID]
	if !ok {
		return book.Book{}, errors.NotFound("Book not found")
	}
	for uid, other := range s.books {
		if uid != b.UID && other.ISBN == b.ISBN {
			return book.Book{}, errors.Conflict("A book with this ISBN already exists")
		}
	}
	if b.AuthorUID != nil {
		if _, ok := s.authors[*b.AuthorUID]; !ok {
			return book.Book{}, errors.Conflict("Referenced author does not exist")
		}
	}
	if b.PublisherUID != nil {
		if _, ok := s.publishers[*b.PublisherUID]; !ok {
			return book.Book{}, errors.Conflict("Referenced publisher does not exist")
		}
	}

	b.CreatedAt = existing.CreatedAt
	b.UpdatedAt = time.Now().UTC()
	b.Author = nil
	b.Publisher = nil
	s.books[b.UID] = b
	return s.resolveBookLocked(b), nil
}

func (s *Store) GetBook(_ context.Context, uid string) (book.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.books[uid]
	if !ok {
		return book.Book{}, errors.NotFound("Book not found")
	}
	return s.resolveBookLocked(b), nil
}

func (s *Store) ListBooks(_ context.Context, filter book.ListFilter) ([]book.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]book.Book, 0, len(s.books))
	for _, b := range s.books {
		if filter.Title != "" && !strings.Contains(strings.ToLower(b.Title), strings.ToLower(filter.Title)) {
			continue
		}
		if filter.AuthorUID != "" && (b.AuthorUID == nil || *b.AuthorUID != filter.AuthorUID) {
			continue
		}
		if filter.PublisherUID != "" && (b.PublisherUID == nil || *b.PublisherUID != filter.PublisherUID) {
			continue
		}
		if filter.ISBN != "" && b.ISBN != filter.ISBN {
			continue
		}
		result = append(result, s.resolveBookLocked(b))
	}
	sort.Slice(result, func(i, j int) bool { return s.seq[result[i].UID] > s.seq[result[j].UID] })
	return result, nil
}

func (s *Store) DeleteBook(_ context.Context, uid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.books[uid]; !ok {
		return errors.NotFound("Book not found")
	}
	for _, l := range s.loans {
		if l.BookUID == uid {
			return errors.Conflict("Book is referenced by existing loans")
		}
	}
	delete(s.books, uid)
	return nil
}

// MemberStore implementation --------------------------------------------------

func (s *Store) CreateMember(_ context.Context, m member.Member) (member.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.members {
		if strings.EqualFold(existing.Email, m.Email) {
			return member.Member{}, errors.Conflict("Member email already exists")
		}
	}

	if m.UID == "" {
		m.UID = uuid.NewString()
	}
	now := time.Now().UTC()
	if m.JoinDate.IsZero() {
		m.JoinDate = now
	}
	m.CreatedAt = now
	m.UpdatedAt = now

	s.members[m.UID] = m
	s.trackLocked(m.UID)
	return m, nil
}

func (s *Store) UpdateMember(_ context.Context, m member.Member) (member.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.members[m.UID]
	if !ok {
		return member.Member{}, errors.NotFound("Member not found")
	}
	for uid, other := range s.members {
		if uid != m.UID && strings.EqualFold(other.Email, m.Email) {
			return member.Member{}, errors.Conflict("Member email already exists")
		}
	}

	m.CreatedAt = existing.CreatedAt
	m.JoinDate = existing.JoinDate
	m.UpdatedAt = time.Now().UTC()
	s.members[m.UID] = m
	return m, nil
}

func (s *Store) GetMember(_ context.Context, uid string) (member.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.members[uid]
	if !ok {
		return member.Member{}, errors.NotFound("Member not found")
	}
	return m, nil
}

func (s *Store) ListMembers(_ context.Context) ([]member.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]member.Member, 0, len(s.members))
	for _, m := range s.members {
		result = append(result, m)
	}
	sort.Slice(result, func(i, j int) bool { return s.seq[result[i].UID] > s.seq[result[j].UID] })
	return result, nil
}

func (s *Store) DeleteMember(_ context.Context, uid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.members[uid]; !ok {
		return errors.NotFound("Member not found")
	}
	for _, l := range s.loans {
		if l.MemberUID == uid {
			return errors.Conflict("Member is referenced by existing loans")
		}
	}
	delete(s.members, uid)
	return nil
}

// LoanStore implementation ----------------------------------------------------

// CreateLoan inserts the loan row and decrements the book's inventory
// under a single lock hold, mirroring the postgres transaction.
func (s *Store) CreateLoan(_ context.Context, l loan.Loan) (loan.Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.books[l.BookUID]
	if !ok {
		return loan.Loan{}, errors.NotFound("Book not found")
	}
	if _, ok := s.members[l.MemberUID]; !ok {
		return loan.Loan{}, errors.NotFound("Member not found")
	}
	if b.AvailableCopies <= 0 {
		return loan.Loan{}, errors.OutOfStock("Book is out of stock")
	}
	for _, existing := range s.loans {
		if existing.BookUID == l.BookUID && existing.MemberUID == l.MemberUID && existing.ReturnedAt == nil {
			return loan.Loan{}, errors.Conflict("Member already has an active loan for this book")
		}
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
	l.Book = nil
	l.Member = nil

	b.AvailableCopies--
	s.books[b.UID] = b
	s.loans[l.UID] = l
	s.trackLocked(l.UID)
	return s.resolveLoanLocked(l), nil
}

func (s *Store) ReissueLoan(_ context.Context, l loan.Loan) (loan.Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.loans[l.UID]
	if !ok {
		return loan.Loan{}, errors.NotFound("Loan not found")
	}

	existing.DueDate = l.DueDate
	existing.ReissuedAt = l.ReissuedAt
	existing.UpdatedAt = time.Now().UTC()
	s.loans[existing.UID] = existing
	return s.resolveLoanLocked(existing), nil
}

// ReturnLoan marks the loan returned and increments the book's inventory
// under a single lock hold, mirroring the postgres transaction.
func (s *Store) ReturnLoan(_ context.Context, l loan.Loan) (loan.Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.loans[l.UID]
	if !ok {
		return loan.Loan{}, errors.NotFound("Loan not found")
	}
	if existing.ReturnedAt != nil {
		return loan.Loan{}, errors.Conflict("Loan has already been returned")
	}
	b, ok := s.books[existing.BookUID]
	if !ok {
		return loan.Loan{}, errors.NotFound("Book not found")
	}

	existing.ReturnedAt = l.ReturnedAt
	existing.FineAmount = l.FineAmount
	existing.FineGraceAmount = l.FineGraceAmount
	existing.UpdatedAt = time.Now().UTC()

	b.AvailableCopies++
	s.books[b.UID] = b
	s.loans[existing.UID] = existing
	return s.resolveLoanLocked(existing), nil
}

func (s *Store) GetLoan(_ context.Context, uid string) (loan.Loan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.loans[uid]
	if !ok {
		return loan.Loan{}, errors.NotFound("Loan not found")
	}
	return s.resolveLoanLocked(l), nil
}

func (s *Store) GetActiveLoan(_ context.Context, bookUID, memberUID string) (loan.Loan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, l := range s.loans {
		if l.BookUID == bookUID && l.MemberUID == memberUID && l.ReturnedAt == nil {
			return s.resolveLoanLocked(l), nil
		}
	}
	return loan.Loan{}, errors.NotFound("No active loan for this book and member")
}

func (s *Store) ListLoans(_ context.Context, filter loan.ListFilter) ([]loan.Loan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]loan.Loan, 0, len(s.loans))
	for _, l := range s.loans {
		if filter.BookUID != "" && l.BookUID != filter.BookUID {
			continue
		}
		if filter.MemberUID != "" && l.MemberUID != filter.MemberUID {
			continue
		}
		result = append(result, s.resolveLoanLocked(l))
	}
	sort.Slice(result, func(i, j int) bool { return s.seq[result[i].UID] > s.seq[result[j].UID] })
	return result, nil
}

// helpers ----------------------------------------------------------------------

func (s *Store) resolveBookLocked(b book.Book) book.Book {
	if b.AuthorUID != nil {
		if a, ok := s.authors[*b.AuthorUID]; ok {
			b.Author = &a
		}
	}
	if b.PublisherUID != nil {
		if p, ok := s.publishers[*b.PublisherUID]; ok {
			b.Publisher = &p
		}
	}
	return b
}

func (s *Store) resolveLoanLocked(l loan.Loan) loan.Loan {
	if b, ok := s.books[l.BookUID]; ok {
		resolved := s.resolveBookLocked(b)
		l.Book = &resolved
	}
	if m, ok := s.members[l.MemberUID]; ok {
		l.Member = &m
	}
	return l
}

