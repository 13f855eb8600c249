package ledger

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/faithadeola/library-system/internal/entities"
	"github.com/faithadeola/library-system/internal/inventory"
	"github.com/faithadeola/library-system/internal/members"
	"github.com/faithadeola/library-system/internal/storage"
	"github.com/faithadeola/library-system/internal/syncstore"
)

// memRelational is an in-memory stand-in for a database repository.
type memRelational[E syncstore.Entity] struct {
	mu      sync.Mutex
	records map[int64]E
}

func newMemRelational[E syncstore.Entity]() *memRelational[E] {
	return &memRelational[E]{records: make(map[int64]E)}
}

func (m *memRelational[E]) Upsert(e E) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[e.EntityID()] = e
	return nil
}

func (m *memRelational[E]) Delete(id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, id)
	return nil
}

func (m *memRelational[E]) LoadAll() ([]E, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]E, 0, len(m.records))
	for _, e := range m.records {
		out = append(out, e)
	}
	return out, nil
}

type fixture struct {
	inventory *inventory.Service
	members   *members.Directory
	ledger    *Service
	loanStore *syncstore.Store[entities.Loan]
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()

	bookFile, err := storage.NewLineFile(filepath.Join(dir, "books.txt"), storage.BookCodec{})
	require.NoError(t, err)
	loanFile, err := storage.NewLineFile(filepath.Join(dir, "borrowings.txt"), storage.LoanCodec{})
	require.NoError(t, err)
	memberFile, err := storage.NewLineFile(filepath.Join(dir, "members.txt"), storage.MemberCodec{})
	require.NoError(t, err)

	bookStore := syncstore.New[entities.Book]("book", bookFile, newMemRelational[entities.Book]())
	loanStore := syncstore.New[entities.Loan]("loan", loanFile, newMemRelational[entities.Loan]())
	memberStore := syncstore.New[entities.Member]("member", memberFile, newMemRelational[entities.Member]())

	inv := inventory.NewService(bookStore)
	dirSvc := members.NewDirectory(memberStore)
	led := NewService(loanStore, inv, dirSvc)
	inv.SetLoanGuard(led)

	return &fixture{inventory: inv, members: dirSvc, ledger: led, loanStore: loanStore}
}

func (f *fixture) mustAddBook(t *testing.T, title string, copies int) entities.Book {
	t.Helper()
	book, err := f.inventory.AddBook(title, "Author", "Genre", copies)
	require.NoError(t, err)
	return book
}

func (f *fixture) mustAddMember(t *testing.T, name string) entities.Member {
	t.Helper()
	member, err := f.members.AddMember(name, name+"@example.com", "")
	require.NoError(t, err)
	return member
}

func TestBorrowAndReturnFlow(t *testing.T) {
	f := newFixture(t)
	book := f.mustAddBook(t, "Dune", 2)
	alice := f.mustAddMember(t, "alice")
	bob := f.mustAddMember(t, "bob")
	carol := f.mustAddMember(t, "carol")

	// two copies go out
	_, err := f.ledger.OpenLoan(book.ID, alice.ID)
	require.NoError(t, err)
	_, err = f.ledger.OpenLoan(book.ID, bob.ID)
	require.NoError(t, err)

	// third borrower finds the shelf empty
	_, err = f.ledger.OpenLoan(book.ID, carol.ID)
	assert.ErrorIs(t, err, entities.ErrExhausted)

	// the same member cannot hold the book twice even if a copy came back
	_, err = f.ledger.CloseLoan(book.ID, bob.ID)
	require.NoError(t, err)
	_, err = f.ledger.OpenLoan(book.ID, alice.ID)
	assert.ErrorIs(t, err, entities.ErrConflict)

	// returning a book you do not hold
	_, err = f.ledger.CloseLoan(book.ID, carol.ID)
	assert.ErrorIs(t, err, entities.ErrNotFound)

	// the returned copy is available to carol now
	_, err = f.ledger.OpenLoan(book.ID, carol.ID)
	require.NoError(t, err)

	got, err := f.inventory.GetBook(book.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.AvailableCopies)
}

func TestOpenLoanValidation(t *testing.T) {
	f := newFixture(t)
	book := f.mustAddBook(t, "Dune", 1)
	alice := f.mustAddMember(t, "alice")

	t.Run("unknown member", func(t *testing.T) {
		_, err := f.ledger.OpenLoan(book.ID, 999)
		assert.ErrorIs(t, err, entities.ErrNotFound)
	})

	t.Run("unknown book", func(t *testing.T) {
		_, err := f.ledger.OpenLoan(999, alice.ID)
		assert.ErrorIs(t, err, entities.ErrNotFound)
	})

	t.Run("loan carries a borrow date and no return date", func(t *testing.T) {
		loan, err := f.ledger.OpenLoan(book.ID, alice.ID)
		require.NoError(t, err)
		assert.True(t, loan.Active())
		assert.WithinDuration(t, time.Now(), loan.BorrowDate, time.Minute)
	})
}

func TestCloseLoanStampsReturnDate(t *testing.T) {
	f := newFixture(t)
	book := f.mustAddBook(t, "Dune", 1)
	alice := f.mustAddMember(t, "alice")

	opened, err := f.ledger.OpenLoan(book.ID, alice.ID)
	require.NoError(t, err)

	closed, err := f.ledger.CloseLoan(book.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, opened.ID, closed.ID)
	require.NotNil(t, closed.ReturnDate)
	assert.False(t, closed.ReturnDate.Before(closed.BorrowDate))

	got, err := f.inventory.GetBook(book.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.AvailableCopies)
}

func TestActiveLoanQueries(t *testing.T) {
	f := newFixture(t)
	dune := f.mustAddBook(t, "Dune", 1)
	emma := f.mustAddBook(t, "Emma", 1)
	alice := f.mustAddMember(t, "alice")

	_, err := f.ledger.OpenLoan(dune.ID, alice.ID)
	require.NoError(t, err)
	_, err = f.ledger.OpenLoan(emma.ID, alice.ID)
	require.NoError(t, err)
	_, err = f.ledger.CloseLoan(emma.ID, alice.ID)
	require.NoError(t, err)

	assert.True(t, f.ledger.IsActivelyBorrowed(dune.ID))
	assert.False(t, f.ledger.IsActivelyBorrowed(emma.ID))

	assert.Equal(t, []int64{dune.ID}, f.ledger.ActiveLoansForMember(alice.ID))

	details := f.ledger.BorrowedBookDetails(alice.ID)
	require.Len(t, details, 1)
	assert.Equal(t, "Dune", details[0].Title)

	assert.Len(t, f.ledger.ActiveLoans(), 1)
	assert.Len(t, f.ledger.AllLoans(), 2)
}

func TestLoanSummariesSkipDanglingReferences(t *testing.T) {
	f := newFixture(t)
	book := f.mustAddBook(t, "Dune", 1)
	alice := f.mustAddMember(t, "alice")

	_, err := f.ledger.OpenLoan(book.ID, alice.ID)
	require.NoError(t, err)

	summaries := f.ledger.LoanSummaries()
	require.Len(t, summaries, 1)
	assert.Equal(t, "Dune", summaries[0].Book.Title)
	assert.Equal(t, "alice", summaries[0].Member.Name)

	// the member disappears; the loan stays but the summary drops it
	require.NoError(t, f.members.DeleteMember(alice.ID))
	assert.Empty(t, f.ledger.LoanSummaries())
	assert.Len(t, f.ledger.ActiveLoans(), 1)
}

func TestDeleteBorrowedBookRefused(t *testing.T) {
	f := newFixture(t)
	book := f.mustAddBook(t, "Dune", 1)
	alice := f.mustAddMember(t, "alice")

	_, err := f.ledger.OpenLoan(book.ID, alice.ID)
	require.NoError(t, err)

	assert.ErrorIs(t, f.inventory.DeleteBook(book.ID), entities.ErrConflict)

	_, err = f.ledger.CloseLoan(book.ID, alice.ID)
	require.NoError(t, err)
	assert.NoError(t, f.inventory.DeleteBook(book.ID))
}

func TestDuplicateOpenLoansRetireOldestFirst(t *testing.T) {
	f := newFixture(t)
	book := f.mustAddBook(t, "Dune", 5)
	alice := f.mustAddMember(t, "alice")

	// duplicates can enter the ledger when divergent stores are merged;
	// plant two open loans for the same pair directly
	now := time.Now()
	f.loanStore.Write(entities.Loan{ID: 10, BookID: book.ID, MemberID: alice.ID, BorrowDate: now.Add(-2 * time.Hour)})
	f.loanStore.Write(entities.Loan{ID: 20, BookID: book.ID, MemberID: alice.ID, BorrowDate: now.Add(-1 * time.Hour)})

	assert.Equal(t, 1, f.ledger.LogAnomalies())

	first, err := f.ledger.CloseLoan(book.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), first.ID)

	second, err := f.ledger.CloseLoan(book.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(20), second.ID)

	_, err = f.ledger.CloseLoan(book.ID, alice.ID)
	assert.ErrorIs(t, err, entities.ErrNotFound)
}
