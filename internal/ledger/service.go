// Package ledger owns the borrowing lifecycle: opening loans, closing them,
// and reporting on active state. It is the only writer of loan records and
// the only caller of the inventory's availability adjustments.
package ledger

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/faithadeola/library-system/internal/entities"
	"github.com/faithadeola/library-system/internal/syncstore"
)

// Inventory is the slice of the book service the ledger needs.
type Inventory interface {
	GetBook(id int64) (entities.Book, error)
	AdjustAvailability(id int64, delta int) error
}

// Members is the slice of the member directory the ledger needs.
type Members interface {
	GetMember(id int64) (entities.Member, error)
}

// Summary is a loan joined with its book and member for display.
type Summary struct {
	Loan   entities.Loan
	Book   entities.Book
	Member entities.Member
}

// Service is the loan ledger.
type Service struct {
	store     *syncstore.Store[entities.Loan]
	inventory Inventory
	members   Members

	// mu makes the open/close decision and its counter adjustment atomic.
	mu sync.Mutex

	now func() time.Time
}

// NewService creates the ledger over its dual-write store.
func NewService(store *syncstore.Store[entities.Loan], inv Inventory, members Members) *Service {
	return &Service{
		store:     store,
		inventory: inv,
		members:   members,
		now:       time.Now,
	}
}

// OpenLoan lends a book to a member. The member and book must exist, a copy
// must be available, and the member must not already hold an open loan for
// the same book.
func (s *Service) OpenLoan(bookID, memberID int64) (entities.Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.members.GetMember(memberID); err != nil {
		return entities.Loan{}, err
	}
	book, err := s.inventory.GetBook(bookID)
	if err != nil {
		return entities.Loan{}, err
	}
	if book.AvailableCopies <= 0 {
		return entities.Loan{}, fmt.Errorf("book %d (%s): %w", bookID, book.Title, entities.ErrExhausted)
	}
	if s.activeLoanLocked(bookID, memberID) != nil {
		return entities.Loan{}, fmt.Errorf("member %d already borrowed book %d: %w", memberID, bookID, entities.ErrConflict)
	}

	if err := s.inventory.AdjustAvailability(bookID, -1); err != nil {
		return entities.Loan{}, err
	}

	loan := entities.Loan{
		ID:         s.store.NextID(),
		BookID:     bookID,
		MemberID:   memberID,
		BorrowDate: s.now(),
	}
	s.store.Write(loan)
	return loan, nil
}

// CloseLoan returns a book. The member must hold an open loan for it; the
// loan's return date is stamped and the copy goes back to the shelf.
func (s *Service) CloseLoan(bookID, memberID int64) (entities.Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	loan := s.activeLoanLocked(bookID, memberID)
	if loan == nil {
		return entities.Loan{}, fmt.Errorf("no active loan of book %d by member %d: %w", bookID, memberID, entities.ErrNotFound)
	}

	returned := s.now()
	loan.ReturnDate = &returned
	s.store.Write(*loan)

	if err := s.inventory.AdjustAvailability(bookID, 1); err != nil {
		// The loan is already closed; a missing book means the catalog
		// and the ledger disagree, which reconciliation will surface.
		log.Printf("Close loan %d: could not restore availability of book %d: %v", loan.ID, bookID, err)
	}
	return *loan, nil
}

// IsActivelyBorrowed reports whether any member currently holds the book.
func (s *Service) IsActivelyBorrowed(bookID int64) bool {
	for _, l := range s.store.All() {
		if l.BookID == bookID && l.Active() {
			return true
		}
	}
	return false
}

// ActiveLoans returns every open loan ordered by id.
func (s *Service) ActiveLoans() []entities.Loan {
	var out []entities.Loan
	for _, l := range s.store.All() {
		if l.Active() {
			out = append(out, l)
		}
	}
	return out
}

// AllLoans returns the full ledger, open and closed, ordered by id.
func (s *Service) AllLoans() []entities.Loan {
	return s.store.All()
}

// ActiveLoansForMember returns the ids of the books the member currently
// holds.
func (s *Service) ActiveLoansForMember(memberID int64) []int64 {
	var out []int64
	for _, l := range s.store.All() {
		if l.MemberID == memberID && l.Active() {
			out = append(out, l.BookID)
		}
	}
	return out
}

// BorrowedBookDetails returns the books the member currently holds, skipping
// any loan whose book is missing from the catalog.
func (s *Service) BorrowedBookDetails(memberID int64) []entities.Book {
	var out []entities.Book
	for _, bookID := range s.ActiveLoansForMember(memberID) {
		book, err := s.inventory.GetBook(bookID)
		if err != nil {
			log.Printf("Active loan references unknown book %d: %v", bookID, err)
			continue
		}
		out = append(out, book)
	}
	return out
}

// LoanSummaries joins open loans with their book and member records for
// display. Loans with dangling references are skipped and logged.
func (s *Service) LoanSummaries() []Summary {
	var out []Summary
	for _, l := range s.ActiveLoans() {
		book, err := s.inventory.GetBook(l.BookID)
		if err != nil {
			log.Printf("Loan %d references unknown book %d: %v", l.ID, l.BookID, err)
			continue
		}
		member, err := s.members.GetMember(l.MemberID)
		if err != nil {
			log.Printf("Loan %d references unknown member %d: %v", l.ID, l.MemberID, err)
			continue
		}
		out = append(out, Summary{Loan: l, Book: book, Member: member})
	}
	return out
}

// LogAnomalies scans the ledger for duplicate open loans of the same book by
// the same member, which can appear after reconciling divergent stores. They
// are reported, never repaired automatically: CloseLoan retires them one at a
// time, oldest first.
func (s *Service) LogAnomalies() int {
	seen := make(map[[2]int64]int64)
	anomalies := 0
	for _, l := range s.store.All() {
		if !l.Active() {
			continue
		}
		key := [2]int64{l.BookID, l.MemberID}
		if first, dup := seen[key]; dup {
			log.Printf("Ledger anomaly: loans %d and %d are both open for book %d by member %d", first, l.ID, l.BookID, l.MemberID)
			anomalies++
			continue
		}
		seen[key] = l.ID
	}
	return anomalies
}

// activeLoanLocked finds the member's open loan for the book. When duplicates
// exist the smallest id wins, so repeated returns retire them oldest first.
func (s *Service) activeLoanLocked(bookID, memberID int64) *entities.Loan {
	for _, l := range s.store.All() {
		if l.BookID == bookID && l.MemberID == memberID && l.Active() {
			loan := l
			return &loan
		}
	}
	return nil
}
