// Package inventory manages the book catalog and its available-copy counters.
package inventory

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/faithadeola/library-system/internal/entities"
	"github.com/faithadeola/library-system/internal/syncstore"
)

// LoanGuard answers whether a book still has active loans. Wired to the loan
// ledger after construction to keep the two services decoupled.
type LoanGuard interface {
	IsActivelyBorrowed(bookID int64) bool
}

// Service is the book inventory.
type Service struct {
	store *syncstore.Store[entities.Book]

	// mu serializes catalog mutations so the duplicate check and the
	// availability read-modify-write are atomic against each other.
	mu sync.Mutex

	guard LoanGuard
}

// NewService creates the inventory over its dual-write store.
func NewService(store *syncstore.Store[entities.Book]) *Service {
	return &Service{store: store}
}

// SetLoanGuard wires the active-loan check used by DeleteBook.
func (s *Service) SetLoanGuard(g LoanGuard) {
	s.guard = g
}

// AddBook registers a new title. Titles are unique per author, compared
// case-insensitively. Copies must not be negative.
func (s *Service) AddBook(title, author, genre string, copies int) (entities.Book, error) {
	if strings.TrimSpace(title) == "" {
		return entities.Book{}, fmt.Errorf("title must not be empty")
	}
	if copies < 0 {
		return entities.Book{}, fmt.Errorf("copies must not be negative, got %d", copies)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, b := range s.store.All() {
		if strings.EqualFold(b.Title, title) && strings.EqualFold(b.Author, author) {
			return entities.Book{}, fmt.Errorf("%q by %s: %w", title, author, entities.ErrDuplicateBook)
		}
	}

	book := entities.Book{
		ID:              s.store.NextID(),
		Title:           title,
		Author:          author,
		Genre:           genre,
		AvailableCopies: copies,
	}
	s.store.Write(book)
	return book, nil
}

// GetBook returns the book by id.
func (s *Service) GetBook(id int64) (entities.Book, error) {
	book, ok := s.store.Get(id)
	if !ok {
		return entities.Book{}, fmt.Errorf("book %d: %w", id, entities.ErrNotFound)
	}
	return book, nil
}

// AdjustAvailability changes the available-copy counter by delta, atomically.
// A decrement below zero fails with ErrExhausted and leaves the counter
// untouched.
func (s *Service) AdjustAvailability(id int64, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	book, ok := s.store.Get(id)
	if !ok {
		return fmt.Errorf("book %d: %w", id, entities.ErrNotFound)
	}
	next := book.AvailableCopies + delta
	if next < 0 {
		return fmt.Errorf("book %d (%s): %w", id, book.Title, entities.ErrExhausted)
	}
	book.AvailableCopies = next
	s.store.Write(book)
	return nil
}

// UpdateDetails rewrites the descriptive fields of a book. The availability
// counter is owned by the loan flow and is not touched here.
func (s *Service) UpdateDetails(id int64, title, author, genre string) (entities.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	book, ok := s.store.Get(id)
	if !ok {
		return entities.Book{}, fmt.Errorf("book %d: %w", id, entities.ErrNotFound)
	}
	book.Title = title
	book.Author = author
	book.Genre = genre
	s.store.Write(book)
	return book, nil
}

// DeleteBook removes a book from the catalog. A book with active loans cannot
// be removed.
func (s *Service) DeleteBook(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.store.Get(id); !ok {
		return fmt.Errorf("book %d: %w", id, entities.ErrNotFound)
	}
	if s.guard != nil && s.guard.IsActivelyBorrowed(id) {
		return fmt.Errorf("book %d has active loans: %w", id, entities.ErrConflict)
	}
	s.store.Delete(id)
	return nil
}

// FindByTitle returns the books whose title matches exactly, ignoring case.
func (s *Service) FindByTitle(title string) []entities.Book {
	var out []entities.Book
	for _, b := range s.store.All() {
		if strings.EqualFold(b.Title, title) {
			out = append(out, b)
		}
	}
	return out
}

// FindByAuthor returns the books whose author contains the query, ignoring
// case.
func (s *Service) FindByAuthor(author string) []entities.Book {
	return s.filter(func(b entities.Book) bool {
		return containsFold(b.Author, author)
	})
}

// FindByGenre returns the books whose genre contains the query, ignoring case.
func (s *Service) FindByGenre(genre string) []entities.Book {
	return s.filter(func(b entities.Book) bool {
		return containsFold(b.Genre, genre)
	})
}

// ListBooks returns the whole catalog ordered by id.
func (s *Service) ListBooks() []entities.Book {
	return s.store.All()
}

// ListSortedByTitle returns the catalog ordered by title, case-insensitively.
func (s *Service) ListSortedByTitle() []entities.Book {
	books := s.store.All()
	sort.SliceStable(books, func(i, j int) bool {
		return strings.ToLower(books[i].Title) < strings.ToLower(books[j].Title)
	})
	return books
}

// ListSortedByGenre returns the catalog ordered by genre, then title.
func (s *Service) ListSortedByGenre() []entities.Book {
	books := s.store.All()
	sort.SliceStable(books, func(i, j int) bool {
		gi, gj := strings.ToLower(books[i].Genre), strings.ToLower(books[j].Genre)
		if gi != gj {
			return gi < gj
		}
		return strings.ToLower(books[i].Title) < strings.ToLower(books[j].Title)
	})
	return books
}

func (s *Service) filter(keep func(entities.Book) bool) []entities.Book {
	var out []entities.Book
	for _, b := range s.store.All() {
		if keep(b) {
			out = append(out, b)
		}
	}
	return out
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
