package inventory

import (
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/faithadeola/library-system/internal/entities"
	"github.com/faithadeola/library-system/internal/storage"
	"github.com/faithadeola/library-system/internal/syncstore"
)

// memRelational is an in-memory stand-in for the database repository.
type memRelational struct {
	mu      sync.Mutex
	records map[int64]entities.Book
}

func (m *memRelational) Upsert(b entities.Book) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[b.ID] = b
	return nil
}

func (m *memRelational) Delete(id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, id)
	return nil
}

func (m *memRelational) LoadAll() ([]entities.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]entities.Book, 0, len(m.records))
	for _, b := range m.records {
		out = append(out, b)
	}
	return out, nil
}

func newService(t *testing.T) *Service {
	t.Helper()
	file, err := storage.NewLineFile(filepath.Join(t.TempDir(), "books.txt"), storage.BookCodec{})
	require.NoError(t, err)
	store := syncstore.New[entities.Book]("book", file, &memRelational{records: make(map[int64]entities.Book)})
	return NewService(store)
}

type stubGuard struct{ borrowed bool }

func (g stubGuard) IsActivelyBorrowed(int64) bool { return g.borrowed }

func TestAddBook(t *testing.T) {
	t.Run("assigns sequential ids", func(t *testing.T) {
		svc := newService(t)

		first, err := svc.AddBook("Dune", "Frank Herbert", "Sci-Fi", 3)
		require.NoError(t, err)
		second, err := svc.AddBook("Emma", "Jane Austen", "Classic", 1)
		require.NoError(t, err)

		assert.Equal(t, int64(1), first.ID)
		assert.Equal(t, int64(2), second.ID)
	})

	t.Run("rejects duplicate title and author, ignoring case", func(t *testing.T) {
		svc := newService(t)
		_, err := svc.AddBook("Dune", "Frank Herbert", "Sci-Fi", 3)
		require.NoError(t, err)

		_, err = svc.AddBook("DUNE", "frank herbert", "Sci-Fi", 1)
		assert.ErrorIs(t, err, entities.ErrDuplicateBook)

		// same title under another author is fine
		_, err = svc.AddBook("Dune", "Someone Else", "Sci-Fi", 1)
		assert.NoError(t, err)
	})

	t.Run("rejects negative copies and empty title", func(t *testing.T) {
		svc := newService(t)

		_, err := svc.AddBook("Dune", "Frank Herbert", "Sci-Fi", -1)
		assert.Error(t, err)

		_, err = svc.AddBook("   ", "Frank Herbert", "Sci-Fi", 1)
		assert.Error(t, err)
	})
}

func TestAdjustAvailability(t *testing.T) {
	svc := newService(t)
	book, err := svc.AddBook("Dune", "Frank Herbert", "Sci-Fi", 1)
	require.NoError(t, err)

	require.NoError(t, svc.AdjustAvailability(book.ID, -1))

	// counter is at zero now; another decrement must fail and leave it alone
	err = svc.AdjustAvailability(book.ID, -1)
	assert.ErrorIs(t, err, entities.ErrExhausted)

	got, err := svc.GetBook(book.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.AvailableCopies)

	require.NoError(t, svc.AdjustAvailability(book.ID, 1))
	got, _ = svc.GetBook(book.ID)
	assert.Equal(t, 1, got.AvailableCopies)

	assert.ErrorIs(t, svc.AdjustAvailability(999, -1), entities.ErrNotFound)
}

func TestUpdateDetails(t *testing.T) {
	svc := newService(t)
	book, err := svc.AddBook("Dun", "Frank Herbert", "Sci-Fi", 2)
	require.NoError(t, err)

	updated, err := svc.UpdateDetails(book.ID, "Dune", "Frank Herbert", "Science Fiction")
	require.NoError(t, err)
	assert.Equal(t, "Dune", updated.Title)
	assert.Equal(t, "Science Fiction", updated.Genre)
	assert.Equal(t, 2, updated.AvailableCopies)

	_, err = svc.UpdateDetails(999, "x", "y", "z")
	assert.ErrorIs(t, err, entities.ErrNotFound)
}

func TestDeleteBook(t *testing.T) {
	t.Run("removes an unborrowed book", func(t *testing.T) {
		svc := newService(t)
		svc.SetLoanGuard(stubGuard{borrowed: false})
		book, err := svc.AddBook("Dune", "Frank Herbert", "Sci-Fi", 2)
		require.NoError(t, err)

		require.NoError(t, svc.DeleteBook(book.ID))
		_, err = svc.GetBook(book.ID)
		assert.ErrorIs(t, err, entities.ErrNotFound)
	})

	t.Run("refuses while the book is on loan", func(t *testing.T) {
		svc := newService(t)
		svc.SetLoanGuard(stubGuard{borrowed: true})
		book, err := svc.AddBook("Dune", "Frank Herbert", "Sci-Fi", 2)
		require.NoError(t, err)

		err = svc.DeleteBook(book.ID)
		assert.ErrorIs(t, err, entities.ErrConflict)
		_, err = svc.GetBook(book.ID)
		assert.NoError(t, err)
	})

	t.Run("unknown id", func(t *testing.T) {
		svc := newService(t)
		assert.ErrorIs(t, svc.DeleteBook(999), entities.ErrNotFound)
	})
}

func TestSearch(t *testing.T) {
	svc := newService(t)
	mustAdd := func(title, author, genre string) {
		_, err := svc.AddBook(title, author, genre, 1)
		require.NoError(t, err)
	}
	mustAdd("Dune", "Frank Herbert", "Sci-Fi")
	mustAdd("Dune Messiah", "Frank Herbert", "Sci-Fi")
	mustAdd("Emma", "Jane Austen", "Classic")

	t.Run("title matches exactly, case-insensitive", func(t *testing.T) {
		found := svc.FindByTitle("dune")
		require.Len(t, found, 1)
		assert.Equal(t, "Dune", found[0].Title)
	})

	t.Run("author matches substrings", func(t *testing.T) {
		assert.Len(t, svc.FindByAuthor("herbert"), 2)
		assert.Empty(t, svc.FindByAuthor("tolkien"))
	})

	t.Run("genre matches substrings", func(t *testing.T) {
		assert.Len(t, svc.FindByGenre("sci"), 2)
		assert.Len(t, svc.FindByGenre("classic"), 1)
	})
}

func TestListings(t *testing.T) {
	svc := newService(t)
	mustAdd := func(title, author, genre string) {
		_, err := svc.AddBook(title, author, genre, 1)
		require.NoError(t, err)
	}
	mustAdd("Middlemarch", "George Eliot", "Classic")
	mustAdd("Dune", "Frank Herbert", "Sci-Fi")
	mustAdd("Emma", "Jane Austen", "Classic")

	t.Run("by title", func(t *testing.T) {
		books := svc.ListSortedByTitle()
		require.Len(t, books, 3)
		assert.Equal(t, "Dune", books[0].Title)
		assert.Equal(t, "Emma", books[1].Title)
		assert.Equal(t, "Middlemarch", books[2].Title)
	})

	t.Run("by genre then title", func(t *testing.T) {
		books := svc.ListSortedByGenre()
		require.Len(t, books, 3)
		assert.Equal(t, "Emma", books[0].Title)
		assert.Equal(t, "Middlemarch", books[1].Title)
		assert.Equal(t, "Dune", books[2].Title)
	})
}

func TestGetBookUnknown(t *testing.T) {
	svc := newService(t)
	_, err := svc.GetBook(7)
	assert.True(t, errors.Is(err, entities.ErrNotFound))
}
