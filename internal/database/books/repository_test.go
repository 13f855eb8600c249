package books

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/faithadeola/library-system/internal/database"
	"github.com/faithadeola/library-system/internal/entities"
)

func newRepository(t *testing.T) *Repository {
	t.Helper()
	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRepository(db.DB)
}

func TestRepository(t *testing.T) {
	t.Run("upsert inserts and load returns ordered rows", func(t *testing.T) {
		repo := newRepository(t)

		require.NoError(t, repo.Upsert(entities.Book{ID: 2, Title: "Emma", Author: "Jane Austen", Genre: "Classic", AvailableCopies: 1}))
		require.NoError(t, repo.Upsert(entities.Book{ID: 1, Title: "Dune", Author: "Frank Herbert", Genre: "Sci-Fi", AvailableCopies: 3}))

		books, err := repo.LoadAll()
		require.NoError(t, err)
		require.Len(t, books, 2)
		assert.Equal(t, int64(1), books[0].ID)
		assert.Equal(t, int64(2), books[1].ID)
	})

	t.Run("upsert replaces the existing row", func(t *testing.T) {
		repo := newRepository(t)

		require.NoError(t, repo.Upsert(entities.Book{ID: 1, Title: "Dune", Author: "Frank Herbert", Genre: "Sci-Fi", AvailableCopies: 3}))
		require.NoError(t, repo.Upsert(entities.Book{ID: 1, Title: "Dune", Author: "Frank Herbert", Genre: "Sci-Fi", AvailableCopies: 2}))

		books, err := repo.LoadAll()
		require.NoError(t, err)
		require.Len(t, books, 1)
		assert.Equal(t, 2, books[0].AvailableCopies)
	})

	t.Run("delete removes the row and tolerates unknown ids", func(t *testing.T) {
		repo := newRepository(t)

		require.NoError(t, repo.Upsert(entities.Book{ID: 1, Title: "Dune", Author: "Frank Herbert", Genre: "Sci-Fi", AvailableCopies: 3}))
		require.NoError(t, repo.Delete(1))
		require.NoError(t, repo.Delete(99))

		books, err := repo.LoadAll()
		require.NoError(t, err)
		assert.Empty(t, books)
	})
}
