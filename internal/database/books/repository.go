// Package books provides the relational store for the book catalog. It is one
// side of the dual-write persistence; identities are assigned upstream, so
// every write is an upsert keyed by book_id.
package books

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/faithadeola/library-system/internal/entities"
)

// Repository handles book rows in the relational store.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new books repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Upsert inserts the book or replaces the existing row with the same id.
func (r *Repository) Upsert(book entities.Book) error {
	return r.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&book).Error
}

// Delete removes the book row. Deleting an absent id is not an error; the
// store may legitimately be behind the in-memory state.
func (r *Repository) Delete(id int64) error {
	return r.db.Delete(&entities.Book{}, id).Error
}

// LoadAll returns every book row ordered by id.
func (r *Repository) LoadAll() ([]entities.Book, error) {
	var books []entities.Book
	err := r.db.Order("book_id").Find(&books).Error
	return books, err
}
