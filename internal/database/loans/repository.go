// Package loans provides the relational store for borrowing records.
package loans

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/faithadeola/library-system/internal/entities"
)

// Repository handles borrowing rows in the relational store.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new loans repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Upsert inserts the loan or replaces the existing row with the same id.
// Closing a loan is an upsert that fills return_date.
func (r *Repository) Upsert(loan entities.Loan) error {
	return r.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&loan).Error
}

// Delete removes the loan row (administrative purge only).
func (r *Repository) Delete(id int64) error {
	return r.db.Delete(&entities.Loan{}, id).Error
}

// LoadAll returns every borrowing row ordered by id.
func (r *Repository) LoadAll() ([]entities.Loan, error) {
	var loans []entities.Loan
	err := r.db.Order("id").Find(&loans).Error
	return loans, err
}
