// Package members provides the relational store for member records.
package members

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/faithadeola/library-system/internal/entities"
)

// Repository handles member rows in the relational store.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new members repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Upsert inserts the member or replaces the existing row with the same id.
func (r *Repository) Upsert(member entities.Member) error {
	return r.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&member).Error
}

// Delete removes the member row.
func (r *Repository) Delete(id int64) error {
	return r.db.Delete(&entities.Member{}, id).Error
}

// LoadAll returns every member row ordered by id.
func (r *Repository) LoadAll() ([]entities.Member, error) {
	var members []entities.Member
	err := r.db.Order("member_id").Find(&members).Error
	return members, err
}
