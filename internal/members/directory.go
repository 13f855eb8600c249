// Package members manages the registry of library members.
package members

import (
	"fmt"
	"strings"
	"sync"

	"github.com/faithadeola/library-system/internal/entities"
	"github.com/faithadeola/library-system/internal/syncstore"
)

// Directory is the member registry.
type Directory struct {
	store *syncstore.Store[entities.Member]
	mu    sync.Mutex
}

// NewDirectory creates the directory over its dual-write store.
func NewDirectory(store *syncstore.Store[entities.Member]) *Directory {
	return &Directory{store: store}
}

// AddMember registers a new member.
func (d *Directory) AddMember(name, email, phone string) (entities.Member, error) {
	if strings.TrimSpace(name) == "" {
		return entities.Member{}, fmt.Errorf("name must not be empty")
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	member := entities.Member{
		ID:    d.store.NextID(),
		Name:  name,
		Email: email,
		Phone: phone,
	}
	d.store.Write(member)
	return member, nil
}

// GetMember returns the member by id.
func (d *Directory) GetMember(id int64) (entities.Member, error) {
	member, ok := d.store.Get(id)
	if !ok {
		return entities.Member{}, fmt.Errorf("member %d: %w", id, entities.ErrNotFound)
	}
	return member, nil
}

// FindByEmail returns the members registered under the email, compared
// case-insensitively.
func (d *Directory) FindByEmail(email string) []entities.Member {
	var out []entities.Member
	for _, m := range d.store.All() {
		if strings.EqualFold(m.Email, email) {
			out = append(out, m)
		}
	}
	return out
}

// UpdateMember rewrites the member's contact details.
func (d *Directory) UpdateMember(id int64, name, email, phone string) (entities.Member, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	member, ok := d.store.Get(id)
	if !ok {
		return entities.Member{}, fmt.Errorf("member %d: %w", id, entities.ErrNotFound)
	}
	member.Name = name
	member.Email = email
	member.Phone = phone
	d.store.Write(member)
	return member, nil
}

// DeleteMember removes the member. Loans the member holds stay in the ledger;
// summaries skip them once the member is gone.
func (d *Directory) DeleteMember(id int64) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.store.Get(id); !ok {
		return fmt.Errorf("member %d: %w", id, entities.ErrNotFound)
	}
	d.store.Delete(id)
	return nil
}

// ListMembers returns every member ordered by id.
func (d *Directory) ListMembers() []entities.Member {
	return d.store.All()
}
