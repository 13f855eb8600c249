package entities

import "errors"

// Decision outcomes returned to callers. These are expected conditions the
// front-end turns into user-facing messages, not faults. Match with errors.Is.
var (
	// ErrNotFound: the referenced book, member or loan does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateBook: a book with the same title and author already exists.
	ErrDuplicateBook = errors.New("book already exists")

	// ErrExhausted: no copies are available to borrow.
	ErrExhausted = errors.New("no copies available")

	// ErrConflict: the operation would violate loan state, e.g. borrowing a
	// book twice or deleting a book that is still on loan.
	ErrConflict = errors.New("conflicting loan state")
)
