package entities

import "time"

// Book is a catalog entry. AvailableCopies is only ever mutated through the
// inventory service, driven by loan open/close.
type Book struct {
	ID              int64  `gorm:"column:book_id;primaryKey" json:"id"`
	Title           string `gorm:"index;size:512" json:"title"`
	Author          string `gorm:"index;size:256" json:"author"`
	Genre           string `gorm:"size:128" json:"genre"`
	AvailableCopies int    `gorm:"column:available_copies" json:"available_copies"`
}

func (Book) TableName() string {
	return "books"
}

func (b Book) EntityID() int64 { return b.ID }

// Loan records one borrowing of a book by a member. A loan is active while
// ReturnDate is nil; setting it is the only state transition and is terminal.
type Loan struct {
	ID         int64      `gorm:"primaryKey" json:"id"`
	BookID     int64      `gorm:"column:book_id;index" json:"book_id"`
	MemberID   int64      `gorm:"column:member_id;index" json:"member_id"`
	BorrowDate time.Time  `gorm:"column:borrow_date" json:"borrow_date"`
	ReturnDate *time.Time `gorm:"column:return_date" json:"return_date,omitempty"`
}

func (Loan) TableName() string {
	return "borrowings"
}

func (l Loan) EntityID() int64 { return l.ID }

// Active reports whether the loan has not been returned yet.
func (l Loan) Active() bool { return l.ReturnDate == nil }

// Member is a registered library member.
type Member struct {
	ID    int64  `gorm:"column:member_id;primaryKey" json:"id"`
	Name  string `gorm:"size:256" json:"name"`
	Email string `gorm:"index;size:256" json:"email"`
	Phone string `gorm:"size:64" json:"phone,omitempty"`
}

func (Member) TableName() string {
	return "members"
}

func (m Member) EntityID() int64 { return m.ID }
