package storage

import (
	"fmt"
	"strconv"
	"time"

	"github.com/faithadeola/library-system/internal/entities"
)

// BookCodec maps books onto "id,title,author,genre,availableCopies" lines.
type BookCodec struct{}

func (BookCodec) Encode(b entities.Book) string {
	return fmt.Sprintf("%d,%s,%s,%s,%d", b.ID, b.Title, b.Author, b.Genre, b.AvailableCopies)
}

func (BookCodec) Decode(fields []string) (entities.Book, error) {
	if len(fields) != 5 {
		return entities.Book{}, fmt.Errorf("expected 5 fields, got %d", len(fields))
	}
	id, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return entities.Book{}, fmt.Errorf("invalid book id %q: %w", fields[0], err)
	}
	copies, err := strconv.Atoi(fields[4])
	if err != nil {
		return entities.Book{}, fmt.Errorf("invalid copy count %q: %w", fields[4], err)
	}
	return entities.Book{
		ID:              id,
		Title:           fields[1],
		Author:          fields[2],
		Genre:           fields[3],
		AvailableCopies: copies,
	}, nil
}

func (BookCodec) ID(b entities.Book) int64 { return b.ID }

// LoanCodec maps borrowings onto "id,bookId,memberId,borrowMillis,returnMillis"
// lines, where returnMillis is the literal "null" while the loan is open.
type LoanCodec struct{}

func (LoanCodec) Encode(l entities.Loan) string {
	ret := "null"
	if l.ReturnDate != nil {
		ret = strconv.FormatInt(l.ReturnDate.UnixMilli(), 10)
	}
	return fmt.Sprintf("%d,%d,%d,%d,%s", l.ID, l.BookID, l.MemberID, l.BorrowDate.UnixMilli(), ret)
}

func (LoanCodec) Decode(fields []string) (entities.Loan, error) {
	if len(fields) != 5 {
		return entities.Loan{}, fmt.Errorf("expected 5 fields, got %d", len(fields))
	}
	id, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return entities.Loan{}, fmt.Errorf("invalid loan id %q: %w", fields[0], err)
	}
	bookID, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return entities.Loan{}, fmt.Errorf("invalid book id %q: %w", fields[1], err)
	}
	memberID, err := strconv.ParseInt(fields[2], 10, 64)
	if err != nil {
		return entities.Loan{}, fmt.Errorf("invalid member id %q: %w", fields[2], err)
	}
	borrowed, err := strconv.ParseInt(fields[3], 10, 64)
	if err != nil {
		return entities.Loan{}, fmt.Errorf("invalid borrow date %q: %w", fields[3], err)
	}
	loan := entities.Loan{
		ID:         id,
		BookID:     bookID,
		MemberID:   memberID,
		BorrowDate: time.UnixMilli(borrowed),
	}
	if fields[4] != "null" {
		returned, err := strconv.ParseInt(fields[4], 10, 64)
		if err != nil {
			return entities.Loan{}, fmt.Errorf("invalid return date %q: %w", fields[4], err)
		}
		t := time.UnixMilli(returned)
		loan.ReturnDate = &t
	}
	return loan, nil
}

func (LoanCodec) ID(l entities.Loan) int64 { return l.ID }

// MemberCodec maps members onto "id,name,email,phone" lines.
type MemberCodec struct{}

func (MemberCodec) Encode(m entities.Member) string {
	return fmt.Sprintf("%d,%s,%s,%s", m.ID, m.Name, m.Email, m.Phone)
}

func (MemberCodec) Decode(fields []string) (entities.Member, error) {
	if len(fields) != 4 {
		return entities.Member{}, fmt.Errorf("expected 4 fields, got %d", len(fields))
	}
	id, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return entities.Member{}, fmt.Errorf("invalid member id %q: %w", fields[0], err)
	}
	return entities.Member{
		ID:    id,
		Name:  fields[1],
		Email: fields[2],
		Phone: fields[3],
	}, nil
}

func (MemberCodec) ID(m entities.Member) int64 { return m.ID }
