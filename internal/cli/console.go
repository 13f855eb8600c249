// Package cli provides the interactive console and the one-shot maintenance
// commands.
package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/faithadeola/library-system/internal/audit"
	"github.com/faithadeola/library-system/internal/entities"
	"github.com/faithadeola/library-system/internal/exporters"
	"github.com/faithadeola/library-system/internal/inventory"
	"github.com/faithadeola/library-system/internal/ledger"
	"github.com/faithadeola/library-system/internal/members"
)

// Console is the interactive text menu over the engine's services.
type Console struct {
	inventory *inventory.Service
	ledger    *ledger.Service
	members   *members.Directory
	exporter  *exporters.CSVExporter
	actionLog *audit.ActionLog

	in  *bufio.Scanner
	out *os.File
}

// NewConsole creates a console reading from stdin and writing to stdout.
func NewConsole(inv *inventory.Service, led *ledger.Service, dir *members.Directory, exp *exporters.CSVExporter, actionLog *audit.ActionLog) *Console {
	return &Console{
		inventory: inv,
		ledger:    led,
		members:   dir,
		exporter:  exp,
		actionLog: actionLog,
		in:        bufio.NewScanner(os.Stdin),
		out:       os.Stdout,
	}
}

// Run loops over the menu until the user exits or stdin closes.
func (c *Console) Run() {
	for {
		c.printMenu()
		choice := c.prompt("Choose an option: ")
		if choice == "" {
			return
		}
		switch choice {
		case "1":
			c.addBook()
		case "2":
			c.listBooks()
		case "3":
			c.searchBooks()
		case "4":
			c.updateBook()
		case "5":
			c.deleteBook()
		case "6":
			c.addMember()
		case "7":
			c.listMembers()
		case "8":
			c.updateMember()
		case "9":
			c.deleteMember()
		case "10":
			c.borrowBook()
		case "11":
			c.returnBook()
		case "12":
			c.listActiveLoans()
		case "13":
			c.listMemberLoans()
		case "14":
			c.exportCSV()
		case "0", "q", "exit":
			fmt.Fprintln(c.out, "Goodbye.")
			return
		default:
			fmt.Fprintf(c.out, "Unknown option %q\n", choice)
		}
	}
}

func (c *Console) printMenu() {
	fmt.Fprintln(c.out)
	fmt.Fprintln(c.out, "=== Library ===")
	fmt.Fprintln(c.out, " 1) Add book          6) Add member        10) Borrow book")
	fmt.Fprintln(c.out, " 2) List books        7) List members      11) Return book")
	fmt.Fprintln(c.out, " 3) Search books      8) Update member     12) Active loans")
	fmt.Fprintln(c.out, " 4) Update book       9) Delete member     13) Member's loans")
	fmt.Fprintln(c.out, " 5) Delete book                            14) Export CSV")
	fmt.Fprintln(c.out, " 0) Exit")
}

func (c *Console) prompt(label string) string {
	fmt.Fprint(c.out, label)
	if !c.in.Scan() {
		return ""
	}
	return strings.TrimSpace(c.in.Text())
}

func (c *Console) promptInt64(label string) (int64, bool) {
	raw := c.prompt(label)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		fmt.Fprintf(c.out, "Not a number: %q\n", raw)
		return 0, false
	}
	return id, true
}

func (c *Console) addBook() {
	title := c.prompt("Title: ")
	author := c.prompt("Author: ")
	genre := c.prompt("Genre: ")
	copies, ok := c.promptInt64("Copies: ")
	if !ok {
		return
	}
	book, err := c.inventory.AddBook(title, author, genre, int(copies))
	if err != nil {
		c.report(err)
		return
	}
	c.actionLog.Record("Added book %d: %q by %s", book.ID, book.Title, book.Author)
	fmt.Fprintf(c.out, "Added book %d\n", book.ID)
}

func (c *Console) listBooks() {
	switch c.prompt("Sort by (id/title/genre): ") {
	case "title":
		c.printBooks(c.inventory.ListSortedByTitle())
	case "genre":
		c.printBooks(c.inventory.ListSortedByGenre())
	default:
		c.printBooks(c.inventory.ListBooks())
	}
}

func (c *Console) searchBooks() {
	field := c.prompt("Search by (title/author/genre): ")
	query := c.prompt("Query: ")
	var found []entities.Book
	switch field {
	case "author":
		found = c.inventory.FindByAuthor(query)
	case "genre":
		found = c.inventory.FindByGenre(query)
	default:
		found = c.inventory.FindByTitle(query)
	}
	c.printBooks(found)
}

func (c *Console) updateBook() {
	id, ok := c.promptInt64("Book id: ")
	if !ok {
		return
	}
	title := c.prompt("New title: ")
	author := c.prompt("New author: ")
	genre := c.prompt("New genre: ")
	book, err := c.inventory.UpdateDetails(id, title, author, genre)
	if err != nil {
		c.report(err)
		return
	}
	c.actionLog.Record("Updated book %d: %q by %s", book.ID, book.Title, book.Author)
	fmt.Fprintf(c.out, "Updated book %d\n", book.ID)
}

func (c *Console) deleteBook() {
	id, ok := c.promptInt64("Book id: ")
	if !ok {
		return
	}
	if err := c.inventory.DeleteBook(id); err != nil {
		c.report(err)
		return
	}
	c.actionLog.Record("Deleted book %d", id)
	fmt.Fprintf(c.out, "Deleted book %d\n", id)
}

func (c *Console) addMember() {
	name := c.prompt("Name: ")
	email := c.prompt("Email: ")
	phone := c.prompt("Phone: ")
	member, err := c.members.AddMember(name, email, phone)
	if err != nil {
		c.report(err)
		return
	}
	c.actionLog.Record("Added member %d: %s", member.ID, member.Name)
	fmt.Fprintf(c.out, "Added member %d\n", member.ID)
}

func (c *Console) listMembers() {
	for _, m := range c.members.ListMembers() {
		fmt.Fprintf(c.out, "%4d  %-25s %-30s %s\n", m.ID, m.Name, m.Email, m.Phone)
	}
}

func (c *Console) updateMember() {
	id, ok := c.promptInt64("Member id: ")
	if !ok {
		return
	}
	name := c.prompt("New name: ")
	email := c.prompt("New email: ")
	phone := c.prompt("New phone: ")
	member, err := c.members.UpdateMember(id, name, email, phone)
	if err != nil {
		c.report(err)
		return
	}
	c.actionLog.Record("Updated member %d: %s", member.ID, member.Name)
	fmt.Fprintf(c.out, "Updated member %d\n", member.ID)
}

func (c *Console) deleteMember() {
	id, ok := c.promptInt64("Member id: ")
	if !ok {
		return
	}
	if err := c.members.DeleteMember(id); err != nil {
		c.report(err)
		return
	}
	c.actionLog.Record("Deleted member %d", id)
	fmt.Fprintf(c.out, "Deleted member %d\n", id)
}

func (c *Console) borrowBook() {
	bookID, ok := c.promptInt64("Book id: ")
	if !ok {
		return
	}
	memberID, ok := c.promptInt64("Member id: ")
	if !ok {
		return
	}
	loan, err := c.ledger.OpenLoan(bookID, memberID)
	if err != nil {
		c.report(err)
		return
	}
	c.actionLog.Record("Member %d borrowed book %d (loan %d)", memberID, bookID, loan.ID)
	fmt.Fprintf(c.out, "Loan %d opened\n", loan.ID)
}

func (c *Console) returnBook() {
	bookID, ok := c.promptInt64("Book id: ")
	if !ok {
		return
	}
	memberID, ok := c.promptInt64("Member id: ")
	if !ok {
		return
	}
	loan, err := c.ledger.CloseLoan(bookID, memberID)
	if err != nil {
		c.report(err)
		return
	}
	c.actionLog.Record("Member %d returned book %d (loan %d)", memberID, bookID, loan.ID)
	fmt.Fprintf(c.out, "Loan %d closed\n", loan.ID)
}

func (c *Console) listActiveLoans() {
	for _, s := range c.ledger.LoanSummaries() {
		fmt.Fprintf(c.out, "%4d  %q by %s -> %s (since %s)\n",
			s.Loan.ID, s.Book.Title, s.Book.Author, s.Member.Name,
			s.Loan.BorrowDate.Format("2006-01-02"))
	}
}

func (c *Console) listMemberLoans() {
	memberID, ok := c.promptInt64("Member id: ")
	if !ok {
		return
	}
	books := c.ledger.BorrowedBookDetails(memberID)
	if len(books) == 0 {
		fmt.Fprintln(c.out, "No active loans.")
		return
	}
	c.printBooks(books)
}

func (c *Console) exportCSV() {
	if result, err := c.exporter.ExportBooks(c.inventory.ListBooks()); err != nil {
		c.report(err)
	} else {
		fmt.Fprintf(c.out, "Exported %d books to %s\n", result.RowsExported, result.Path)
	}
	if result, err := c.exporter.ExportMembers(c.members.ListMembers()); err != nil {
		c.report(err)
	} else {
		fmt.Fprintf(c.out, "Exported %d members to %s\n", result.RowsExported, result.Path)
	}
	c.actionLog.Record("Exported catalog and members to CSV")
}

func (c *Console) printBooks(books []entities.Book) {
	if len(books) == 0 {
		fmt.Fprintln(c.out, "No books found.")
		return
	}
	for _, b := range books {
		fmt.Fprintf(c.out, "%4d  %-35q %-20s %-15s %d available\n",
			b.ID, b.Title, b.Author, b.Genre, b.AvailableCopies)
	}
}

func (c *Console) report(err error) {
	switch {
	case errors.Is(err, entities.ErrNotFound):
		fmt.Fprintf(c.out, "Not found: %v\n", err)
	case errors.Is(err, entities.ErrDuplicateBook):
		fmt.Fprintf(c.out, "Already in catalog: %v\n", err)
	case errors.Is(err, entities.ErrExhausted):
		fmt.Fprintf(c.out, "No copies available: %v\n", err)
	case errors.Is(err, entities.ErrConflict):
		fmt.Fprintf(c.out, "Not allowed: %v\n", err)
	default:
		fmt.Fprintf(c.out, "Error: %v\n", err)
	}
}
