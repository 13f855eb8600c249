package cli

import (
	"flag"
	"fmt"
	"os"

	"github.com/faithadeola/library-system/internal/config"
	"github.com/faithadeola/library-system/internal/database"
	booksrepo "github.com/faithadeola/library-system/internal/database/books"
	membersrepo "github.com/faithadeola/library-system/internal/database/members"
	"github.com/faithadeola/library-system/internal/exporters"
)

// ExportCSVCommand writes the catalog and member registry to CSV files
// straight from the relational store, without starting the engine.
type ExportCSVCommand struct {
	DatabasePath string
	OutputDir    string
}

// NewExportCSVCommand creates a new ExportCSVCommand
func NewExportCSVCommand() *ExportCSVCommand {
	return &ExportCSVCommand{}
}

// ParseFlags parses command line flags
func (cmd *ExportCSVCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("export-csv", flag.ExitOnError)

	cfg := config.NewConfig()
	fs.StringVar(&cmd.DatabasePath, "db", cfg.Database.Path, "Path to the library database")
	fs.StringVar(&cmd.OutputDir, "output", cfg.Export.Dir, "Directory for the CSV files")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s export-csv [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Export the book catalog and member registry as CSV snapshots.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	return fs.Parse(args)
}

// Run executes the export
func (cmd *ExportCSVCommand) Run() error {
	db, err := database.NewDatabase(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	books, err := booksrepo.NewRepository(db.DB).LoadAll()
	if err != nil {
		return fmt.Errorf("failed to load books: %w", err)
	}
	members, err := membersrepo.NewRepository(db.DB).LoadAll()
	if err != nil {
		return fmt.Errorf("failed to load members: %w", err)
	}

	exporter := exporters.NewCSVExporter(cmd.OutputDir)
	bookResult, err := exporter.ExportBooks(books)
	if err != nil {
		return err
	}
	memberResult, err := exporter.ExportMembers(members)
	if err != nil {
		return err
	}

	fmt.Printf("Exported %d books to %s\n", bookResult.RowsExported, bookResult.Path)
	fmt.Printf("Exported %d members to %s\n", memberResult.RowsExported, memberResult.Path)
	return nil
}
