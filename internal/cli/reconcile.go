package cli

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/faithadeola/library-system/internal/audit"
	"github.com/faithadeola/library-system/internal/config"
	"github.com/faithadeola/library-system/internal/database"
	booksrepo "github.com/faithadeola/library-system/internal/database/books"
	loansrepo "github.com/faithadeola/library-system/internal/database/loans"
	membersrepo "github.com/faithadeola/library-system/internal/database/members"
	"github.com/faithadeola/library-system/internal/entities"
	"github.com/faithadeola/library-system/internal/storage"
	"github.com/faithadeola/library-system/internal/syncstore"
)

// ReconcileCommand runs one reconciliation pass over all three stores and
// exits. Useful after restoring either store from a backup.
type ReconcileCommand struct {
	DatabasePath string
	FilesDir     string
	AuditDir     string
}

// NewReconcileCommand creates a new ReconcileCommand
func NewReconcileCommand() *ReconcileCommand {
	return &ReconcileCommand{}
}

// ParseFlags parses command line flags
func (cmd *ReconcileCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("reconcile", flag.ExitOnError)

	cfg := config.NewConfig()
	fs.StringVar(&cmd.DatabasePath, "db", cfg.Database.Path, "Path to the library database")
	fs.StringVar(&cmd.FilesDir, "files", cfg.Files.Dir, "Directory holding the record files")
	fs.StringVar(&cmd.AuditDir, "audit", cfg.Audit.Dir, "Directory for the reconciliation snapshot")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s reconcile [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Merge the file and database stores, heal divergence, and save a report.\n\n")
		fmt.Fprintf(os.Stderr, "The database wins for records both stores know; file-only records are\n")
		fmt.Fprintf(os.Stderr, "written back to the database. Safe to run repeatedly.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	return fs.Parse(args)
}

// Run executes the reconciliation
func (cmd *ReconcileCommand) Run() error {
	db, err := database.NewDatabase(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	bookFile, err := storage.NewLineFile(filepath.Join(cmd.FilesDir, "books.txt"), storage.BookCodec{})
	if err != nil {
		return err
	}
	loanFile, err := storage.NewLineFile(filepath.Join(cmd.FilesDir, "borrowings.txt"), storage.LoanCodec{})
	if err != nil {
		return err
	}
	memberFile, err := storage.NewLineFile(filepath.Join(cmd.FilesDir, "members.txt"), storage.MemberCodec{})
	if err != nil {
		return err
	}

	books := syncstore.New[entities.Book]("book", bookFile, booksrepo.NewRepository(db.DB))
	loans := syncstore.New[entities.Loan]("loan", loanFile, loansrepo.NewRepository(db.DB))
	members := syncstore.New[entities.Member]("member", memberFile, membersrepo.NewRepository(db.DB))

	var reports []syncstore.Report
	for _, store := range []func() (syncstore.Report, error){books.Reconcile, members.Reconcile, loans.Reconcile} {
		report, err := store()
		if err != nil {
			return err
		}
		reports = append(reports, report)
		fmt.Printf("%-8s %d records, %d file-only, %d healed\n",
			report.Kind, report.Loaded, report.FromFileOnly, report.Healed)
	}

	auditor := audit.NewAuditor(cmd.AuditDir)
	filename, err := auditor.SaveJSON(reports)
	if err != nil {
		return fmt.Errorf("failed to save reconciliation snapshot: %w", err)
	}
	fmt.Printf("Snapshot saved as %s\n", filename)
	return nil
}
