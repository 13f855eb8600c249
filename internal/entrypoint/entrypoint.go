// Package entrypoint assembles the engine: stores, services, background
// queue and scheduler, and runs the interactive front-end with graceful
// shutdown.
package entrypoint

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/faithadeola/library-system/internal/audit"
	"github.com/faithadeola/library-system/internal/cli"
	"github.com/faithadeola/library-system/internal/config"
	"github.com/faithadeola/library-system/internal/database"
	booksrepo "github.com/faithadeola/library-system/internal/database/books"
	loansrepo "github.com/faithadeola/library-system/internal/database/loans"
	membersrepo "github.com/faithadeola/library-system/internal/database/members"
	"github.com/faithadeola/library-system/internal/entities"
	"github.com/faithadeola/library-system/internal/exporters"
	"github.com/faithadeola/library-system/internal/inventory"
	"github.com/faithadeola/library-system/internal/ledger"
	"github.com/faithadeola/library-system/internal/members"
	"github.com/faithadeola/library-system/internal/scheduler"
	"github.com/faithadeola/library-system/internal/storage"
	"github.com/faithadeola/library-system/internal/syncstore"
	"github.com/faithadeola/library-system/internal/tasks"
)

// Engine bundles the assembled services and their lifecycle handles.
type Engine struct {
	Inventory *inventory.Service
	Ledger    *ledger.Service
	Members   *members.Directory
	Exporter  *exporters.CSVExporter
	ActionLog *audit.ActionLog
	Auditor   *audit.Auditor

	Books      *syncstore.Store[entities.Book]
	Loans      *syncstore.Store[entities.Loan]
	MemberRows *syncstore.Store[entities.Member]

	TaskClient *tasks.Client

	db *database.Database
}

// BuildEngine wires every component from configuration. The task queue is
// created when enabled but not started; Run starts it.
func BuildEngine(cfg *config.Config) (*Engine, error) {
	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	bookFile, err := storage.NewLineFile(filepath.Join(cfg.Files.Dir, "books.txt"), storage.BookCodec{})
	if err != nil {
		return nil, err
	}
	loanFile, err := storage.NewLineFile(filepath.Join(cfg.Files.Dir, "borrowings.txt"), storage.LoanCodec{})
	if err != nil {
		return nil, err
	}
	memberFile, err := storage.NewLineFile(filepath.Join(cfg.Files.Dir, "members.txt"), storage.MemberCodec{})
	if err != nil {
		return nil, err
	}

	engine := &Engine{
		ActionLog: audit.NewActionLog(cfg.Audit.LogFile),
		Auditor:   audit.NewAuditor(cfg.Audit.Dir),
		Exporter:  exporters.NewCSVExporter(cfg.Export.Dir),
		db:        db,
	}

	var hook syncstore.FailureHook
	if cfg.Tasks.Enabled {
		client, err := tasks.NewClient(cfg.Database.Path, tasks.Config{
			Workers:         cfg.Tasks.Workers,
			ReleaseAfter:    cfg.Tasks.ReleaseAfter,
			CleanupInterval: cfg.Tasks.CleanupInterval,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize task queue: %w", err)
		}
		engine.TaskClient = client
		hook = tasks.FailureHook(client)
	}

	timeout := cfg.Global.StoreWriteTimeout
	engine.Books = syncstore.New[entities.Book]("book", bookFile, booksrepo.NewRepository(db.DB),
		syncstore.WithTimeout[entities.Book](timeout), syncstore.WithFailureHook[entities.Book](hook))
	engine.Loans = syncstore.New[entities.Loan]("loan", loanFile, loansrepo.NewRepository(db.DB),
		syncstore.WithTimeout[entities.Loan](timeout), syncstore.WithFailureHook[entities.Loan](hook))
	engine.MemberRows = syncstore.New[entities.Member]("member", memberFile, membersrepo.NewRepository(db.DB),
		syncstore.WithTimeout[entities.Member](timeout), syncstore.WithFailureHook[entities.Member](hook))

	engine.Inventory = inventory.NewService(engine.Books)
	engine.Members = members.NewDirectory(engine.MemberRows)
	engine.Ledger = ledger.NewService(engine.Loans, engine.Inventory, engine.Members)
	engine.Inventory.SetLoanGuard(engine.Ledger)

	if cfg.Tasks.Enabled {
		engine.TaskClient.Register(tasks.NewResyncStoreQueue(map[string]tasks.Resyncer{
			engine.Books.Kind():      engine.Books,
			engine.Loans.Kind():      engine.Loans,
			engine.MemberRows.Kind(): engine.MemberRows,
		}))
	}

	return engine, nil
}

// Reconcile runs one reconciliation pass over every store and returns the
// three reports, books first.
func (e *Engine) Reconcile() ([]syncstore.Report, error) {
	var reports []syncstore.Report

	bookReport, err := e.Books.Reconcile()
	if err != nil {
		return nil, err
	}
	reports = append(reports, bookReport)

	memberReport, err := e.MemberRows.Reconcile()
	if err != nil {
		return nil, err
	}
	reports = append(reports, memberReport)

	loanReport, err := e.Loans.Reconcile()
	if err != nil {
		return nil, err
	}
	reports = append(reports, loanReport)

	if n := e.Ledger.LogAnomalies(); n > 0 {
		log.Printf("Reconcile: %d ledger anomalies detected", n)
	}
	return reports, nil
}

// Close releases the engine's resources. Call after stopping the task queue.
func (e *Engine) Close() {
	if e.TaskClient != nil {
		if err := e.TaskClient.Close(); err != nil {
			log.Printf("Failed to close task queue: %v", err)
		}
	}
	if err := e.db.Close(); err != nil {
		log.Printf("Failed to close database: %v", err)
	}
}

// Run builds the engine, reconciles the stores, starts the background
// machinery and hands control to the interactive console. SIGINT and SIGTERM
// trigger a graceful shutdown.
func Run(cfg *config.Config, version string) {
	log.Printf("Starting library engine v%s", version)

	engine, err := BuildEngine(cfg)
	if err != nil {
		log.Fatalf("Failed to build engine: %v", err)
	}
	defer engine.Close()

	reports, err := engine.Reconcile()
	if err != nil {
		log.Fatalf("Startup reconciliation failed: %v", err)
	}
	if filename, err := engine.Auditor.SaveJSON(reports); err != nil {
		log.Printf("Failed to save reconciliation snapshot: %v", err)
	} else {
		log.Printf("Reconciliation snapshot saved as %s", filename)
	}
	engine.ActionLog.Record("Engine started, %d books, %d members, %d loans loaded",
		engine.Books.Len(), engine.MemberRows.Len(), engine.Loans.Len())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if engine.TaskClient != nil {
		go engine.TaskClient.Start(ctx)
	}

	var reconciler *scheduler.ReconcileScheduler
	if cfg.Reconcile.Enabled {
		reconciler = scheduler.NewReconcileScheduler(cfg.Reconcile.Schedule, func() (any, error) {
			return engine.Reconcile()
		}, engine.Auditor)
		if err := reconciler.Start(ctx); err != nil {
			log.Printf("Failed to start reconcile scheduler: %v", err)
		}
	}

	console := cli.NewConsole(engine.Inventory, engine.Ledger, engine.Members, engine.Exporter, engine.ActionLog)

	consoleDone := make(chan struct{})
	go func() {
		console.Run()
		close(consoleDone)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		log.Println("Signal received, shutting down")
	case <-consoleDone:
		log.Println("Console exited, shutting down")
	}

	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
	defer shutdownCancel()

	if reconciler != nil {
		reconciler.Stop()
	}
	if engine.TaskClient != nil {
		engine.TaskClient.Stop(shutdownCtx)
	}
	cancel()

	engine.ActionLog.Record("Engine stopped")
	log.Println("Engine exiting")
}
