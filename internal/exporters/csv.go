// Package exporters writes catalog and member snapshots to CSV files. Unlike
// the line-oriented stores, exports go through encoding/csv and are properly
// quoted.
package exporters

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/faithadeola/library-system/internal/entities"
)

type ExportResult struct {
	Path         string `json:"path"`
	RowsExported int    `json:"rows_exported"`
}

// CSVExporter writes snapshot files into ExportDir.
type CSVExporter struct {
	ExportDir string
	now       func() time.Time
}

func NewCSVExporter(exportDir string) *CSVExporter {
	return &CSVExporter{ExportDir: exportDir, now: time.Now}
}

// ExportBooks writes the catalog to books.csv, one row per book plus a
// header, each row stamped with the export date.
func (e *CSVExporter) ExportBooks(books []entities.Book) (ExportResult, error) {
	header := []string{"id", "title", "author", "genre", "available_copies", "export_date"}
	stamp := e.now().Format("2006-01-02")

	rows := make([][]string, 0, len(books))
	for _, b := range books {
		rows = append(rows, []string{
			strconv.FormatInt(b.ID, 10),
			b.Title,
			b.Author,
			b.Genre,
			strconv.Itoa(b.AvailableCopies),
			stamp,
		})
	}
	return e.write("books.csv", header, rows)
}

// ExportMembers writes the member registry to members.csv.
func (e *CSVExporter) ExportMembers(members []entities.Member) (ExportResult, error) {
	header := []string{"id", "name", "email", "phone", "export_date"}
	stamp := e.now().Format("2006-01-02")

	rows := make([][]string, 0, len(members))
	for _, m := range members {
		rows = append(rows, []string{
			strconv.FormatInt(m.ID, 10),
			m.Name,
			m.Email,
			m.Phone,
			stamp,
		})
	}
	return e.write("members.csv", header, rows)
}

func (e *CSVExporter) write(filename string, header []string, rows [][]string) (ExportResult, error) {
	if err := os.MkdirAll(e.ExportDir, 0755); err != nil {
		return ExportResult{}, fmt.Errorf("failed to create export directory: %w", err)
	}

	path := filepath.Join(e.ExportDir, filename)
	file, err := os.Create(path)
	if err != nil {
		return ExportResult{}, fmt.Errorf("failed to create export file: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(header); err != nil {
		return ExportResult{}, fmt.Errorf("failed to write header: %w", err)
	}
	if err := w.WriteAll(rows); err != nil {
		return ExportResult{}, fmt.Errorf("failed to write rows: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return ExportResult{}, err
	}

	return ExportResult{Path: path, RowsExported: len(rows)}, nil
}
