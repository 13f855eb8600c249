// Package storage implements the durable flat-file side of the dual-write
// persistence: one comma-separated record per line, fields in fixed order per
// entity. Creates append; updates and deletes rewrite the file. Embedded
// commas in text fields are a documented limitation of the format, not
// escaped.
package storage

import (
	"bufio"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Codec translates between an entity and its comma-separated line fields.
type Codec[E any] interface {
	Encode(e E) string
	Decode(fields []string) (E, error)
	ID(e E) int64
}

// LineFile is a line-oriented record file for one entity type.
type LineFile[E any] struct {
	path  string
	codec Codec[E]
	mu    sync.Mutex
}

// NewLineFile creates a line file store at path. The file itself is created
// lazily on the first append.
func NewLineFile[E any](path string, codec Codec[E]) (*LineFile[E], error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
	}
	return &LineFile[E]{path: path, codec: codec}, nil
}

// Append writes a new record to the end of the file.
func (f *LineFile[E]) Append(e E) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	file, err := os.OpenFile(f.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", f.path, err)
	}
	defer file.Close()

	if _, err := fmt.Fprintln(file, f.codec.Encode(e)); err != nil {
		return fmt.Errorf("append to %s: %w", f.path, err)
	}
	return nil
}

// Upsert replaces the line whose first field matches the record's id, or
// appends the record when no such line exists.
func (f *LineFile[E]) Upsert(e E) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := f.codec.ID(e)
	lines, err := f.readLines()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	found := false
	for i, line := range lines {
		if lineID(line) == id {
			lines[i] = f.codec.Encode(e)
			found = true
			break
		}
	}
	if !found {
		lines = append(lines, f.codec.Encode(e))
	}
	return f.writeLines(lines)
}

// Delete drops the line whose first field matches id. Deleting an absent id
// is not an error.
func (f *LineFile[E]) Delete(id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	lines, err := f.readLines()
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}

	kept := lines[:0]
	for _, line := range lines {
		if lineID(line) != id {
			kept = append(kept, line)
		}
	}
	return f.writeLines(kept)
}

// LoadAll parses every line of the file. Malformed lines are logged and
// skipped so one corrupt record does not take the whole store down. A missing
// file yields an empty result.
func (f *LineFile[E]) LoadAll() ([]E, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	lines, err := f.readLines()
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var records []E
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		record, err := f.codec.Decode(strings.Split(line, ","))
		if err != nil {
			log.Printf("Skipping invalid record in %s: %q (%v)", f.path, line, err)
			continue
		}
		records = append(records, record)
	}
	return records, nil
}

// ReplaceAll rewrites the whole file from the given records.
func (f *LineFile[E]) ReplaceAll(records []E) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	lines := make([]string, 0, len(records))
	for _, e := range records {
		lines = append(lines, f.codec.Encode(e))
	}
	return f.writeLines(lines)
}

func (f *LineFile[E]) readLines() ([]string, error) {
	file, err := os.Open(f.path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines, scanner.Err()
}

func (f *LineFile[E]) writeLines(lines []string) error {
	tmp := f.path + ".tmp"
	file, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", tmp, err)
	}

	w := bufio.NewWriter(file)
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			file.Close()
			return fmt.Errorf("write %s: %w", tmp, err)
		}
	}
	if err := w.Flush(); err != nil {
		file.Close()
		return fmt.Errorf("flush %s: %w", tmp, err)
	}
	if err := file.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, f.path)
}

// lineID extracts the leading id field; -1 for lines that do not start with
// an integer, so malformed lines are preserved by Upsert and Delete.
func lineID(line string) int64 {
	head, _, _ := strings.Cut(line, ",")
	var id int64
	if _, err := fmt.Sscanf(head, "%d", &id); err != nil {
		return -1
	}
	return id
}
