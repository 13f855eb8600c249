// Package audit records what the engine did: a human-readable action log and
// JSON snapshots of reconciliation reports.
package audit

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Auditor persists JSON snapshots under the audit directory with UUID4
// filenames.
type Auditor struct {
	AuditDir string
}

func NewAuditor(auditDir string) *Auditor {
	return &Auditor{
		AuditDir: auditDir,
	}
}

// SaveJSON saves the provided data as JSON to a file with UUID4 filename
func (a *Auditor) SaveJSON(data any) (string, error) {
	if err := a.ensureAuditDir(); err != nil {
		return "", fmt.Errorf("failed to ensure audit directory: %w", err)
	}

	auditID := uuid.New()
	filename := fmt.Sprintf("%s.json", auditID.String())
	path := filepath.Join(a.AuditDir, filename)

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal data to JSON: %w", err)
	}

	if err := os.WriteFile(path, jsonData, 0644); err != nil {
		return "", fmt.Errorf("failed to write audit file: %w", err)
	}

	return filename, nil
}

// ensureAuditDir creates the audit directory if it doesn't exist
func (a *Auditor) ensureAuditDir() error {
	if _, err := os.Stat(a.AuditDir); os.IsNotExist(err) {
		if err := os.MkdirAll(a.AuditDir, 0755); err != nil {
			return fmt.Errorf("failed to create audit directory: %w", err)
		}
	}
	return nil
}

// ActionLog appends timestamped one-line entries to a text file. Writes are
// best effort: a log that cannot be written must never fail the operation it
// describes, so errors go to the process log and are otherwise swallowed.
type ActionLog struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

func NewActionLog(path string) *ActionLog {
	return &ActionLog{path: path, now: time.Now}
}

// Record appends one entry, formatted as "[2006-01-02 15:04:05] message".
func (l *ActionLog) Record(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	file, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.Printf("Action log unavailable: %v", err)
		return
	}
	defer file.Close()

	line := fmt.Sprintf("[%s] %s", l.now().Format("2006-01-02 15:04:05"), fmt.Sprintf(format, args...))
	if _, err := fmt.Fprintln(file, line); err != nil {
		log.Printf("Action log write failed: %v", err)
	}
}
