package audit

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditor(t *testing.T) {
	tempDir := t.TempDir()
	auditor := NewAuditor(filepath.Join(tempDir, "audit"))

	t.Run("SaveJSON creates audit directory and saves file", func(t *testing.T) {
		testData := map[string]interface{}{
			"kind":   "book",
			"loaded": 42,
		}

		filename, err := auditor.SaveJSON(testData)
		require.NoError(t, err)
		assert.NotEmpty(t, filename)
		assert.Contains(t, filename, ".json")

		fileContent, err := os.ReadFile(filepath.Join(auditor.AuditDir, filename))
		require.NoError(t, err)

		var savedData map[string]interface{}
		require.NoError(t, json.Unmarshal(fileContent, &savedData))
		assert.Equal(t, "book", savedData["kind"])
		assert.Equal(t, float64(42), savedData["loaded"])
	})

	t.Run("SaveJSON generates unique filenames", func(t *testing.T) {
		filename1, err := auditor.SaveJSON(map[string]string{"key": "value"})
		require.NoError(t, err)
		filename2, err := auditor.SaveJSON(map[string]string{"key": "value"})
		require.NoError(t, err)

		assert.NotEqual(t, filename1, filename2)
	})
}

func TestActionLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "library_log.txt")
	actionLog := NewActionLog(path)
	actionLog.now = func() time.Time { return time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC) }

	actionLog.Record("Added book %d: %q", 1, "Dune")
	actionLog.Record("Member %d borrowed book %d", 2, 1)

	content, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, `[2026-03-14 10:30:00] Added book 1: "Dune"`, lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "[2026-03-14 10:30:00] Member 2 borrowed"))
}

func TestActionLogSwallowsWriteFailures(t *testing.T) {
	// a directory path cannot be opened as a file; Record must not panic
	actionLog := NewActionLog(t.TempDir())
	actionLog.Record("this entry is lost")
}
