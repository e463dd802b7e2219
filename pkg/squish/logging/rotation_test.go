package logging_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jamesainslie/squish/pkg/squish/logging"
)

func TestRotationBySize(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	logPath := filepath.Join(tempDir, "size_rotate.log")

	writer, err := logging.NewRotatingWriter(logPath, logging.RotationConfig{
		MaxSize:    512,
		MaxBackups: 3,
		Daily:      false,
	})
	if err != nil {
		t.Fatalf("NewRotatingWriter() error = %v", err)
	}

	for i := 0; i < 20; i++ {
		msg := strings.Repeat("x", 50) + "\n"
		if _, writeErr := writer.Write([]byte(msg)); writeErr != nil {
			t.Fatalf("Write() error = %v", writeErr)
		}
	}

	if err := writer.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	files, err := os.ReadDir(tempDir)
	if err != nil {
		t.Fatalf("reading temp dir: %v", err)
	}

	logFiles := 0
	for _, f := range files {
		if strings.HasPrefix(f.Name(), "size_rotate") && strings.HasSuffix(f.Name(), ".log") {
			logFiles++
		}
	}

	if logFiles < 2 {
		t.Errorf("expected at least 2 log files after rotation, got %d", logFiles)
	}
}

func TestRotationMaxBackups(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	logPath := filepath.Join(tempDir, "backup_limit.log")

	maxBackups := 2
	writer, err := logging.NewRotatingWriter(logPath, logging.RotationConfig{
		MaxSize:    256,
		MaxBackups: maxBackups,
		Daily:      false,
	})
	if err != nil {
		t.Fatalf("NewRotatingWriter() error = %v", err)
	}

	for i := 0; i < 50; i++ {
		msg := strings.Repeat("y", 30) + "\n"
		if _, writeErr := writer.Write([]byte(msg)); writeErr != nil {
			t.Fatalf("Write() error = %v", writeErr)
		}
	}

	if err := writer.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	files, err := os.ReadDir(tempDir)
	if err != nil {
		t.Fatalf("reading temp dir: %v", err)
	}

	logFiles := 0
	for _, f := range files {
		if strings.HasPrefix(f.Name(), "backup_limit") {
			logFiles++
		}
	}

	// Current file plus at most MaxBackups rotated ones.
	if logFiles > maxBackups+1 {
		t.Errorf("expected at most %d log files, got %d", maxBackups+1, logFiles)
	}
}

func TestRotationPrunesOldFiles(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()

	stale := time.Now().Add(-48 * time.Hour)
	oldFiles := []string{
		filepath.Join(tempDir, "prune.2026-01-18-120000.log"),
		filepath.Join(tempDir, "prune.2026-01-19-120000.log"),
	}
	for _, f := range oldFiles {
		if err := os.WriteFile(f, []byte("old content"), 0o644); err != nil {
			t.Fatalf("creating old file: %v", err)
		}
		if err := os.Chtimes(f, stale, stale); err != nil {
			t.Fatalf("setting file time: %v", err)
		}
	}

	logPath := filepath.Join(tempDir, "prune.log")
	writer, err := logging.NewRotatingWriter(logPath, logging.RotationConfig{
		MaxSize:    10 * 1024 * 1024,
		MaxAge:     1,
		MaxBackups: 5,
		Daily:      false,
	})
	if err != nil {
		t.Fatalf("NewRotatingWriter() error = %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	for _, f := range oldFiles {
		if _, err := os.Stat(f); !os.IsNotExist(err) {
			t.Errorf("expected %s to be pruned", filepath.Base(f))
		}
	}
}

func TestRotationDirCreation(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	nestedPath := filepath.Join(tempDir, "nested", "deep", "log.log")

	writer, err := logging.NewRotatingWriter(nestedPath, logging.RotationConfig{
		MaxSize: 1024,
	})
	if err != nil {
		t.Fatalf("NewRotatingWriter() should create parent dirs, error = %v", err)
	}

	if _, writeErr := writer.Write([]byte("test\n")); writeErr != nil {
		t.Errorf("Write() error = %v", writeErr)
	}
	if closeErr := writer.Close(); closeErr != nil {
		t.Errorf("Close() error = %v", closeErr)
	}

	if _, err := os.Stat(nestedPath); os.IsNotExist(err) {
		t.Error("expected log file in nested directory")
	}
}

func TestRotationConcurrentWrites(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	logPath := filepath.Join(tempDir, "concurrent.log")

	writer, err := logging.NewRotatingWriter(logPath, logging.RotationConfig{
		MaxSize: 10 * 1024 * 1024,
	})
	if err != nil {
		t.Fatalf("NewRotatingWriter() error = %v", err)
	}

	const numGoroutines = 10
	const numWrites = 100

	done := make(chan bool, numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func() {
			for j := 0; j < numWrites; j++ {
				msg := strings.Repeat("x", 50) + "\n"
				if _, writeErr := writer.Write([]byte(msg)); writeErr != nil {
					t.Errorf("Write() error = %v", writeErr)
				}
			}
			done <- true
		}()
	}
	for i := 0; i < numGoroutines; i++ {
		<-done
	}

	if err := writer.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	if len(lines) != numGoroutines*numWrites {
		t.Errorf("expected %d lines, got %d", numGoroutines*numWrites, len(lines))
	}
}
