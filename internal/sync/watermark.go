package sync

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Watermark persists the instant of the most recent successful pull. It is
// the conflict-detection cutoff during publish: a remote record modified
// after it is presumed to carry changes this installation has not seen.
// Absent on first run, and never advanced by a failed pull.
type Watermark struct {
	mu   sync.Mutex
	path string
}

type watermarkFile struct {
	LastSync string `json:"last_sync"`
}

// NewWatermark manages the watermark file inside dir
func NewWatermark(dir string) *Watermark {
	return &Watermark{path: filepath.Join(dir, "sync_meta.json")}
}

// Get returns the last successful sync time, or ok=false when no successful
// pull has completed yet (or the file is unreadable, which is treated the
// same: no conflict checking until a pull succeeds).
func (w *Watermark) Get() (time.Time, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	data, err := os.ReadFile(w.path)
	if err != nil {
		return time.Time{}, false
	}

	var f watermarkFile
	if err := json.Unmarshal(data, &f); err != nil {
		return time.Time{}, false
	}

	t, err := time.Parse(time.RFC3339, f.LastSync)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Set writes a new watermark
func (w *Watermark) Set(t time.Time) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	data, err := json.Marshal(watermarkFile{LastSync: t.Format(time.RFC3339)})
	if err != nil {
		return fmt.Errorf("failed to marshal sync watermark: %w", err)
	}

	if err := os.WriteFile(w.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write sync watermark: %w", err)
	}
	return nil
}

// Reset discards the watermark so the next publish skips conflict checking
// and the next pull behaves like a first run
func (w *Watermark) Reset() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := os.Remove(w.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove sync watermark: %w", err)
	}
	return nil
}
