package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"igcancel/pkg/logger"
	"igcancel/pkg/storage"
)

// TimestampLayout is the on-disk format of Progress.Timestamp
const TimestampLayout = "2006-01-02 15:04:05"

// Timestamp is a wall-clock time stored in TimestampLayout
type Timestamp struct {
	time.Time
}

// MarshalJSON writes the time in TimestampLayout
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte(`""`), nil
	}
	return json.Marshal(t.Format(TimestampLayout))
}

// UnmarshalJSON accepts TimestampLayout or RFC 3339
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		t.Time = time.Time{}
		return nil
	}

	parsed, err := time.ParseInLocation(TimestampLayout, s, time.Local)
	if err != nil {
		parsed, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return fmt.Errorf("invalid timestamp %q", s)
		}
	}
	t.Time = parsed
	return nil
}

// Progress is the resumable state of a cancellation run
type Progress struct {
	Position          int       `json:"position"`
	SuccessCount      int       `json:"success_count"`
	FailedIdentifiers []string  `json:"failed_identifiers"`
	Timestamp         Timestamp `json:"timestamp"`

	RunID  string `json:"run_id,omitempty"`
	Total  int    `json:"total,omitempty"`
	Source string `json:"source,omitempty"`
}

// FailedCount returns the number of failed identifiers
func (p *Progress) FailedCount() int {
	return len(p.FailedIdentifiers)
}

// Clone returns a deep copy
func (p *Progress) Clone() *Progress {
	if p == nil {
		return nil
	}
	c := *p
	if p.FailedIdentifiers != nil {
		c.FailedIdentifiers = make([]string, len(p.FailedIdentifiers))
		copy(c.FailedIdentifiers, p.FailedIdentifiers)
	}
	return &c
}

// Remaining returns the identifiers not yet consumed by this record
func (p *Progress) Remaining(ids []string) []string {
	if p == nil || p.Position <= 0 {
		return ids
	}
	if p.Position >= len(ids) {
		return nil
	}
	return ids[p.Position:]
}

// Done reports whether every identifier of a list of length total was consumed
func (p *Progress) Done(total int) bool {
	return p != nil && p.Position >= total
}

func (p *Progress) validate() error {
	if p.Position < 0 {
		return fmt.Errorf("negative position %d", p.Position)
	}
	if p.SuccessCount < 0 {
		return fmt.Errorf("negative success count %d", p.SuccessCount)
	}
	if p.SuccessCount+len(p.FailedIdentifiers) > p.Position {
		return fmt.Errorf("counts exceed position: %d succeeded, %d failed, position %d",
			p.SuccessCount, len(p.FailedIdentifiers), p.Position)
	}
	return nil
}

// Info summarises a stored checkpoint
type Info struct {
	Path         string
	Position     int
	Total        int
	SuccessCount int
	FailedCount  int
	RunID        string
	Source       string
	UpdatedAt    time.Time
	Age          time.Duration
}

// Manager reads and writes the progress file
type Manager struct {
	path   string
	logger logger.Logger
}

// NewManager creates a manager for the progress file at path
func NewManager(path string) *Manager {
	return &Manager{
		path:   path,
		logger: logger.GetLogger(),
	}
}

// Path returns the progress file location
func (m *Manager) Path() string {
	return m.path
}

// Load reads the progress file. It returns nil, nil when no file exists.
func (m *Manager) Load() (*Progress, error) {
	data, err := os.ReadFile(m.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open checkpoint file: %w", err)
	}

	var progress Progress
	if err := json.Unmarshal(data, &progress); err != nil {
		return nil, fmt.Errorf("failed to decode checkpoint: %w", err)
	}
	if err := progress.validate(); err != nil {
		return nil, fmt.Errorf("corrupt checkpoint %s: %w", m.path, err)
	}
	if progress.FailedIdentifiers == nil {
		progress.FailedIdentifiers = []string{}
	}

	m.logger.DebugWithFields("Checkpoint loaded", map[string]interface{}{
		"path":          m.path,
		"position":      progress.Position,
		"success_count": progress.SuccessCount,
		"failed_count":  progress.FailedCount(),
	})

	return &progress, nil
}

// Save writes the progress file atomically. A zero timestamp is set to now.
func (m *Manager) Save(progress *Progress) error {
	if progress == nil {
		return fmt.Errorf("nil progress")
	}

	record := progress.Clone()
	if record.Timestamp.IsZero() {
		record.Timestamp = Timestamp{time.Now()}
	}
	if record.FailedIdentifiers == nil {
		record.FailedIdentifiers = []string{}
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}

	if err := storage.WriteFileAtomic(m.path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}

	m.logger.DebugWithFields("Checkpoint saved", map[string]interface{}{
		"position":      record.Position,
		"success_count": record.SuccessCount,
		"failed_count":  record.FailedCount(),
	})
	return nil
}

// Delete removes the progress file
func (m *Manager) Delete() error {
	if err := os.Remove(m.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}

	m.logger.Info("Checkpoint deleted")
	return nil
}

// Exists checks if a progress file exists
func (m *Manager) Exists() bool {
	_, err := os.Stat(m.path)
	return err == nil
}

// Info returns a summary of the stored checkpoint, or nil when there is none
func (m *Manager) Info() (*Info, error) {
	progress, err := m.Load()
	if err != nil || progress == nil {
		return nil, err
	}

	updated := progress.Timestamp.Time
	if updated.IsZero() {
		if stat, err := os.Stat(m.path); err == nil {
			updated = stat.ModTime()
		}
	}

	return &Info{
		Path:         m.path,
		Position:     progress.Position,
		Total:        progress.Total,
		SuccessCount: progress.SuccessCount,
		FailedCount:  progress.FailedCount(),
		RunID:        progress.RunID,
		Source:       progress.Source,
		UpdatedAt:    updated,
		Age:          time.Since(updated),
	}, nil
}

// BackupPath returns where Backup copies the progress file
func (m *Manager) BackupPath() string {
	return m.path + ".backup"
}

// Backup copies the current progress file next to itself. It is a no-op
// when there is nothing to back up.
func (m *Manager) Backup() error {
	if !m.Exists() {
		return nil
	}

	if err := storage.CopyFile(m.path, m.BackupPath()); err != nil {
		return fmt.Errorf("failed to back up checkpoint: %w", err)
	}

	m.logger.Debug("Checkpoint backed up")
	return nil
}
