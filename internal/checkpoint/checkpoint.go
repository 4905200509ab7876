// Package checkpoint persists the single run-state record that tracks
// progress through an update's ordered operation list.
package checkpoint

import (
	"time"
)

// Checkpoint is the persisted run record. CurrentIndex is the index of the
// next unprocessed entry; it is persisted after every entry before the engine
// proceeds, so a crash never loses more than the in-flight operation.
type Checkpoint struct {
	FromVersion  string     `json:"from_version"`
	ToVersion    string     `json:"to_version"`
	StartedAt    time.Time  `json:"started_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	CurrentIndex int        `json:"current_index"`
	IsCompleted  bool       `json:"is_completed"`
	LastError    string     `json:"last_error,omitempty"`
}

// New creates a fresh run record starting at entry 0.
func New(fromVersion string, toVersion string, now time.Time) *Checkpoint {
	return &Checkpoint{
		FromVersion: fromVersion,
		ToVersion:   toVersion,
		StartedAt:   now.UTC(),
	}
}

// Matches reports whether this record belongs to the given version
// transition. A mismatched record is stale and must never be resumed.
func (c *Checkpoint) Matches(fromVersion string, toVersion string) bool {
	return c.FromVersion == fromVersion && c.ToVersion == toVersion
}

// MarkCompleted stamps the record as a finished run.
func (c *Checkpoint) MarkCompleted(now time.Time) {
	completed := now.UTC()
	c.CompletedAt = &completed
	c.IsCompleted = true
	c.LastError = ""
}

func (c *Checkpoint) valid() bool {
	if c.FromVersion == "" || c.ToVersion == "" {
		return false
	}
	if c.CurrentIndex < 0 {
		return false
	}
	return true
}
