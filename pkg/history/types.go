package history

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Record is one check outcome.
type Record struct {
	ID           string    `json:"id"`
	Time         time.Time `json:"time"`
	Source       string    `json:"source"` // "cli", "api", file name, ...
	DocumentHash string    `json:"document_hash"`
	Valid        bool      `json:"valid"`
	Verdict      string    `json:"verdict"`
	ErrorCode    string    `json:"error_code,omitempty"`
	Line         int       `json:"line,omitempty"`
	Stage        string    `json:"stage,omitempty"`
}

// NewRecord fills in an id, the current time and the document hash.
func NewRecord(source, text string) *Record {
	return &Record{
		ID:           uuid.New().String(),
		Time:         time.Now().UTC(),
		Source:       source,
		DocumentHash: HashDocument(text),
	}
}

// HashDocument returns the hex SHA-256 of text, or "" for empty text.
func HashDocument(text string) string {
	if text == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Query filters records. Zero fields do not filter.
type Query struct {
	Since  time.Time
	Until  time.Time
	Source string
	Valid  *bool
	Limit  int
}

func (q *Query) matches(r *Record) bool {
	if q == nil {
		return true
	}
	if !q.Since.IsZero() && r.Time.Before(q.Since) {
		return false
	}
	if !q.Until.IsZero() && !r.Time.Before(q.Until) {
		return false
	}
	if q.Source != "" && r.Source != q.Source {
		return false
	}
	if q.Valid != nil && r.Valid != *q.Valid {
		return false
	}
	return true
}

// Store persists records.
type Store interface {
	// Record stores r.
	Record(ctx context.Context, r *Record) error

	// List returns matching records, newest first.
	List(ctx context.Context, q *Query) ([]*Record, error)

	// DeleteBefore removes records older than cutoff and returns how many.
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// Count returns the number of stored records.
	Count(ctx context.Context) (int64, error)

	// Close releases the store.
	Close() error
}

// StorageError wraps a backend failure.
type StorageError struct {
	Backend   string
	Operation string
	Cause     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("history storage error [backend=%s, operation=%s]: %v", e.Backend, e.Operation, e.Cause)
}

func (e *StorageError) Unwrap() error { return e.Cause }
