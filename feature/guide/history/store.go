package history

import (
	"context"
	"time"
	"unicode/utf8"

	"guide-builder/core/errors"

	"gorm.io/gorm"
)

// Run outcomes as stored.
const (
	OutcomeSuccess  = "success"
	OutcomeDegraded = "degraded"
	OutcomeFailed   = "failed"
)

// RunRecord is one pipeline run.
type RunRecord struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	StartedAt  time.Time `gorm:"index" json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
	Outcome    string    `gorm:"size:16;index" json:"outcome"`
	Services   int       `json:"services"`
	Elements   int       `json:"elements"`
	ImageLinks int       `json:"imageLinks"`
	Fetched    int       `json:"fetched"`
	Reused     int       `json:"reused"`
	Missed     int       `json:"missed"`
	Pruned     int       `json:"pruned"`
	Error      string    `gorm:"size:1024" json:"error,omitempty"`
}

// TableName overrides the GORM table name.
func (RunRecord) TableName() string {
	return "guide_runs"
}

// Columns lists the columns the history table must carry.
var Columns = []string{
	"id", "started_at", "finished_at", "outcome", "services", "elements",
	"image_links", "fetched", "reused", "missed", "pruned", "error",
}

// Store persists run records.
type Store struct {
	db *gorm.DB
}

// NewStore creates a Store on an open connection.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB returns the underlying connection.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Migrate creates or updates the history table.
func (s *Store) Migrate() error {
	if err := s.db.AutoMigrate(&RunRecord{}); err != nil {
		return errors.Wrap(err, "migrate run history")
	}
	return nil
}

// maxErrorBytes matches the size of the error column.
const maxErrorBytes = 1024

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// Record stores a run. Long error messages are truncated to the column size.
func (s *Store) Record(ctx context.Context, rec RunRecord) error {
	rec.Error = truncate(rec.Error, maxErrorBytes)
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return errors.Wrapf(err, "record run %s", rec.ID)
	}
	return nil
}

// LastSuccessful returns the most recent run that produced a document, or nil.
func (s *Store) LastSuccessful(ctx context.Context) (*RunRecord, error) {
	var rec RunRecord
	err := s.db.WithContext(ctx).
		Where("outcome IN ?", []string{OutcomeSuccess, OutcomeDegraded}).
		Order("finished_at DESC").
		Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "query last successful run")
	}
	return &rec, nil
}

// Recent returns up to limit runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	var recs []RunRecord
	if err := s.db.WithContext(ctx).Order("started_at DESC").Limit(limit).Find(&recs).Error; err != nil {
		return nil, errors.Wrap(err, "query recent runs")
	}
	return recs, nil
}
