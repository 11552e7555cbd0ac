package integrity

import (
	"context"
	"encoding/json"
	"os"

	"guide-builder/core/errors"
	"guide-builder/core/storage"
	"guide-builder/feature/guide/assemble"
	"guide-builder/feature/guide/history"
	"guide-builder/feature/guide/models"
	"guide-builder/feature/integrity/checks"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrStorageDisabled is returned by bucket checks when no storage client is configured.
var ErrStorageDisabled = errors.New("object storage is not configured")

// DocumentSource supplies the document to check.
type DocumentSource interface {
	Document() (*models.Document, bool)
}

// FileDocument reads an exported document from disk.
type FileDocument struct {
	Path string
}

// Document implements DocumentSource. Missing or unreadable files yield no document.
func (f FileDocument) Document() (*models.Document, bool) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, false
	}
	var doc models.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, false
	}
	return &doc, true
}

// Option configures a Service.
type Option func(*Service)

// WithDocuments enables the document check.
func WithDocuments(src DocumentSource, expected history.ExpectedCountSource, ratio float64) Option {
	return func(s *Service) {
		s.documents = src
		s.expected = expected
		s.ratio = ratio
	}
}

// Service handles integrity checks.
type Service struct {
	client    storage.Client
	bucket    string
	logger    *zap.Logger
	db        *gorm.DB
	cachePath string
	documents DocumentSource
	expected  history.ExpectedCountSource
	ratio     float64
}

// NewService creates a new integrity service. client and db may be nil.
func NewService(client storage.Client, bucket string, logger *zap.Logger, db *gorm.DB, cachePath string, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		client:    client,
		bucket:    bucket,
		logger:    logger,
		db:        db,
		cachePath: cachePath,
		ratio:     assemble.DefaultSafetyRatio,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CheckStructure returns a list of missing folders.
func (s *Service) CheckStructure(ctx context.Context) ([]string, error) {
	if s.client == nil {
		return nil, ErrStorageDisabled
	}
	return checks.CheckStructure(ctx, s.client, s.bucket)
}

// FixStructure creates the missing folders.
func (s *Service) FixStructure(ctx context.Context, missing []string) error {
	if s.client == nil {
		return ErrStorageDisabled
	}
	return checks.FixStructure(ctx, s.client, s.bucket, s.logger, missing)
}

// CheckCache parses the cache file.
func (s *Service) CheckCache() checks.CacheReport {
	return checks.CheckCacheFile(s.cachePath)
}

// CheckDatabase validates the run history schema.
func (s *Service) CheckDatabase() (*checks.DatabaseReport, error) {
	return checks.CheckDatabase(s.db)
}

// CheckDocument validates the current document against the expected service count.
func (s *Service) CheckDocument(ctx context.Context) (checks.DocumentReport, error) {
	if s.documents == nil {
		return checks.DocumentReport{}, errors.New("no document source configured")
	}
	doc, _ := s.documents.Document()

	expected := 0
	if s.expected != nil {
		n, err := s.expected.ExpectedServices(ctx)
		if err != nil {
			s.logger.Warn("Expected service count unavailable", zap.Error(err))
		} else {
			expected = n
		}
	}
	return checks.CheckDocument(doc, expected, s.ratio), nil
}
