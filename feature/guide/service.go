package guide

import (
	"context"

	"guide-builder/core/errors"
	"guide-builder/feature/guide/cache"
	"guide-builder/feature/guide/history"
	"guide-builder/feature/guide/models"
	"guide-builder/feature/guide/pipeline"

	"go.uber.org/zap"
)

// ErrHistoryDisabled is returned when run history is requested without a database.
var ErrHistoryDisabled = errors.New("run history is not configured")

// Status is the current state of the guide builder.
type Status struct {
	Running  bool                 `json:"running"`
	Progress models.Progress      `json:"progress"`
	Last     *pipeline.RunSummary `json:"last,omitempty"`
}

// Service exposes guide runs and their results.
type Service struct {
	ctx     context.Context
	runner  *pipeline.Runner
	tracker *pipeline.Tracker
	cache   *cache.Cache
	history *history.Store
	logger  *zap.Logger
}

// NewService creates a guide service. Runs triggered through it live as long as ctx.
func NewService(ctx context.Context, comps *Components, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		ctx:     ctx,
		runner:  comps.Runner,
		tracker: comps.Tracker,
		cache:   comps.Cache,
		history: comps.History,
		logger:  logger,
	}
}

// Status returns progress and the last run summary.
func (s *Service) Status() Status {
	st := Status{Running: s.runner.Running(), Last: s.runner.Last()}
	if s.tracker != nil {
		st.Progress = s.tracker.Latest()
	}
	return st
}

// Trigger starts a background run and returns its id.
// It fails with models.ErrRunInProgress when a run is active.
func (s *Service) Trigger() (string, error) {
	// The outcome is logged and kept by the runner.
	runID, _, err := s.runner.Start(s.ctx)
	if err != nil {
		return "", err
	}
	s.logger.Info("Guide run triggered", zap.String("run_id", runID))
	return runID, nil
}

// Document returns the last successful document.
func (s *Service) Document() (*models.Document, bool) {
	doc := s.runner.Document()
	return doc, doc != nil
}

// Element returns one element of the last successful document.
func (s *Service) Element(id string) (models.Element, bool) {
	doc := s.runner.Document()
	if doc == nil {
		return models.Element{}, false
	}
	return doc.Element(id)
}

// CacheEntry returns the cached entry for id.
func (s *Service) CacheEntry(id string) (models.CacheEntry, bool) {
	return s.cache.Get(id)
}

// CacheStats returns cache statistics.
func (s *Service) CacheStats() cache.Stats {
	return s.cache.Stats()
}

// History returns recent runs, newest first.
func (s *Service) History(ctx context.Context, limit int) ([]history.RunRecord, error) {
	if s.history == nil {
		return nil, ErrHistoryDisabled
	}
	return s.history.Recent(ctx, limit)
}
