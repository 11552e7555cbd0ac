package pipeline

import (
	"sync"

	"guide-builder/feature/guide/models"

	"go.uber.org/zap"
)

// LogReporter logs stage entries at info and progress at debug.
type LogReporter struct {
	Logger *zap.Logger
}

// Report implements Reporter.
func (l LogReporter) Report(p models.Progress) {
	if l.Logger == nil {
		return
	}
	fields := []zap.Field{
		zap.String("stage", p.StageName),
		zap.Int64("processed", p.Processed),
		zap.Int64("total", p.Total),
	}
	if p.Processed == 0 {
		l.Logger.Info("Stage started", fields...)
		return
	}
	l.Logger.Debug("Stage progress", fields...)
}

// Tracker keeps the latest snapshot for status endpoints.
type Tracker struct {
	mu     sync.RWMutex
	latest models.Progress
}

// Report implements Reporter.
func (t *Tracker) Report(p models.Progress) {
	t.mu.Lock()
	t.latest = p
	t.mu.Unlock()
}

// Latest returns the last reported snapshot.
func (t *Tracker) Latest() models.Progress {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.latest
}

// MultiReporter fans a snapshot out to several reporters.
type MultiReporter []Reporter

// Report implements Reporter.
func (m MultiReporter) Report(p models.Progress) {
	for _, r := range m {
		if r != nil {
			r.Report(p)
		}
	}
}
