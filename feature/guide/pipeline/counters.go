package pipeline

import (
	"sync/atomic"

	"guide-builder/feature/guide/models"
)

// Reporter receives progress snapshots. Implementations must be safe for concurrent use.
type Reporter interface {
	Report(p models.Progress)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(p models.Progress)

// Report implements Reporter.
func (f ReporterFunc) Report(p models.Progress) { f(p) }

// Counters tracks the progress of one run.
// Processed only grows within a stage and is reset when a stage is entered.
type Counters struct {
	runID     string
	stage     atomic.Int32
	processed atomic.Int64
	total     atomic.Int64
	reporter  Reporter
}

// NewCounters creates counters for a run. A nil reporter discards snapshots.
func NewCounters(runID string, reporter Reporter) *Counters {
	return &Counters{runID: runID, reporter: reporter}
}

// Enter switches to a stage and resets processed and total.
func (c *Counters) Enter(stage Stage, total int) {
	c.stage.Store(int32(stage))
	c.processed.Store(0)
	c.total.Store(int64(total))
	c.report()
}

// SetTotal updates the total of the current stage.
func (c *Counters) SetTotal(total int) {
	c.total.Store(int64(total))
	c.report()
}

// Inc records one unit of progress.
func (c *Counters) Inc() {
	c.Add(1)
}

// Add records n units of progress. Non-positive values are ignored.
func (c *Counters) Add(n int) {
	if n <= 0 {
		return
	}
	c.processed.Add(int64(n))
	c.report()
}

// Snapshot returns the current progress.
func (c *Counters) Snapshot() models.Progress {
	stage := Stage(c.stage.Load())
	return models.Progress{
		RunID:     c.runID,
		Stage:     int(stage),
		StageName: stage.String(),
		Processed: c.processed.Load(),
		Total:     c.total.Load(),
	}
}

func (c *Counters) report() {
	if c.reporter != nil {
		c.reporter.Report(c.Snapshot())
	}
}
