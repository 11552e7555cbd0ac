package pipeline

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"guide-builder/core/errors"
	"guide-builder/core/logger"
	"guide-builder/core/reconcile"
	"guide-builder/feature/guide/artwork"
	"guide-builder/feature/guide/assemble"
	"guide-builder/feature/guide/cache"
	"guide-builder/feature/guide/catalog"
	"guide-builder/feature/guide/fetch"
	"guide-builder/feature/guide/history"
	"guide-builder/feature/guide/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Outcome is the result class of a finished run.
type Outcome string

const (
	OutcomeSuccess  Outcome = history.OutcomeSuccess
	OutcomeDegraded Outcome = history.OutcomeDegraded
	OutcomeFailed   Outcome = history.OutcomeFailed
)

// Catalog is the subset of the remote API a run needs.
type Catalog interface {
	Status(ctx context.Context) error
	Lineup(ctx context.Context) ([]models.Service, error)
	Manifest(ctx context.Context, scope string) (map[string]string, error)
	Programs(ctx context.Context, ids []string) (catalog.ProgramBatch, error)
	Artwork(ctx context.Context, ids []string) (catalog.ArtworkBatch, error)
}

// LogoMirror starts the background logo copy.
type LogoMirror interface {
	Start(ctx context.Context, services []models.Service) *artwork.Task
}

// HistoryRecorder stores finished runs.
type HistoryRecorder interface {
	Record(ctx context.Context, rec history.RunRecord) error
}

// Deps are the collaborators of a Runner. Catalog, Cache and Fetcher are required.
type Deps struct {
	Catalog   Catalog
	Cache     *cache.Cache
	Fetcher   *fetch.Fetcher
	Resolver  artwork.Resolver
	Assembler *assemble.Assembler
	Mirror    LogoMirror
	Expected  history.ExpectedCountSource
	History   HistoryRecorder
	Exporter  Exporter
	Reporter  Reporter
	Logger    *zap.Logger
}

// Options tune a Runner.
type Options struct {
	// ManifestScope is passed to the manifest endpoint.
	ManifestScope string
	// Retention is the age after which unseen cache entries are pruned.
	Retention time.Duration
	// Artwork enables artwork metadata fetches and makes images required for reuse.
	Artwork bool
	// LogoWaitWarn is how long the assembler may wait on the logo mirror before it is logged.
	LogoWaitWarn time.Duration
}

// Stats counts what a run did.
type Stats struct {
	Manifest       int                 `json:"manifest"`
	Plan           reconcile.Summary   `json:"plan"`
	Fetch          fetch.Stats         `json:"fetch"`
	Fetched        int                 `json:"fetched"`
	Reused         int                 `json:"reused"`
	Missed         int                 `json:"missed"`
	ArtworkFetched int                 `json:"artworkFetched"`
	ArtworkMissed  int                 `json:"artworkMissed"`
	Pruned         int                 `json:"pruned"`
	Logos          artwork.MirrorStats `json:"logos"`
	LogoWait       time.Duration       `json:"logoWait"`
	Document       models.Summary      `json:"document"`
}

// Result is a completed run.
type Result struct {
	RunID      string           `json:"runId"`
	StartedAt  time.Time        `json:"startedAt"`
	FinishedAt time.Time        `json:"finishedAt"`
	Outcome    Outcome          `json:"outcome"`
	Document   *models.Document `json:"-"`
	SaveErr    error            `json:"-"`
	Stats      Stats            `json:"stats"`
}

// RunSummary describes the last run, finished or failed.
type RunSummary struct {
	RunID      string    `json:"runId"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
	Outcome    Outcome   `json:"outcome"`
	Error      string    `json:"error,omitempty"`
	Stats      Stats     `json:"stats"`
}

// Runner executes guide runs one at a time.
type Runner struct {
	deps    Deps
	opts    Options
	logger  *zap.Logger
	running atomic.Bool

	mu       sync.RWMutex
	document *models.Document
	last     *RunSummary
}

// NewRunner creates a Runner.
func NewRunner(deps Deps, opts Options) (*Runner, error) {
	if deps.Catalog == nil || deps.Cache == nil || deps.Fetcher == nil {
		return nil, errors.New("pipeline: catalog, cache and fetcher are required")
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Assembler == nil {
		deps.Assembler = assemble.New(assemble.DefaultSafetyRatio, deps.Logger)
	}
	if deps.Resolver.Tiers == nil {
		deps.Resolver = artwork.DefaultResolver("")
	}
	if opts.ManifestScope == "" {
		opts.ManifestScope = "lineup"
	}
	return &Runner{deps: deps, opts: opts, logger: deps.Logger}, nil
}

// Running reports whether a run is active.
func (r *Runner) Running() bool {
	return r.running.Load()
}

// Document returns the document of the last successful run, or nil.
func (r *Runner) Document() *models.Document {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.document
}

// Last returns the summary of the last run, or nil.
func (r *Runner) Last() *RunSummary {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.last == nil {
		return nil
	}
	s := *r.last
	return &s
}

// Run executes one run. It fails with ErrRunInProgress when another run is active.
// On error the cache file and the previous document are left untouched.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	return r.RunWithID(ctx, uuid.NewString())
}

// RunWithID is Run with a caller-chosen run identifier.
func (r *Runner) RunWithID(ctx context.Context, runID string) (*Result, error) {
	if !r.running.CompareAndSwap(false, true) {
		return nil, models.ErrRunInProgress
	}
	defer r.running.Store(false)
	return r.execute(ctx, runID)
}

// Start begins a run in the background. The returned channel yields the run error
// (nil on success) and is then closed.
func (r *Runner) Start(ctx context.Context) (string, <-chan error, error) {
	if !r.running.CompareAndSwap(false, true) {
		return "", nil, models.ErrRunInProgress
	}
	runID := uuid.NewString()
	done := make(chan error, 1)
	go func() {
		defer close(done)
		defer r.running.Store(false)
		_, err := r.execute(ctx, runID)
		done <- err
	}()
	return runID, done, nil
}

func (r *Runner) execute(ctx context.Context, runID string) (*Result, error) {
	res := &Result{RunID: runID, StartedAt: time.Now().UTC()}
	log := logger.WithRunID(r.logger, runID)
	counters := NewCounters(runID, MultiReporter{LogReporter{Logger: log}, r.deps.Reporter})

	log.Info("Guide run started")
	err := r.run(ctx, res, counters, log)
	res.FinishedAt = time.Now().UTC()

	summary := RunSummary{
		RunID:      runID,
		StartedAt:  res.StartedAt,
		FinishedAt: res.FinishedAt,
		Outcome:    res.Outcome,
		Stats:      res.Stats,
	}
	if err != nil {
		res.Outcome = OutcomeFailed
		summary.Outcome = OutcomeFailed
		summary.Error = err.Error()
		log.Error("Guide run aborted", zap.Error(err))
	} else {
		log.Info("Guide run finished",
			zap.String("outcome", string(res.Outcome)),
			zap.Int("services", res.Stats.Document.Services),
			zap.Int("elements", res.Stats.Document.Elements),
			zap.Int("image_links", res.Stats.Document.ImageLinks),
			zap.Int64("logo_bytes", res.Stats.Logos.Bytes),
			zap.Duration("elapsed", res.FinishedAt.Sub(res.StartedAt)),
		)
	}

	r.mu.Lock()
	r.last = &summary
	if err == nil {
		r.document = res.Document
	}
	r.mu.Unlock()

	r.record(ctx, res, summary, log)

	if err != nil {
		return nil, err
	}
	return res, nil
}

func (r *Runner) run(ctx context.Context, res *Result, counters *Counters, log *zap.Logger) error {
	c := r.deps.Cache

	// Init
	counters.Enter(StageInit, 1)
	unlock, err := c.Lock()
	if err != nil {
		return err
	}
	defer unlock()
	if err := r.deps.Catalog.Status(ctx); err != nil {
		if errors.Is(err, models.ErrAuth) {
			return errors.Wrap(err, "check catalog status")
		}
		log.Warn("Catalog status check failed", zap.Error(err))
	}
	counters.Inc()

	// LoadCache
	counters.Enter(StageLoadCache, 1)
	// Load fails open and logs what it dropped.
	_ = c.Load()
	counters.Inc()

	// DetectChanges
	counters.Enter(StageDetectChanges, 2)
	services, err := r.deps.Catalog.Lineup(ctx)
	if err != nil {
		return errors.Wrap(err, "fetch lineup")
	}
	counters.Inc()
	manifest, err := r.deps.Catalog.Manifest(ctx, r.opts.ManifestScope)
	if err != nil {
		return errors.Wrap(err, "fetch manifest")
	}
	counters.Inc()

	task := artwork.CompletedTask()
	if r.deps.Mirror != nil {
		task = r.deps.Mirror.Start(ctx, services)
	}
	// The mirror must not outlive the cache lock, whatever stage aborts.
	defer task.Wait()

	plan := reconcile.Diff(manifest, c, reconcile.Options{RequireImages: r.opts.Artwork})
	c.Touch(seenKeys(plan)...)
	res.Stats.Manifest = len(manifest)
	res.Stats.Plan = plan.Summary
	log.Info("Changes detected",
		zap.Int("manifest", plan.Summary.Total),
		zap.Int("missing", plan.Summary.Missing),
		zap.Int("changed", plan.Summary.Changed),
		zap.Int("unusable", plan.Summary.Unusable),
		zap.Int("reusable", plan.Summary.Reusable),
	)

	// Fetch. Elements that only lack images keep their payload and skip the program fetch.
	programIDs := make([]string, 0, len(plan.ToFetch))
	for _, d := range plan.Results {
		if d.Reason.Fetch() && d.Reason != reconcile.ReasonMissingImages {
			programIDs = append(programIDs, d.Key)
		}
	}
	batchSize := r.deps.Fetcher.Config().MaxBatchSize
	counters.Enter(StageFetch, len(fetch.Partition(programIDs, batchSize)))
	programs := r.deps.Fetcher.FetchAll(ctx, programIDs, r.programBatch, counters)
	if err := programs.Err(); err != nil {
		return errors.Wrap(err, "fetch programs")
	}
	fetched := programs.Responses()
	for i := range fetched {
		// The manifest hash is what the next diff compares against.
		if h, ok := manifest[fetched[i].Key]; ok {
			fetched[i].Hash = h
		}
		c.Put(fetched[i].Key, fetched[i].Hash, fetched[i].Data, nil)
	}
	res.Stats.Fetch = programs.Stats()
	res.Stats.Fetched = len(fetched)
	res.Stats.Missed = len(programs.Missed())

	// ResolveArtwork
	art, err := r.resolveArtwork(ctx, manifest, counters, res, log)
	if err != nil {
		return err
	}

	// Assemble
	res.Stats.Logos, res.Stats.LogoWait = r.awaitLogos(task, log)
	counters.Enter(StageAssemble, 1)
	expected := 0
	if r.deps.Expected != nil {
		n, err := r.deps.Expected.ExpectedServices(ctx)
		if err != nil {
			log.Warn("Expected service count unavailable", zap.Error(err))
		} else {
			expected = n
		}
	}
	reusable := make([]models.CacheEntry, 0, len(manifest))
	for _, d := range plan.Results {
		if d.Reason.Fetch() && d.Reason != reconcile.ReasonMissingImages {
			continue
		}
		if entry, ok := c.Get(d.Key); ok {
			reusable = append(reusable, entry)
		}
	}
	res.Stats.Reused = len(reusable)
	doc, err := r.deps.Assembler.Assemble(assemble.Input{
		Services:         services,
		Reusable:         reusable,
		Fetched:          fetched,
		Hashes:           manifest,
		Artwork:          art,
		ExpectedServices: expected,
	})
	if err != nil {
		return errors.Wrap(err, "assemble document")
	}
	counters.Inc()
	res.Document = doc
	res.Stats.Document = doc.Summary

	// Persist
	counters.Enter(StagePersist, 2)
	if r.deps.Exporter != nil {
		if err := r.deps.Exporter.Export(ctx, doc); err != nil {
			return errors.Wrap(err, "export document")
		}
	}
	counters.Inc()
	res.Stats.Pruned = c.Prune(r.opts.Retention)
	res.Outcome = OutcomeSuccess
	if err := c.Save(); err != nil {
		res.SaveErr = err
		res.Outcome = OutcomeDegraded
		log.Warn("Content cache not saved, next run refetches", zap.Error(err))
	}
	counters.Inc()
	return nil
}

func (r *Runner) programBatch(ctx context.Context, ids []string) ([]models.FetchResponse, error) {
	batch, err := r.deps.Catalog.Programs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, e := range batch.Errors {
		r.logger.Debug("Element not delivered", zap.String("key", e.Key), zap.Int("code", e.Code), zap.String("message", e.Message))
	}
	return batch.Responses, nil
}

func (r *Runner) artworkBatch(ctx context.Context, ids []string) ([]models.FetchResponse, error) {
	batch, err := r.deps.Catalog.Artwork(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]models.FetchResponse, 0, len(batch.Candidates))
	for key, cands := range batch.Candidates {
		data, err := json.Marshal(cands)
		if err != nil {
			return nil, errors.Wrap(err, "encode artwork candidates")
		}
		out = append(out, models.FetchResponse{Key: key, Data: data})
	}
	return out, nil
}

// resolveArtwork fetches candidates for cached elements without images and picks one image
// per element.
func (r *Runner) resolveArtwork(ctx context.Context, manifest map[string]string, counters *Counters, res *Result, log *zap.Logger) (map[string]models.ArtworkCandidate, error) {
	c := r.deps.Cache
	batchSize := r.deps.Fetcher.Config().MaxBatchSize

	var need []string
	if r.opts.Artwork {
		plan := reconcile.Diff(manifest, c, reconcile.Options{RequireImages: true})
		for _, d := range plan.Results {
			if d.Reason == reconcile.ReasonMissingImages {
				need = append(need, d.Key)
			}
		}
	}

	counters.Enter(StageResolveArtwork, len(fetch.Partition(need, batchSize)))
	if len(need) > 0 {
		rs := r.deps.Fetcher.FetchAll(ctx, need, r.artworkBatch, counters)
		if err := rs.Err(); err != nil {
			return nil, errors.Wrap(err, "fetch artwork")
		}
		for _, resp := range rs.Responses() {
			var cands []models.ArtworkCandidate
			if err := json.Unmarshal(resp.Data, &cands); err != nil {
				log.Warn("Artwork candidates unreadable", zap.String("key", resp.Key), zap.Error(err))
				continue
			}
			c.SetImages(resp.Key, cands)
		}
		res.Stats.ArtworkFetched = len(rs.Responses())
		res.Stats.ArtworkMissed = len(rs.Missed())
	}

	out := make(map[string]models.ArtworkCandidate)
	for key := range manifest {
		entry, ok := c.Get(key)
		if !ok || !entry.HasImages() {
			continue
		}
		var head struct {
			EntityType string `json:"entityType"`
		}
		if err := json.Unmarshal(entry.Payload, &head); err != nil {
			log.Debug("Payload undecodable, using default artwork tiers", zap.String("key", key), zap.Error(err))
		}
		if img, ok := r.deps.Resolver.For(head.EntityType, entry.Images); ok {
			out[key] = img
		}
	}
	return out, nil
}

// seenKeys lists the manifest keys whose cached payload is still current: reusable
// entries and entries that only lack artwork.
func seenKeys(plan reconcile.Plan) []string {
	keys := make([]string, 0, len(plan.Reusable))
	for _, d := range plan.Results {
		if d.Reason == reconcile.ReasonReusable || d.Reason == reconcile.ReasonMissingImages {
			keys = append(keys, d.Key)
		}
	}
	return keys
}

// awaitLogos blocks until the logo mirror finishes.
func (r *Runner) awaitLogos(task *artwork.Task, log *zap.Logger) (artwork.MirrorStats, time.Duration) {
	select {
	case <-task.Done():
		return task.Wait(), 0
	default:
	}
	start := time.Now()
	stats := task.Wait()
	wait := time.Since(start)
	if wait > r.opts.LogoWaitWarn {
		log.Info("Waited for logo mirror", zap.Duration("wait", wait))
	}
	return stats, wait
}

func (r *Runner) record(ctx context.Context, res *Result, summary RunSummary, log *zap.Logger) {
	if r.deps.History == nil {
		return
	}
	services := res.Stats.Document.Services
	if res.Document != nil {
		// The placeholder is not part of the lineup.
		services = 0
		for _, s := range res.Document.Services {
			if !s.Placeholder {
				services++
			}
		}
	}
	rec := history.RunRecord{
		ID:         summary.RunID,
		StartedAt:  summary.StartedAt,
		FinishedAt: summary.FinishedAt,
		Outcome:    string(summary.Outcome),
		Services:   services,
		Elements:   res.Stats.Document.Elements,
		ImageLinks: res.Stats.Document.ImageLinks,
		Fetched:    res.Stats.Fetched,
		Reused:     res.Stats.Reused,
		Missed:     res.Stats.Missed,
		Pruned:     res.Stats.Pruned,
		Error:      summary.Error,
	}
	if err := r.deps.History.Record(context.WithoutCancel(ctx), rec); err != nil {
		log.Warn("Run history not recorded", zap.Error(err))
	}
}
