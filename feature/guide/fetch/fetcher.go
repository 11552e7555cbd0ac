package fetch

import (
	"context"
	"sync"
	"time"

	"guide-builder/core/errors"
	"guide-builder/feature/guide/models"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// BatchFunc performs one remote call for a batch of ids. It captures the credential.
// Elements missing from the returned slice are treated as misses.
type BatchFunc func(ctx context.Context, ids []string) ([]models.FetchResponse, error)

// Counter receives one increment per completed batch.
type Counter interface {
	Inc()
}

// Fetcher issues batch calls through a bounded worker pool.
type Fetcher struct {
	cfg     Config
	logger  *zap.Logger
	limiter *rate.Limiter
}

// New creates a Fetcher. Zero limits fall back to one batch of everything and one worker.
func New(cfg Config, logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 1
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}

	f := &Fetcher{cfg: cfg, logger: logger.With(zap.String("component", "fetch"))}
	if cfg.RequestsPerSecond > 0 {
		f.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.MaxConcurrency)
	}
	return f
}

// Config returns the effective limits.
func (f *Fetcher) Config() Config {
	return f.cfg
}

type job struct {
	index int
	ids   []string
}

// FetchAll partitions ids into batches and runs them on at most MaxConcurrency workers.
// Failed batches become misses; FetchAll itself never fails. Credential rejections are
// reported through ResultSet.Err.
func (f *Fetcher) FetchAll(ctx context.Context, ids []string, call BatchFunc, counter Counter) *ResultSet {
	rs := &ResultSet{}
	batches := Partition(ids, f.cfg.MaxBatchSize)
	if len(batches) == 0 {
		return rs
	}

	numWorkers := f.cfg.MaxConcurrency
	if numWorkers > len(batches) {
		numWorkers = len(batches)
	}

	jobs := make(chan job, len(batches))
	for i, batch := range batches {
		jobs <- job{index: i, ids: batch}
	}
	close(jobs)

	var wg sync.WaitGroup
	wg.Add(numWorkers)
	for i := 0; i < numWorkers; i++ {
		go func() {
			defer wg.Done()
			for j := range jobs {
				outcome, responses, missed := f.runBatch(ctx, j, call)
				rs.add(outcome, responses, missed)
				if counter != nil {
					counter.Inc()
				}
			}
		}()
	}
	wg.Wait()

	stats := rs.Stats()
	f.logger.Info("Batch fetch finished",
		zap.Int("batches", stats.Batches),
		zap.Int("requested", stats.Requested),
		zap.Int("received", stats.Received),
		zap.Int("missed", stats.Missed),
		zap.Int("failed_batches", stats.Failed),
		zap.Int("partial_batches", stats.Partial))
	return rs
}

// runBatch calls the batch with retries and splits the answer into delivered and missed ids.
func (f *Fetcher) runBatch(ctx context.Context, j job, call BatchFunc) (Outcome, []models.FetchResponse, []string) {
	outcome := Outcome{Index: j.index, Size: len(j.ids)}

	var (
		responses []models.FetchResponse
		err       error
	)
	for attempt := 0; attempt <= f.cfg.Retries; attempt++ {
		outcome.Attempts = attempt + 1
		if attempt > 0 {
			if waitErr := sleep(ctx, f.cfg.RetryBackoff*time.Duration(attempt)); waitErr != nil {
				err = errors.Mark(errors.Wrap(waitErr, "retry wait"), models.ErrTransport)
				break
			}
		}
		if f.limiter != nil {
			if waitErr := f.limiter.Wait(ctx); waitErr != nil {
				err = errors.Mark(errors.Wrap(waitErr, "rate limit wait"), models.ErrTransport)
				break
			}
		}

		responses, err = f.call(ctx, j.ids, call)
		if err == nil || isAuth(err) {
			break
		}
		f.logger.Debug("Batch attempt failed",
			zap.Int("batch", j.index),
			zap.Int("attempt", attempt+1),
			zap.Error(err))
	}

	if err != nil {
		outcome.Err = err
		f.logger.Warn("Batch failed, elements treated as misses",
			zap.Int("batch", j.index),
			zap.Int("size", len(j.ids)),
			zap.Int("attempts", outcome.Attempts),
			zap.Error(err))
		return outcome, nil, append([]string(nil), j.ids...)
	}

	delivered, missed := matchResponses(j.ids, responses)
	outcome.Received = len(delivered)
	if len(missed) > 0 {
		partial := errors.Mark(errors.Newf("batch %d: %d of %d elements missing", j.index, len(missed), len(j.ids)), models.ErrPartialData)
		f.logger.Warn("Batch returned partial data", zap.Int("batch", j.index), zap.Error(partial))
	}
	return outcome, delivered, missed
}

func (f *Fetcher) call(ctx context.Context, ids []string, call BatchFunc) ([]models.FetchResponse, error) {
	if f.cfg.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.cfg.CallTimeout)
		defer cancel()
	}
	return call(ctx, ids)
}

// matchResponses keeps the first non-empty response per requested id and lists the rest as missed.
func matchResponses(ids []string, responses []models.FetchResponse) ([]models.FetchResponse, []string) {
	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}

	delivered := make([]models.FetchResponse, 0, len(responses))
	for _, resp := range responses {
		if resp.Miss() || !wanted[resp.Key] {
			continue
		}
		wanted[resp.Key] = false
		delivered = append(delivered, resp)
	}

	var missed []string
	for _, id := range ids {
		if wanted[id] {
			missed = append(missed, id)
			wanted[id] = false
		}
	}
	return delivered, missed
}

func isAuth(err error) bool {
	return errors.Is(err, models.ErrAuth)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
