package artwork

import (
	"bytes"
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	"guide-builder/core/storage"
	"guide-builder/feature/guide/catalog"
	"guide-builder/feature/guide/models"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Downloader fetches an image, conditionally on its last modification.
type Downloader interface {
	Image(ctx context.Context, uri string, since time.Time) (*catalog.Image, error)
}

// MirrorStats counts the outcome of a logo mirror task.
type MirrorStats struct {
	Logos       int           `json:"logos"`
	Downloaded  int           `json:"downloaded"`
	NotModified int           `json:"notModified"`
	Shared      int           `json:"shared"`
	Failed      int           `json:"failed"`
	Bytes       int64         `json:"bytes"`
	Elapsed     time.Duration `json:"elapsed"`
}

// Mirror copies service logos into object storage.
type Mirror struct {
	client      storage.Client
	bucket      string
	prefix      string
	downloader  Downloader
	concurrency int
	logger      *zap.Logger
	sf          singleflight.Group
}

// NewMirror creates a logo mirror.
func NewMirror(client storage.Client, bucket string, downloader Downloader, cfg Config, logger *zap.Logger) *Mirror {
	if logger == nil {
		logger = zap.NewNop()
	}
	concurrency := cfg.MirrorConcurrency
	if concurrency <= 0 {
		concurrency = 4
	}
	return &Mirror{
		client:      client,
		bucket:      bucket,
		prefix:      cfg.LogoPrefix,
		downloader:  downloader,
		concurrency: concurrency,
		logger:      logger.With(zap.String("component", "mirror")),
	}
}

// Task is a running mirror, completed exactly once.
type Task struct {
	done  chan struct{}
	stats MirrorStats
}

// Done is closed when the task completes.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the task completes and returns its stats.
func (t *Task) Wait() MirrorStats {
	<-t.done
	return t.stats
}

// CompletedTask returns a task that is already done, for runs without mirroring.
func CompletedTask() *Task {
	t := &Task{done: make(chan struct{})}
	close(t.done)
	return t
}

// Go runs fn in the background and returns its task.
func Go(fn func() MirrorStats) *Task {
	t := &Task{done: make(chan struct{})}
	go func() {
		defer close(t.done)
		t.stats = fn()
	}()
	return t
}

// Start mirrors the logos of services in the background.
func (m *Mirror) Start(ctx context.Context, services []models.Service) *Task {
	return Go(func() MirrorStats { return m.Run(ctx, services) })
}

type mirrorResult struct {
	notModified bool
	bytes       int64
}

// Run mirrors the logos of services and returns when all are processed.
// Individual failures are counted, never returned.
func (m *Mirror) Run(ctx context.Context, services []models.Service) MirrorStats {
	start := time.Now()
	var (
		mu    sync.Mutex
		stats MirrorStats
		g     errgroup.Group
	)
	g.SetLimit(m.concurrency)

	logos := 0
	for _, svc := range services {
		uri := svc.LogoURI
		if uri == "" || svc.Placeholder {
			continue
		}
		logos++
		g.Go(func() error {
			v, err, shared := m.sf.Do(uri, func() (interface{}, error) {
				return m.mirrorOne(ctx, uri)
			})

			mu.Lock()
			defer mu.Unlock()
			if shared {
				stats.Shared++
			}
			if err != nil {
				stats.Failed++
				m.logger.Warn("Logo mirror failed", zap.String("uri", uri), zap.Error(err))
				return nil
			}
			res := v.(mirrorResult)
			if res.notModified {
				stats.NotModified++
			} else {
				stats.Downloaded++
				stats.Bytes += res.bytes
			}
			return nil
		})
	}
	_ = g.Wait()

	stats.Logos = logos
	stats.Elapsed = time.Since(start)
	m.logger.Info("Logo mirror finished",
		zap.Int("logos", stats.Logos),
		zap.Int("downloaded", stats.Downloaded),
		zap.Int("not_modified", stats.NotModified),
		zap.Int("failed", stats.Failed),
		zap.Int64("bytes", stats.Bytes))
	return stats
}

func (m *Mirror) mirrorOne(ctx context.Context, uri string) (mirrorResult, error) {
	object := ObjectName(m.prefix, uri)

	var since time.Time
	info, err := m.client.StatObject(ctx, m.bucket, object, minio.StatObjectOptions{})
	switch {
	case err == nil:
		since = info.LastModified
	case !storage.IsNotFound(err):
		m.logger.Debug("Stat failed, downloading unconditionally", zap.String("object", object), zap.Error(err))
	}

	img, err := m.downloader.Image(ctx, uri, since)
	if err != nil {
		return mirrorResult{}, err
	}
	if img.NotModified {
		return mirrorResult{notModified: true}, nil
	}

	contentType := img.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err = m.client.PutObject(ctx, m.bucket, object, bytes.NewReader(img.Data), int64(len(img.Data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return mirrorResult{}, err
	}
	return mirrorResult{bytes: int64(len(img.Data))}, nil
}

// ObjectName maps a logo URI to its object key under prefix.
func ObjectName(prefix, uri string) string {
	p := uri
	if u, err := url.Parse(uri); err == nil && u.Path != "" {
		p = u.Path
	}
	p = strings.TrimLeft(p, "/")
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return prefix + p
}
