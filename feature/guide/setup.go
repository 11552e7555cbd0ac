package guide

import (
	"guide-builder/core/errors"
	"guide-builder/core/storage"
	"guide-builder/feature/guide/artwork"
	"guide-builder/feature/guide/assemble"
	"guide-builder/feature/guide/cache"
	"guide-builder/feature/guide/catalog"
	"guide-builder/feature/guide/fetch"
	"guide-builder/feature/guide/history"
	"guide-builder/feature/guide/pipeline"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Components are the wired collaborators of guide runs.
type Components struct {
	Runner  *pipeline.Runner
	Tracker *pipeline.Tracker
	Cache   *cache.Cache
	Catalog *catalog.Client
	// History is nil when no database is available.
	History *history.Store
	// Expected supplies the service count of the safety check.
	Expected history.ExpectedCountSource
}

// Build wires the pipeline from configuration. Mirrored logos go to bucket.
// client may be nil when object storage is disabled; db may be nil when no database is configured.
func Build(cfg *Config, bucket string, client storage.Client, db *gorm.DB, logger *zap.Logger) (*Components, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	cat, err := catalog.New(cfg.Catalog, catalog.TokenSourceFor(cfg.Catalog), catalog.WithLogger(logger))
	if err != nil {
		return nil, errors.Wrap(err, "create catalog client")
	}

	comps := &Components{
		Tracker: &pipeline.Tracker{},
		Cache:   cache.New(cfg.Cache.Path, logger),
		Catalog: cat,
	}

	deps := pipeline.Deps{
		Catalog:   cat,
		Cache:     comps.Cache,
		Fetcher:   fetch.New(cfg.Fetch, logger),
		Resolver:  artwork.DefaultResolver(cfg.Artwork.Aspect),
		Assembler: assemble.New(cfg.Pipeline.SafetyRatio, logger),
		Reporter:  comps.Tracker,
		Logger:    logger,
	}

	if client != nil && cfg.Artwork.MirrorLogos {
		deps.Mirror = artwork.NewMirror(client, bucket, cat, cfg.Artwork, logger)
	}

	expected := history.FirstOf{history.Static(cfg.Pipeline.ExpectedServices)}
	if db != nil {
		store := history.NewStore(db)
		if err := store.Migrate(); err != nil {
			logger.Warn("Run history unavailable", zap.Error(err))
		} else {
			comps.History = store
			deps.History = store
			if cfg.Pipeline.ExpectedFromHistory {
				expected = append(expected, history.LastRun{Store: store})
			}
		}
	}
	deps.Expected = expected
	comps.Expected = expected

	if cfg.Pipeline.OutputPath != "" {
		deps.Exporter = pipeline.JSONFileExporter{Path: cfg.Pipeline.OutputPath}
	}

	runner, err := pipeline.NewRunner(deps, pipeline.Options{
		ManifestScope: cfg.Catalog.ManifestScope,
		Retention:     cfg.Cache.Retention,
		Artwork:       cfg.Artwork.Enabled,
		LogoWaitWarn:  cfg.Pipeline.LogoWaitWarn,
	})
	if err != nil {
		return nil, err
	}
	comps.Runner = runner
	return comps, nil
}
