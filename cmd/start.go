package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"guide-builder/core/errors"
	"guide-builder/core/loader"
	"guide-builder/core/logger"
	"guide-builder/core/middleware/auth"
	"guide-builder/core/middleware/rayid"
	"guide-builder/feature/guide"
	"guide-builder/feature/integrity"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	_ "guide-builder/docs/swagger"
)

// @title Guide Builder API
// @version 1.0
// @description API for building television guide documents from a remote catalog.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key

var runOnStart bool

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the guide builder server",
	Long:  `Starts the HTTP server and initializes all enabled features.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// 1. Load configuration, logger and optional backends
		rt, err := loadRuntime(true)
		if err != nil {
			return err
		}
		logg := rt.logger
		defer logg.Sync()
		zap.ReplaceGlobals(logg)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		// 2. Wire the pipeline
		comps, err := guide.Build(rt.guide, rt.cfg.Storage.Bucket, rt.store, rt.db, logg)
		if err != nil {
			return errors.Wrap(err, "failed to build guide pipeline")
		}
		guideSvc := guide.NewService(ctx, comps, logg)
		integritySvc := integrity.NewService(rt.store, rt.cfg.Storage.Bucket, logg, rt.db, rt.guide.Cache.Path,
			integrity.WithDocuments(guideSvc, comps.Expected, rt.guide.Pipeline.SafetyRatio))

		// 3. Initialize Fiber App
		app := fiber.New(fiber.Config{
			DisableStartupMessage: true, // We will log our own startup message
			ReadTimeout:           rt.cfg.Server.ReadTimeout,
		})

		// 4. Initialize Feature Loader
		mgr := loader.NewManager()
		mgr.Register(guide.NewFeature(guideSvc))
		mgr.Register(integrity.NewFeature(integritySvc))

		// Middleware Registration
		// 1. RayID (Must be first to trace everything)
		app.Use(rayid.New())

		// 2. Request logging with the ray id
		app.Use(func(c *fiber.Ctx) error {
			l := logger.WithRayID(logg, c)
			l.Info("Request started",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			err := c.Next()
			if err != nil {
				l.Error("Request error", zap.Error(err))
			}
			return err
		})

		// 3. Auth (Swagger stays public)
		app.Use(auth.New(auth.Config{ApiKey: rt.cfg.Server.ApiKey, Skip: []string{"/swagger"}}))

		// 4. Swagger Documentation
		app.Get("/swagger/*", swagger.HandlerDefault)

		// 5. Load Features
		if err := mgr.LoadAll(app); err != nil {
			return errors.Wrap(err, "failed to load features")
		}

		if !rt.cfg.Server.AuthEnabled() {
			logg.Warn("API key not set, every request is accepted")
		}

		if runOnStart {
			if runID, err := guideSvc.Trigger(); err != nil {
				logg.Warn("Initial run not started", zap.Error(err))
			} else {
				logg.Info("Initial run started", zap.String("run_id", runID))
			}
		}

		// 6. Start Server
		listenErr := make(chan error, 1)
		go func() {
			logg.Info("Starting server", zap.String("address", rt.cfg.Server.Address()))
			listenErr <- app.Listen(rt.cfg.Server.Address())
		}()

		// 7. Graceful Shutdown
		select {
		case err := <-listenErr:
			return errors.Wrap(err, "server failed to start")
		case <-ctx.Done():
		}
		logg.Info("Shutting down server...")
		return app.ShutdownWithTimeout(rt.cfg.Server.ShutdownTimeout)
	},
}

func init() {
	RootCmd.AddCommand(startCmd)
	startCmd.Flags().BoolVar(&runOnStart, "run", false, "Start a guide run as soon as the server is up")
}
