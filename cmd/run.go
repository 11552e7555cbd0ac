package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"guide-builder/core/errors"
	"guide-builder/feature/guide"
	"guide-builder/feature/guide/pipeline"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	runOutput string
	runJSON   string
)

// runCmd performs one guide run and exits.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the guide pipeline once",
	Long: `Acquires the catalog manifest, fetches changed elements, assembles the guide
document and writes it to the configured output path.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := loadRuntime(true)
		if err != nil {
			return err
		}
		defer rt.logger.Sync()

		if runOutput != "" {
			rt.guide.Pipeline.OutputPath = runOutput
		}

		comps, err := guide.Build(rt.guide, rt.cfg.Storage.Bucket, rt.store, rt.db, rt.logger)
		if err != nil {
			return errors.Wrap(err, "failed to build guide pipeline")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		res, err := comps.Runner.Run(ctx)
		if err != nil {
			return errors.Wrap(err, "guide run failed")
		}

		if res.SaveErr != nil {
			rt.logger.Warn("Cache was not saved, next run refetches", zap.Error(res.SaveErr))
		}

		fmt.Println(renderKeyValues("Guide Run "+res.RunID, runRows(res)))

		if runJSON != "" {
			if err := writeSummary(runJSON, res); err != nil {
				return err
			}
			rt.logger.Info("Run summary written", zap.String("path", runJSON))
		}
		return nil
	},
}

func runRows(res *pipeline.Result) [][2]string {
	s := res.Stats
	itoa := strconv.Itoa
	return [][2]string{
		{"Outcome", string(res.Outcome)},
		{"Duration", res.FinishedAt.Sub(res.StartedAt).Round(time.Millisecond).String()},
		{"Manifest elements", itoa(s.Manifest)},
		{"Missing in cache", itoa(s.Plan.Missing)},
		{"Changed", itoa(s.Plan.Changed)},
		{"Unusable", itoa(s.Plan.Unusable)},
		{"Fetched", itoa(s.Fetched)},
		{"Reused", itoa(s.Reused)},
		{"Missed", itoa(s.Missed)},
		{"Batches", itoa(s.Fetch.Batches)},
		{"Failed batches", itoa(s.Fetch.Failed)},
		{"Artwork fetched", itoa(s.ArtworkFetched)},
		{"Logos mirrored", itoa(s.Logos.Downloaded)},
		{"Cache pruned", itoa(s.Pruned)},
		{"Services", itoa(s.Document.Services)},
		{"Elements", itoa(s.Document.Elements)},
		{"Image links", itoa(s.Document.ImageLinks)},
	}
}

// writeSummary writes the run result as indented JSON.
func writeSummary(path string, res *pipeline.Result) error {
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal run summary")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "failed to write run summary to %s", path)
	}
	return nil
}

func init() {
	RootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVarP(&runOutput, "output", "o", "", "Override the guide document output path")
	runCmd.Flags().StringVar(&runJSON, "json", "", "Write the run summary as JSON to this path")
}
