package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"guide-builder/core/errors"
	"guide-builder/core/reconcile"
	"guide-builder/feature/guide/cache"
	"guide-builder/feature/guide/catalog"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	pruneRetention time.Duration
	pruneDryRun    bool
	yesConfirm     bool
	planSample     int
)

// cacheCmd groups the content cache commands.
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and maintain the content cache",
}

// cacheStatsCmd prints aggregate cache counts.
var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show content cache statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := loadRuntime(false)
		if err != nil {
			return err
		}
		defer rt.logger.Sync()

		c := cache.New(rt.guide.Cache.Path, rt.logger)
		// Load fails open and logs unreadable lines itself.
		_ = c.Load()

		fmt.Println(renderKeyValues("Cache "+c.Path(), statsRows(c.Stats())))
		return nil
	},
}

// cachePruneCmd removes entries not seen within the retention window.
var cachePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove cache entries not seen within the retention window",
	Long: `Removes entries whose last sighting in a manifest is older than the retention window.
Use --dry-run to preview and --yes to skip the confirmation prompt.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := loadRuntime(false)
		if err != nil {
			return err
		}
		l := rt.logger
		defer l.Sync()

		retention := rt.guide.Cache.Retention
		if cmd.Flags().Changed("retention") {
			retention = pruneRetention
		}
		if retention <= 0 {
			return errors.WithHint(errors.New("retention must be positive"), "pass --retention, e.g. --retention 720h")
		}

		c := cache.New(rt.guide.Cache.Path, l)
		unlock, err := c.Lock()
		if err != nil {
			return err
		}
		defer unlock()

		// Load fails open and logs unreadable lines itself.
		_ = c.Load()

		stale := staleKeys(c, retention)
		l.Info("Stale entries found",
			zap.Int("stale", len(stale)),
			zap.Int("entries", c.Len()),
			zap.Duration("retention", retention),
		)
		if len(stale) == 0 {
			return nil
		}

		if pruneDryRun {
			rows := make([][]string, 0, len(stale))
			for _, entry := range stale {
				rows = append(rows, []string{entry.Key, entry.LastSeen.Format(time.RFC3339)})
			}
			fmt.Println(renderTable([]string{"Key", "Last Seen"}, rows))
			l.Info("Dry-run mode: No changes were made.")
			return nil
		}

		if !confirmDestructiveAction() {
			l.Warn("Operation cancelled by user. No changes were made.")
			return nil
		}

		removed := c.Prune(retention)
		if err := c.Save(); err != nil {
			return err
		}
		l.Info("Successfully pruned cache", zap.Int("removed", removed), zap.Int("remaining", c.Len()))
		return nil
	},
}

// cachePlanCmd previews the fetch plan of the next run.
var cachePlanCmd = &cobra.Command{
	Use:   "plan",
	Short: "Compare the remote manifest with the cache without fetching",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := loadRuntime(false)
		if err != nil {
			return err
		}
		l := rt.logger
		defer l.Sync()

		cat, err := catalog.New(rt.guide.Catalog, catalog.TokenSourceFor(rt.guide.Catalog), catalog.WithLogger(l))
		if err != nil {
			return errors.Wrap(err, "failed to create catalog client")
		}

		c := cache.New(rt.guide.Cache.Path, l)
		// Load fails open and logs unreadable lines itself.
		_ = c.Load()

		l.Info("Fetching manifest...", zap.String("scope", rt.guide.Catalog.ManifestScope))
		manifest, err := cat.Manifest(cmd.Context(), rt.guide.Catalog.ManifestScope)
		if err != nil {
			return errors.Wrap(err, "failed to fetch manifest")
		}

		plan := reconcile.Diff(manifest, c, reconcile.Options{RequireImages: rt.guide.Artwork.Enabled})
		s := plan.Summary
		fmt.Println(renderKeyValues("Fetch Plan", [][2]string{
			{"Manifest elements", strconv.Itoa(s.Total)},
			{"Missing", strconv.Itoa(s.Missing)},
			{"Changed", strconv.Itoa(s.Changed)},
			{"Unusable", strconv.Itoa(s.Unusable)},
			{"Reusable", strconv.Itoa(s.Reusable)},
		}))

		rows := make([][]string, 0, planSample)
		for _, d := range plan.Results {
			if len(rows) >= planSample {
				break
			}
			if d.Reason.Fetch() {
				rows = append(rows, []string{d.Key, d.Hash, string(d.Reason)})
			}
		}
		if len(rows) > 0 {
			fmt.Println(renderTable([]string{"Key", "Remote Hash", "Reason"}, rows))
		}
		return nil
	},
}

func statsRows(s cache.Stats) [][2]string {
	rows := [][2]string{
		{"Entries", strconv.Itoa(s.Entries)},
		{"With artwork", strconv.Itoa(s.WithImages)},
		{"Without payload", strconv.Itoa(s.Empty)},
	}
	if !s.Oldest.IsZero() {
		rows = append(rows,
			[2]string{"Oldest sighting", s.Oldest.Format(time.RFC3339)},
			[2]string{"Newest sighting", s.Newest.Format(time.RFC3339)},
		)
	}
	return rows
}

// staleKeys lists the entries Prune would remove.
func staleKeys(c *cache.Cache, retention time.Duration) []staleEntry {
	cutoff := time.Now().UTC().Add(-retention)
	var stale []staleEntry
	for _, entry := range c.Snapshot() {
		if entry.LastSeen.Before(cutoff) {
			stale = append(stale, staleEntry{Key: entry.Key, LastSeen: entry.LastSeen})
		}
	}
	return stale
}

type staleEntry struct {
	Key      string
	LastSeen time.Time
}

// confirmDestructiveAction prompts the user for confirmation or uses --yes flag.
func confirmDestructiveAction() bool {
	if yesConfirm {
		fmt.Println("\n✓ Auto-confirmed via --yes flag")
		return true
	}

	fmt.Print("\n⚠️  Type 'yes' to confirm destructive actions: ")
	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	return strings.TrimSpace(response) == "yes"
}

func init() {
	RootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cachePruneCmd)
	cacheCmd.AddCommand(cachePlanCmd)

	cachePruneCmd.Flags().DurationVar(&pruneRetention, "retention", 0, "Override the configured retention window")
	cachePruneCmd.Flags().BoolVar(&pruneDryRun, "dry-run", false, "List stale entries without removing them")
	cachePruneCmd.Flags().BoolVarP(&yesConfirm, "yes", "y", false, "Skip the confirmation prompt")

	cachePlanCmd.Flags().IntVar(&planSample, "sample", 20, "Number of keys to list that need a fetch")
}
