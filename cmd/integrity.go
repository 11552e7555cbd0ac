package cmd

import (
	"context"

	"guide-builder/core/errors"
	"guide-builder/feature/guide/history"
	"guide-builder/feature/integrity"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var fixFlag bool

// integrityChecks selects which checks runIntegrityChecks performs.
type integrityChecks struct {
	structure bool
	cache     bool
	database  bool
	document  bool
}

var allChecks = integrityChecks{structure: true, cache: true, database: true, document: true}

// integrityCmd represents the integrity command
var integrityCmd = &cobra.Command{
	Use:   "integrity",
	Short: "Perform integrity checks on the guide builder state",
	Long:  `Checks the storage folder structure, the content cache file, the run history schema and the last exported document.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) > 0 {
			return cmd.Help()
		}
		return runIntegrityChecks(cmd.Context(), allChecks)
	},
}

// structureCmd represents the integrity structure command
var structureCmd = &cobra.Command{
	Use:   "structure",
	Short: "Check and fix folder structure",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIntegrityChecks(cmd.Context(), integrityChecks{structure: true})
	},
}

// cacheCheckCmd represents the integrity cache command
var cacheCheckCmd = &cobra.Command{
	Use:   "cache",
	Short: "Check the content cache file",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIntegrityChecks(cmd.Context(), integrityChecks{cache: true})
	},
}

// databaseCmd represents the integrity database command
var databaseCmd = &cobra.Command{
	Use:   "database",
	Short: "Check the run history schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIntegrityChecks(cmd.Context(), integrityChecks{database: true})
	},
}

// documentCmd represents the integrity document command
var documentCmd = &cobra.Command{
	Use:   "document",
	Short: "Check the last exported guide document",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIntegrityChecks(cmd.Context(), integrityChecks{document: true})
	},
}

func init() {
	RootCmd.AddCommand(integrityCmd)
	integrityCmd.AddCommand(structureCmd)
	integrityCmd.AddCommand(cacheCheckCmd)
	integrityCmd.AddCommand(databaseCmd)
	integrityCmd.AddCommand(documentCmd)

	structureCmd.Flags().BoolVar(&fixFlag, "fix", false, "Fix missing folders")
}

func runIntegrityChecks(ctx context.Context, run integrityChecks) error {
	if ctx == nil {
		ctx = context.Background()
	}

	rt, err := loadRuntime(run.structure)
	if err != nil {
		return err
	}
	logg := rt.logger
	defer logg.Sync()
	cfg := rt.guide

	expected := history.FirstOf{history.Static(cfg.Pipeline.ExpectedServices)}
	if rt.db != nil && cfg.Pipeline.ExpectedFromHistory {
		expected = append(expected, history.LastRun{Store: history.NewStore(rt.db)})
	}

	svc := integrity.NewService(rt.store, rt.cfg.Storage.Bucket, logg, rt.db, cfg.Cache.Path,
		integrity.WithDocuments(integrity.FileDocument{Path: cfg.Pipeline.OutputPath}, expected, cfg.Pipeline.SafetyRatio))

	failed := 0

	if run.structure {
		logg.Info("Checking storage structure...", zap.String("bucket", rt.cfg.Storage.Bucket))
		missing, err := svc.CheckStructure(ctx)
		switch {
		case errors.Is(err, integrity.ErrStorageDisabled):
			logg.Warn("Storage is disabled, skipping structure check")
		case err != nil:
			logg.Error("Structure check failed", zap.Error(err))
			failed++
		case len(missing) == 0:
			logg.Info("Storage structure is intact")
		case fixFlag:
			logg.Info("Fixing missing folders", zap.Strings("missing", missing))
			if err := svc.FixStructure(ctx, missing); err != nil {
				logg.Error("Failed to fix structure", zap.Error(err))
				failed++
			} else {
				logg.Info("Structure fixed", zap.Strings("created", missing))
			}
		default:
			logg.Warn("Missing folders detected, run with --fix to create them", zap.Strings("missing", missing))
			failed++
		}
	}

	if run.cache {
		logg.Info("Checking content cache...", zap.String("path", cfg.Cache.Path))
		report := svc.CheckCache()
		switch report.Status {
		case "ok":
			logg.Info("Cache file is readable", zap.Int("entries", report.Entries))
		case "missing":
			logg.Warn("Cache file does not exist yet, the next run fetches everything")
		default:
			logg.Error("Cache file is corrupt",
				zap.Int("entries", report.Entries),
				zap.Int("dropped", report.Dropped),
				zap.String("error", report.Error),
			)
			failed++
		}
	}

	if run.database {
		logg.Info("Checking run history schema...")
		report, err := svc.CheckDatabase()
		switch {
		case err != nil:
			logg.Warn("Database check skipped", zap.Error(err))
		case report.Status == "ok":
			logg.Info("Run history schema matches", zap.String("table", report.Table))
		default:
			logg.Error("Run history schema mismatch",
				zap.String("table", report.Table),
				zap.Bool("exists", report.Exists),
				zap.Strings("missing_columns", report.MissingColumns),
			)
			failed++
		}
	}

	if run.document {
		logg.Info("Checking exported document...", zap.String("path", cfg.Pipeline.OutputPath))
		report, err := svc.CheckDocument(ctx)
		switch {
		case err != nil:
			logg.Error("Document check failed", zap.Error(err))
			failed++
		case report.Status == "ok":
			logg.Info("Document is consistent",
				zap.Int("services", report.Services),
				zap.Int("elements", report.Elements),
				zap.Int("expected", report.Expected),
			)
		case report.Status == "warning":
			logg.Warn("Document has inconsistencies",
				zap.Int("skipped", report.Consistency.Skipped),
				zap.Int("unknown_service_airings", report.Consistency.UnknownServiceAirings),
				zap.Int("elements_without_airings", report.Consistency.ElementsWithoutAirings),
			)
		default:
			logg.Error("Document failed validation", zap.String("error", report.SafetyError))
			failed++
		}
	}

	if failed > 0 {
		return errors.Newf("%d integrity check(s) failed", failed)
	}
	return nil
}
