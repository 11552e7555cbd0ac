package cmd

import (
	"fmt"
	"os"

	"guide-builder/core/errors"
	"guide-builder/core/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "guide-builder",
	Short: "Television Guide Builder",
	Long: `Guide Builder ingests television-guide metadata from a remote catalog,
fetches only what changed since the last run and assembles one guide document.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	err := RootCmd.Execute()
	if err == nil {
		return
	}

	// Commands fail before their own logger exists, so report on a console logger.
	l, logErr := logger.New(&logger.Config{Level: "debug", Format: "console"})
	if logErr != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	fields := []zap.Field{zap.Error(err)}
	if hints := errors.GetAllHints(err); len(hints) > 0 {
		fields = append(fields, zap.Strings("hints", hints))
	}
	l.Error("command failed", fields...)
	_ = l.Sync()
	os.Exit(1)
}
