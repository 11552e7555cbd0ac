// Package logger provides a structured logging facility based on Zap.
//
// It offers a configured logger instance that supports different environments (development vs production)
// and integrates with the Fiber web framework.
//
// # Context Awareness
//
// Two helpers attach correlation fields:
//   - WithRayID extracts the RayID from a Fiber context so all logs of one HTTP request correlate.
//   - WithRunID tags every log line of a pipeline run with its run identifier.
//
// # Configuration
//
// The package supports configuration for:
//   - Level: debug, info, warn, error
//   - Encoding: json (production) or console (development)
//
// # Usage
//
//	log, _ := logger.New(&logger.Config{Level: "info"})
//	log.Info("Run started")
//
//	// Inside the pipeline:
//	l := logger.WithRunID(log, runID)
//	l.Warn("Batch failed", zap.Error(err))
package logger
