package pipeline

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"guide-builder/core/errors"
	"guide-builder/feature/guide/models"
)

// Exporter hands a finished document to its consumer.
type Exporter interface {
	Export(ctx context.Context, doc *models.Document) error
}

// ExporterFunc adapts a function to Exporter.
type ExporterFunc func(ctx context.Context, doc *models.Document) error

// Export implements Exporter.
func (f ExporterFunc) Export(ctx context.Context, doc *models.Document) error { return f(ctx, doc) }

// JSONFileExporter writes the document as indented JSON, replacing the file atomically.
type JSONFileExporter struct {
	Path string
}

// Export implements Exporter.
func (e JSONFileExporter) Export(ctx context.Context, doc *models.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode document")
	}

	dir := filepath.Dir(e.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "create output directory")
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(e.Path)+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return errors.Wrap(err, "write document")
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return errors.Wrap(err, "close temp file")
	}
	if err := os.Rename(tmpPath, e.Path); err != nil {
		_ = os.Remove(tmpPath)
		return errors.Wrap(err, "replace document")
	}
	return nil
}
