// Package export turns a finished result into downloadable artifacts. It
// only reads the result it is given.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/legal-assistant/docclient/internal/metrics"
	"github.com/legal-assistant/docclient/internal/result"
)

var ErrNotAvailable = errors.New("nothing to export")

const (
	SummaryFilename  = "summary.txt"
	EntitiesFilename = "entities.json"
)

type Artifact struct {
	Name        string
	ContentType string
	Data        []byte
}

// Summary exports the raw summary text. It fails with ErrNotAvailable when r
// carries no summary or the summary is empty.
func Summary(r result.Result) (Artifact, error) {
	summary, ok := result.SummaryOf(r)
	if !ok || summary.Text == "" {
		return Artifact{}, ErrNotAvailable
	}

	metrics.ExportsTotal.WithLabelValues("summary").Inc()
	return Artifact{
		Name:        SummaryFilename,
		ContentType: "text/plain;charset=utf-8",
		Data:        []byte(summary.Text),
	}, nil
}

// Entities exports the entity list as indented JSON, one {text, label}
// object per entity in result order.
func Entities(r result.Result) (Artifact, error) {
	entities, ok := result.EntitiesOf(r)
	if !ok || len(entities.Entities) == 0 {
		return Artifact{}, ErrNotAvailable
	}

	data, err := json.MarshalIndent(entities.Entities, "", "  ")
	if err != nil {
		return Artifact{}, fmt.Errorf("failed to encode entities: %w", err)
	}

	metrics.ExportsTotal.WithLabelValues("entities").Inc()
	return Artifact{
		Name:        EntitiesFilename,
		ContentType: "application/json;charset=utf-8",
		Data:        data,
	}, nil
}

// Writer writes artifacts into one directory.
type Writer struct {
	OutputDir string
}

// NewWriter creates dir if needed. An empty dir means the working directory.
func NewWriter(dir string) (*Writer, error) {
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		dir = wd
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	return &Writer{OutputDir: dir}, nil
}

// Write stores a under its own name and returns the path written.
func (w *Writer) Write(a Artifact) (string, error) {
	path := filepath.Join(w.OutputDir, filepath.Base(a.Name))
	if err := os.WriteFile(path, a.Data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}
