// package tasks implements long-running operations that fan out over the recommendation API.
//
// Operations emit progress updates via channels for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/filmrec/internal/services"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchGenre Phase = iota
	ExportGenre
	WriteManifest
)

func (p Phase) String() string {
	switch p {
	case FetchGenre:
		return "fetch_genre"
	case ExportGenre:
		return "export_genre"
	case WriteManifest:
		return "write_manifest"
	default:
		return "unknown"
	}
}

func fetchingGenreUpdate(step, total int, genre string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchGenre,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Fetching %s (%d/%d)", genre, step, total),
	}
}

func exportCompletedUpdate(step, total int, res GenreExportResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportGenre,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("✓ %s: %d movies → %s", res.Genre, res.Movies, res.File),
		Data:    res,
	}
}

func exportFailedUpdate(step, total int, res GenreExportResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportGenre,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("✗ %s: %v", res.Genre, res.Error),
		Data:    res,
	}
}

// GenreExportResult is the outcome of exporting one genre's top list.
type GenreExportResult struct {
	Genre        string `json:"genre"`
	Movies       int    `json:"movies"`
	File         string `json:"file,omitempty"`
	Success      bool   `json:"success"`
	Error        error  `json:"-"`
	ErrorMessage string `json:"error,omitempty"`
}

// BulkExportResult summarizes a bulk export and is written as its manifest.
type BulkExportResult struct {
	Format            string              `json:"format"`
	TotalGenres       int                 `json:"total_genres"`
	SuccessfulExports int                 `json:"successful_exports"`
	FailedExports     int                 `json:"failed_exports"`
	OutputDirectory   string              `json:"output_directory"`
	ManifestPath      string              `json:"-"`
	Results           []GenreExportResult `json:"results"`
}

// Exporter runs bulk exports against a [services.Gateway].
type Exporter struct {
	gateway services.Gateway
	logger  *log.Logger
}

// NewExporter creates an Exporter. A nil logger discards output.
func NewExporter(gateway services.Gateway, logger *log.Logger) *Exporter {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Exporter{gateway: gateway, logger: logger}
}

// sendProgress sends a progress update through the channel without blocking.
func (e *Exporter) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
		// Channel full, skip this update
	}
}
