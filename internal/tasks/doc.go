// Package tasks runs bulk operations against the recommendation API with real-time progress reporting.
//
// # Bulk genre export
//
// [Exporter.BulkExport] writes the top list of every requested genre to its own file:
//
//   - Genres are fetched one at a time behind a [golang.org/x/time/rate.Limiter] so the API is not flooded
//   - Fetched lists are handed to a small worker pool that renders and writes them via the formatter package
//   - A genre that fails is recorded and the rest continue
//   - export_manifest.json in the output directory summarizes every genre in request order
//
// # Progress Reporting
//
// [ProgressUpdate] carries a phase, step counters and a display message. Updates are sent with select
// and default so a slow reader never blocks the export.
package tasks
