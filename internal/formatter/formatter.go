// package formatter renders movies, recommendations and ratings as text, Markdown, CSV or JSON
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/filmrec/internal/models"
	"github.com/desertthunder/filmrec/internal/shared"
)

// Format is an output format name.
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatCSV      Format = "csv"
	FormatJSON     Format = "json"
)

// ParseFormat accepts a format name or a common alias ("md", "txt").
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt":
		return FormatText, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, s)
}

// Extension returns the file extension for f, including the dot.
func (f Format) Extension() string {
	switch f {
	case FormatMarkdown:
		return ".md"
	case FormatCSV:
		return ".csv"
	case FormatJSON:
		return ".json"
	}
	return ".txt"
}

// Export is a titled list of movies, such as a user's ratings or a genre top list.
type Export struct {
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Movies      []models.Movie `json:"movies"`
}

// Render encodes export in format.
func Render(export *Export, format Format) ([]byte, error) {
	switch format {
	case FormatCSV:
		return ExportToCSV(export)
	case FormatMarkdown:
		return ExportToMarkdown(export)
	case FormatJSON:
		return shared.MarshalJSON(export, true)
	}
	return ExportToText(export)
}

// ExportToCSV converts an Export to CSV with columns: ID, Title, Year, Genres, Rating, Score
func ExportToCSV(export *Export) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Year", "Genres", "Rating", "Score"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, movie := range export.Movies {
		record := []string{
			movie.ID.String(),
			movie.Title,
			movie.Year.String(),
			strings.Join(movie.Genres, "|"),
			formatNumber(movie.Rating),
			formatNumber(movie.Score),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts an Export to a Markdown document with one list item per movie
func ExportToMarkdown(export *Export) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", export.Title))
	if export.Description != "" {
		buf.WriteString(fmt.Sprintf("%s\n\n", export.Description))
	}
	buf.WriteString(fmt.Sprintf("**Movies**: %d\n\n", len(export.Movies)))

	for i, movie := range export.Movies {
		line := fmt.Sprintf("%d. **%s**", i+1, movie.Title)
		if len(movie.Genres) > 0 {
			line += fmt.Sprintf(" _%s_", strings.Join(movie.Genres, ", "))
		}
		if movie.Rating > 0 {
			line += " " + Stars(int(movie.Rating))
		}
		buf.WriteString(line + "\n")
	}

	return buf.Bytes(), nil
}

// ExportToText converts an Export to plain text
func ExportToText(export *Export) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("%s\n", export.Title))
	if export.Description != "" {
		buf.WriteString(fmt.Sprintf("%s\n", export.Description))
	}
	buf.WriteString(fmt.Sprintf("Movies: %d\n\n", len(export.Movies)))

	for i, movie := range export.Movies {
		buf.WriteString(fmt.Sprintf("%d. [%s] %s", i+1, movie.ID, movie.Title))
		if movie.Rating > 0 {
			buf.WriteString(" " + Stars(int(movie.Rating)))
		}
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

// WriteExport renders export and writes it to path, defaulting to {base}{ext} when path is empty.
func WriteExport(export *Export, format Format, path, base string) (string, error) {
	if path == "" {
		path = base + format.Extension()
	}

	data, err := Render(export, format)
	if err != nil {
		return "", fmt.Errorf("failed to render %s: %w", format, err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

// Stars renders a 1-5 rating as filled and empty stars.
func Stars(rating int) string {
	if rating < 0 {
		rating = 0
	}
	if rating > 5 {
		rating = 5
	}
	return strings.Repeat("★", rating) + strings.Repeat("☆", 5-rating)
}

// MovieDetail renders one movie's details. rating is the user's own rating, 0 when unrated.
func MovieDetail(movie models.Movie, rating int) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("%s [%s]\n", movie.Title, movie.ID))

	fields := []struct{ label, value string }{
		{"Year", movie.Year.String()},
		{"Released", movie.KnownReleaseDate()},
		{"Runtime", runtimeLabel(movie.Runtime)},
		{"Genres", strings.Join(movie.Genres, ", ")},
		{"Director", movie.Director},
		{"Cast", strings.Join(movie.Cast, ", ")},
		{"IMDb", imdb(movie)},
		{"Poster", movie.Poster()},
	}
	for _, f := range fields {
		if f.value != "" {
			b.WriteString(fmt.Sprintf("  %-9s %s\n", f.label+":", f.value))
		}
	}
	if rating > 0 {
		b.WriteString(fmt.Sprintf("  %-9s %s\n", "Rating:", Stars(rating)))
	}
	if movie.Overview != "" {
		b.WriteString("\n" + movie.Overview + "\n")
	}

	return b.String()
}

func runtimeLabel(r models.FlexString) string {
	if r == "" {
		return ""
	}
	if _, err := strconv.Atoi(r.String()); err == nil {
		return r.String() + " min"
	}
	return r.String()
}

func imdb(m models.Movie) string {
	parts := []string{}
	if m.IMDbRating != "" {
		parts = append(parts, m.IMDbRating.String()+"/10")
	}
	if m.IMDbURL != "" {
		parts = append(parts, m.IMDbURL)
	}
	return strings.Join(parts, " ")
}

// MovieList renders numbered movies. ratings supplies the user's own ratings and may be nil.
func MovieList(movies []models.Movie, ratings map[models.MovieID]int) string {
	var b strings.Builder
	for i, m := range movies {
		b.WriteString(fmt.Sprintf("%2d. [%s] %s", i+1, m.ID, m.Title))
		if len(m.Genres) > 0 {
			b.WriteString(" (" + strings.Join(m.Genres, ", ") + ")")
		}
		if r, ok := ratings[m.ID]; ok {
			b.WriteString(" " + Stars(r))
		}
		if m.Score > 0 {
			b.WriteString(fmt.Sprintf(" score %.2f", m.Score))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Recommendations renders the recommender's explanation followed by the movies.
func Recommendations(recs *models.Recommendations) string {
	var b strings.Builder

	if e := recs.Explanation; e != nil {
		b.WriteString(fmt.Sprintf("User %s (%s)\n", e.UserID, e.Category))
		if e.RatingCount > 0 {
			b.WriteString(fmt.Sprintf("Ratings: %d\n", e.RatingCount))
		}
		b.WriteString(fmt.Sprintf("Strategy: %s\n", e.Strategy))
		for _, mw := range e.ModelsUsed {
			b.WriteString(fmt.Sprintf("  %-15s %3.0f%%\n", mw.Model, mw.Weight*100))
		}
		b.WriteString("\n")
	}

	if len(recs.Recommendations) == 0 {
		b.WriteString(NotEnoughData + "\n")
		return b.String()
	}

	for i, m := range recs.Recommendations {
		b.WriteString(fmt.Sprintf("%2d. [%s] %s", i+1, m.ID, m.Title))
		if m.ModelUsed != "" {
			b.WriteString(" via " + m.ModelUsed)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// NotEnoughData is shown when the recommender returned nothing for a user.
const NotEnoughData = "We don't have enough data to recommend movies yet. Try rating more movies!"

// PageWindow returns up to show page numbers centered on current, shifted to stay within 1..total.
func PageWindow(current, total, show int) []int {
	if total < 1 || show < 1 {
		return nil
	}

	start := max(1, current-show/2)
	end := min(total, start+show-1)
	if end-start < show-1 {
		start = max(1, end-show+1)
	}

	pages := make([]int, 0, end-start+1)
	for p := start; p <= end; p++ {
		pages = append(pages, p)
	}
	return pages
}

// Pager renders the pagination bar, e.g. "1 … 4 5 [6] 7 8 … 20". Empty when there is a single page.
func Pager(current, total int) string {
	if total <= 1 {
		return ""
	}

	pages := PageWindow(current, total, 5)
	parts := []string{}

	if first := pages[0]; first > 1 {
		parts = append(parts, "1")
		if first > 2 {
			parts = append(parts, "…")
		}
	}
	for _, p := range pages {
		if p == current {
			parts = append(parts, fmt.Sprintf("[%d]", p))
		} else {
			parts = append(parts, strconv.Itoa(p))
		}
	}
	if last := pages[len(pages)-1]; last < total {
		if last < total-1 {
			parts = append(parts, "…")
		}
		parts = append(parts, strconv.Itoa(total))
	}

	return strings.Join(parts, " ")
}

func formatNumber(f float64) string {
	if f == 0 {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// DownloadImage downloads an image from the given URL and returns the raw bytes
func DownloadImage(url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("empty URL provided")
	}

	client := &http.Client{
		Timeout: 30 * time.Second,
	}

	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	return imageData, nil
}
