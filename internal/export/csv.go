package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/harrietfigueroa/plex-to-letterboxd/internal/config"
	"github.com/harrietfigueroa/plex-to-letterboxd/internal/models"
	"golang.org/x/text/unicode/norm"
)

// Header is the Letterboxd import column order
var Header = []string{"Title", "imdbID", "WatchedDate", "Tags"}

// Options controls how records are rendered
type Options struct {
	DateOnly bool // write WatchedDate as YYYY-MM-DD
}

// WriteCSV writes the header and one row per record to w.
// Titles are NFC-normalised; an empty Tags value is written as the default tag.
func WriteCSV(w io.Writer, records []models.ExportRecord, opts Options) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for i, rec := range records {
		tags := rec.Tags
		if tags == "" {
			tags = models.DefaultTags
		}
		row := []string{
			norm.NFC.String(rec.Title),
			rec.IMDbID,
			rec.WatchedDate(opts.DateOnly),
			tags,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row %d: %w", i+1, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteFile writes the CSV to path through a temporary file in the same
// directory, so a failed run never leaves a truncated export behind.
func WriteFile(path string, records []models.ExportRecord, opts Options) error {
	logger := config.GetLogger()

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temporary csv: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := WriteCSV(tmp, records, opts); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temporary csv: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("move csv into place: %w", err)
	}

	logger.Info().Str("path", path).Int("records", len(records)).Msg("Wrote Letterboxd CSV")
	return nil
}
