package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dmitrijs2005/gophjournal/internal/client/models"
	"github.com/fatih/color"
)

const exportVersion = 1

// exportFile is the backup format. Content is plaintext.
type exportFile struct {
	Version    int                `json:"version"`
	ExportedAt time.Time          `json:"exported_at"`
	Entries    []models.EntryView `json:"entries"`
}

// Export writes every readable entry, oldest first, to path ("-" for the
// output stream).
func (a *App) Export(ctx context.Context, path string) error {
	views, err := a.journal.ExportAll(ctx)
	if err != nil {
		return err
	}

	doc := exportFile{Version: exportVersion, ExportedAt: time.Now().UTC(), Entries: views}

	if path == "-" {
		return a.printJSON(doc)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating export file: %w", err)
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing export file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("writing export file: %w", err)
	}

	color.New(color.FgGreen).Fprintf(a.out, "Exported %d entries to %s\n", len(views), path)
	color.New(color.FgYellow).Fprintln(a.out, "The export is not encrypted; keep it somewhere safe.")
	return nil
}

// Import restores a backup written by Export ("-" reads the input stream).
func (a *App) Import(ctx context.Context, path string) error {
	var r io.Reader = a.reader
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("opening import file: %w", err)
		}
		defer f.Close()
		r = f
	}

	var doc exportFile
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return fmt.Errorf("reading import file: %w", err)
	}
	if doc.Version != exportVersion {
		return fmt.Errorf("unsupported export version %d", doc.Version)
	}

	n, err := a.journal.Import(ctx, doc.Entries)
	if err != nil {
		return err
	}
	color.New(color.FgGreen).Fprintf(a.out, "Imported %d entries\n", n)
	return nil
}
