package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophjournal/internal/client/models"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
)

const timeLayout = "2006-01-02 15:04"

// listFilter narrows listings to a creation time window. Zero bounds are open.
type listFilter struct {
	Since time.Time
	Until time.Time
	JSON  bool
}

func (f listFilter) match(t time.Time) bool {
	if !f.Since.IsZero() && t.Before(f.Since) {
		return false
	}
	if !f.Until.IsZero() && t.After(f.Until) {
		return false
	}
	return true
}

// Add saves a new entry. An empty content is read from the input until an
// empty line.
func (a *App) Add(ctx context.Context, content string, mood int) error {
	if strings.TrimSpace(content) == "" {
		text, err := GetMultiline(a.reader, "Write your entry", a.out)
		if err != nil {
			return err
		}
		content = text
	}
	if strings.TrimSpace(content) == "" {
		return errors.New("nothing to save")
	}

	meta, err := a.journal.Save(ctx, content, mood)
	if err != nil {
		return err
	}
	color.New(color.FgGreen).Fprintf(a.out, "Saved entry %s (%d words)\n", meta.Id, meta.WordCount)
	return nil
}

func (a *App) Get(ctx context.Context, id string, asJSON bool) error {
	v, err := a.journal.Get(ctx, id)
	if err != nil {
		return err
	}
	if asJSON {
		return a.printJSON(v)
	}

	color.New(color.Bold).Fprintf(a.out, "%s  %s  mood %s  %d words\n",
		v.Id, v.CreatedAt.Local().Format(timeLayout), moodString(v.Mood), v.WordCount)
	if !v.UpdatedAt.Equal(v.CreatedAt) {
		color.New(color.Faint).Fprintf(a.out, "edited %s\n", v.UpdatedAt.Local().Format(timeLayout))
	}
	fmt.Fprintln(a.out)
	fmt.Fprintln(a.out, v.Content)
	return nil
}

func (a *App) List(ctx context.Context, f listFilter) error {
	list, err := a.journal.ListPreviews(ctx)
	if err != nil {
		return err
	}
	return a.printPreviews(list, f)
}

func (a *App) Search(ctx context.Context, query string, f listFilter) error {
	list, err := a.journal.Search(ctx, query)
	if err != nil {
		return err
	}
	return a.printPreviews(list, f)
}

func (a *App) printPreviews(list []models.Preview, f listFilter) error {
	filtered := make([]models.Preview, 0, len(list))
	for _, p := range list {
		if f.match(p.CreatedAt) {
			filtered = append(filtered, p)
		}
	}

	if f.JSON {
		return a.printJSON(filtered)
	}
	if len(filtered) == 0 {
		color.New(color.FgYellow).Fprintln(a.out, "No entries.")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(a.out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "Created", "Mood", "Words", "Preview"})
	for _, p := range filtered {
		t.AppendRow(table.Row{
			p.Id,
			p.CreatedAt.Local().Format(timeLayout),
			moodString(p.Mood),
			p.WordCount,
			strings.ReplaceAll(p.Preview, "\n", " "),
		})
	}
	t.Render()
	return nil
}

// Edit replaces the content and/or mood of an entry; nil leaves a field as is.
func (a *App) Edit(ctx context.Context, id string, content *string, mood *int) error {
	if content == nil && mood == nil {
		return errors.New("nothing to change: give new content or a mood")
	}
	meta, err := a.journal.Update(ctx, id, models.EntryUpdate{Content: content, Mood: mood})
	if err != nil {
		return err
	}
	color.New(color.FgGreen).Fprintf(a.out, "Updated entry %s\n", meta.Id)
	return nil
}

func (a *App) Delete(ctx context.Context, id string) error {
	if err := a.journal.Delete(ctx, id); err != nil {
		return err
	}
	color.New(color.FgGreen).Fprintf(a.out, "Deleted entry %s\n", id)
	return nil
}

// Clear removes every entry after confirmation unless force is set.
func (a *App) Clear(ctx context.Context, force bool) error {
	if !force {
		ok, err := Confirm(a.reader, "Delete ALL entries? This cannot be undone.", a.out)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(a.out, "Aborted.")
			return nil
		}
	}
	if err := a.journal.DeleteAll(ctx); err != nil {
		return err
	}
	color.New(color.FgGreen).Fprintln(a.out, "All entries deleted.")
	return nil
}

func (a *App) Stats(ctx context.Context) error {
	st, err := a.journal.Stats(ctx)
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(a.out)
	t.SetStyle(table.StyleLight)
	t.AppendRows([]table.Row{
		{"Entries", st.Entries},
		{"Words", st.Words},
		{"Average mood", averageMood(st)},
		{"First entry", formatOptionalTime(st.Oldest)},
		{"Last entry", formatOptionalTime(st.Newest)},
	})
	t.Render()
	return nil
}

func (a *App) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func moodString(m int) string {
	if m == models.MoodUnset {
		return "-"
	}
	return strconv.Itoa(m)
}

func averageMood(st *models.Stats) string {
	if st.MoodEntries == 0 {
		return "-"
	}
	return strconv.FormatFloat(st.AverageMood, 'f', 2, 64)
}

func formatOptionalTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(timeLayout)
}
