package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gophjournal/internal/client/services"
	"github.com/fatih/color"
)

// Prompt asks the backend for a writing prompt.
func (a *App) Prompt(ctx context.Context, mood int, currentText string) error {
	var prompt string
	err := a.withSpinner("Thinking...", func() error {
		var err error
		prompt, _, err = a.ai.Prompt(ctx, mood, currentText)
		return err
	})
	if err != nil {
		return err
	}
	color.New(color.FgCyan).Fprintln(a.out, prompt)
	return nil
}

// Analyze sends one entry for reflection.
func (a *App) Analyze(ctx context.Context, id string) error {
	var res *services.Analysis
	err := a.withSpinner("Analyzing entry...", func() error {
		var err error
		res, _, err = a.ai.Analyze(ctx, id)
		return err
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(a.out, res.Reflection)
	printList(a, "Themes", res.Themes)
	if res.FollowUp != "" {
		color.New(color.FgCyan).Fprintf(a.out, "\n%s\n", res.FollowUp)
	}
	if res.CrisisDetected {
		color.New(color.FgRed, color.Bold).Fprintln(a.out, "\nIf you are struggling, please reach out to someone you trust or a professional.")
	}
	return nil
}

// Patterns sends recent entries for a trend analysis.
func (a *App) Patterns(ctx context.Context) error {
	var res *services.Patterns
	err := a.withSpinner("Looking for patterns...", func() error {
		var err error
		res, _, err = a.ai.Patterns(ctx)
		return err
	})
	if err != nil {
		return err
	}

	color.New(color.Bold).Fprintf(a.out, "Mood trend: %s\n", res.MoodTrend)
	printList(a, "Themes", res.Themes)
	printList(a, "Keep doing", res.PositivePatterns)
	printList(a, "Suggestions", res.Suggestions)
	return nil
}

func printList(a *App, title string, items []string) {
	if len(items) == 0 {
		return
	}
	color.New(color.Bold).Fprintf(a.out, "%s:\n", title)
	for _, it := range items {
		fmt.Fprintf(a.out, "  - %s\n", strings.TrimSpace(it))
	}
}
