package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/gophjournal/internal/client/client"
	"github.com/dmitrijs2005/gophjournal/internal/client/models"
	"github.com/dmitrijs2005/gophjournal/internal/common"
	"github.com/dmitrijs2005/gophjournal/internal/logging"
)

const (
	maxRecentEntries   = 3
	maxCurrentText     = 200
	minAnalyzeChars    = 10
	maxAnalyzeText     = 2000
	minPatternEntries  = 3
	maxPatternEntries  = 10
	maxPatternSnippet  = 150
	recentPreviewRunes = 100
)

var (
	ErrTooShort         = errors.New("entry content too short for analysis")
	ErrNotEnoughEntries = errors.New("need at least 3 entries for pattern analysis")
)

// Usage is the token accounting attached to every AI answer.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

type Analysis struct {
	Reflection     string   `json:"reflection"`
	Themes         []string `json:"themes"`
	FollowUp       string   `json:"follow_up"`
	CrisisDetected bool     `json:"crisis_detected"`
}

type Patterns struct {
	MoodTrend        string   `json:"mood_trend"`
	Themes           []string `json:"themes"`
	PositivePatterns []string `json:"positive_patterns"`
	Suggestions      []string `json:"suggestions"`
}

// AIService sends selected decrypted text to the backend's AI endpoints.
type AIService interface {
	Prompt(ctx context.Context, mood int, currentText string) (string, *Usage, error)
	Analyze(ctx context.Context, id string) (*Analysis, *Usage, error)
	Patterns(ctx context.Context) (*Patterns, *Usage, error)
}

type aiService struct {
	client  client.Client
	journal JournalService
	log     logging.Logger
}

func NewAIService(c client.Client, journal JournalService, log logging.Logger) AIService {
	if log == nil {
		log = logging.NewNop()
	}
	return &aiService{client: c, journal: journal, log: log}
}

type promptRequest struct {
	Mood          int      `json:"mood,omitempty"`
	RecentEntries []string `json:"recent_entries,omitempty"`
	CurrentText   string   `json:"current_text,omitempty"`
}

// Prompt asks for a journaling prompt. Up to three recent previews give the
// backend context; the text being written is cut to 200 runes.
func (s *aiService) Prompt(ctx context.Context, mood int, currentText string) (string, *Usage, error) {
	if !models.ValidMood(mood) {
		return "", nil, common.ErrInvalidMood
	}

	previews, err := s.journal.ListPreviews(ctx)
	if err != nil {
		return "", nil, err
	}
	req := promptRequest{Mood: mood, CurrentText: truncate(currentText, maxCurrentText)}
	for _, p := range previews {
		if len(req.RecentEntries) == maxRecentEntries {
			break
		}
		req.RecentEntries = append(req.RecentEntries, truncate(p.Preview, recentPreviewRunes))
	}

	var body struct {
		Prompt string `json:"prompt"`
		Usage  Usage  `json:"usage"`
	}
	if err := s.post(ctx, "/api/ai/prompt", req, &body); err != nil {
		return "", nil, err
	}
	return body.Prompt, &body.Usage, nil
}

type analyzeRequest struct {
	Content string `json:"content"`
	Mood    int    `json:"mood,omitempty"`
}

// Analyze sends one decrypted entry, cut to 2000 runes, for reflection.
func (s *aiService) Analyze(ctx context.Context, id string) (*Analysis, *Usage, error) {
	view, err := s.journal.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if utf8.RuneCountInString(strings.TrimSpace(view.Content)) < minAnalyzeChars {
		return nil, nil, ErrTooShort
	}

	req := analyzeRequest{Content: truncate(view.Content, maxAnalyzeText), Mood: view.Mood}

	var body struct {
		Analysis Analysis `json:"analysis"`
		Usage    Usage    `json:"usage"`
	}
	if err := s.post(ctx, "/api/ai/analyze", req, &body); err != nil {
		return nil, nil, err
	}
	return &body.Analysis, &body.Usage, nil
}

type patternEntry struct {
	Content string `json:"content"`
	Mood    int    `json:"mood,omitempty"`
	Date    string `json:"date"`
}

type patternsRequest struct {
	Entries []patternEntry `json:"entries"`
}

// Patterns sends the newest ten readable entries, oldest first, each cut
// to 150 runes.
func (s *aiService) Patterns(ctx context.Context) (*Patterns, *Usage, error) {
	views, err := s.journal.ExportAll(ctx)
	if err != nil {
		return nil, nil, err
	}
	if len(views) < minPatternEntries {
		return nil, nil, ErrNotEnoughEntries
	}
	if len(views) > maxPatternEntries {
		views = views[len(views)-maxPatternEntries:]
	}

	req := patternsRequest{Entries: make([]patternEntry, 0, len(views))}
	for _, v := range views {
		req.Entries = append(req.Entries, patternEntry{
			Content: truncate(v.Content, maxPatternSnippet),
			Mood:    v.Mood,
			Date:    v.CreatedAt.Format(time.RFC3339),
		})
	}

	var body struct {
		Patterns Patterns `json:"patterns"`
		Usage    Usage    `json:"usage"`
	}
	if err := s.post(ctx, "/api/ai/patterns", req, &body); err != nil {
		return nil, nil, err
	}
	return &body.Patterns, &body.Usage, nil
}

func (s *aiService) post(ctx context.Context, path string, req, out any) error {
	resp, err := s.client.PostJSON(ctx, path, req)
	if err != nil {
		return err
	}
	if err := resp.Err(); err != nil {
		s.log.Warn(ctx, "ai request rejected", "path", path, "status", resp.Status)
		return err
	}
	if err := resp.Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// truncate cuts s to n runes without an ellipsis.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
