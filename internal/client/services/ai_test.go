package services

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/dmitrijs2005/gophjournal/internal/client/client"
	"github.com/dmitrijs2005/gophjournal/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAI_PromptSendsRecentContext(t *testing.T) {
	ctx := context.Background()
	journal, _ := newJournal(t)
	for i := 0; i < 5; i++ {
		_, err := journal.Save(ctx, fmt.Sprintf("entry number %d", i), 3)
		require.NoError(t, err)
	}

	fc := newFakeClient()
	fc.answer("/api/ai/prompt", 200, `{"prompt":"What are you grateful for?","usage":{"input_tokens":10,"output_tokens":8}}`)
	svc := NewAIService(fc, journal, nil)

	long := strings.Repeat("é", 500)
	prompt, usage, err := svc.Prompt(ctx, 4, long)
	require.NoError(t, err)
	assert.Equal(t, "What are you grateful for?", prompt)
	assert.Equal(t, &Usage{InputTokens: 10, OutputTokens: 8}, usage)

	require.Len(t, fc.calls, 1)
	req := fc.calls[0].Body.(promptRequest)
	assert.Equal(t, 4, req.Mood)
	assert.Equal(t, maxCurrentText, utf8.RuneCountInString(req.CurrentText))
	assert.Equal(t, []string{"entry number 4", "entry number 3", "entry number 2"}, req.RecentEntries)
}

func TestAI_PromptRejectsInvalidMood(t *testing.T) {
	journal, _ := newJournal(t)
	fc := newFakeClient()
	_, _, err := NewAIService(fc, journal, nil).Prompt(context.Background(), 8, "")
	require.ErrorIs(t, err, common.ErrInvalidMood)
	assert.Empty(t, fc.calls)
}

func TestAI_Analyze(t *testing.T) {
	ctx := context.Background()
	journal, _ := newJournal(t)

	short, err := journal.Save(ctx, "   tiny    ", 2)
	require.NoError(t, err)
	long, err := journal.Save(ctx, strings.Repeat("a longer reflection ", 200), 2)
	require.NoError(t, err)

	fc := newFakeClient()
	fc.answer("/api/ai/analyze", 200, `{"analysis":{"reflection":"You seem calm.","themes":["rest"],"follow_up":"Why?","crisis_detected":false}}`)
	svc := NewAIService(fc, journal, nil)

	_, _, err = svc.Analyze(ctx, short.Id)
	require.ErrorIs(t, err, ErrTooShort)
	assert.Empty(t, fc.calls)

	_, _, err = svc.Analyze(ctx, "missing")
	require.ErrorIs(t, err, common.ErrNotFound)

	a, _, err := svc.Analyze(ctx, long.Id)
	require.NoError(t, err)
	assert.Equal(t, "You seem calm.", a.Reflection)
	assert.Equal(t, []string{"rest"}, a.Themes)

	require.Len(t, fc.calls, 1)
	req := fc.calls[0].Body.(analyzeRequest)
	assert.Equal(t, 2, req.Mood)
	assert.Equal(t, maxAnalyzeText, utf8.RuneCountInString(req.Content))
}

func TestAI_Patterns(t *testing.T) {
	ctx := context.Background()
	journal, _ := newJournal(t)
	fc := newFakeClient()
	fc.answer("/api/ai/patterns", 200, `{"patterns":{"mood_trend":"improving","themes":["work"]}}`)
	svc := NewAIService(fc, journal, nil)

	for i := 0; i < 2; i++ {
		_, err := journal.Save(ctx, fmt.Sprintf("day %d", i), 3)
		require.NoError(t, err)
	}
	_, _, err := svc.Patterns(ctx)
	require.ErrorIs(t, err, ErrNotEnoughEntries)

	for i := 2; i < 12; i++ {
		_, err := journal.Save(ctx, fmt.Sprintf("day %d %s", i, strings.Repeat("x", 300)), 1+i%5)
		require.NoError(t, err)
	}

	p, _, err := svc.Patterns(ctx)
	require.NoError(t, err)
	assert.Equal(t, "improving", p.MoodTrend)

	require.Len(t, fc.calls, 1)
	req := fc.calls[0].Body.(patternsRequest)
	require.Len(t, req.Entries, maxPatternEntries)
	assert.True(t, strings.HasPrefix(req.Entries[0].Content, "day 2 "), "oldest of the newest ten first")
	assert.True(t, strings.HasPrefix(req.Entries[9].Content, "day 11 "))
	for _, e := range req.Entries {
		assert.LessOrEqual(t, utf8.RuneCountInString(e.Content), maxPatternSnippet)
		assert.NotEmpty(t, e.Date)
	}
}

func TestAI_BackendError(t *testing.T) {
	ctx := context.Background()
	journal, _ := newJournal(t)
	fc := newFakeClient()
	fc.answer("/api/ai/prompt", 429, `{"error":"Rate limit exceeded. Please try again later."}`)

	_, _, err := NewAIService(fc, journal, nil).Prompt(ctx, 0, "")
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 429, apiErr.Status)
}
