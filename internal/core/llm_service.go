package core

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"newsbrief.io/newsbrief/internal/llm"
	"newsbrief.io/newsbrief/internal/metrics"
	"newsbrief.io/newsbrief/internal/store"
	"newsbrief.io/newsbrief/internal/utils"
)

const (
	summarySystemInstruction = "You are a helpful assistant that creates concise, accurate summaries of news articles. " +
		"Keep summaries to 2-3 sentences maximum."

	// SummaryUnavailable is returned for empty input.
	SummaryUnavailable = "Summary not available. The article content could not be summarized."

	defaultSummaryTimeout = 30 * time.Second
	fallbackSummaryRunes  = 200
)

// LLMService turns article text into a short summary. It never fails: without
// a working completer it falls back to truncating the input.
type LLMService struct {
	completer llm.Completer
	timeout   time.Duration
}

// NewLLMService accepts a nil completer, in which case every summary takes
// the truncation path.
func NewLLMService(completer llm.Completer) *LLMService {
	return &LLMService{
		completer: completer,
		timeout:   defaultSummaryTimeout,
	}
}

func (s *LLMService) Summarize(ctx context.Context, text string) string {
	if strings.TrimSpace(text) == "" {
		metrics.RecordSummary(metrics.OutcomeEmpty)
		return SummaryUnavailable
	}

	if s.completer != nil {
		ctx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		summary, err := s.completer.Complete(ctx, summarySystemInstruction, "Please summarize this news article: "+text)
		if err == nil && strings.TrimSpace(summary) != "" {
			metrics.RecordSummary(metrics.OutcomeLLM)
			return strings.TrimSpace(summary)
		}
		slog.Warn("Summarization failed, truncating instead", "error", err)
	}

	metrics.RecordSummary(metrics.OutcomeFallback)
	return utils.Truncate(text, fallbackSummaryRunes, "...")
}

func articleSummaryInput(a *store.Article) string {
	return a.Title + ". " + a.Description
}

// summarizeArticle writes a fresh summary onto the article and persists it.
func (s *LLMService) summarizeArticle(ctx context.Context, st store.Store, a *store.Article, now time.Time) error {
	summary := s.Summarize(ctx, articleSummaryInput(a))
	if err := st.SetArticleSummary(ctx, a.ID, summary, now); err != nil {
		return fmt.Errorf("failed to store summary for article %s: %w", a.ID, err)
	}
	a.AISummary = summary
	a.SummaryGeneratedAt = &now
	return nil
}
