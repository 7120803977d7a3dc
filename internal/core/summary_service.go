package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"newsbrief.io/newsbrief/internal/store"
)

type SummaryService struct {
	store      store.Store
	summarizer *LLMService
	now        func() time.Time
}

func NewSummaryService(st store.Store, summarizer *LLMService) *SummaryService {
	return &SummaryService{
		store:      st,
		summarizer: summarizer,
		now:        time.Now,
	}
}

type GeneratedSummary struct {
	Summary   string  `json:"summary"`
	ArticleID *string `json:"articleId"`
}

// Generate summarises a stored article, replacing any earlier summary, or a
// piece of pasted text when no article is given.
func (s *SummaryService) Generate(ctx context.Context, articleID, text string) (*GeneratedSummary, error) {
	articleID = strings.TrimSpace(articleID)
	switch {
	case articleID != "":
		article, err := s.loadArticle(ctx, articleID)
		if err != nil {
			return nil, err
		}
		if err := s.summarizer.summarizeArticle(ctx, s.store, article, s.now()); err != nil {
			return nil, err
		}
		return &GeneratedSummary{Summary: article.AISummary, ArticleID: &article.ID}, nil

	case strings.TrimSpace(text) != "":
		return &GeneratedSummary{Summary: s.summarizer.Summarize(ctx, text)}, nil

	default:
		return nil, validationError("Either articleId or text is required")
	}
}

func (s *SummaryService) loadArticle(ctx context.Context, id string) (*store.Article, error) {
	article, err := s.store.GetArticleByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, notFoundError("Article not found")
		}
		return nil, fmt.Errorf("failed to load article %s: %w", id, err)
	}
	return article, nil
}

// Save bookmarks an article for the user with a snapshot of its summary.
func (s *SummaryService) Save(ctx context.Context, userID, articleID, notes string) (*store.SavedSummary, error) {
	article, err := s.loadArticle(ctx, articleID)
	if err != nil {
		return nil, err
	}

	if _, err := s.store.GetSavedSummary(ctx, userID, article.ID); err == nil {
		return nil, conflictError("Article already saved", nil)
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("failed to check saved article: %w", err)
	}

	if article.AISummary == "" {
		if err := s.summarizer.summarizeArticle(ctx, s.store, article, s.now()); err != nil {
			return nil, err
		}
	}

	saved := &store.SavedSummary{
		UserID:    userID,
		ArticleID: article.ID,
		Summary:   article.AISummary,
		Notes:     notes,
		Tags:      []string{},
		SavedAt:   s.now().UTC(),
	}
	if err := s.store.CreateSavedSummary(ctx, saved); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, conflictError("Article already saved", err)
		}
		return nil, fmt.Errorf("failed to save article: %w", err)
	}
	saved.Article = article

	slog.Info("Article saved", "user_id", userID, "article_id", article.ID)
	return saved, nil
}

func (s *SummaryService) Unsave(ctx context.Context, userID, articleID string) error {
	if _, err := s.store.DeleteSavedSummary(ctx, userID, articleID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return notFoundError("Saved article not found")
		}
		return fmt.Errorf("failed to unsave article: %w", err)
	}
	slog.Info("Article unsaved", "user_id", userID, "article_id", articleID)
	return nil
}

func (s *SummaryService) ListSaved(ctx context.Context, userID string) ([]store.SavedSummary, error) {
	saved, err := s.store.ListSavedSummaries(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list saved articles: %w", err)
	}
	return saved, nil
}
