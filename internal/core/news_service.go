package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"newsbrief.io/newsbrief/internal/metrics"
	"newsbrief.io/newsbrief/internal/newsapi"
	"newsbrief.io/newsbrief/internal/store"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	defaultCountry  = "us"
)

// Provider is the upstream news source.
type Provider interface {
	Enabled() bool
	TopHeadlines(ctx context.Context, category, country string, page int) ([]newsapi.RawArticle, error)
	Search(ctx context.Context, query string, page int) ([]newsapi.RawArticle, error)
}

// Page selects a slice of the stored feed.
type Page struct {
	Number int
	Limit  int
}

func (p Page) normalized() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Limit < 1 {
		p.Limit = DefaultPageSize
	}
	if p.Limit > MaxPageSize {
		p.Limit = MaxPageSize
	}
	return p
}

// NewsService prefers fresh provider results and falls back to stored
// articles, seeding the mock dataset into an empty store.
type NewsService struct {
	store      store.Store
	provider   Provider
	summarizer *LLMService
	pickImage  ImagePicker
	now        func() time.Time
}

func NewNewsService(st store.Store, provider Provider, summarizer *LLMService) *NewsService {
	return &NewsService{
		store:      st,
		provider:   provider,
		summarizer: summarizer,
		pickImage:  randomPick,
		now:        time.Now,
	}
}

// Headlines returns the latest articles, optionally for one category.
func (s *NewsService) Headlines(ctx context.Context, category, country string, page Page) ([]store.Article, error) {
	page = page.normalized()
	category = strings.ToLower(strings.TrimSpace(category))
	if country == "" {
		country = defaultCountry
	}
	op := "headlines"
	if category != "" {
		op = "category"
	}

	fetch := func(ctx context.Context) ([]newsapi.RawArticle, error) {
		return s.provider.TopHeadlines(ctx, category, country, page.Number)
	}
	if articles := s.fromProvider(ctx, op, fetch, category); len(articles) > 0 {
		return articles, nil
	}
	return s.fromStore(ctx, op, store.ArticleQuery{Category: category, Page: page.Number, Limit: page.Limit})
}

func (s *NewsService) Search(ctx context.Context, query string, page Page) ([]store.Article, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, validationError("Search query is required")
	}
	page = page.normalized()

	fetch := func(ctx context.Context) ([]newsapi.RawArticle, error) {
		return s.provider.Search(ctx, query, page.Number)
	}
	if articles := s.fromProvider(ctx, "search", fetch, ""); len(articles) > 0 {
		return articles, nil
	}
	return s.fromStore(ctx, "search", store.ArticleQuery{Search: query, Page: page.Number, Limit: page.Limit})
}

func (s *NewsService) fromProvider(ctx context.Context, op string, fetch func(context.Context) ([]newsapi.RawArticle, error), fallbackCategory string) []store.Article {
	if s.provider == nil || !s.provider.Enabled() {
		return nil
	}
	raws, err := fetch(ctx)
	if err != nil {
		slog.Warn("News provider failed, using stored articles", "operation", op, "error", err)
		return nil
	}
	if len(raws) == 0 {
		slog.Info("News provider returned no articles, using stored articles", "operation", op)
		return nil
	}

	articles := s.UpsertBatch(ctx, raws, fallbackCategory)
	if len(articles) > 0 {
		metrics.RecordNewsFetch(op, metrics.SourceProvider)
	}
	return articles
}

func (s *NewsService) fromStore(ctx context.Context, op string, q store.ArticleQuery) ([]store.Article, error) {
	articles, err := s.store.ListArticles(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to query stored articles: %w", err)
	}
	if len(articles) > 0 {
		metrics.RecordNewsFetch(op, metrics.SourceStore)
		return articles, nil
	}

	count, err := s.store.CountArticles(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count articles: %w", err)
	}
	if count > 0 {
		metrics.RecordNewsFetch(op, metrics.SourceStore)
		return articles, nil
	}

	slog.Info("Store is empty, loading mock articles", "operation", op)
	s.UpsertBatch(ctx, newsapi.MockArticles(q.Category, s.now()), q.Category)
	metrics.RecordNewsFetch(op, metrics.SourceMock)

	articles, err = s.store.ListArticles(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to query stored articles: %w", err)
	}
	return articles, nil
}

// UpsertBatch stores unseen articles and returns every resulting article in
// input order. Existing articles are returned unchanged; items that fail are
// logged and skipped.
func (s *NewsService) UpsertBatch(ctx context.Context, raws []newsapi.RawArticle, fallbackCategory string) []store.Article {
	out := make([]store.Article, 0, len(raws))
	for _, raw := range raws {
		article, err := s.upsert(ctx, raw, fallbackCategory)
		if err != nil {
			if errors.Is(err, store.ErrInvalid) {
				slog.Warn("Skipping invalid article", "url", raw.URL, "error", err)
			} else {
				slog.Error("Failed to save article", "url", raw.URL, "error", err)
			}
			continue
		}
		out = append(out, *article)
	}
	return out
}

func (s *NewsService) upsert(ctx context.Context, raw newsapi.RawArticle, fallbackCategory string) (*store.Article, error) {
	url := strings.TrimSpace(raw.URL)
	if url != "" {
		existing, err := s.store.GetArticleByURL(ctx, url)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
	}

	article := Normalize(raw, fallbackCategory, s.pickImage, s.now())
	err := s.store.CreateArticle(ctx, &article)
	if errors.Is(err, store.ErrDuplicate) {
		// Lost a race with a concurrent insert of the same URL.
		return s.store.GetArticleByURL(ctx, article.URL)
	}
	if err != nil {
		return nil, err
	}
	return &article, nil
}

// GetArticle returns one stored article, generating its summary on first view.
func (s *NewsService) GetArticle(ctx context.Context, id string) (*store.Article, error) {
	article, err := s.store.GetArticleByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, notFoundError("Article not found")
		}
		return nil, fmt.Errorf("failed to load article %s: %w", id, err)
	}

	if article.AISummary == "" {
		if err := s.summarizer.summarizeArticle(ctx, s.store, article, s.now()); err != nil {
			return nil, err
		}
	}
	return article, nil
}

// Seed fills an empty store with provider headlines, or the mock dataset
// when the provider has nothing. It returns the number of articles stored.
func (s *NewsService) Seed(ctx context.Context) (int, error) {
	count, err := s.store.CountArticles(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count articles: %w", err)
	}
	if count > 0 {
		slog.Info("Database already seeded", "articles", count)
		return 0, nil
	}

	if articles := s.fromProvider(ctx, "seed", func(ctx context.Context) ([]newsapi.RawArticle, error) {
		return s.provider.TopHeadlines(ctx, "", defaultCountry, 1)
	}, ""); len(articles) > 0 {
		slog.Info("Seeded database from news provider", "articles", len(articles))
		return len(articles), nil
	}

	articles := s.UpsertBatch(ctx, newsapi.MockArticles("", s.now()), "")
	metrics.RecordNewsFetch("seed", metrics.SourceMock)
	slog.Info("Seeded database with mock articles", "articles", len(articles))
	return len(articles), nil
}

// RefreshImages re-resolves images for stored articles that have none or
// still carry a legacy single-category default. With force every article is
// refreshed. It returns the number of articles updated.
func (s *NewsService) RefreshImages(ctx context.Context, force bool) (int, error) {
	articles, err := s.store.ListArticles(ctx, store.ArticleQuery{})
	if err != nil {
		return 0, fmt.Errorf("failed to list articles: %w", err)
	}

	rotation := map[string]int{}
	updated := 0
	for _, a := range articles {
		if !force && !needsImageRefresh(a.ImageURL) {
			continue
		}
		category := strings.ToLower(a.Category)
		if category == "" {
			category = store.CategoryTechnology
		}
		image := refreshImageFor(a.Title+" "+a.Description, category, s.pickImage, rotation)
		if err := s.store.SetArticleImage(ctx, a.ID, image); err != nil {
			return updated, fmt.Errorf("failed to update image for article %s: %w", a.ID, err)
		}
		updated++
		slog.Debug("Updated article image", "article_id", a.ID, "title", a.Title)
	}
	return updated, nil
}
