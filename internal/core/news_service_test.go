package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsbrief.io/newsbrief/internal/newsapi"
	"newsbrief.io/newsbrief/internal/store"
)

func newTestNews(t *testing.T, provider Provider, completer *fakeCompleter) (*NewsService, store.Store) {
	t.Helper()
	st := newTestStore(t)
	var summarizer *LLMService
	if completer != nil {
		summarizer = NewLLMService(completer)
	} else {
		summarizer = NewLLMService(nil)
	}
	svc := NewNewsService(st, provider, summarizer)
	svc.pickImage = firstPick
	return svc, st
}

func storeArticle(t *testing.T, st store.Store, title, category string, published time.Time) *store.Article {
	t.Helper()
	a := &store.Article{
		Title:       title,
		Description: title + " description",
		URL:         "https://news.test/" + title,
		Category:    category,
		PublishedAt: published,
	}
	require.NoError(t, st.CreateArticle(context.Background(), a))
	return a
}

func TestHeadlinesFromProviderAreStoredOnce(t *testing.T) {
	ctx := context.Background()
	provider := &fakeProvider{enabled: true, headlines: []newsapi.RawArticle{
		{Title: "One", URL: "https://news.test/one", Description: "first"},
		{Title: "Two", URL: "https://news.test/two", Category: "science"},
	}}
	svc, st := newTestNews(t, provider, nil)

	first, err := svc.Headlines(ctx, "", "", Page{})
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, "One", first[0].Title)
	assert.Equal(t, store.CategoryTechnology, first[0].Category)
	assert.Equal(t, store.CategoryScience, first[1].Category)
	assert.NotEmpty(t, first[0].ID)

	second, err := svc.Headlines(ctx, "", "", Page{})
	require.NoError(t, err)
	require.Len(t, second, 2)
	assert.Equal(t, first[0].ID, second[0].ID)
	assert.Equal(t, first[1].ID, second[1].ID)

	count, err := st.CountArticles(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
}

func TestHeadlinesCategoryAppliesToUncategorisedProviderArticles(t *testing.T) {
	provider := &fakeProvider{enabled: true, headlines: []newsapi.RawArticle{
		{Title: "Match report", URL: "https://news.test/match"},
	}}
	svc, _ := newTestNews(t, provider, nil)

	articles, err := svc.Headlines(context.Background(), "Sports", "", Page{})
	require.NoError(t, err)
	require.Len(t, articles, 1)
	assert.Equal(t, store.CategorySports, articles[0].Category)
}

func TestHeadlinesFallBackToStoreOnProviderError(t *testing.T) {
	ctx := context.Background()
	provider := &fakeProvider{enabled: true, err: errors.New("status 500")}
	svc, st := newTestNews(t, provider, nil)

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	storeArticle(t, st, "tech-old", store.CategoryTechnology, base)
	storeArticle(t, st, "tech-new", store.CategoryTechnology, base.Add(2*time.Hour))
	storeArticle(t, st, "tech-mid", store.CategoryTechnology, base.Add(time.Hour))
	storeArticle(t, st, "science", store.CategoryScience, base.Add(3*time.Hour))

	articles, err := svc.Headlines(ctx, "technology", "", Page{})
	require.NoError(t, err)
	require.Len(t, articles, 3)
	assert.Equal(t, "tech-new", articles[0].Title)
	assert.Equal(t, "tech-mid", articles[1].Title)
	assert.Equal(t, "tech-old", articles[2].Title)
	assert.Equal(t, 1, provider.calls)
}

func TestHeadlinesWithoutProviderSeedsMocksIntoEmptyStore(t *testing.T) {
	ctx := context.Background()
	provider := &fakeProvider{enabled: false}
	svc, st := newTestNews(t, provider, nil)

	articles, err := svc.Headlines(ctx, "", "", Page{})
	require.NoError(t, err)
	require.Len(t, articles, len(newsapi.MockArticles("", time.Now())))
	for _, a := range articles {
		assert.NotEmpty(t, a.ID)
	}
	assert.Zero(t, provider.calls)

	count, err := st.CountArticles(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, len(articles), count)
}

func TestHeadlinesMockFallbackHonoursCategory(t *testing.T) {
	svc, _ := newTestNews(t, nil, nil)

	articles, err := svc.Headlines(context.Background(), "sports", "", Page{})
	require.NoError(t, err)
	require.NotEmpty(t, articles)
	for _, a := range articles {
		assert.Equal(t, store.CategorySports, a.Category)
	}
}

func TestHeadlinesPagination(t *testing.T) {
	svc, st := newTestNews(t, nil, nil)
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, title := range []string{"a", "b", "c", "d", "e"} {
		storeArticle(t, st, title, store.CategoryTechnology, base.Add(time.Duration(i)*time.Hour))
	}

	page, err := svc.Headlines(context.Background(), "", "", Page{Number: 2, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "c", page[0].Title)
	assert.Equal(t, "b", page[1].Title)
}

func TestPageNormalized(t *testing.T) {
	assert.Equal(t, Page{Number: 1, Limit: DefaultPageSize}, Page{}.normalized())
	assert.Equal(t, Page{Number: 3, Limit: MaxPageSize}, Page{Number: 3, Limit: 1000}.normalized())
}

func TestSearch(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestNews(t, &fakeProvider{enabled: true}, nil)
	storeArticle(t, st, "Rover lands", store.CategoryScience, time.Now())
	storeArticle(t, st, "Budget vote", store.CategoryPolitics, time.Now())

	_, err := svc.Search(ctx, "  ", Page{})
	require.ErrorIs(t, err, ErrValidation)

	articles, err := svc.Search(ctx, "rover", Page{})
	require.NoError(t, err)
	require.Len(t, articles, 1)
	assert.Equal(t, "Rover lands", articles[0].Title)
}

func TestSearchProviderResultsKeepTheirOwnCategory(t *testing.T) {
	provider := &fakeProvider{enabled: true, results: []newsapi.RawArticle{
		{Title: "Rover lands", URL: "https://news.test/rover", Categories: []string{"science"}},
		{Title: "Untagged", URL: "https://news.test/untagged"},
	}}
	svc, _ := newTestNews(t, provider, nil)

	articles, err := svc.Search(context.Background(), "rover", Page{})
	require.NoError(t, err)
	require.Len(t, articles, 2)
	assert.Equal(t, store.CategoryScience, articles[0].Category)
	assert.Equal(t, store.CategoryTechnology, articles[1].Category)
}

func TestUpsertBatchDeduplicatesAndSkipsInvalid(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestNews(t, nil, nil)

	out := svc.UpsertBatch(ctx, []newsapi.RawArticle{
		{Title: "Same", URL: "https://news.test/same"},
		{Title: "Same again", URL: " https://news.test/same "},
		{URL: "https://news.test/untitled"},
		{Title: "Odd", URL: "https://news.test/odd", Category: "astrology"},
	}, "")
	require.Len(t, out, 2)
	assert.Equal(t, out[0].ID, out[1].ID)
	assert.Equal(t, "Same", out[1].Title)

	count, err := st.CountArticles(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestGetArticleGeneratesSummaryOnce(t *testing.T) {
	ctx := context.Background()
	completer := &fakeCompleter{reply: "A short summary."}
	svc, st := newTestNews(t, nil, completer)
	stored := storeArticle(t, st, "Rover lands", store.CategoryScience, time.Now())

	got, err := svc.GetArticle(ctx, stored.ID)
	require.NoError(t, err)
	assert.Equal(t, "A short summary.", got.AISummary)
	assert.NotNil(t, got.SummaryGeneratedAt)
	assert.Equal(t, []string{"Please summarize this news article: Rover lands. Rover lands description"}, completer.prompts)

	reloaded, err := st.GetArticleByID(ctx, stored.ID)
	require.NoError(t, err)
	assert.Equal(t, "A short summary.", reloaded.AISummary)

	_, err = svc.GetArticle(ctx, stored.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, completer.calls())

	_, err = svc.GetArticle(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSeed(t *testing.T) {
	ctx := context.Background()

	t.Run("mock dataset", func(t *testing.T) {
		svc, _ := newTestNews(t, &fakeProvider{}, nil)
		n, err := svc.Seed(ctx)
		require.NoError(t, err)
		assert.Equal(t, len(newsapi.MockArticles("", time.Now())), n)

		n, err = svc.Seed(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("provider headlines", func(t *testing.T) {
		provider := &fakeProvider{enabled: true, headlines: []newsapi.RawArticle{
			{Title: "Live", URL: "https://news.test/live"},
		}}
		svc, _ := newTestNews(t, provider, nil)
		n, err := svc.Seed(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})
}

func TestRefreshImages(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestNews(t, nil, nil)

	blank := &store.Article{Title: "Quiet day", URL: "https://news.test/blank", Category: store.CategoryBusiness}
	legacy := &store.Article{Title: "Quiet night", URL: "https://news.test/legacy", Category: store.CategoryBusiness,
		ImageURL: categoryImages[store.CategoryBusiness]}
	custom := &store.Article{Title: "Own picture", URL: "https://news.test/custom", Category: store.CategoryBusiness,
		ImageURL: "https://cdn.test/own.jpg"}
	for _, a := range []*store.Article{blank, legacy, custom} {
		require.NoError(t, st.CreateArticle(ctx, a))
	}

	n, err := svc.RefreshImages(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	images := map[string]string{}
	for _, a := range []*store.Article{blank, legacy, custom} {
		got, err := st.GetArticleByID(ctx, a.ID)
		require.NoError(t, err)
		images[a.ID] = got.ImageURL
	}
	assert.Equal(t, "https://cdn.test/own.jpg", images[custom.ID])
	assert.Contains(t, categoryPools[store.CategoryBusiness], images[blank.ID])
	assert.Contains(t, categoryPools[store.CategoryBusiness], images[legacy.ID])
	assert.NotEqual(t, images[blank.ID], images[legacy.ID])

	n, err = svc.RefreshImages(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}
