package core

import (
	"strings"
	"time"

	"newsbrief.io/newsbrief/internal/newsapi"
	"newsbrief.io/newsbrief/internal/store"
	"newsbrief.io/newsbrief/internal/utils"
)

// Normalize maps a provider article onto the canonical Article shape. It does
// not validate: missing titles or URLs are left for the store to reject.
func Normalize(raw newsapi.RawArticle, fallbackCategory string, pick ImagePicker, now time.Time) store.Article {
	if pick == nil {
		pick = randomPick
	}
	category := resolveCategory(raw, fallbackCategory)

	image := utils.FirstNonEmpty(raw.ImageURL, raw.URLToImage, raw.Image)
	if image == "" {
		image = imageFor(raw.Title+" "+raw.Description, category, pick)
	}

	return store.Article{
		Title:       strings.TrimSpace(raw.Title),
		Description: raw.Description,
		Content:     raw.Content,
		URL:         strings.TrimSpace(raw.URL),
		ImageURL:    strings.TrimSpace(image),
		Source:      raw.SourceInfo(),
		Category:    category,
		PublishedAt: raw.Published(now),
		ReadTime:    utils.ReadTime(utils.FirstNonEmpty(raw.Content, raw.Description)),
	}
}

func resolveCategory(raw newsapi.RawArticle, fallback string) string {
	var first string
	if len(raw.Categories) > 0 {
		first = raw.Categories[0]
	}
	category := utils.FirstNonEmpty(raw.Category, first, fallback, store.CategoryTechnology)
	return strings.ToLower(strings.TrimSpace(category))
}
