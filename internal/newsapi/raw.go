package newsapi

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"newsbrief.io/newsbrief/internal/store"
)

// RawArticle is an article as a provider or seed file delivers it, before
// normalization. Several image field names are accepted because providers
// disagree on them.
type RawArticle struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Content     string   `json:"content"`
	URL         string   `json:"url"`
	ImageURL    string   `json:"image_url"`
	URLToImage  string   `json:"urlToImage"`
	Image       string   `json:"image"`
	Source      any      `json:"source"` // string, {name,id} object or store.Source
	Category    string   `json:"category"`
	Categories  []string `json:"categories"`
	PublishedAt string   `json:"publishedAt"`
}

// SourceInfo resolves the loosely typed Source field.
func (r RawArticle) SourceInfo() store.Source {
	switch src := r.Source.(type) {
	case nil:
		return store.Source{}
	case string:
		return store.Source{Name: src}
	case store.Source:
		return src
	case *store.Source:
		if src == nil {
			return store.Source{}
		}
		return *src
	case map[string]any:
		name, _ := src["name"].(string)
		id, _ := src["id"].(string)
		return store.Source{Name: name, ID: id}
	default:
		return store.Source{}
	}
}

// Published parses PublishedAt in any common layout, interpreting zone-less
// values as UTC. Missing or unparseable values yield now.
func (r RawArticle) Published(now time.Time) time.Time {
	value := strings.TrimSpace(r.PublishedAt)
	if value == "" {
		return now
	}
	t, err := dateparse.ParseIn(value, time.UTC)
	if err != nil {
		return now
	}
	return t.UTC()
}
