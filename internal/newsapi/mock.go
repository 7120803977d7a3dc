package newsapi

import (
	"strings"
	"time"
)

// MockArticles is the built-in dataset served when neither the provider nor
// the store has anything. The first article takes the requested category.
func MockArticles(category string, now time.Time) []RawArticle {
	first := strings.TrimSpace(category)
	if first == "" {
		first = "technology"
	}
	ago := func(hours int) string {
		return now.Add(-time.Duration(hours) * time.Hour).UTC().Format(time.RFC3339)
	}

	return []RawArticle{
		{
			Title:       "AI Breakthroughs: New Model Achieves Human-Level Performance",
			Description: "Researchers unveil an AI model that matches human-level reasoning on complex tasks, with better efficiency and safety controls.",
			Content:     "A new generation of AI models is delivering human-level reasoning while requiring fewer resources...",
			ImageURL:    "https://images.unsplash.com/photo-1677442136019-21780ecad995?auto=format&fit=crop&w=1200&q=80",
			URL:         "https://example.com/ai-breakthrough-human-level",
			Source:      "Tech News Today",
			Category:    first,
			PublishedAt: ago(2),
		},
		{
			Title:       "New Species Discovered in Amazon Rainforest",
			Description: "Scientists uncover a previously unknown species during a deep rainforest expedition, expanding biodiversity records.",
			Content:     "Biologists documenting rainforest biodiversity encountered a new species exhibiting unique adaptive traits...",
			ImageURL:    "https://images.unsplash.com/photo-1507525428034-b723cf961d3e?auto=format&fit=crop&w=1200&q=80",
			URL:         "https://example.com/amazon-new-species",
			Source:      "Science Daily",
			Category:    "science",
			PublishedAt: ago(4),
		},
		{
			Title:       "Quantum Computing Milestone: New Record Set",
			Description: "Engineers achieve a major quantum advantage benchmark with improved error correction and stability.",
			Content:     "A research team demonstrated sustained quantum coherence while scaling qubit counts, setting a new industry record...",
			ImageURL:    "https://images.unsplash.com/photo-1635070041078-e363dbe005cb?auto=format&fit=crop&w=1200&q=80",
			URL:         "https://example.com/quantum-record",
			Source:      "Physics World",
			Category:    "technology",
			PublishedAt: ago(5),
		},
		{
			Title:       "Healthcare AI Cuts ER Wait Times",
			Description: "Hospitals report reduced emergency room wait times after deploying triage AI assistants.",
			Content:     "Clinical teams are using AI to prioritize cases, leading to faster interventions and improved patient satisfaction...",
			ImageURL:    "https://images.unsplash.com/photo-1576091160550-2173dba999ef?auto=format&fit=crop&w=1200&q=80",
			URL:         "https://example.com/healthcare-ai-er",
			Source:      "Healthline",
			Category:    "health",
			PublishedAt: ago(6),
		},
		{
			Title:       "Global Markets Rally on Positive Earnings",
			Description: "Tech and industrial stocks lead gains as quarterly earnings surpass forecasts across major indices.",
			Content:     "Investors responded to strong earnings beats, driving a broad-based rally and lifting market sentiment...",
			ImageURL:    "https://images.unsplash.com/photo-1460925895917-afdab827c52f?auto=format&fit=crop&w=1200&q=80",
			URL:         "https://example.com/markets-rally",
			Source:      "MarketWatch",
			Category:    "business",
			PublishedAt: ago(7),
		},
		{
			Title:       "Championship Upset: Underdogs Claim the Title",
			Description: "An unexpected victory reshapes the playoff picture as the underdogs secure the championship in overtime.",
			Content:     "The final quarter saw dramatic swings before the underdogs closed out in overtime, stunning analysts and fans alike...",
			ImageURL:    "https://images.unsplash.com/photo-1461896836934-ffe607ba8211?auto=format&fit=crop&w=1200&q=80",
			URL:         "https://example.com/championship-upset",
			Source:      "ESPN",
			Category:    "sports",
			PublishedAt: ago(8),
		},
	}
}
