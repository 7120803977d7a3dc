package core

import (
	"math/rand/v2"
	"strings"

	"newsbrief.io/newsbrief/internal/store"
)

const unsplash = "https://images.unsplash.com/"

func img(id string) string {
	return unsplash + id + "?auto=format&fit=crop&w=1200&q=80"
}

type keywordPool struct {
	keys   []string
	images []string
}

// Matched in order; the first pool with any key contained in the text wins.
var keywordPools = []keywordPool{
	{
		keys: []string{"ai", "artificial intelligence", "chatgpt", "gpt", "openai", "deepmind", "model", "ml", "machine learning", "neural network", "deep learning"},
		images: []string{
			img("photo-1677442136019-21780ecad995"), img("photo-1504384308090-c894fdcc538d"),
			img("photo-1517245386807-bb43f82c33c4"), img("photo-1655393001768-d946c97d6fd1"),
		},
	},
	{
		keys: []string{"quantum", "qubit", "superconduct", "entangle", "quantum computing"},
		images: []string{
			img("photo-1635070041078-e363dbe005cb"), img("photo-1529257414772-1960b7bea4eb"),
			img("photo-1639762681485-074b7f938ba0"),
		},
	},
	{
		keys: []string{"space", "nasa", "mars", "moon", "orbit", "rocket", "satellite", "astronaut", "spacex", "telescope", "galaxy", "universe"},
		images: []string{
			img("photo-1446776811953-b23d57bd21aa"), img("photo-1454789548928-9efd52dc4031"),
			img("photo-1516849841032-87cbac4d88f7"), img("photo-1614728894747-a83421e2b9c9"),
		},
	},
	{
		keys: []string{"climate", "environment", "rainforest", "biodiversity", "sustainability", "renewable", "solar", "wind energy", "carbon", "emission", "global warming", "eco"},
		images: []string{
			img("photo-1501004318641-b39e6451bec6"), img("photo-1500530855697-b586d89ba3ee"),
			img("photo-1569163139394-de4798aa62b6"), img("photo-1466611653911-95081537e5b7"),
		},
	},
	{
		keys: []string{"health", "hospital", "cancer", "vaccine", "medical", "doctor", "nurse", "surgery", "treatment", "drug", "pharmaceutical", "disease", "pandemic", "covid"},
		images: []string{
			img("photo-1582719478248-54e9f2af90b6"), img("photo-1579154204601-01588f351e67"),
			img("photo-1576091160550-2173dba999ef"), img("photo-1505751172876-fa1923c5c528"),
		},
	},
	{
		keys: []string{"finance", "market", "stocks", "earnings", "rally", "wall street", "trading", "investment", "bank", "cryptocurrency", "bitcoin", "economy", "inflation"},
		images: []string{
			img("photo-1434626881859-194d67b2b86f"), img("photo-1520607162513-77705c0f0d4a"),
			img("photo-1460925895917-afdab827c52f"), img("photo-1611974789855-9c2a0a7236a3"),
		},
	},
	{
		keys: []string{"sports", "championship", "match", "tournament", "football", "soccer", "basketball", "baseball", "olympics", "athlete", "win", "game", "player"},
		images: []string{
			img("photo-1508609349937-5ec4ae374ebf"), img("photo-1509223197845-458d87318791"),
			img("photo-1461896836934-ffe607ba8211"), img("photo-1579952363873-27f3bade9f55"),
		},
	},
	{
		keys: []string{"movie", "film", "music", "entertainment", "festival", "concert", "album", "actor", "actress", "cinema", "streaming", "netflix", "spotify"},
		images: []string{
			img("photo-1489515217757-5fd1be406fef"), img("photo-1521737604893-d14cc237f11d"),
			img("photo-1533613220915-609f6a6a7bca"), img("photo-1598488035139-bdbb2231ce04"),
		},
	},
	{
		keys: []string{"smartphone", "iphone", "android", "app", "mobile", "tech gadget", "device"},
		images: []string{
			img("photo-1511707171634-5f897ff02aa9"), img("photo-1512941937669-90a1b58e7e9c"),
			img("photo-1592899677977-9c10ca588bbd"),
		},
	},
	{
		keys: []string{"cybersecurity", "hack", "breach", "data leak", "ransomware", "security", "privacy"},
		images: []string{
			img("photo-1550751827-4bd374c3f58b"), img("photo-1563986768494-4dee2763ff3f"),
			img("photo-1526374965328-7f61d4dc18c5"),
		},
	},
	{
		keys: []string{"electric vehicle", "ev", "tesla", "automotive", "car", "autonomous", "self-driving"},
		images: []string{
			img("photo-1593941707882-a5bba14938c7"), img("photo-1617469767053-d3b523a0b982"),
			img("photo-1549399542-7e3f8b79c341"),
		},
	},
	{
		keys: []string{"election", "voting", "politics", "government", "president", "congress", "senate", "policy"},
		images: []string{
			img("photo-1529107386315-e1a2ed48a620"), img("photo-1520454974743-201d305911eb"),
			img("photo-1541872703-74c5e44368f9"),
		},
	},
	{
		keys: []string{"war", "military", "conflict", "defense", "army", "navy", "weapon"},
		images: []string{
			img("photo-1436262513933-a0b06755c784"), img("photo-1522097969174-3c5b7531aba6"),
		},
	},
	{
		keys: []string{"education", "school", "university", "college", "student", "learning", "teacher"},
		images: []string{
			img("photo-1523050854058-8df90110c9f1"), img("photo-1503676260728-1c00da094a0b"),
			img("photo-1427504494785-3a9ca7044f45"),
		},
	},
	{
		keys: []string{"food", "restaurant", "chef", "cooking", "recipe", "culinary"},
		images: []string{
			img("photo-1476224203421-9ac39bcb3327"), img("photo-1504674900247-0877df9cc836"),
			img("photo-1414235077428-338989a2e8c0"),
		},
	},
}

var categoryImages = map[string]string{
	store.CategoryTechnology:    img("photo-1677442136019-21780ecad995"),
	store.CategoryScience:       img("photo-1507525428034-b723cf961d3e"),
	store.CategoryHealth:        img("photo-1576091160550-2173dba999ef"),
	store.CategoryBusiness:      img("photo-1460925895917-afdab827c52f"),
	store.CategoryEntertainment: img("photo-1533613220915-609f6a6a7bca"),
	store.CategorySports:        img("photo-1508609349937-5ec4ae374ebf"),
	store.CategoryEnvironment:   img("photo-1569163139394-de4798aa62b6"),
	store.CategoryPolitics:      img("photo-1529107386315-e1a2ed48a620"),
}

// Earlier builds stamped one image per category; refresh replaces these.
var legacyDefaultImages = map[string]bool{
	img("photo-1677442136019-21780ecad995"): true,
	img("photo-1507525428034-b723cf961d3e"): true,
	img("photo-1576091160550-2173dba999ef"): true,
	img("photo-1460925895917-afdab827c52f"): true,
	img("photo-1533613220915-609f6a6a7bca"): true,
	img("photo-1461896836934-ffe607ba8211"): true,
	img("photo-1569163139394-de4798aa62b6"): true,
	img("photo-1529107386315-e1a2ed48a620"): true,
}

// ImagePicker chooses one image from a non-empty pool.
type ImagePicker func(pool []string) string

func randomPick(pool []string) string {
	return pool[rand.IntN(len(pool))]
}

func matchKeywordPool(text string) []string {
	normalized := strings.ToLower(text)
	for _, pool := range keywordPools {
		for _, key := range pool.keys {
			if strings.Contains(normalized, key) {
				return pool.images
			}
		}
	}
	return nil
}

// imageFor picks a themed image for the text, falling back to the category
// image and then the technology image.
func imageFor(text, category string, pick ImagePicker) string {
	if pool := matchKeywordPool(text); pool != nil {
		return pick(pool)
	}
	if fallback, ok := categoryImages[category]; ok {
		return fallback
	}
	return categoryImages[store.CategoryTechnology]
}

func needsImageRefresh(imageURL string) bool {
	trimmed := strings.TrimSpace(imageURL)
	return trimmed == "" || legacyDefaultImages[trimmed]
}

// Rotated through by image refresh when no keyword matches.
var categoryPools = map[string][]string{
	store.CategoryTechnology: {
		img("photo-1677442136019-21780ecad995"), img("photo-1518770660439-4636190af475"), img("photo-1526379095098-d400fd0bf935"),
	},
	store.CategoryScience: {
		img("photo-1507525428034-b723cf961d3e"), img("photo-1500530855697-b586d89ba3ee"), img("photo-1470165518754-609cab407e47"),
	},
	store.CategoryHealth: {
		img("photo-1576091160550-2173dba999ef"), img("photo-1505751172876-fa1923c5c528"), img("photo-1506126613408-eca07ce68773"),
	},
	store.CategoryBusiness: {
		img("photo-1460925895917-afdab827c52f"), img("photo-1520607162513-77705c0f0d4a"), img("photo-1508387025002-73f3c6a45d5c"),
	},
	store.CategoryEntertainment: {
		img("photo-1533613220915-609f6a6a7bca"), img("photo-1521737604893-d14cc237f11d"), img("photo-1489515217757-5fd1be406fef"),
	},
	store.CategorySports: {
		img("photo-1461896836934-ffe607ba8211"), img("photo-1508609349937-5ec4ae374ebf"), img("photo-1499028344343-cd173ffc68a9"),
	},
	store.CategoryEnvironment: {
		img("photo-1569163139394-de4798aa62b6"), img("photo-1501004318641-b39e6451bec6"), img("photo-1500382017468-9049fed747ef"),
	},
	store.CategoryPolitics: {
		img("photo-1529107386315-e1a2ed48a620"), img("photo-1520454974743-201d305911eb"), img("photo-1526304640581-d334cdbbf45e"),
	},
}

var defaultPool = []string{
	img("photo-1500530855697-b586d89ba3ee"), img("photo-1501004318641-b39e6451bec6"), img("photo-1520607162513-77705c0f0d4a"),
}

// refreshImageFor is imageFor with a rotating per-category fallback, so a
// batch refresh spreads images across the category pool.
func refreshImageFor(text, category string, pick ImagePicker, rotation map[string]int) string {
	if pool := matchKeywordPool(text); pool != nil {
		return pick(pool)
	}
	pool, ok := categoryPools[category]
	if !ok {
		pool = defaultPool
	}
	i := rotation[category]
	rotation[category] = i + 1
	return pool[i%len(pool)]
}
