package store

import "time"

type User struct {
	ID               string         `json:"_id" bson:"_id"`
	Name             string         `json:"name" bson:"name"`
	Email            string         `json:"email" bson:"email"`
	PasswordHash     string         `json:"-" bson:"password"` // Never exposed in JSON responses
	Preferences      map[string]any `json:"preferences" bson:"preferences"`
	ResetTokenHash   string         `json:"-" bson:"reset_password_token,omitempty"`
	ResetTokenExpiry *time.Time     `json:"-" bson:"reset_password_expire,omitempty"`
	SavedArticles    []string       `json:"savedArticles" bson:"saved_articles"`
	CreatedAt        time.Time      `json:"createdAt" bson:"created_at"`
}

type Source struct {
	Name string `json:"name" bson:"name"`
	ID   string `json:"id" bson:"id"`
}

type Article struct {
	ID                 string     `json:"_id" bson:"_id"`
	Title              string     `json:"title" bson:"title"`
	Description        string     `json:"description" bson:"description"`
	Content            string     `json:"content" bson:"content"`
	URL                string     `json:"url" bson:"url"`
	ImageURL           string     `json:"imageUrl" bson:"image_url"`
	Source             Source     `json:"source" bson:"source"`
	Category           string     `json:"category" bson:"category"`
	PublishedAt        time.Time  `json:"publishedAt" bson:"published_at"`
	AISummary          string     `json:"aiSummary,omitempty" bson:"ai_summary,omitempty"`
	SummaryGeneratedAt *time.Time `json:"summaryGeneratedAt,omitempty" bson:"summary_generated_at,omitempty"`
	ReadTime           int        `json:"readTime" bson:"read_time"`
	CreatedAt          time.Time  `json:"createdAt" bson:"created_at"`
}

// SavedSummary is a user's bookmark of an article. Summary is a snapshot
// taken at save time.
type SavedSummary struct {
	ID        string    `json:"_id" bson:"_id"`
	UserID    string    `json:"user" bson:"user"`
	ArticleID string    `json:"-" bson:"article"`
	Article   *Article  `json:"article" bson:"-"` // Populated on list
	Summary   string    `json:"summary" bson:"summary"`
	Notes     string    `json:"notes" bson:"notes"`
	Tags      []string  `json:"tags" bson:"tags"`
	SavedAt   time.Time `json:"savedAt" bson:"saved_at"`
	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updated_at"`
}

const (
	CategoryTechnology    = "technology"
	CategoryScience       = "science"
	CategoryHealth        = "health"
	CategoryBusiness      = "business"
	CategoryEntertainment = "entertainment"
	CategorySports        = "sports"
	CategoryEnvironment   = "environment"
	CategoryPolitics      = "politics"
)

// Categories is the closed set an Article.Category may take.
var Categories = map[string]bool{
	CategoryTechnology: true, CategoryScience: true, CategoryHealth: true,
	CategoryBusiness: true, CategoryEntertainment: true, CategorySports: true,
	CategoryEnvironment: true, CategoryPolitics: true,
	"top": true, "world": true, "crime": true, "domestic": true, "education": true,
	"food": true, "lifestyle": true, "other": true, "tourism": true,
}

// ArticleQuery selects stored articles for the fallback feed.
type ArticleQuery struct {
	Category string // exact match when set
	Search   string // case-insensitive substring of title or description
	Page     int    // 1-based
	Limit    int    // 0 means no limit
}

func (q ArticleQuery) offset() int {
	if q.Page <= 1 || q.Limit <= 0 {
		return 0
	}
	return (q.Page - 1) * q.Limit
}

// ProfileUpdate carries the fields a user may change on their own profile.
type ProfileUpdate struct {
	Name        *string
	Preferences map[string]any
}
