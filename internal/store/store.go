package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
	ErrInvalid   = errors.New("invalid record")
)

// Store is the persistence boundary shared by the SQLite and MongoDB backends.
type Store interface {
	CreateUser(ctx context.Context, user *User) error
	GetUserByID(ctx context.Context, id string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByResetToken(ctx context.Context, tokenHash string, now time.Time) (*User, error)
	UpdateUserProfile(ctx context.Context, id string, update ProfileUpdate) (*User, error)
	SetResetToken(ctx context.Context, userID, tokenHash string, expiry time.Time) error
	ClearResetToken(ctx context.Context, userID string) error
	// ConsumeResetToken sets a new password hash and clears the reset token,
	// but only while tokenHash is still the user's unexpired token. It returns
	// ErrNotFound when the token no longer matches.
	ConsumeResetToken(ctx context.Context, userID, tokenHash, passwordHash string, now time.Time) error

	CreateArticle(ctx context.Context, article *Article) error
	GetArticleByID(ctx context.Context, id string) (*Article, error)
	GetArticleByURL(ctx context.Context, url string) (*Article, error)
	ListArticles(ctx context.Context, q ArticleQuery) ([]Article, error)
	CountArticles(ctx context.Context) (int64, error)
	SetArticleSummary(ctx context.Context, id, summary string, at time.Time) error
	SetArticleImage(ctx context.Context, id, imageURL string) error

	// CreateSavedSummary inserts the record and appends its id to the
	// owner's saved list.
	CreateSavedSummary(ctx context.Context, saved *SavedSummary) error
	GetSavedSummary(ctx context.Context, userID, articleID string) (*SavedSummary, error)
	// DeleteSavedSummary removes the record and its id from the owner's
	// saved list, returning the deleted record.
	DeleteSavedSummary(ctx context.Context, userID, articleID string) (*SavedSummary, error)
	ListSavedSummaries(ctx context.Context, userID string) ([]SavedSummary, error)
	CountSavedSummaries(ctx context.Context, userID string) (int64, error)

	Close() error
}

// Open picks a backend from the connection string: mongodb:// and
// mongodb+srv:// URLs use MongoDB, anything else is a SQLite path.
func Open(ctx context.Context, dsn, mongoDB string) (Store, error) {
	if strings.HasPrefix(dsn, "mongodb://") || strings.HasPrefix(dsn, "mongodb+srv://") {
		return NewMongoStore(ctx, dsn, mongoDB)
	}
	return NewSQLiteStore(dsn)
}

// ValidateArticle enforces the required fields and the category enum.
func ValidateArticle(a *Article) error {
	if strings.TrimSpace(a.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalid)
	}
	if strings.TrimSpace(a.URL) == "" {
		return fmt.Errorf("%w: url is required", ErrInvalid)
	}
	if a.Category == "" {
		a.Category = CategoryTechnology
	}
	if !Categories[a.Category] {
		return fmt.Errorf("%w: unknown category %q", ErrInvalid, a.Category)
	}
	return nil
}

func prepareArticle(a *Article) error {
	a.Title = strings.TrimSpace(a.Title)
	if err := ValidateArticle(a); err != nil {
		return err
	}
	now := time.Now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	if a.PublishedAt.IsZero() {
		a.PublishedAt = now
	}
	if a.ReadTime == 0 {
		a.ReadTime = 5
	}
	return nil
}
