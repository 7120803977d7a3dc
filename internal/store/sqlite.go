package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3" // SQLite driver
)

type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

func NewSQLiteStore(dataSourceName string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err = store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS users (
        id TEXT PRIMARY KEY, -- UUID
        name TEXT NOT NULL,
        email TEXT UNIQUE NOT NULL,
        password_hash TEXT NOT NULL,
        preferences TEXT NOT NULL DEFAULT '{}', -- JSON object
        reset_token_hash TEXT,
        reset_token_expiry DATETIME,
        created_at DATETIME NOT NULL
    );

    CREATE INDEX IF NOT EXISTS idx_users_reset_token ON users (reset_token_hash);

    CREATE TABLE IF NOT EXISTS articles (
        id TEXT PRIMARY KEY, -- UUID
        title TEXT NOT NULL,
        description TEXT NOT NULL DEFAULT '',
        content TEXT NOT NULL DEFAULT '',
        url TEXT UNIQUE NOT NULL,
        image_url TEXT NOT NULL DEFAULT '',
        source_name TEXT NOT NULL DEFAULT '',
        source_id TEXT NOT NULL DEFAULT '',
        category TEXT NOT NULL DEFAULT 'technology',
        published_at DATETIME NOT NULL,
        ai_summary TEXT,
        summary_generated_at DATETIME,
        read_time INTEGER NOT NULL DEFAULT 5,
        created_at DATETIME NOT NULL
    );

    CREATE INDEX IF NOT EXISTS idx_articles_category_published ON articles (category, published_at DESC);

    CREATE TABLE IF NOT EXISTS saved_summaries (
        id TEXT PRIMARY KEY, -- UUID
        user_id TEXT NOT NULL,
        article_id TEXT NOT NULL,
        summary TEXT NOT NULL,
        notes TEXT NOT NULL DEFAULT '',
        tags TEXT NOT NULL DEFAULT '[]', -- JSON array
        saved_at DATETIME NOT NULL,
        created_at DATETIME NOT NULL,
        updated_at DATETIME NOT NULL,
        UNIQUE (user_id, article_id),
        FOREIGN KEY (user_id) REFERENCES users (id),
        FOREIGN KEY (article_id) REFERENCES articles (id)
    );

    -- Ordered saved list per user; seq keeps insertion order.
    CREATE TABLE IF NOT EXISTS user_saved_articles (
        seq INTEGER PRIMARY KEY AUTOINCREMENT,
        user_id TEXT NOT NULL,
        saved_summary_id TEXT NOT NULL,
        UNIQUE (user_id, saved_summary_id),
        FOREIGN KEY (user_id) REFERENCES users (id)
    );
    `
	_, err := s.db.Exec(schema)
	return err
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

type rowScanner interface {
	Scan(dest ...any) error
}

// User methods

const userColumns = "id, name, email, password_hash, preferences, reset_token_hash, reset_token_expiry, created_at"

func (s *SQLiteStore) scanUser(ctx context.Context, row rowScanner) (*User, error) {
	var (
		user      User
		prefsJSON string
		tokenHash sql.NullString
		expiry    sql.NullTime
	)
	err := row.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &prefsJSON, &tokenHash, &expiry, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	if err := json.Unmarshal([]byte(prefsJSON), &user.Preferences); err != nil {
		return nil, fmt.Errorf("failed to decode preferences for user %s: %w", user.ID, err)
	}
	if user.Preferences == nil {
		user.Preferences = map[string]any{}
	}
	user.ResetTokenHash = tokenHash.String
	if expiry.Valid {
		t := expiry.Time
		user.ResetTokenExpiry = &t
	}

	user.SavedArticles, err = s.savedRefs(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *SQLiteStore) savedRefs(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT saved_summary_id FROM user_saved_articles WHERE user_id = ? ORDER BY seq ASC", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query saved articles: %w", err)
	}
	defer rows.Close()

	refs := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan saved article row: %w", err)
		}
		refs = append(refs, id)
	}
	return refs, rows.Err()
}

func (s *SQLiteStore) CreateUser(ctx context.Context, user *User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	if user.Preferences == nil {
		user.Preferences = map[string]any{}
	}
	if user.SavedArticles == nil {
		user.SavedArticles = []string{}
	}
	prefs, err := json.Marshal(user.Preferences)
	if err != nil {
		return fmt.Errorf("failed to encode preferences: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT INTO users (id, name, email, password_hash, preferences, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		user.ID, user.Name, user.Email, user.PasswordHash, string(prefs), user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: email %s", ErrDuplicate, user.Email)
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetUserByID(ctx context.Context, id string) (*User, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id)
	return s.scanUser(ctx, row)
}

func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE email = ?", email)
	return s.scanUser(ctx, row)
}

func (s *SQLiteStore) GetUserByResetToken(ctx context.Context, tokenHash string, now time.Time) (*User, error) {
	if tokenHash == "" {
		return nil, ErrNotFound
	}
	row := s.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE reset_token_hash = ? AND reset_token_expiry > ?",
		tokenHash, now.UTC())
	return s.scanUser(ctx, row)
}

func (s *SQLiteStore) UpdateUserProfile(ctx context.Context, id string, update ProfileUpdate) (*User, error) {
	sets := []string{}
	args := []any{}
	if update.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *update.Name)
	}
	if update.Preferences != nil {
		prefs, err := json.Marshal(update.Preferences)
		if err != nil {
			return nil, fmt.Errorf("failed to encode preferences: %w", err)
		}
		sets = append(sets, "preferences = ?")
		args = append(args, string(prefs))
	}

	if len(sets) > 0 {
		args = append(args, id)
		res, err := s.db.ExecContext(ctx, "UPDATE users SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
		if err != nil {
			return nil, fmt.Errorf("failed to update user profile: %w", err)
		}
		if affected, _ := res.RowsAffected(); affected == 0 {
			return nil, ErrNotFound
		}
	}
	return s.GetUserByID(ctx, id)
}

func (s *SQLiteStore) SetResetToken(ctx context.Context, userID, tokenHash string, expiry time.Time) error {
	return s.execOne(ctx, "UPDATE users SET reset_token_hash = ?, reset_token_expiry = ? WHERE id = ?",
		tokenHash, expiry.UTC(), userID)
}

func (s *SQLiteStore) ClearResetToken(ctx context.Context, userID string) error {
	return s.execOne(ctx, "UPDATE users SET reset_token_hash = NULL, reset_token_expiry = NULL WHERE id = ?", userID)
}

func (s *SQLiteStore) ConsumeResetToken(ctx context.Context, userID, tokenHash, passwordHash string, now time.Time) error {
	if tokenHash == "" {
		return ErrNotFound
	}
	return s.execOne(ctx,
		"UPDATE users SET password_hash = ?, reset_token_hash = NULL, reset_token_expiry = NULL "+
			"WHERE id = ? AND reset_token_hash = ? AND reset_token_expiry > ?",
		passwordHash, userID, tokenHash, now.UTC())
}

func (s *SQLiteStore) execOne(ctx context.Context, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to execute update: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Article methods

const articleColumns = "id, title, description, content, url, image_url, source_name, source_id, category, published_at, ai_summary, summary_generated_at, read_time, created_at"

func scanArticle(row rowScanner) (*Article, error) {
	var (
		a           Article
		summary     sql.NullString
		generatedAt sql.NullTime
	)
	err := row.Scan(&a.ID, &a.Title, &a.Description, &a.Content, &a.URL, &a.ImageURL,
		&a.Source.Name, &a.Source.ID, &a.Category, &a.PublishedAt, &summary, &generatedAt,
		&a.ReadTime, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan article: %w", err)
	}
	a.AISummary = summary.String
	if generatedAt.Valid {
		t := generatedAt.Time
		a.SummaryGeneratedAt = &t
	}
	return &a, nil
}

func (s *SQLiteStore) CreateArticle(ctx context.Context, a *Article) error {
	if err := prepareArticle(a); err != nil {
		return err
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}

	stmt, err := s.db.PrepareContext(ctx, "INSERT INTO articles ("+articleColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare article insert: %w", err)
	}
	defer stmt.Close()

	var summary sql.NullString
	if a.AISummary != "" {
		summary = sql.NullString{String: a.AISummary, Valid: true}
	}
	var generatedAt sql.NullTime
	if a.SummaryGeneratedAt != nil {
		generatedAt = sql.NullTime{Time: a.SummaryGeneratedAt.UTC(), Valid: true}
	}

	_, err = stmt.ExecContext(ctx, a.ID, a.Title, a.Description, a.Content, a.URL, a.ImageURL,
		a.Source.Name, a.Source.ID, a.Category, a.PublishedAt.UTC(), summary, generatedAt,
		a.ReadTime, a.CreatedAt.UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: article url %s", ErrDuplicate, a.URL)
		}
		return fmt.Errorf("failed to execute article insert: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetArticleByID(ctx context.Context, id string) (*Article, error) {
	return scanArticle(s.db.QueryRowContext(ctx, "SELECT "+articleColumns+" FROM articles WHERE id = ?", id))
}

func (s *SQLiteStore) GetArticleByURL(ctx context.Context, url string) (*Article, error) {
	return scanArticle(s.db.QueryRowContext(ctx, "SELECT "+articleColumns+" FROM articles WHERE url = ?", url))
}

func (s *SQLiteStore) ListArticles(ctx context.Context, q ArticleQuery) ([]Article, error) {
	var (
		where []string
		args  []any
	)
	if q.Category != "" {
		where = append(where, "category = ?")
		args = append(args, q.Category)
	}
	if q.Search != "" {
		pattern := "%" + escapeLike(strings.ToLower(q.Search)) + "%"
		where = append(where, `(LOWER(title) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern)
	}

	query := "SELECT " + articleColumns + " FROM articles"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY published_at DESC, created_at DESC"
	if q.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, q.Limit, q.offset())
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query articles: %w", err)
	}
	defer rows.Close()

	articles := []Article{}
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, *a)
	}
	return articles, rows.Err()
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func (s *SQLiteStore) CountArticles(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM articles").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count articles: %w", err)
	}
	return n, nil
}

func (s *SQLiteStore) SetArticleSummary(ctx context.Context, id, summary string, at time.Time) error {
	return s.execOne(ctx, "UPDATE articles SET ai_summary = ?, summary_generated_at = ? WHERE id = ?", summary, at.UTC(), id)
}

func (s *SQLiteStore) SetArticleImage(ctx context.Context, id, imageURL string) error {
	return s.execOne(ctx, "UPDATE articles SET image_url = ? WHERE id = ?", imageURL, id)
}

// SavedSummary methods

const savedColumns = "id, user_id, article_id, summary, notes, tags, saved_at, created_at, updated_at"

func scanSaved(row rowScanner) (*SavedSummary, error) {
	var (
		saved    SavedSummary
		tagsJSON string
	)
	err := row.Scan(&saved.ID, &saved.UserID, &saved.ArticleID, &saved.Summary, &saved.Notes, &tagsJSON,
		&saved.SavedAt, &saved.CreatedAt, &saved.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan saved summary: %w", err)
	}
	if err := json.Unmarshal([]byte(tagsJSON), &saved.Tags); err != nil {
		return nil, fmt.Errorf("failed to decode tags for saved summary %s: %w", saved.ID, err)
	}
	if saved.Tags == nil {
		saved.Tags = []string{}
	}
	return &saved, nil
}

func (s *SQLiteStore) CreateSavedSummary(ctx context.Context, saved *SavedSummary) error {
	if saved.Summary == "" {
		return fmt.Errorf("%w: summary is required", ErrInvalid)
	}
	if saved.ID == "" {
		saved.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if saved.SavedAt.IsZero() {
		saved.SavedAt = now
	}
	saved.CreatedAt, saved.UpdatedAt = now, now
	if saved.Tags == nil {
		saved.Tags = []string{}
	}
	tags, err := json.Marshal(saved.Tags)
	if err != nil {
		return fmt.Errorf("failed to encode tags: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	_, err = tx.ExecContext(ctx, "INSERT INTO saved_summaries ("+savedColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		saved.ID, saved.UserID, saved.ArticleID, saved.Summary, saved.Notes, string(tags),
		saved.SavedAt, saved.CreatedAt, saved.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: article %s already saved by user %s", ErrDuplicate, saved.ArticleID, saved.UserID)
		}
		return fmt.Errorf("failed to insert saved summary: %w", err)
	}

	if _, err = tx.ExecContext(ctx, "INSERT INTO user_saved_articles (user_id, saved_summary_id) VALUES (?, ?)",
		saved.UserID, saved.ID); err != nil {
		return fmt.Errorf("failed to append saved article to user: %w", err)
	}
	return tx.Commit()
}

func (s *SQLiteStore) GetSavedSummary(ctx context.Context, userID, articleID string) (*SavedSummary, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+savedColumns+" FROM saved_summaries WHERE user_id = ? AND article_id = ?", userID, articleID)
	return scanSaved(row)
}

func (s *SQLiteStore) DeleteSavedSummary(ctx context.Context, userID, articleID string) (*SavedSummary, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	saved, err := scanSaved(tx.QueryRowContext(ctx,
		"SELECT "+savedColumns+" FROM saved_summaries WHERE user_id = ? AND article_id = ?", userID, articleID))
	if err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM saved_summaries WHERE id = ?", saved.ID); err != nil {
		return nil, fmt.Errorf("failed to delete saved summary: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM user_saved_articles WHERE user_id = ? AND saved_summary_id = ?",
		userID, saved.ID); err != nil {
		return nil, fmt.Errorf("failed to remove saved article from user: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit unsave: %w", err)
	}
	return saved, nil
}

func (s *SQLiteStore) ListSavedSummaries(ctx context.Context, userID string) ([]SavedSummary, error) {
	query := `
        SELECT s.id, s.user_id, s.article_id, s.summary, s.notes, s.tags, s.saved_at, s.created_at, s.updated_at
        FROM saved_summaries s
        WHERE s.user_id = ?
        ORDER BY s.created_at DESC
    `
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query saved summaries: %w", err)
	}

	saved := []SavedSummary{}
	for rows.Next() {
		item, err := scanSaved(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		saved = append(saved, *item)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("failed to iterate saved summaries: %w", err)
	}
	rows.Close()

	for i := range saved {
		article, err := s.GetArticleByID(ctx, saved[i].ArticleID)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		saved[i].Article = article
	}
	return saved, nil
}

func (s *SQLiteStore) CountSavedSummaries(ctx context.Context, userID string) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM saved_summaries WHERE user_id = ?", userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count saved summaries: %w", err)
	}
	return n, nil
}
