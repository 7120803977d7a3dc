package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const defaultMongoDB = "newsbrief"

// MongoStore keeps users, articles and saved summaries in three collections
// of one database.
type MongoStore struct {
	client   *mongo.Client
	users    *mongo.Collection
	articles *mongo.Collection
	saved    *mongo.Collection
}

var _ Store = (*MongoStore)(nil)

func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	if database == "" {
		database = defaultMongoDB
	}
	// Nested preference documents decode as maps so they re-encode as JSON objects.
	clientOpts := options.Client().ApplyURI(uri).SetBSONOptions(&options.BSONOptions{DefaultDocumentM: true})
	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	db := client.Database(database)
	s := &MongoStore{
		client:   client,
		users:    db.Collection("users"),
		articles: db.Collection("articles"),
		saved:    db.Collection("savedsummaries"),
	}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to create indexes: %w", err)
	}
	return s, nil
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	indexes := []struct {
		coll  *mongo.Collection
		model mongo.IndexModel
	}{
		{s.users, mongo.IndexModel{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)}},
		{s.articles, mongo.IndexModel{Keys: bson.D{{Key: "url", Value: 1}}, Options: options.Index().SetUnique(true)}},
		{s.articles, mongo.IndexModel{Keys: bson.D{{Key: "category", Value: 1}, {Key: "published_at", Value: -1}}}},
		{s.saved, mongo.IndexModel{
			Keys:    bson.D{{Key: "user", Value: 1}, {Key: "article", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
	}
	for _, idx := range indexes {
		if _, err := idx.coll.Indexes().CreateOne(ctx, idx.model); err != nil {
			return err
		}
	}
	return nil
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func findOne[T any](ctx context.Context, coll *mongo.Collection, filter any) (*T, error) {
	var out T
	if err := coll.FindOne(ctx, filter).Decode(&out); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find document in %s: %w", coll.Name(), err)
	}
	return &out, nil
}

func updateOne(ctx context.Context, coll *mongo.Collection, id string, update bson.M) error {
	res, err := coll.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", coll.Name(), err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func normalizeUser(u *User) *User {
	if u.Preferences == nil {
		u.Preferences = map[string]any{}
	}
	if u.SavedArticles == nil {
		u.SavedArticles = []string{}
	}
	return u
}

// User methods

func (s *MongoStore) CreateUser(ctx context.Context, user *User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	normalizeUser(user)
	if _, err := s.users.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: email %s", ErrDuplicate, user.Email)
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func (s *MongoStore) GetUserByID(ctx context.Context, id string) (*User, error) {
	u, err := findOne[User](ctx, s.users, bson.M{"_id": id})
	if err != nil {
		return nil, err
	}
	return normalizeUser(u), nil
}

func (s *MongoStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	u, err := findOne[User](ctx, s.users, bson.M{"email": email})
	if err != nil {
		return nil, err
	}
	return normalizeUser(u), nil
}

func (s *MongoStore) GetUserByResetToken(ctx context.Context, tokenHash string, now time.Time) (*User, error) {
	if tokenHash == "" {
		return nil, ErrNotFound
	}
	u, err := findOne[User](ctx, s.users, bson.M{
		"reset_password_token":  tokenHash,
		"reset_password_expire": bson.M{"$gt": now.UTC()},
	})
	if err != nil {
		return nil, err
	}
	return normalizeUser(u), nil
}

func (s *MongoStore) UpdateUserProfile(ctx context.Context, id string, update ProfileUpdate) (*User, error) {
	set := bson.M{}
	if update.Name != nil {
		set["name"] = *update.Name
	}
	if update.Preferences != nil {
		set["preferences"] = update.Preferences
	}
	if len(set) > 0 {
		if err := updateOne(ctx, s.users, id, bson.M{"$set": set}); err != nil {
			return nil, err
		}
	}
	return s.GetUserByID(ctx, id)
}

func (s *MongoStore) SetResetToken(ctx context.Context, userID, tokenHash string, expiry time.Time) error {
	return updateOne(ctx, s.users, userID, bson.M{"$set": bson.M{
		"reset_password_token":  tokenHash,
		"reset_password_expire": expiry.UTC(),
	}})
}

var unsetResetToken = bson.M{"reset_password_token": "", "reset_password_expire": ""}

func (s *MongoStore) ClearResetToken(ctx context.Context, userID string) error {
	return updateOne(ctx, s.users, userID, bson.M{"$unset": unsetResetToken})
}

func (s *MongoStore) ConsumeResetToken(ctx context.Context, userID, tokenHash, passwordHash string, now time.Time) error {
	if tokenHash == "" {
		return ErrNotFound
	}
	filter := bson.M{
		"_id":                   userID,
		"reset_password_token":  tokenHash,
		"reset_password_expire": bson.M{"$gt": now.UTC()},
	}
	res, err := s.users.UpdateOne(ctx, filter, bson.M{
		"$set":   bson.M{"password": passwordHash},
		"$unset": unsetResetToken,
	})
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Article methods

func (s *MongoStore) CreateArticle(ctx context.Context, a *Article) error {
	if err := prepareArticle(a); err != nil {
		return err
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	a.PublishedAt = a.PublishedAt.UTC()
	if _, err := s.articles.InsertOne(ctx, a); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: article url %s", ErrDuplicate, a.URL)
		}
		return fmt.Errorf("failed to insert article: %w", err)
	}
	return nil
}

func (s *MongoStore) GetArticleByID(ctx context.Context, id string) (*Article, error) {
	return findOne[Article](ctx, s.articles, bson.M{"_id": id})
}

func (s *MongoStore) GetArticleByURL(ctx context.Context, url string) (*Article, error) {
	return findOne[Article](ctx, s.articles, bson.M{"url": url})
}

func (s *MongoStore) ListArticles(ctx context.Context, q ArticleQuery) ([]Article, error) {
	filter := bson.M{}
	if q.Category != "" {
		filter["category"] = q.Category
	}
	if q.Search != "" {
		pattern := bson.M{"$regex": regexp.QuoteMeta(strings.TrimSpace(q.Search)), "$options": "i"}
		filter["$or"] = bson.A{bson.M{"title": pattern}, bson.M{"description": pattern}}
	}

	opts := options.Find().SetSort(bson.D{{Key: "published_at", Value: -1}, {Key: "created_at", Value: -1}})
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit)).SetSkip(int64(q.offset()))
	}

	cursor, err := s.articles.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query articles: %w", err)
	}
	articles := []Article{}
	if err := cursor.All(ctx, &articles); err != nil {
		return nil, fmt.Errorf("failed to decode articles: %w", err)
	}
	return articles, nil
}

func (s *MongoStore) CountArticles(ctx context.Context) (int64, error) {
	n, err := s.articles.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count articles: %w", err)
	}
	return n, nil
}

func (s *MongoStore) SetArticleSummary(ctx context.Context, id, summary string, at time.Time) error {
	return updateOne(ctx, s.articles, id, bson.M{"$set": bson.M{"ai_summary": summary, "summary_generated_at": at.UTC()}})
}

func (s *MongoStore) SetArticleImage(ctx context.Context, id, imageURL string) error {
	return updateOne(ctx, s.articles, id, bson.M{"$set": bson.M{"image_url": imageURL}})
}

// SavedSummary methods

func (s *MongoStore) CreateSavedSummary(ctx context.Context, saved *SavedSummary) error {
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

	if _, err := s.saved.InsertOne(ctx, saved); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: article %s already saved by user %s", ErrDuplicate, saved.ArticleID, saved.UserID)
		}
		return fmt.Errorf("failed to insert saved summary: %w", err)
	}

	// Standalone deployments have no multi-document transactions, so the
	// insert is undone by hand if the user update fails.
	if err := updateOne(ctx, s.users, saved.UserID, bson.M{"$push": bson.M{"saved_articles": saved.ID}}); err != nil {
		if _, delErr := s.saved.DeleteOne(ctx, bson.M{"_id": saved.ID}); delErr != nil {
			return errors.Join(err, fmt.Errorf("failed to roll back saved summary %s: %w", saved.ID, delErr))
		}
		return err
	}
	return nil
}

func (s *MongoStore) GetSavedSummary(ctx context.Context, userID, articleID string) (*SavedSummary, error) {
	return findOne[SavedSummary](ctx, s.saved, bson.M{"user": userID, "article": articleID})
}

func (s *MongoStore) DeleteSavedSummary(ctx context.Context, userID, articleID string) (*SavedSummary, error) {
	var deleted SavedSummary
	err := s.saved.FindOneAndDelete(ctx, bson.M{"user": userID, "article": articleID}).Decode(&deleted)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to delete saved summary: %w", err)
	}
	if _, err := s.users.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{"$pull": bson.M{"saved_articles": deleted.ID}}); err != nil {
		return nil, fmt.Errorf("failed to remove saved article from user: %w", err)
	}
	return &deleted, nil
}

func (s *MongoStore) ListSavedSummaries(ctx context.Context, userID string) ([]SavedSummary, error) {
	cursor, err := s.saved.Find(ctx, bson.M{"user": userID}, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to query saved summaries: %w", err)
	}
	saved := []SavedSummary{}
	if err := cursor.All(ctx, &saved); err != nil {
		return nil, fmt.Errorf("failed to decode saved summaries: %w", err)
	}

	for i := range saved {
		article, err := s.GetArticleByID(ctx, saved[i].ArticleID)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		saved[i].Article = article
	}
	return saved, nil
}

func (s *MongoStore) CountSavedSummaries(ctx context.Context, userID string) (int64, error) {
	n, err := s.saved.CountDocuments(ctx, bson.M{"user": userID})
	if err != nil {
		return 0, fmt.Errorf("failed to count saved summaries: %w", err)
	}
	return n, nil
}
