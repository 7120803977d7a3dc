package core

import (
	"context"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsbrief.io/newsbrief/internal/auth"
	"newsbrief.io/newsbrief/internal/store"
)

func newTestAccounts(t *testing.T, mailer Mailer) (*AccountService, store.Store) {
	t.Helper()
	st := newTestStore(t)
	tokens := auth.NewTokenIssuer("test-secret", time.Hour)
	return NewAccountService(st, tokens, mailer, "http://client.test/", 10*time.Minute), st
}

var resetLink = regexp.MustCompile(`http://client\.test/reset-password/([0-9a-f]+)`)

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestAccounts(t, nil)

	session, err := svc.Register(ctx, " Ada ", "Ada@Example.com", "secret1")
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, "Ada", session.User.Name)
	assert.Equal(t, "ada@example.com", session.User.Email)

	login, err := svc.Login(ctx, "ADA@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, login.User.ID)

	user, err := svc.Authenticate(ctx, login.Token)
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, user.ID)
}

func TestRegisterDuplicateEmailConflicts(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestAccounts(t, nil)

	_, err := svc.Register(ctx, "Ada", "ada@example.com", "secret1")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "Other", "ADA@example.com", "secret2")
	require.ErrorIs(t, err, ErrConflict)
	assert.EqualError(t, err, "User already exists")
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestAccounts(t, nil)
	_, err := svc.Register(ctx, "Ada", "ada@example.com", "secret1")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "ada@example.com", "wrong-password")
	require.ErrorIs(t, err, ErrUnauthorized)

	_, err = svc.Login(ctx, "nobody@example.com", "secret1")
	require.ErrorIs(t, err, ErrUnauthorized)
	assert.EqualError(t, err, "Invalid credentials")

	_, err = svc.Login(ctx, "", "secret1")
	require.ErrorIs(t, err, ErrValidation)
}

func TestAuthenticateRejectsUnknownSubject(t *testing.T) {
	svc, _ := newTestAccounts(t, nil)

	token, err := svc.tokens.GenerateJWT("ghost")
	require.NoError(t, err)

	_, err = svc.Authenticate(context.Background(), token)
	require.ErrorIs(t, err, ErrUnauthorized)

	_, err = svc.Authenticate(context.Background(), "garbage")
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestProfileStats(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestAccounts(t, nil)
	session, err := svc.Register(ctx, "Ada", "ada@example.com", "secret1")
	require.NoError(t, err)

	user, err := st.GetUserByID(ctx, session.User.ID)
	require.NoError(t, err)
	svc.now = func() time.Time { return user.CreatedAt.Add(49 * time.Hour) }

	article := &store.Article{Title: "Saved", URL: "https://news.test/saved", Category: store.CategoryScience}
	require.NoError(t, st.CreateArticle(ctx, article))
	require.NoError(t, st.CreateSavedSummary(ctx, &store.SavedSummary{
		UserID: user.ID, ArticleID: article.ID, Summary: "s", SavedAt: time.Now().UTC(),
	}))

	profile, err := svc.Profile(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", profile.Email)
	assert.Equal(t, ProfileStats{SummariesGenerated: 1, ArticlesRead: 1, DaysActive: 3, SavedArticles: 1}, profile.Stats)

	_, err = svc.Profile(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDaysActiveIsAtLeastOne(t *testing.T) {
	now := time.Now()
	assert.Equal(t, 1, daysActive(now, now))
	assert.Equal(t, 1, daysActive(now.Add(-time.Hour), now))
	assert.Equal(t, 2, daysActive(now.Add(-25*time.Hour), now))
}

func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestAccounts(t, nil)
	session, err := svc.Register(ctx, "Ada", "ada@example.com", "secret1")
	require.NoError(t, err)

	name := "  Ada L. "
	user, err := svc.UpdateProfile(ctx, session.User.ID, store.ProfileUpdate{
		Name:        &name,
		Preferences: map[string]any{"categories": []any{"science"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Ada L.", user.Name)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.Equal(t, []any{"science"}, user.Preferences["categories"])

	blank := " "
	_, err = svc.UpdateProfile(ctx, session.User.ID, store.ProfileUpdate{Name: &blank})
	require.ErrorIs(t, err, ErrValidation)
}

func TestPasswordResetFlow(t *testing.T) {
	ctx := context.Background()
	mailer := &fakeMailer{}
	svc, _ := newTestAccounts(t, mailer)
	_, err := svc.Register(ctx, "Ada", "ada@example.com", "secret1")
	require.NoError(t, err)

	require.NoError(t, svc.RequestPasswordReset(ctx, "ada@example.com"))
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "ada@example.com", mailer.sent[0].to)

	match := resetLink.FindStringSubmatch(mailer.sent[0].body)
	require.Len(t, match, 2, "reset link missing from %q", mailer.sent[0].body)
	raw := match[1]

	err = svc.ResetPassword(ctx, raw, "short")
	require.ErrorIs(t, err, ErrValidation)

	require.NoError(t, svc.ResetPassword(ctx, raw, "newsecret"))

	_, err = svc.Login(ctx, "ada@example.com", "secret1")
	require.ErrorIs(t, err, ErrUnauthorized)
	_, err = svc.Login(ctx, "ada@example.com", "newsecret")
	require.NoError(t, err)

	err = svc.ResetPassword(ctx, raw, "another1")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestPasswordResetTokenExpires(t *testing.T) {
	ctx := context.Background()
	mailer := &fakeMailer{}
	svc, _ := newTestAccounts(t, mailer)
	_, err := svc.Register(ctx, "Ada", "ada@example.com", "secret1")
	require.NoError(t, err)

	require.NoError(t, svc.RequestPasswordReset(ctx, "ada@example.com"))
	raw := resetLink.FindStringSubmatch(mailer.sent[0].body)[1]

	issued := time.Now()
	svc.now = func() time.Time { return issued.Add(11 * time.Minute) }

	err = svc.ResetPassword(ctx, raw, "newsecret")
	require.ErrorIs(t, err, ErrInvalidToken)
	assert.EqualError(t, err, "Invalid or expired token")
}

func TestPasswordResetUnknownEmailSucceedsSilently(t *testing.T) {
	mailer := &fakeMailer{}
	svc, _ := newTestAccounts(t, mailer)

	require.NoError(t, svc.RequestPasswordReset(context.Background(), "nobody@example.com"))
	assert.Empty(t, mailer.sent)
}

func TestPasswordResetSendFailureClearsToken(t *testing.T) {
	tests := []struct {
		name   string
		mailer Mailer
	}{
		{"send error", &fakeMailer{err: errBoom}},
		{"no mailer", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			svc, st := newTestAccounts(t, tt.mailer)
			session, err := svc.Register(ctx, "Ada", "ada@example.com", "secret1")
			require.NoError(t, err)

			err = svc.RequestPasswordReset(ctx, "ada@example.com")
			require.ErrorIs(t, err, ErrMailNotSent)

			user, err := st.GetUserByID(ctx, session.User.ID)
			require.NoError(t, err)
			assert.Empty(t, user.ResetTokenHash)
			assert.Nil(t, user.ResetTokenExpiry)
		})
	}
}

func TestPasswordsLongerThanBcryptLimitAreRejected(t *testing.T) {
	ctx := context.Background()
	mailer := &fakeMailer{}
	svc, _ := newTestAccounts(t, mailer)

	_, err := svc.Register(ctx, "Ada", "ada@example.com", strings.Repeat("p", auth.MaxPasswordBytes+1))
	require.ErrorIs(t, err, ErrValidation)
	assert.EqualError(t, err, "Password must be at most 72 bytes")

	_, err = svc.Register(ctx, "Ada", "ada@example.com", strings.Repeat("p", auth.MaxPasswordBytes))
	require.NoError(t, err)

	require.NoError(t, svc.RequestPasswordReset(ctx, "ada@example.com"))
	raw := resetLink.FindStringSubmatch(mailer.sent[0].body)[1]

	err = svc.ResetPassword(ctx, raw, strings.Repeat("é", 40))
	require.ErrorIs(t, err, ErrValidation)

	require.NoError(t, svc.ResetPassword(ctx, raw, "newsecret"))
}

// staleLookupStore answers every reset-token lookup with the first result,
// as if concurrent requests had all looked the token up before any of them
// wrote the new password.
type staleLookupStore struct {
	store.Store
	mu    sync.Mutex
	first *store.User
}

func (s *staleLookupStore) GetUserByResetToken(ctx context.Context, tokenHash string, now time.Time) (*store.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.first != nil {
		return s.first, nil
	}
	user, err := s.Store.GetUserByResetToken(ctx, tokenHash, now)
	if err != nil {
		return nil, err
	}
	s.first = user
	return user, nil
}

func TestResetTokenIsConsumedOnceByConcurrentResets(t *testing.T) {
	ctx := context.Background()
	mailer := &fakeMailer{}
	st := &staleLookupStore{Store: newTestStore(t)}
	svc := NewAccountService(st, auth.NewTokenIssuer("test-secret", time.Hour), mailer, "http://client.test", 10*time.Minute)

	_, err := svc.Register(ctx, "Ada", "ada@example.com", "secret1")
	require.NoError(t, err)
	require.NoError(t, svc.RequestPasswordReset(ctx, "ada@example.com"))
	raw := resetLink.FindStringSubmatch(mailer.sent[0].body)[1]

	require.NoError(t, svc.ResetPassword(ctx, raw, "first-pass"))

	err = svc.ResetPassword(ctx, raw, "second-pass")
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.Login(ctx, "ada@example.com", "first-pass")
	require.NoError(t, err)
	_, err = svc.Login(ctx, "ada@example.com", "second-pass")
	require.ErrorIs(t, err, ErrUnauthorized)
}
