package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"newsbrief.io/newsbrief/internal/auth"
	"newsbrief.io/newsbrief/internal/store"
)

const (
	msgInvalidCredentials = "Invalid credentials"
	msgNotAuthorized      = "Not authorized to access this route"
	// Returned for every forgot-password request that does not fail, so the
	// response never reveals whether an account exists.
	MsgResetRequested = "If an account exists, a reset link has been sent."
	MsgPasswordReset  = "Password updated successfully."

	resetMailSubject = "Password reset"
)

// ErrMailNotSent reports that a reset token was issued but could not be
// delivered. The token has already been cleared when it is returned.
var ErrMailNotSent = errors.New("email could not be sent")

// Mailer delivers a plain-text message to one recipient.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// PublicUser is the subset of a user returned alongside a session token.
type PublicUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type Session struct {
	Token string
	User  PublicUser
}

type ProfileStats struct {
	SummariesGenerated int64 `json:"summariesGenerated"`
	ArticlesRead       int64 `json:"articlesRead"`
	DaysActive         int   `json:"daysActive"`
	SavedArticles      int   `json:"savedArticles"`
}

type Profile struct {
	*store.User
	Stats ProfileStats `json:"stats"`
}

type AccountService struct {
	store     store.Store
	tokens    *auth.TokenIssuer
	mailer    Mailer
	clientURL string
	resetTTL  time.Duration
	now       func() time.Time
}

// NewAccountService wires the credential flows. mailer may be nil, in which
// case reset mails for existing accounts fail to send.
func NewAccountService(st store.Store, tokens *auth.TokenIssuer, mailer Mailer, clientURL string, resetTTL time.Duration) *AccountService {
	if resetTTL <= 0 {
		resetTTL = 10 * time.Minute
	}
	return &AccountService{
		store:     st,
		tokens:    tokens,
		mailer:    mailer,
		clientURL: strings.TrimRight(clientURL, "/"),
		resetTTL:  resetTTL,
		now:       time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AccountService) Register(ctx context.Context, name, email, password string) (*Session, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" || email == "" || password == "" {
		return nil, validationError("Please provide name, email and password")
	}

	if _, err := s.store.GetUserByEmail(ctx, email); err == nil {
		return nil, conflictError("User already exists", nil)
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}
	user := &store.User{Name: name, Email: email, PasswordHash: hash}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, conflictError("User already exists", err)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("User registered", "user_id", user.ID)
	return s.session(user)
}

func (s *AccountService) Login(ctx context.Context, email, password string) (*Session, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, validationError("Please provide an email and password")
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, unauthorizedError(msgInvalidCredentials)
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if !auth.CheckPasswordHash(password, user.PasswordHash) {
		return nil, unauthorizedError(msgInvalidCredentials)
	}
	return s.session(user)
}

func (s *AccountService) session(user *store.User) (*Session, error) {
	token, err := s.tokens.GenerateJWT(user.ID)
	if err != nil {
		return nil, err
	}
	return &Session{
		Token: token,
		User:  PublicUser{ID: user.ID, Name: user.Name, Email: user.Email},
	}, nil
}

// Authenticate resolves a bearer token to a live account.
func (s *AccountService) Authenticate(ctx context.Context, token string) (*store.User, error) {
	userID, err := s.tokens.ValidateJWT(token)
	if err != nil {
		return nil, unauthorizedError(msgNotAuthorized)
	}
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, unauthorizedError(msgNotAuthorized)
		}
		return nil, fmt.Errorf("failed to load user %s: %w", userID, err)
	}
	return user, nil
}

func (s *AccountService) Profile(ctx context.Context, userID string) (*Profile, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, notFoundError("User not found")
		}
		return nil, fmt.Errorf("failed to load user %s: %w", userID, err)
	}

	saved, err := s.store.CountSavedSummaries(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &Profile{
		User: user,
		Stats: ProfileStats{
			SummariesGenerated: saved,
			// No per-article read tracking exists; saves stand in for reads.
			ArticlesRead:  saved,
			DaysActive:    daysActive(user.CreatedAt, s.now()),
			SavedArticles: len(user.SavedArticles),
		},
	}, nil
}

func daysActive(createdAt, now time.Time) int {
	days := int(math.Ceil(now.Sub(createdAt).Hours() / 24))
	return max(1, days)
}

// UpdateProfile changes only the name and preferences.
func (s *AccountService) UpdateProfile(ctx context.Context, userID string, update store.ProfileUpdate) (*store.User, error) {
	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" {
			return nil, validationError("Please add a name")
		}
		update.Name = &name
	}
	user, err := s.store.UpdateUserProfile(ctx, userID, update)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, notFoundError("User not found")
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return user, nil
}

// RequestPasswordReset issues a reset token and mails it when the account
// exists. Unknown addresses succeed silently.
func (s *AccountService) RequestPasswordReset(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return validationError("Please provide an email")
	}

	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			slog.Debug("Password reset requested for unknown email")
			return nil
		}
		return fmt.Errorf("failed to look up user: %w", err)
	}

	raw, hash, err := auth.NewResetToken()
	if err != nil {
		return err
	}
	if err := s.store.SetResetToken(ctx, user.ID, hash, s.now().Add(s.resetTTL)); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	resetURL := fmt.Sprintf("%s/reset-password/%s", s.clientURL, raw)
	body := fmt.Sprintf("You requested a password reset.\n\nReset your password here: %s\n\n"+
		"If you did not request this, you can ignore this email.", resetURL)

	sendErr := errors.New("no mailer configured")
	if s.mailer != nil {
		sendErr = s.mailer.Send(ctx, user.Email, resetMailSubject, body)
	}
	if sendErr != nil {
		if err := s.store.ClearResetToken(ctx, user.ID); err != nil {
			slog.Error("Failed to clear reset token after send failure", "user_id", user.ID, "error", err)
		}
		return fmt.Errorf("%w: %w", ErrMailNotSent, sendErr)
	}

	slog.Info("Password reset email sent", "user_id", user.ID)
	return nil
}

// ResetPassword consumes a raw reset token and sets a new password.
func (s *AccountService) ResetPassword(ctx context.Context, rawToken, password string) error {
	if len(password) < 6 {
		return validationError("Password must be at least 6 characters")
	}

	tokenHash := auth.HashResetToken(rawToken)
	user, err := s.store.GetUserByResetToken(ctx, tokenHash, s.now())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return errInvalidResetToken()
		}
		return fmt.Errorf("failed to look up reset token: %w", err)
	}

	hash, err := hashPassword(password)
	if err != nil {
		return err
	}
	// The token is re-checked in the write so a concurrent reset with the
	// same token cannot also succeed.
	if err := s.store.ConsumeResetToken(ctx, user.ID, tokenHash, hash, s.now()); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return errInvalidResetToken()
		}
		return fmt.Errorf("failed to update password: %w", err)
	}
	slog.Info("Password reset completed", "user_id", user.ID)
	return nil
}

func errInvalidResetToken() error {
	return newError(KindInvalidToken, "Invalid or expired token", nil)
}

func hashPassword(password string) (string, error) {
	hash, err := auth.HashPassword(password)
	if errors.Is(err, auth.ErrPasswordTooLong) {
		return "", validationError(fmt.Sprintf("Password must be at most %d bytes", auth.MaxPasswordBytes))
	}
	return hash, err
}
