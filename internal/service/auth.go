package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/amirkenesbay/auth-service/internal/events"
	"github.com/amirkenesbay/auth-service/internal/hash"
	"github.com/amirkenesbay/auth-service/internal/logging"
	"github.com/amirkenesbay/auth-service/internal/models"
	"github.com/amirkenesbay/auth-service/internal/repo"
	"github.com/amirkenesbay/auth-service/internal/tokens"
)

// UserStore is the credential-store collaborator. The store owns email
// uniqueness; CreateUser reports a conflict via repo.ErrDuplicate.
type UserStore interface {
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByID(ctx context.Context, id uint) (*models.User, error)
	CreateUser(ctx context.Context, u *models.User) error
}

// RefreshTokenStore holds refresh tokens keyed by token string and by
// owning user. Existence plus expiry is the whole validity model.
type RefreshTokenStore interface {
	CreateRefreshToken(ctx context.Context, t *models.RefreshToken) error
	FindRefreshByToken(ctx context.Context, token string) (*models.RefreshToken, error)
	DeleteRefreshByUserID(ctx context.Context, userID uint) error
	DeleteRefreshToken(ctx context.Context, t *models.RefreshToken) error
}

type AuthService struct {
	Users  UserStore
	Tokens RefreshTokenStore
	Events *events.Producer

	JWTSecret  []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

type AuthResult struct {
	AccessToken  string
	RefreshToken string
	AccessExp    time.Time
	RefreshExp   time.Time
}

func (s *AuthService) Register(ctx context.Context, firstName, lastName, email, password string) (*AuthResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	if firstName == "" || lastName == "" || email == "" || password == "" {
		return nil, fmt.Errorf("%w: all fields are required", ErrValidation)
	}

	pwHash, err := hash.HashPassword(password)
	if err != nil {
		l.Error("register_error", "reason", "cannot hash the password", "error", err)
		return nil, err
	}

	user := &models.User{
		FirstName:    firstName,
		LastName:     lastName,
		Email:        email,
		PasswordHash: pwHash,
		Role:         models.RoleUser,
	}

	if err := s.Users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			l.Warn("register_conflict", "email", email)
			return nil, ErrDuplicateEmail
		}
		l.Error("register_error", "error", err)
		return nil, err
	}

	res, err := s.issueTokens(ctx, user)
	if err != nil {
		l.Error("register_error", "error", err)
		return nil, err
	}

	s.publish(ctx, user, events.TypeUserRegistered)
	l.Info("user_registered", "user_id", user.ID)
	return res, nil
}

func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*AuthResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", ErrValidation)
	}

	if err := s.verifyCredentials(ctx, email, password); err != nil {
		l.Warn("login_failed", "reason", "credential check")
		return nil, err
	}

	// Separate lookup after verification. The account can vanish in
	// between; that narrow race surfaces as ErrUserNotFound.
	user, err := s.Users.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	// Supersede any earlier session. Delete and insert are two store
	// calls; a crash in between leaves the user with no valid refresh
	// token rather than two.
	if err := s.Tokens.DeleteRefreshByUserID(ctx, user.ID); err != nil {
		l.Error("login_error", "error", err)
		return nil, err
	}

	res, err := s.issueTokens(ctx, user)
	if err != nil {
		l.Error("login_error", "error", err)
		return nil, err
	}

	s.publish(ctx, user, events.TypeUserLoggedIn)
	l.Info("login_successful", "user_id", user.ID)
	return res, nil
}

// Refresh mints a new access token for the token's owner. The refresh
// token itself is not rotated: the same string comes back unchanged. An
// expired row is reported but left in place (lazy expiry, no sweep).
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	stored, err := s.Tokens.FindRefreshByToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	if time.Now().After(stored.ExpiresAt) {
		l.Warn("refresh_expired", "user_id", stored.UserID)
		return nil, ErrTokenExpired
	}

	user, err := s.Users.FindUserByID(ctx, stored.UserID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	accessExp := time.Now().Add(s.AccessTTL)
	accessToken, err := tokens.SignAccessToken(strconv.FormatUint(uint64(user.ID), 10), user.Role, accessExp, s.JWTSecret)
	if err != nil {
		l.Error("refresh_error", "error", err)
		return nil, err
	}

	return &AuthResult{
		AccessToken:  accessToken,
		RefreshToken: stored.Token,
		AccessExp:    accessExp,
		RefreshExp:   stored.ExpiresAt,
	}, nil
}

// Logout revokes the refresh token if it exists. Unknown tokens are a
// no-op, so calling logout twice never errors.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	l := logging.FromContext(ctx).With("svc", "auth.logout")

	stored, err := s.Tokens.FindRefreshByToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil
		}
		return err
	}

	if err := s.Tokens.DeleteRefreshToken(ctx, stored); err != nil {
		l.Error("logout_error", "error", err)
		return err
	}

	l.Info("logout_successful", "user_id", stored.UserID)
	return nil
}

// verifyCredentials checks the password against the stored hash. Unknown
// email and wrong password collapse into the same error.
func (s *AuthService) verifyCredentials(ctx context.Context, email, password string) error {
	user, err := s.Users.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrInvalidCredentials
		}
		return err
	}
	if !hash.CheckPassword(user.PasswordHash, password) {
		return ErrInvalidCredentials
	}
	return nil
}

func (s *AuthService) issueTokens(ctx context.Context, user *models.User) (*AuthResult, error) {
	accessExp := time.Now().Add(s.AccessTTL)
	accessToken, err := tokens.SignAccessToken(strconv.FormatUint(uint64(user.ID), 10), user.Role, accessExp, s.JWTSecret)
	if err != nil {
		return nil, err
	}

	refreshToken, err := tokens.NewRefreshToken()
	if err != nil {
		return nil, err
	}

	refreshExp := time.Now().Add(s.RefreshTTL)
	if err := s.Tokens.CreateRefreshToken(ctx, &models.RefreshToken{
		Token:     refreshToken,
		UserID:    user.ID,
		ExpiresAt: refreshExp,
	}); err != nil {
		return nil, err
	}

	return &AuthResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		AccessExp:    accessExp,
		RefreshExp:   refreshExp,
	}, nil
}

func (s *AuthService) publish(ctx context.Context, user *models.User, eventType string) {
	event := map[string]any{
		"type":    eventType,
		"user_id": user.ID,
		"email":   user.Email,
	}
	if err := s.Events.PublishEvent(ctx, strconv.FormatUint(uint64(user.ID), 10), event); err != nil {
		logging.FromContext(ctx).Error("kafka_publish_error", "error", err)
	}
}
