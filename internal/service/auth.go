package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/driftlog/driftlog-server/internal/auth"
	"github.com/driftlog/driftlog-server/internal/domain"
	apperr "github.com/driftlog/driftlog-server/internal/errors"
	"github.com/driftlog/driftlog-server/internal/id"
	"github.com/driftlog/driftlog-server/internal/store"
	"github.com/driftlog/driftlog-server/internal/validation"
)

// AuthService handles account registration, login, token refresh, and
// session management.
type AuthService struct {
	store    *store.Store
	tokens   *auth.TokenService
	validate *validation.Validator
	logger   *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(
	st *store.Store,
	tokens *auth.TokenService,
	validate *validation.Validator,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		store:    st,
		tokens:   tokens,
		validate: validate,
		logger:   logger,
	}
}

// RegisterRequest contains user registration data.
type RegisterRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8,max=1024"`
	DisplayName string `json:"display_name" validate:"required,max=100"`
}

// LoginRequest contains user credentials.
type LoginRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	UserAgent string `json:"-"` // Extracted from the request by the handler
}

// RefreshRequest contains the refresh token being rotated.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
	UserAgent    string `json:"-"`
}

// AuthResponse contains authentication tokens and user data.
type AuthResponse struct {
	User         *domain.User `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int          `json:"expires_in"` // Seconds until the access token expires
	SessionID    string       `json:"session_id"`
}

// Register creates a new account on the free tier and logs it in.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest, userAgent string) (*AuthResponse, error) {
	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	userID, err := id.Generate("user")
	if err != nil {
		return nil, fmt.Errorf("generate user ID: %w", err)
	}

	user := &domain.User{
		Syncable:     domain.Syncable{ID: userID},
		Email:        req.Email,
		PasswordHash: passwordHash,
		DisplayName:  req.DisplayName,
		Tier:         domain.TierFree,
	}
	user.InitTimestamps()

	if err := s.store.Users.Create(ctx, userID, user); err != nil {
		if apperr.Is(err, store.ErrAlreadyExists) {
			return nil, apperr.AlreadyExists("email already in use")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	resp, err := s.createSession(ctx, user, userAgent)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user registered", "user_id", userID, "email", user.Email)
	return resp, nil
}

// Login authenticates a user and creates a new session.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.store.Users.GetByIndex(ctx, "email", req.Email)
	if err != nil {
		if apperr.Is(err, store.ErrNotFound) {
			// Don't leak whether the email exists.
			return nil, apperr.InvalidCredentials("invalid email or password")
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	valid, err := auth.VerifyPassword(user.PasswordHash, req.Password)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !valid {
		return nil, apperr.InvalidCredentials("invalid email or password")
	}

	resp, err := s.createSession(ctx, user, req.UserAgent)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user logged in", "user_id", user.ID)
	return resp, nil
}

// Refresh rotates tokens for an existing session. The old refresh token is
// invalidated.
func (s *AuthService) Refresh(ctx context.Context, req RefreshRequest) (*AuthResponse, error) {
	if err := s.validate.Validate(req); err != nil {
		return nil, err
	}

	tokenHash := auth.HashRefreshToken(req.RefreshToken)
	session, err := s.store.GetSessionByRefreshToken(ctx, tokenHash)
	if err != nil {
		return nil, apperr.TokenExpired("invalid or expired refresh token").WithCause(err)
	}
	if session.Expired(time.Now()) {
		_ = s.store.Sessions.Delete(ctx, session.ID)
		return nil, apperr.TokenExpired("invalid or expired refresh token")
	}

	user, err := s.store.Users.Get(ctx, session.UserID)
	if err != nil {
		// User was deleted; clean up the orphaned session.
		_ = s.store.Sessions.Delete(ctx, session.ID)
		return nil, apperr.NotFound("user not found").WithCause(err)
	}

	accessToken, err := s.tokens.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}
	refreshToken, err := s.tokens.GenerateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	session.TokenHash = auth.HashRefreshToken(refreshToken)
	if req.UserAgent != "" {
		session.UserAgent = req.UserAgent
	}
	session.Touch()
	if err := s.store.Sessions.Update(ctx, session.ID, session); err != nil {
		return nil, fmt.Errorf("update session: %w", err)
	}

	return &AuthResponse{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(s.tokens.AccessTokenDuration().Seconds()),
		SessionID:    session.ID,
	}, nil
}

// Logout revokes one session, invalidating its refresh token.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if err := s.store.Sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	s.logger.Info("session deleted", "session_id", sessionID)
	return nil
}

// LogoutAll revokes every session a user holds.
func (s *AuthService) LogoutAll(ctx context.Context, userID string) (int, error) {
	count, err := s.store.DeleteUserSessions(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("delete user sessions: %w", err)
	}
	s.logger.Info("all sessions deleted", "user_id", userID, "count", count)
	return count, nil
}

// VerifyAccessToken validates a bearer token and returns the user it belongs
// to. Used by the authentication middleware.
func (s *AuthService) VerifyAccessToken(ctx context.Context, tokenString string) (*domain.User, *auth.AccessClaims, error) {
	claims, err := s.tokens.VerifyAccessToken(tokenString)
	if err != nil {
		return nil, nil, apperr.Unauthorized("invalid or expired token").WithCause(err)
	}

	user, err := s.store.Users.Get(ctx, claims.UserID)
	if err != nil {
		return nil, nil, apperr.Unauthorized("invalid or expired token").WithCause(err)
	}

	return user, claims, nil
}

// CleanupExpiredSessions removes sessions past their expiry. Run
// periodically from a background task.
func (s *AuthService) CleanupExpiredSessions(ctx context.Context) (int, error) {
	return s.store.DeleteExpiredSessions(ctx)
}

// createSession generates tokens and writes a session record.
func (s *AuthService) createSession(ctx context.Context, user *domain.User, userAgent string) (*AuthResponse, error) {
	accessToken, err := s.tokens.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}
	refreshToken, err := s.tokens.GenerateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	sessionID, err := id.Generate("session")
	if err != nil {
		return nil, fmt.Errorf("generate session ID: %w", err)
	}

	session := &domain.Session{
		Syncable:  domain.Syncable{ID: sessionID},
		UserID:    user.ID,
		TokenHash: auth.HashRefreshToken(refreshToken),
		UserAgent: userAgent,
		ExpiresAt: time.Now().Add(s.tokens.RefreshTokenDuration()),
	}
	session.InitTimestamps()

	if err := s.store.Sessions.Create(ctx, sessionID, session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	return &AuthResponse{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(s.tokens.AccessTokenDuration().Seconds()),
		SessionID:    sessionID,
	}, nil
}
