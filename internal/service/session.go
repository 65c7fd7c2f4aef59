package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/bucketlistapp/bucketlist-server/internal/auth"
	"github.com/bucketlistapp/bucketlist-server/internal/domain"
	domainerrors "github.com/bucketlistapp/bucketlist-server/internal/errors"
	"github.com/bucketlistapp/bucketlist-server/internal/id"
	"github.com/bucketlistapp/bucketlist-server/internal/retry"
	"github.com/bucketlistapp/bucketlist-server/internal/store"
)

// SessionService issues tokens and manages refresh-token sessions.
type SessionService struct {
	store        store.AuthStore
	tokenService *auth.TokenService
	retry        retry.Config
	logger       *slog.Logger
	now          func() time.Time
}

// NewSessionService creates a session service.
func NewSessionService(
	authStore store.AuthStore,
	tokenService *auth.TokenService,
	retryCfg retry.Config,
	logger *slog.Logger,
) *SessionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionService{
		store:        authStore,
		tokenService: tokenService,
		retry:        retryCfg,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// SessionResponse contains session tokens and metadata.
type SessionResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"` // seconds until the access token expires
	SessionID    string `json:"session_id"`
}

// CreateSession opens a session for profile and returns its tokens.
func (s *SessionService) CreateSession(ctx context.Context, profile *domain.Profile, client auth.ClientInfo) (*SessionResponse, error) {
	sessionID, err := id.New(id.Session)
	if err != nil {
		return nil, domainerrors.Application("generate session id", err)
	}
	refreshToken, err := s.tokenService.GenerateRefreshToken()
	if err != nil {
		return nil, domainerrors.Application("generate refresh token", err)
	}
	accessToken, err := s.tokenService.GenerateAccessToken(profile, sessionID)
	if err != nil {
		return nil, domainerrors.Application("generate access token", err)
	}

	now := s.now()
	session := &domain.Session{
		ID:               sessionID,
		ProfileID:        profile.ID,
		RefreshTokenHash: auth.HashRefreshToken(refreshToken),
		ExpiresAt:        now.Add(s.tokenService.RefreshTokenDuration()),
		CreatedAt:        now,
		LastSeenAt:       now,
		IPAddress:        client.IPAddress,
		UserAgent:        client.UserAgent,
	}
	if err := retry.Do(ctx, s.retry, func(ctx context.Context) error {
		return s.store.CreateSession(ctx, session)
	}); err != nil {
		return nil, err
	}

	return s.response(accessToken, refreshToken, sessionID), nil
}

// RefreshSession rotates the refresh token of the session holding
// refreshToken. The presented token stops working.
func (s *SessionService) RefreshSession(ctx context.Context, refreshToken string, client auth.ClientInfo) (*SessionResponse, *domain.Profile, error) {
	session, err := retry.Value(ctx, s.retry, func(ctx context.Context) (*domain.Session, error) {
		return s.store.GetSessionByRefreshToken(ctx, auth.HashRefreshToken(refreshToken))
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, nil, domainerrors.TokenExpired("invalid or expired refresh token")
		}
		return nil, nil, err
	}

	now := s.now()
	if session.IsExpired(now) {
		_ = s.store.DeleteSession(ctx, session.ID)
		return nil, nil, domainerrors.TokenExpired("invalid or expired refresh token")
	}

	profile, err := retry.Value(ctx, s.retry, func(ctx context.Context) (*domain.Profile, error) {
		return s.store.GetProfile(ctx, session.ProfileID)
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			_ = s.store.DeleteSession(ctx, session.ID)
			return nil, nil, domainerrors.Unauthorized("profile no longer exists")
		}
		return nil, nil, err
	}

	newRefresh, err := s.tokenService.GenerateRefreshToken()
	if err != nil {
		return nil, nil, domainerrors.Application("generate refresh token", err)
	}
	accessToken, err := s.tokenService.GenerateAccessToken(profile, session.ID)
	if err != nil {
		return nil, nil, domainerrors.Application("generate access token", err)
	}

	session.RefreshTokenHash = auth.HashRefreshToken(newRefresh)
	session.ExpiresAt = now.Add(s.tokenService.RefreshTokenDuration())
	session.LastSeenAt = now
	if client.IPAddress != "" {
		session.IPAddress = client.IPAddress
	}
	if err := retry.Do(ctx, s.retry, func(ctx context.Context) error {
		return s.store.UpdateSession(ctx, session)
	}); err != nil {
		return nil, nil, err
	}

	return s.response(accessToken, newRefresh, session.ID), profile, nil
}

// DeleteSession ends a session. Unknown sessions are ignored.
func (s *SessionService) DeleteSession(ctx context.Context, sessionID string) error {
	if err := retry.Do(ctx, s.retry, func(ctx context.Context) error {
		return s.store.DeleteSession(ctx, sessionID)
	}); err != nil {
		return err
	}
	s.logger.Info("session deleted", "session_id", sessionID)
	return nil
}

// DeleteExpiredSessions removes expired sessions. Run periodically.
func (s *SessionService) DeleteExpiredSessions(ctx context.Context) (int, error) {
	count, err := s.store.DeleteExpiredSessions(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if count > 0 {
		s.logger.Info("deleted expired sessions", "count", count)
	}
	return count, nil
}

// RunCleanup deletes expired sessions every interval until ctx is done.
func (s *SessionService) RunCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.DeleteExpiredSessions(ctx); err != nil && ctx.Err() == nil {
				s.logger.Warn("session cleanup failed", "error", err)
			}
		}
	}
}

func (s *SessionService) response(accessToken, refreshToken, sessionID string) *SessionResponse {
	return &SessionResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(s.tokenService.AccessTokenDuration().Seconds()),
		SessionID:    sessionID,
	}
}
