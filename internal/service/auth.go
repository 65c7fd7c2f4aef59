package service

import (
	"context"
	"errors"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/bucketlistapp/bucketlist-server/internal/auth"
	"github.com/bucketlistapp/bucketlist-server/internal/domain"
	domainerrors "github.com/bucketlistapp/bucketlist-server/internal/errors"
	"github.com/bucketlistapp/bucketlist-server/internal/retry"
	"github.com/bucketlistapp/bucketlist-server/internal/store"
)

// validate checks request structs. Field names in errors use json tags.
var validate = func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
}()

// AuthService handles registration, login and token verification.
// Session bookkeeping is delegated to SessionService.
type AuthService struct {
	store          store.AuthStore
	tokenService   *auth.TokenService
	sessionService *SessionService
	retry          retry.Config
	hashPassword   func(string) (string, error)
	logger         *slog.Logger
	now            func() time.Time
}

// NewAuthService creates an authentication service.
func NewAuthService(
	authStore store.AuthStore,
	tokenService *auth.TokenService,
	sessionService *SessionService,
	retryCfg retry.Config,
	logger *slog.Logger,
) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		store:          authStore,
		tokenService:   tokenService,
		sessionService: sessionService,
		retry:          retryCfg,
		hashPassword:   auth.HashPassword,
		logger:         logger,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// RegisterRequest creates a new profile.
type RegisterRequest struct {
	Email       string `json:"email" validate:"required,email,max=254"`
	Password    string `json:"password" validate:"required,min=8,max=1024"`
	DisplayName string `json:"display_name" validate:"max=100"`
}

// LoginRequest carries credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest carries the refresh token to rotate.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// AuthResponse contains the profile and its session tokens.
type AuthResponse struct {
	Profile *domain.Profile `json:"profile"`
	SessionResponse
}

// Register creates a profile and signs it in.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest, client auth.ClientInfo) (*AuthResponse, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.DisplayName = strings.TrimSpace(req.DisplayName)
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	hash, err := s.hashPassword(req.Password)
	if err != nil {
		return nil, domainerrors.Application("hash password", err)
	}

	now := s.now()
	profile := &domain.Profile{
		ID:           uuid.NewString(),
		Email:        req.Email,
		PasswordHash: hash,
		DisplayName:  req.DisplayName,
		CreatedAt:    now,
		UpdatedAt:    now,
		LastLoginAt:  now,
	}
	if err := retry.Do(ctx, s.retry, func(ctx context.Context) error {
		return s.store.CreateProfile(ctx, profile)
	}); err != nil {
		if errors.Is(err, domainerrors.ErrAlreadyExists) {
			return nil, domainerrors.AlreadyExists("email_taken", "email already in use")
		}
		return nil, err
	}

	session, err := s.sessionService.CreateSession(ctx, profile, client)
	if err != nil {
		return nil, err
	}

	s.logger.Info("profile registered", "profile_id", profile.ID)
	return &AuthResponse{Profile: profile, SessionResponse: *session}, nil
}

// Login verifies credentials and opens a session. Unknown emails and wrong
// passwords fail identically.
func (s *AuthService) Login(ctx context.Context, req LoginRequest, client auth.ClientInfo) (*AuthResponse, error) {
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	profile, err := retry.Value(ctx, s.retry, func(ctx context.Context) (*domain.Profile, error) {
		return s.store.GetProfileByEmail(ctx, req.Email)
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.InvalidCredentials("invalid email or password")
		}
		return nil, err
	}

	if !auth.VerifyPassword(profile.PasswordHash, req.Password) {
		return nil, domainerrors.InvalidCredentials("invalid email or password")
	}

	now := s.now()
	if err := s.store.TouchLastLogin(ctx, profile.ID, now); err != nil {
		s.logger.Warn("failed to update last login time", "profile_id", profile.ID, "error", err)
	} else {
		profile.LastLoginAt = now
	}

	session, err := s.sessionService.CreateSession(ctx, profile, client)
	if err != nil {
		return nil, err
	}

	s.logger.Info("profile logged in", "profile_id", profile.ID)
	return &AuthResponse{Profile: profile, SessionResponse: *session}, nil
}

// RefreshTokens rotates a refresh token.
func (s *AuthService) RefreshTokens(ctx context.Context, req RefreshRequest, client auth.ClientInfo) (*AuthResponse, error) {
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}
	session, profile, err := s.sessionService.RefreshSession(ctx, req.RefreshToken, client)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{Profile: profile, SessionResponse: *session}, nil
}

// Logout revokes a session.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	return s.sessionService.DeleteSession(ctx, sessionID)
}

// VerifyAccessToken validates a bearer token and loads its profile.
func (s *AuthService) VerifyAccessToken(ctx context.Context, token string) (*domain.Profile, *auth.AccessClaims, error) {
	claims, err := s.tokenService.VerifyAccessToken(token)
	if err != nil {
		return nil, nil, domainerrors.Unauthorized("invalid or expired access token").WithCause(err)
	}

	profile, err := retry.Value(ctx, s.retry, func(ctx context.Context) (*domain.Profile, error) {
		return s.store.GetProfile(ctx, claims.ProfileID)
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, nil, domainerrors.Unauthorized("profile no longer exists")
		}
		return nil, nil, err
	}
	return profile, claims, nil
}

// GetProfile loads a profile by id.
func (s *AuthService) GetProfile(ctx context.Context, profileID string) (*domain.Profile, error) {
	return retry.Value(ctx, s.retry, func(ctx context.Context) (*domain.Profile, error) {
		return s.store.GetProfile(ctx, profileID)
	})
}

// formatValidationError reports the first failing field as a ValidationError.
func formatValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	e := verrs[0]
	field := e.Field()
	switch e.Tag() {
	case "required":
		return domainerrors.Validationf(field, "%s is required", field)
	case "email":
		return domainerrors.Validationf(field, "%s must be a valid email address", field)
	case "min":
		return domainerrors.Validationf(field, "%s must be at least %s characters", field, e.Param())
	case "max":
		return domainerrors.Validationf(field, "%s exceeds maximum length of %s characters", field, e.Param())
	default:
		return domainerrors.Validationf(field, "%s is invalid", field)
	}
}
