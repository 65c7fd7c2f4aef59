package providers

import (
	"log/slog"

	"github.com/samber/do/v2"

	"github.com/bucketlistapp/bucketlist-server/internal/auth"
	"github.com/bucketlistapp/bucketlist-server/internal/config"
	"github.com/bucketlistapp/bucketlist-server/internal/ratelimit"
)

// AuthKey wraps the token encryption key bytes.
type AuthKey []byte

// ProvideAuthKey loads the configured key or the one stored in the data
// directory, generating it on first start.
func ProvideAuthKey(i do.Injector) (AuthKey, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*slog.Logger](i)

	key, err := auth.LoadKey(cfg.Auth.KeyHex, cfg.Data.BasePath)
	if err != nil {
		return nil, err
	}

	log.Info("authentication key loaded",
		"access_token_duration", cfg.Auth.AccessTokenDuration,
		"refresh_token_duration", cfg.Auth.RefreshTokenDuration,
	)
	return AuthKey(key), nil
}

// ProvideTokenService provides the PASETO token service.
func ProvideTokenService(i do.Injector) (*auth.TokenService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	key := do.MustInvoke[AuthKey](i)

	return auth.NewTokenService(key, cfg.Auth.AccessTokenDuration, cfg.Auth.RefreshTokenDuration)
}

// ProvideAuthRateLimiter provides the per-IP limiter for auth endpoints.
// The limiter implements do.Shutdowner itself.
func ProvideAuthRateLimiter(i do.Injector) (*ratelimit.KeyedRateLimiter, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return ratelimit.New(cfg.RateLimit.AuthRPS, cfg.RateLimit.AuthBurst, ratelimit.DefaultIdleTTL), nil
}
