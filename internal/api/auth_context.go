package api

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/bucketlistapp/bucketlist-server/internal/auth"
	"github.com/bucketlistapp/bucketlist-server/internal/service"
)

// ctxKey is the type for context keys to avoid collisions.
type ctxKey string

const (
	profileIDKey  ctxKey = "profileID"
	sessionIDKey  ctxKey = "sessionID"
	clientInfoKey ctxKey = "clientInfo"
)

// GetProfileID returns the authenticated profile ID from context.
// Returns 401 error if the request is not authenticated.
func GetProfileID(ctx context.Context) (string, error) {
	profileID, ok := ctx.Value(profileIDKey).(string)
	if !ok || profileID == "" {
		return "", huma.Error401Unauthorized("authentication required")
	}
	return profileID, nil
}

// optionalProfileID returns the authenticated profile ID or "".
func optionalProfileID(ctx context.Context) string {
	profileID, _ := ctx.Value(profileIDKey).(string)
	return profileID
}

func getSessionID(ctx context.Context) string {
	sessionID, _ := ctx.Value(sessionIDKey).(string)
	return sessionID
}

func clientInfo(ctx context.Context) auth.ClientInfo {
	info, _ := ctx.Value(clientInfoKey).(auth.ClientInfo)
	return info
}

// authMiddleware validates Bearer tokens and stores the profile and session
// IDs in context. Requests without a valid token continue anonymously;
// handlers call GetProfileID when authentication is required.
func authMiddleware(authService *service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				next.ServeHTTP(w, r)
				return
			}

			profile, claims, err := authService.VerifyAccessToken(r.Context(), token)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), profileIDKey, profile.ID)
			ctx = context.WithValue(ctx, sessionIDKey, claims.SessionID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// clientInfoMiddleware records the caller's address and user agent for
// session bookkeeping. It runs after middleware.RealIP.
func clientInfoMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info := auth.ClientInfo{
			IPAddress: hostOnly(r.RemoteAddr),
			UserAgent: r.UserAgent(),
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), clientInfoKey, info)))
	})
}

// hostOnly strips the port from addr when present.
func hostOnly(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}
