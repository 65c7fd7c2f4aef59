package api

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

// rateLimitByIP is a huma operation middleware that rejects callers exceeding
// the auth limiter with 429 Too Many Requests.
func (s *Server) rateLimitByIP(ctx huma.Context, next func(huma.Context)) {
	if s.authLimiter == nil {
		next(ctx)
		return
	}

	key := hostOnly(ctx.RemoteAddr())
	if !s.authLimiter.Allow(key) {
		s.logger.Warn("rate limit exceeded",
			"ip", key,
			"operation", ctx.Operation().OperationID,
		)
		_ = huma.WriteErr(s.api, ctx, http.StatusTooManyRequests, "too many requests, please try again later")
		return
	}

	next(ctx)
}
