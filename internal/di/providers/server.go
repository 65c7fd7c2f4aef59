package providers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/bucketlistapp/bucketlist-server/internal/api"
	"github.com/bucketlistapp/bucketlist-server/internal/config"
	"github.com/bucketlistapp/bucketlist-server/internal/ratelimit"
	"github.com/bucketlistapp/bucketlist-server/internal/service"
)

// HTTPServerHandle wraps http.Server with Shutdowner.
type HTTPServerHandle struct {
	*http.Server
}

// Shutdown implements do.Shutdowner.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer builds the API handler and starts listening.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*slog.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	searchHandle := do.MustInvoke[*SearchServiceHandle](i)
	limiter := do.MustInvoke[*ratelimit.KeyedRateLimiter](i)

	services := &api.Services{
		Auth:       do.MustInvoke[*service.AuthService](i),
		Bucket:     do.MustInvoke[*service.BucketService](i),
		Categories: do.MustInvoke[*service.CategoryService](i),
		Search:     searchHandle.SearchService,
	}

	handler := api.NewServer(services, storeHandle.Store, api.Options{
		CORSOrigins: cfg.Server.CORSOrigins,
		AuthLimiter: limiter,
	}, log)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server error", "error", err)
		}
	}()

	return &HTTPServerHandle{Server: srv}, nil
}
