package providers

import (
	"context"
	"log/slog"

	"github.com/samber/do/v2"

	"github.com/bucketlistapp/bucketlist-server/internal/config"
	"github.com/bucketlistapp/bucketlist-server/internal/service"
)

// SessionCleanupJob periodically deletes expired sessions.
type SessionCleanupJob struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Shutdown implements do.Shutdowner.
func (j *SessionCleanupJob) Shutdown() error {
	j.cancel()
	<-j.done
	return nil
}

// ProvideSessionCleanupJob starts the session cleanup loop.
func ProvideSessionCleanupJob(i do.Injector) (*SessionCleanupJob, error) {
	cfg := do.MustInvoke[*config.Config](i)
	sessions := do.MustInvoke[*service.SessionService](i)
	log := do.MustInvoke[*slog.Logger](i)

	ctx, cancel := context.WithCancel(context.Background())
	job := &SessionCleanupJob{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(job.done)
		sessions.RunCleanup(ctx, cfg.Auth.SessionCleanup)
	}()

	log.Info("session cleanup job started", "interval", cfg.Auth.SessionCleanup)
	return job, nil
}
