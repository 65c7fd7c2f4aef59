package providers

import "time"

const (
	// startupTimeout bounds opening the database and applying migrations.
	startupTimeout = time.Minute

	// shutdownTimeout is the maximum time to wait for graceful shutdown of services.
	shutdownTimeout = 30 * time.Second
)
