package api

import (
	"context"

	"github.com/bucketlistapp/bucketlist-server/internal/service"
)

// Services groups the business services used by the API server.
type Services struct {
	Auth       *service.AuthService
	Bucket     *service.BucketService
	Categories *service.CategoryService
	Search     *service.SearchService // optional; nil disables /public/search
}

// Pinger reports whether the database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}
