package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/bucketlistapp/bucketlist-server/internal/domain"
)

func (s *Server) registerDashboardRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getDashboard",
		Method:      http.MethodGet,
		Path:        "/api/v1/dashboard",
		Summary:     "Dashboard",
		Description: "Returns items, categories, completion stats, recently completed and upcoming items in one response",
		Tags:        []string{"Dashboard"},
		Security:    authenticated,
	}, s.handleGetDashboard)

	huma.Register(s.api, huma.Operation{
		OperationID: "getStats",
		Method:      http.MethodGet,
		Path:        "/api/v1/stats",
		Summary:     "Completion stats",
		Description: "Returns the caller's item counts by status and completion rate",
		Tags:        []string{"Dashboard"},
		Security:    authenticated,
	}, s.handleGetStats)
}

// DashboardOutput wraps the dashboard for Huma.
type DashboardOutput struct {
	Body *domain.Dashboard
}

// StatsOutput wraps user stats for Huma.
type StatsOutput struct {
	Body *domain.UserBucketStats
}

func (s *Server) handleGetDashboard(ctx context.Context, _ *struct{}) (*DashboardOutput, error) {
	profileID, err := GetProfileID(ctx)
	if err != nil {
		return nil, err
	}

	dashboard, err := s.services.Bucket.GetDashboardData(ctx, profileID)
	if err != nil {
		return nil, err
	}
	return &DashboardOutput{Body: dashboard}, nil
}

func (s *Server) handleGetStats(ctx context.Context, _ *struct{}) (*StatsOutput, error) {
	profileID, err := GetProfileID(ctx)
	if err != nil {
		return nil, err
	}

	stats, err := s.services.Bucket.GetUserStats(ctx, profileID)
	if err != nil {
		return nil, err
	}
	return &StatsOutput{Body: stats}, nil
}
