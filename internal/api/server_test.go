package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bucketlistapp/bucketlist-server/internal/auth"
	"github.com/bucketlistapp/bucketlist-server/internal/domain"
	"github.com/bucketlistapp/bucketlist-server/internal/ratelimit"
	"github.com/bucketlistapp/bucketlist-server/internal/retry"
	"github.com/bucketlistapp/bucketlist-server/internal/search"
	"github.com/bucketlistapp/bucketlist-server/internal/service"
	"github.com/bucketlistapp/bucketlist-server/internal/store/sqlstore"
)

// testEnvelope decodes a success envelope.
type testEnvelope[T any] struct {
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error"`
}

// testErrorEnvelope decodes a detailed error envelope.
type testErrorEnvelope struct {
	Version int             `json:"v"`
	Success bool            `json:"success"`
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Details json.RawMessage `json:"details"`
}

type testServer struct {
	*Server
	api    humatest.TestAPI
	store  *sqlstore.Store
	search *service.SearchService
}

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func setupTestServer(t *testing.T, opts Options) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	dir := t.TempDir()

	st, err := sqlstore.Open(context.Background(), sqlstore.Config{
		Dialect: sqlstore.DialectSQLite,
		DSN:     filepath.Join(dir, "test.db"),
	}, logger)
	require.NoError(t, err)

	idx, err := search.NewItemIndex(search.Options{Logger: logger})
	require.NoError(t, err)
	searchSvc := service.NewSearchService(idx, st, logger)
	st.SetItemIndexer(searchSvc)

	key, err := auth.LoadOrGenerateKey(dir)
	require.NoError(t, err)
	tokens, err := auth.NewTokenService(key, 15*time.Minute, 24*time.Hour)
	require.NoError(t, err)

	retryCfg := retry.Config{MaxRetries: 1, InitialDelay: time.Millisecond, BackoffMultiplier: 1}
	sessions := service.NewSessionService(st, tokens, retryCfg, logger)

	services := &Services{
		Auth:       service.NewAuthService(st, tokens, sessions, retryCfg, logger),
		Bucket:     service.NewBucketService(st, st, logger),
		Categories: service.NewCategoryService(st, logger),
		Search:     searchSvc,
	}

	s := NewServer(services, st, opts, logger)
	s.now = func() time.Time { return fixedNow }

	t.Cleanup(func() {
		searchSvc.Close()
		_ = idx.Close()
		_ = st.Close()
	})

	return &testServer{
		Server: s,
		api:    humatest.Wrap(t, s.API()),
		store:  st,
		search: searchSvc,
	}
}

// register creates a profile through the API and returns its tokens.
func (ts *testServer) register(t *testing.T, email string) AuthResponse {
	t.Helper()

	resp := ts.api.Post("/api/v1/auth/register", map[string]any{
		"email":        email,
		"password":     "correct horse battery",
		"display_name": "Tester",
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	env := decode[AuthResponse](t, resp.Body.Bytes())
	require.True(t, env.Success)
	return env.Data
}

func (ts *testServer) createItem(t *testing.T, token string, body map[string]any) domain.BucketItem {
	t.Helper()

	resp := ts.api.Post("/api/v1/items", bearer(token), body)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	return decode[domain.BucketItem](t, resp.Body.Bytes()).Data
}

// newTestLimiter allows one request per client and effectively never refills.
func newTestLimiter(t *testing.T) *ratelimit.KeyedRateLimiter {
	t.Helper()
	limiter := ratelimit.New(0.0001, 1, time.Hour)
	t.Cleanup(limiter.Stop)
	return limiter
}

func bearer(token string) string {
	return "Authorization: Bearer " + token
}

func decode[T any](t *testing.T, body []byte) testEnvelope[T] {
	t.Helper()
	var env testEnvelope[T]
	require.NoError(t, json.Unmarshal(body, &env), string(body))
	return env
}

func decodeError(t *testing.T, body []byte) testErrorEnvelope {
	t.Helper()
	var env testErrorEnvelope
	require.NoError(t, json.Unmarshal(body, &env), string(body))
	assert.Equal(t, EnvelopeVersion, env.Version)
	assert.False(t, env.Success)
	return env
}

// === Tests ===

func TestHealthCheck(t *testing.T) {
	ts := setupTestServer(t, Options{})

	resp := ts.api.Get("/health")
	require.Equal(t, http.StatusOK, resp.Code)

	env := decode[HealthResponse](t, resp.Body.Bytes())
	assert.Equal(t, "healthy", env.Data.Status)
	assert.Equal(t, "healthy", env.Data.Components["database"].Status)
	assert.Equal(t, "healthy", env.Data.Components["search"].Status)
}

func TestAuthFlow(t *testing.T) {
	ts := setupTestServer(t, Options{})

	registered := ts.register(t, "Hiker@Example.com")
	assert.Equal(t, "hiker@example.com", registered.Profile.Email)
	assert.Equal(t, "Bearer", registered.TokenType)

	t.Run("duplicate email conflicts", func(t *testing.T) {
		resp := ts.api.Post("/api/v1/auth/register", map[string]any{
			"email":    "hiker@example.com",
			"password": "another password",
		})
		assert.Equal(t, http.StatusConflict, resp.Code)
		assert.Equal(t, "ALREADY_EXISTS", decodeError(t, resp.Body.Bytes()).Code)
	})

	t.Run("wrong password", func(t *testing.T) {
		resp := ts.api.Post("/api/v1/auth/login", map[string]any{
			"email":    "hiker@example.com",
			"password": "nope nope nope",
		})
		assert.Equal(t, http.StatusUnauthorized, resp.Code)
		assert.Equal(t, "INVALID_CREDENTIALS", decodeError(t, resp.Body.Bytes()).Code)
	})

	resp := ts.api.Post("/api/v1/auth/login", map[string]any{
		"email":    "hiker@example.com",
		"password": "correct horse battery",
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	login := decode[AuthResponse](t, resp.Body.Bytes()).Data

	resp = ts.api.Get("/api/v1/me", bearer(login.AccessToken))
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, registered.Profile.ID, decode[ProfileResponse](t, resp.Body.Bytes()).Data.ID)

	resp = ts.api.Post("/api/v1/auth/refresh", map[string]any{"refresh_token": login.RefreshToken})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	refreshed := decode[AuthResponse](t, resp.Body.Bytes()).Data
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	resp = ts.api.Post("/api/v1/auth/logout", bearer(refreshed.AccessToken))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = ts.api.Post("/api/v1/auth/refresh", map[string]any{"refresh_token": refreshed.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Equal(t, "TOKEN_EXPIRED", decodeError(t, resp.Body.Bytes()).Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	ts := setupTestServer(t, Options{})

	for _, path := range []string{"/api/v1/me", "/api/v1/items", "/api/v1/dashboard", "/api/v1/stats"} {
		t.Run(path, func(t *testing.T) {
			resp := ts.api.Get(path, bearer("not-a-token"))
			assert.Equal(t, http.StatusUnauthorized, resp.Code)
			assert.Equal(t, "UNAUTHORIZED", decodeError(t, resp.Body.Bytes()).Code)
		})
	}
}

func TestItemLifecycle(t *testing.T) {
	ts := setupTestServer(t, Options{})
	token := ts.register(t, "climber@example.com").AccessToken

	item := ts.createItem(t, token, map[string]any{
		"title":       "Climb Mount Fuji",
		"category_id": 1,
		"priority":    "high",
		"due_type":    "this_year",
	})
	assert.Equal(t, domain.StatusNotStarted, item.Status)
	require.NotNil(t, item.DueDate)
	assert.Equal(t, "2025-12-31", domain.FormatDueDate(*item.DueDate))

	resp := ts.api.Patch("/api/v1/items/"+item.ID, bearer(token), map[string]any{"status": "in_progress"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, domain.StatusInProgress, decode[domain.BucketItem](t, resp.Body.Bytes()).Data.Status)

	resp = ts.api.Post("/api/v1/items/"+item.ID+"/complete", bearer(token), map[string]any{"comment": "Sunrise from the summit"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	done := decode[domain.BucketItem](t, resp.Body.Bytes()).Data
	assert.Equal(t, domain.StatusCompleted, done.Status)
	assert.NotNil(t, done.CompletedAt)
	require.NotNil(t, done.CompletionComment)
	assert.Equal(t, "Sunrise from the summit", *done.CompletionComment)

	resp = ts.api.Patch("/api/v1/items/"+item.ID, bearer(token), map[string]any{"title": "Climb it again"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	assert.Equal(t, "BUSINESS_RULE", decodeError(t, resp.Body.Bytes()).Code)

	resp = ts.api.Get("/api/v1/stats", bearer(token))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	stats := decode[domain.UserBucketStats](t, resp.Body.Bytes()).Data
	assert.Equal(t, 1, stats.TotalItems)
	assert.Equal(t, 1, stats.CompletedItems)
	assert.Equal(t, 100, stats.CompletionRate)

	resp = ts.api.Delete("/api/v1/items/"+item.ID, bearer(token))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = ts.api.Get("/api/v1/items/"+item.ID, bearer(token))
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Equal(t, "NOT_FOUND", decodeError(t, resp.Body.Bytes()).Code)
}

func TestCreateItem_ValidationEnvelope(t *testing.T) {
	ts := setupTestServer(t, Options{})
	token := ts.register(t, "v@example.com").AccessToken

	resp := ts.api.Post("/api/v1/items", bearer(token), map[string]any{
		"title":       "  ",
		"category_id": 1,
		"priority":    "high",
	})
	require.Equal(t, http.StatusBadRequest, resp.Code, resp.Body.String())

	env := decodeError(t, resp.Body.Bytes())
	assert.Equal(t, "VALIDATION", env.Code)
	assert.Equal(t, "タイトルは必須です", env.Message)

	var details []FieldError
	require.NoError(t, json.Unmarshal(env.Details, &details))
	require.Len(t, details, 1)
	assert.Equal(t, "title", details[0].Field)
}

func TestItem_RejectsUnknownDueType(t *testing.T) {
	ts := setupTestServer(t, Options{})
	token := ts.register(t, "d@example.com").AccessToken

	resp := ts.api.Post("/api/v1/items", bearer(token), map[string]any{
		"title":       "Someday",
		"category_id": 1,
		"priority":    "low",
		"due_type":    "someday",
	})
	require.Equal(t, http.StatusBadRequest, resp.Code, resp.Body.String())
	env := decodeError(t, resp.Body.Bytes())
	var details []FieldError
	require.NoError(t, json.Unmarshal(env.Details, &details))
	require.Len(t, details, 1)
	assert.Equal(t, "due_type", details[0].Field)

	item := ts.createItem(t, token, map[string]any{"title": "Dated", "category_id": 1, "priority": "low"})
	resp = ts.api.Patch("/api/v1/items/"+item.ID, bearer(token), map[string]any{"due_type": "someday"})
	require.Equal(t, http.StatusBadRequest, resp.Code, resp.Body.String())
	assert.Equal(t, "VALIDATION", decodeError(t, resp.Body.Bytes()).Code)
}

func TestCreateItem_MissingRequiredField(t *testing.T) {
	ts := setupTestServer(t, Options{})
	token := ts.register(t, "m@example.com").AccessToken

	resp := ts.api.Post("/api/v1/items", bearer(token), map[string]any{"title": "No priority"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	env := decodeError(t, resp.Body.Bytes())
	assert.Equal(t, "VALIDATION", env.Code)
	assert.NotEmpty(t, env.Details)
}

func TestGetItem_Visibility(t *testing.T) {
	ts := setupTestServer(t, Options{})
	owner := ts.register(t, "owner@example.com").AccessToken
	other := ts.register(t, "other@example.com").AccessToken

	private := ts.createItem(t, owner, map[string]any{"title": "Private goal", "category_id": 2, "priority": "low"})
	public := ts.createItem(t, owner, map[string]any{"title": "Public goal", "category_id": 2, "priority": "low", "is_public": true})

	resp := ts.api.Get("/api/v1/items/"+private.ID, bearer(other))
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = ts.api.Get("/api/v1/items/"+public.ID, bearer(other))
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Delete("/api/v1/items/"+public.ID, bearer(other))
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestListItems_FiltersAndSort(t *testing.T) {
	ts := setupTestServer(t, Options{})
	token := ts.register(t, "list@example.com").AccessToken

	ts.createItem(t, token, map[string]any{"title": "Learn piano", "category_id": 4, "priority": "low"})
	ts.createItem(t, token, map[string]any{"title": "See the aurora", "category_id": 1, "priority": "high", "is_public": true})
	ts.createItem(t, token, map[string]any{"title": "Write a novel", "category_id": 4, "priority": "medium"})

	resp := ts.api.Get("/api/v1/items?sort_by=priority&sort_order=desc", bearer(token))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	list := decode[ItemListResponse](t, resp.Body.Bytes()).Data
	require.Equal(t, 3, list.Total)
	assert.Equal(t, "See the aurora", list.Items[0].Title)
	assert.Equal(t, "Learn piano", list.Items[2].Title)

	resp = ts.api.Get("/api/v1/items?category_id=4&search=NOVEL", bearer(token))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	list = decode[ItemListResponse](t, resp.Body.Bytes()).Data
	require.Len(t, list.Items, 1)
	assert.Equal(t, "Write a novel", list.Items[0].Title)

	resp = ts.api.Get("/api/v1/items?is_public=true", bearer(token))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, 1, decode[ItemListResponse](t, resp.Body.Bytes()).Data.Total)

	for _, query := range []string{"sort_by=colour", "priority=urgent", "due=someday", "is_public=maybe"} {
		resp = ts.api.Get("/api/v1/items?"+query, bearer(token))
		assert.Equal(t, http.StatusBadRequest, resp.Code, query)
	}
}

func TestGroupedItems(t *testing.T) {
	ts := setupTestServer(t, Options{})
	token := ts.register(t, "group@example.com").AccessToken

	ts.createItem(t, token, map[string]any{"title": "A", "category_id": 1, "priority": "low"})
	ts.createItem(t, token, map[string]any{"title": "B", "category_id": 1, "priority": "high"})

	resp := ts.api.Get("/api/v1/items/grouped?by=priority", bearer(token))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	grouped := decode[GroupedItemsResponse](t, resp.Body.Bytes()).Data
	require.Len(t, grouped.Priorities, 2)
	assert.Equal(t, domain.PriorityHigh, grouped.Priorities[0].Priority)
	assert.Equal(t, domain.PriorityLow, grouped.Priorities[1].Priority)

	resp = ts.api.Get("/api/v1/items/grouped", bearer(token))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	grouped = decode[GroupedItemsResponse](t, resp.Body.Bytes()).Data
	assert.Equal(t, "category", grouped.By)
	require.Len(t, grouped.Categories, 1)
	assert.Len(t, grouped.Categories[0].Items, 2)
}

func TestDashboard(t *testing.T) {
	ts := setupTestServer(t, Options{})
	token := ts.register(t, "dash@example.com").AccessToken

	item := ts.createItem(t, token, map[string]any{"title": "Visit Kyoto", "category_id": 1, "priority": "medium"})
	resp := ts.api.Post("/api/v1/items/"+item.ID+"/complete", bearer(token))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = ts.api.Get("/api/v1/dashboard", bearer(token))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	dash := decode[domain.Dashboard](t, resp.Body.Bytes()).Data
	assert.Len(t, dash.Items, 1)
	assert.NotEmpty(t, dash.Categories)
	assert.Equal(t, 100, dash.Stats.CompletionRate)
	require.NotNil(t, dash.Stats.DisplayName)
	assert.Equal(t, "Tester", *dash.Stats.DisplayName)
	require.Len(t, dash.RecentCompletedItems, 1)
	assert.Equal(t, item.ID, dash.RecentCompletedItems[0].ID)
}

func TestCategories(t *testing.T) {
	ts := setupTestServer(t, Options{})

	resp := ts.api.Get("/api/v1/categories")
	require.Equal(t, http.StatusOK, resp.Code)
	list := decode[CategoryListResponse](t, resp.Body.Bytes()).Data
	require.NotEmpty(t, list.Categories)

	resp = ts.api.Get("/api/v1/categories/1")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, list.Categories[0].Name, decode[domain.Category](t, resp.Body.Bytes()).Data.Name)

	resp = ts.api.Get("/api/v1/categories/9999")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestPublicListingAndSearch(t *testing.T) {
	ts := setupTestServer(t, Options{})
	token := ts.register(t, "pub@example.com").AccessToken

	ts.createItem(t, token, map[string]any{"title": "Run a marathon", "category_id": 5, "priority": "high", "is_public": true})
	ts.createItem(t, token, map[string]any{"title": "Secret marathon", "category_id": 5, "priority": "low"})
	require.NoError(t, ts.search.Flush(context.Background()))

	resp := ts.api.Get("/api/v1/public/items")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	list := decode[ItemListResponse](t, resp.Body.Bytes()).Data
	require.Len(t, list.Items, 1)
	assert.Equal(t, "Run a marathon", list.Items[0].Title)

	resp = ts.api.Get("/api/v1/public/search?q=marathon")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	found := decode[service.PublicSearchResponse](t, resp.Body.Bytes()).Data
	require.Len(t, found.Items, 1)
	assert.Equal(t, "Run a marathon", found.Items[0].Title)

	resp = ts.api.Get("/api/v1/public/search?priority=urgent")
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestAuthRateLimit(t *testing.T) {
	limiter := newTestLimiter(t)
	ts := setupTestServer(t, Options{AuthLimiter: limiter})

	body := map[string]any{"email": "nobody@example.com", "password": "whatever"}
	resp := ts.api.Post("/api/v1/auth/login", body)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = ts.api.Post("/api/v1/auth/login", body)
	assert.Equal(t, http.StatusTooManyRequests, resp.Code)
	assert.Equal(t, "RATE_LIMITED", decodeError(t, resp.Body.Bytes()).Code)

	// Non-auth routes are not throttled.
	resp = ts.api.Get("/api/v1/categories")
	assert.Equal(t, http.StatusOK, resp.Code)
}
