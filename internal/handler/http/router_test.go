package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/Planto/internal/auth"
	"github.com/utafrali/Planto/internal/cart"
	"github.com/utafrali/Planto/internal/domain"
	"github.com/utafrali/Planto/internal/event"
	"github.com/utafrali/Planto/internal/notify"
	"github.com/utafrali/Planto/internal/repository"
	"github.com/utafrali/Planto/internal/repository/memory"
	"github.com/utafrali/Planto/internal/service"
	"github.com/utafrali/Planto/internal/session"
	"github.com/utafrali/Planto/pkg/health"
	"github.com/utafrali/Planto/pkg/httputil"
	"github.com/utafrali/Planto/pkg/middleware"
)

// ============================================================================
// Test helpers
// ============================================================================

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type failingPlants struct {
	repository.PlantRepository
}

func (failingPlants) List(context.Context, repository.PlantFilter) ([]domain.Plant, int64, error) {
	return nil, 0, errors.New("connection refused")
}

func (failingPlants) ListFeatured(context.Context, int) ([]domain.Plant, error) {
	return nil, errors.New("connection refused")
}

type testServer struct {
	handler  http.Handler
	tokens   *auth.JWTManager
	catalog  *service.CatalogService
	reviews  *service.ReviewService
	sessions *session.Registry
}

type serverDeps struct {
	store   repository.Store
	limiter *middleware.RateLimiter
}

type serverOption func(*serverDeps)

func newTestServer(t *testing.T, opts ...serverOption) *testServer {
	t.Helper()
	logger := testLogger()

	deps := serverDeps{
		store:   memory.NewStore(),
		limiter: middleware.NewRateLimiter(100, 100, time.Minute),
	}
	for _, opt := range opts {
		opt(&deps)
	}
	store := deps.store

	sessions, err := session.NewRegistry(session.Config{}, logger, prometheus.NewRegistry())
	require.NoError(t, err)

	events := event.NewProducer(nil, logger)
	tokens := auth.NewJWTManager("test-secret", time.Hour)

	svc := Services{
		Catalog:    service.NewCatalogService(store.Plants, nil, events, logger),
		Reviews:    service.NewReviewService(store.Reviews, nil, events, logger),
		Users:      service.NewUserService(store.Users, tokens, sessions, events, logger),
		Storefront: service.NewStorefrontService(sessions, events, 4*time.Second, logger),
	}
	router := NewRouter(svc, tokens.Validator(), deps.limiter, health.NewHandler(), logger, RouterConfig{
		CORS:          middleware.DefaultCORSConfig(),
		CatalogMaxAge: time.Minute,
	})

	return &testServer{
		handler:  router,
		tokens:   tokens,
		catalog:  svc.Catalog,
		reviews:  svc.Reviews,
		sessions: sessions,
	}
}

func (s *testServer) token(t *testing.T, userID, role string) string {
	t.Helper()
	tok, err := s.tokens.GenerateAccessToken(userID, userID+"@planto.shop", role)
	require.NoError(t, err)
	return tok
}

func (s *testServer) do(t *testing.T, method, target, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = bytes.NewBufferString(b)
		default:
			raw, err := json.Marshal(b)
			require.NoError(t, err)
			reader = bytes.NewReader(raw)
		}
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) seedPlants(t *testing.T, inputs ...service.CreatePlantInput) {
	t.Helper()
	for _, in := range inputs {
		_, err := s.catalog.CreatePlant(context.Background(), in)
		require.NoError(t, err)
	}
}

type envelope struct {
	Data         json.RawMessage         `json:"data"`
	Error        *httputil.ErrorResponse `json:"error"`
	Notification *notify.Notification    `json:"notification"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	return env
}

func decodeInto(t *testing.T, raw []byte, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(raw, dst))
}

func plantInput(name string, featured, trendy bool) service.CreatePlantInput {
	price := 29.9
	return service.CreatePlantInput{
		Name:       name,
		Price:      &price,
		ImageURL:   "https://placehold.co/540x680/png",
		Rating:     5,
		IsFeatured: featured,
		IsTrendy:   trendy,
	}
}

// ============================================================================
// Root and ops
// ============================================================================

func TestRouter_RootPing(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodGet, "/", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "API is running", rec.Body.String())
}

func TestRouter_HealthLive(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodGet, "/health/live", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_CORSPreflight(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/cart", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()

	srv.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Access-Control-Allow-Methods"))
}

// ============================================================================
// Catalog
// ============================================================================

func TestListPlants_PageShape(t *testing.T) {
	srv := newTestServer(t)
	srv.seedPlants(t,
		plantInput("Calathea plant", true, false),
		plantInput("Fiddle Leaf Fig", true, false),
		plantInput("Snake Plant", true, false),
	)

	rec := srv.do(t, http.MethodGet, "/api/plants?page=1&limit=2", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Cache-Control"), "max-age=60")

	var page struct {
		Items   []map[string]any `json:"items"`
		Total   int              `json:"total"`
		Page    int              `json:"page"`
		Limit   int              `json:"limit"`
		HasMore bool             `json:"hasMore"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&page))
	require.Len(t, page.Items, 2)
	assert.Equal(t, "Calathea plant", page.Items[0]["name"])
	assert.NotEmpty(t, page.Items[0]["_id"])
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 2, page.Limit)
	assert.True(t, page.HasMore)

	rec = srv.do(t, http.MethodGet, "/api/plants?page=2&limit=2", "", nil)
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&page))
	assert.Len(t, page.Items, 1)
	assert.False(t, page.HasMore)
}

func TestListPlants_InvalidQueryFallsBackToDefaults(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodGet, "/api/plants?page=abc&limit=-3", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var page map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&page))
	assert.EqualValues(t, 1, page["page"])
	assert.EqualValues(t, 6, page["limit"])
	assert.Equal(t, []any{}, page["items"])
}

func TestListPlants_HugePageIsEmpty(t *testing.T) {
	srv := newTestServer(t)
	srv.seedPlants(t, plantInput("Monstera", false, false))

	rec := srv.do(t, http.MethodGet, "/api/plants?page=9223372036854775807&limit=6", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var page map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&page))
	assert.Equal(t, []any{}, page["items"])
	assert.EqualValues(t, 1, page["total"])
	assert.Equal(t, false, page["hasMore"])
}

func TestListPlants_CategoryMatchesBySlug(t *testing.T) {
	srv := newTestServer(t)
	indoor := plantInput("Monstera", false, false)
	indoor.Category = "Indoor Plants"
	srv.seedPlants(t, indoor, plantInput("Cactus", false, false))

	rec := srv.do(t, http.MethodGet, "/api/plants?category=indoor-plants", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var page struct {
		Items []domain.Plant `json:"items"`
		Total int            `json:"total"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&page))
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Monstera", page.Items[0].Name)
	assert.Equal(t, 1, page.Total)
}

func TestFeaturedAndTrendy(t *testing.T) {
	srv := newTestServer(t)
	srv.seedPlants(t,
		plantInput("Calathea plant", true, false),
		plantInput("Pothos", false, true),
	)

	rec := srv.do(t, http.MethodGet, "/api/plants/featured", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var featured []domain.Plant
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&featured))
	require.Len(t, featured, 1)
	assert.Equal(t, "Calathea plant", featured[0].Name)

	rec = srv.do(t, http.MethodGet, "/api/plants/trendy?limit=1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var trendy []domain.Plant
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&trendy))
	require.Len(t, trendy, 1)
	assert.Equal(t, "Pothos", trendy[0].Name)
}

func TestCatalogReadFailure_RendersMessage(t *testing.T) {
	srv := newTestServer(t, func(d *serverDeps) {
		d.store.Plants = failingPlants{}
	})

	tests := []struct {
		path    string
		message string
	}{
		{"/api/plants", "Failed to load plants"},
		{"/api/plants/featured", "Failed to load featured plants"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := srv.do(t, http.MethodGet, tt.path, "", nil)

			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.JSONEq(t, `{"message":"`+tt.message+`"}`, rec.Body.String())
		})
	}
}

func TestReviews_LatestAndHighlighted(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()
	_, err := srv.reviews.CreateReview(ctx, service.CreateReviewInput{
		UserName: "Alena Patel", AvatarURL: "https://i.pravatar.cc/80?img=5", Rating: 5, Text: "Lovely", Highlighted: true,
	})
	require.NoError(t, err)
	_, err = srv.reviews.CreateReview(ctx, service.CreateReviewInput{
		UserName: "Sam", AvatarURL: "https://i.pravatar.cc/80?img=6", Rating: 4, Text: "Good",
	})
	require.NoError(t, err)

	rec := srv.do(t, http.MethodGet, "/api/reviews", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var latest []domain.Review
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&latest))
	require.Len(t, latest, 2)
	assert.Equal(t, "Sam", latest[0].UserName)

	rec = srv.do(t, http.MethodGet, "/api/reviews/highlight", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var highlighted []domain.Review
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&highlighted))
	require.Len(t, highlighted, 1)
	assert.Equal(t, "Alena Patel", highlighted[0].UserName)
}

func TestCreatePlant_AdminOnly(t *testing.T) {
	srv := newTestServer(t)
	body := plantInput("Snake Plant", true, false)

	rec := srv.do(t, http.MethodPost, "/api/plants", "", body)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = srv.do(t, http.MethodPost, "/api/plants", srv.token(t, "user-1", domain.RoleCustomer), body)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = srv.do(t, http.MethodPost, "/api/plants", srv.token(t, "admin-1", domain.RoleAdmin), body)
	require.Equal(t, http.StatusCreated, rec.Code)
	env := decodeEnvelope(t, rec)
	var plant domain.Plant
	decodeInto(t, env.Data, &plant)
	assert.NotEmpty(t, plant.ID)
	assert.Equal(t, "Snake Plant", plant.Name)
}

func TestCreatePlant_ValidationError(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodPost, "/api/plants", srv.token(t, "admin-1", domain.RoleAdmin),
		map[string]any{"name": "", "imageUrl": "not a url", "rating": 9})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	assert.Contains(t, env.Error.Fields, "name")
	assert.Contains(t, env.Error.Fields, "rating")
}

func TestCreateReview_Admin(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodPost, "/api/reviews", srv.token(t, "admin-1", domain.RoleAdmin), service.CreateReviewInput{
		UserName: "Alena Patel", AvatarURL: "https://i.pravatar.cc/80?img=5", Rating: 5, Text: "Lovely", Highlighted: true,
	})

	assert.Equal(t, http.StatusCreated, rec.Code)
}

// ============================================================================
// Auth
// ============================================================================

func TestAuth_RegisterLoginMeLogout(t *testing.T) {
	srv := newTestServer(t)
	creds := map[string]string{"email": "Fern@Planto.shop", "password": "correct-horse"}

	rec := srv.do(t, http.MethodPost, "/api/auth/register", "", creds)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	var user domain.User
	decodeInto(t, decodeEnvelope(t, rec).Data, &user)
	assert.Equal(t, "fern@planto.shop", user.Email)
	assert.Equal(t, domain.RoleCustomer, user.Role)

	rec = srv.do(t, http.MethodPost, "/api/auth/register", "", creds)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = srv.do(t, http.MethodPost, "/api/auth/login", "", creds)
	require.Equal(t, http.StatusOK, rec.Code)
	var result service.AuthResult
	decodeInto(t, decodeEnvelope(t, rec).Data, &result)
	require.NotEmpty(t, result.Token)
	assert.Equal(t, int64(3600), result.ExpiresIn)
	assert.Equal(t, 1, srv.sessions.Len())

	rec = srv.do(t, http.MethodGet, "/api/auth/me", result.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var me domain.User
	decodeInto(t, decodeEnvelope(t, rec).Data, &me)
	assert.Equal(t, user.ID, me.ID)

	rec = srv.do(t, http.MethodPost, "/api/auth/logout", result.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"sessionClosed":true}`, string(decodeEnvelope(t, rec).Data))
	assert.Equal(t, 0, srv.sessions.Len())
}

func TestAuth_LoginWrongPassword(t *testing.T) {
	srv := newTestServer(t)
	rec := srv.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{"email": "ivy@planto.shop", "password": "correct-horse"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = srv.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "ivy@planto.shop", "password": "wrong-horse"})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "invalid email or password", env.Error.Message)
}

func TestAuth_RegisterShortPassword(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{"email": "ivy@planto.shop", "password": "short"})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeEnvelope(t, rec).Error.Fields, "password")
}

func TestAuth_MeRequiresToken(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodGet, "/api/auth/me", "", nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_RateLimited(t *testing.T) {
	srv := newTestServer(t, func(d *serverDeps) {
		d.limiter = middleware.NewRateLimiter(0.001, 1, time.Minute)
	})

	first := srv.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "a@b.co", "password": "x"})
	second := srv.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "a@b.co", "password": "x"})

	assert.NotEqual(t, http.StatusTooManyRequests, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}

// ============================================================================
// Cart
// ============================================================================

func TestCart_AnonymousReadIsEmpty(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodGet, "/api/cart", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.JSONEq(t, `{"items":[],"subtotal":0,"totalQty":0}`, string(decodeEnvelope(t, rec).Data))
	assert.Equal(t, 0, srv.sessions.Len())
}

func TestCart_AnonymousMutationIsDenied(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodPost, "/api/cart/items", "", map[string]any{"id": "p1", "name": "Monstera", "price": 10})

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "UNAUTHORIZED", env.Error.Code)
	require.NotNil(t, env.Notification)
	assert.Equal(t, service.MsgCartLoginRequired, env.Notification.Message)
	assert.True(t, env.Notification.IsError)
	assert.Equal(t, int64(4000), env.Notification.DurationMs)
	assert.Equal(t, 0, srv.sessions.Len())
}

func TestCart_InvalidTokenIsAnonymous(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodPost, "/api/cart/items", "not-a-jwt", map[string]any{"id": "p1", "name": "Monstera"})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCart_SignedInFlow(t *testing.T) {
	srv := newTestServer(t)
	tok := srv.token(t, "user-1", domain.RoleCustomer)

	type snapshot struct {
		Items []struct {
			Key      string  `json:"key"`
			Quantity int     `json:"quantity"`
			Price    float64 `json:"price"`
		} `json:"items"`
		Subtotal float64 `json:"subtotal"`
		TotalQty int     `json:"totalQty"`
	}

	rec := srv.do(t, http.MethodPost, "/api/cart/items", tok, map[string]any{
		"id": "p1", "name": "Monstera", "price": 10, "imagePath": "/img/monstera.png", "quantity": 2, "variantKey": "large",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Notification)
	assert.Equal(t, "Monstera added to the cart!", env.Notification.Message)
	assert.False(t, env.Notification.IsError)
	var snap snapshot
	decodeInto(t, env.Data, &snap)
	require.Len(t, snap.Items, 1)
	assert.Equal(t, "p1:large", snap.Items[0].Key)
	assert.Equal(t, 2, snap.TotalQty)
	assert.InDelta(t, 20.0, snap.Subtotal, 1e-9)

	rec = srv.do(t, http.MethodPost, "/api/cart/items/p1:large/increment", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	env = decodeEnvelope(t, rec)
	assert.Nil(t, env.Notification)
	decodeInto(t, env.Data, &snap)
	assert.Equal(t, 3, snap.TotalQty)

	rec = srv.do(t, http.MethodPut, "/api/cart/items/p1:large", tok, `{"quantity":"5 pcs"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeInto(t, decodeEnvelope(t, rec).Data, &snap)
	assert.Equal(t, 5, snap.TotalQty)

	rec = srv.do(t, http.MethodPut, "/api/cart/items/p1:large", tok, `{"quantity":1}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = srv.do(t, http.MethodPost, "/api/cart/items/p1:large/decrement", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	env = decodeEnvelope(t, rec)
	require.NotNil(t, env.Notification)
	assert.Equal(t, "Monstera removed from the cart.", env.Notification.Message)
	decodeInto(t, env.Data, &snap)
	assert.Empty(t, snap.Items)

	rec = srv.do(t, http.MethodGet, "/api/notifications", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var active []notify.Notification
	decodeInto(t, decodeEnvelope(t, rec).Data, &active)
	assert.Len(t, active, 2)
}

func TestCart_RemoveAndClear(t *testing.T) {
	srv := newTestServer(t)
	tok := srv.token(t, "user-1", domain.RoleCustomer)
	srv.do(t, http.MethodPost, "/api/cart/items", tok, map[string]any{"id": "p1", "name": "Monstera", "price": 10})
	srv.do(t, http.MethodPost, "/api/cart/items", tok, map[string]any{"id": "p2", "name": "Pothos", "price": 5})

	rec := srv.do(t, http.MethodDelete, "/api/cart/items/p1", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Notification)
	assert.Equal(t, "Monstera removed from the cart.", env.Notification.Message)

	rec = srv.do(t, http.MethodDelete, "/api/cart", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"items":[],"subtotal":0,"totalQty":0}`, string(decodeEnvelope(t, rec).Data))
}

func TestCart_SetQuantityRequiresValue(t *testing.T) {
	srv := newTestServer(t)
	tok := srv.token(t, "user-1", domain.RoleCustomer)

	rec := srv.do(t, http.MethodPut, "/api/cart/items/p1", tok, `{}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeEnvelope(t, rec).Error.Fields, "quantity")
}

func TestCart_AddCoercesMalformedNumbers(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantQty  int
		wantCost float64
	}{
		{"numeric strings", `{"id":"p1","name":"Monstera","price":"10","quantity":"2"}`, 2, 20},
		{"fractional quantity", `{"id":"p1","name":"Monstera","price":10,"quantity":1.5}`, 1, 10},
		{"unparseable price", `{"id":"p1","name":"Monstera","price":"abc","quantity":3}`, 3, 0},
		{"non-numeric types", `{"id":"p1","name":"Monstera","price":true,"quantity":{"n":2}}`, 1, 0},
		{"null fields", `{"id":"p1","name":"Monstera","price":null,"quantity":null}`, 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t)
			tok := srv.token(t, "user-1", domain.RoleCustomer)

			rec := srv.do(t, http.MethodPost, "/api/cart/items", tok, tt.body)

			require.Equal(t, http.StatusOK, rec.Code)
			var snap struct {
				Subtotal float64 `json:"subtotal"`
				TotalQty int     `json:"totalQty"`
			}
			env := decodeEnvelope(t, rec)
			require.NotNil(t, env.Notification)
			assert.Equal(t, "Monstera added to the cart!", env.Notification.Message)
			decodeInto(t, env.Data, &snap)
			assert.Equal(t, tt.wantQty, snap.TotalQty)
			assert.InDelta(t, tt.wantCost, snap.Subtotal, 1e-9)
		})
	}
}

func TestCart_AnonymousMalformedBodyIsDenied(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name   string
		method string
		target string
		body   string
		want   string
	}{
		{"add", http.MethodPost, "/api/cart/items", `{"id":"a","quantity":`, service.MsgCartLoginRequired},
		{"set quantity", http.MethodPut, "/api/cart/items/a", `not json`, service.MsgCartLoginRequired},
		{"toggle favorite", http.MethodPost, "/api/favorites/toggle", `{"_id":"p1","price":[`, service.MsgFavoritesLoginRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := srv.do(t, tt.method, tt.target, "", tt.body)

			require.Equal(t, http.StatusUnauthorized, rec.Code)
			env := decodeEnvelope(t, rec)
			require.NotNil(t, env.Error)
			assert.Equal(t, "UNAUTHORIZED", env.Error.Code)
			require.NotNil(t, env.Notification)
			assert.Equal(t, tt.want, env.Notification.Message)
		})
	}
	assert.Equal(t, 0, srv.sessions.Len())
}

func TestCart_SetQuantityOverflowSaturates(t *testing.T) {
	srv := newTestServer(t)
	tok := srv.token(t, "user-1", domain.RoleCustomer)
	srv.do(t, http.MethodPost, "/api/cart/items", tok, map[string]any{"id": "p1", "name": "Monstera", "price": 1})

	for _, body := range []string{`{"quantity":"100000000000000000000"}`, `{"quantity":1e20}`} {
		rec := srv.do(t, http.MethodPut, "/api/cart/items/p1", tok, body)
		require.Equal(t, http.StatusOK, rec.Code)
		var snap struct {
			TotalQty int `json:"totalQty"`
		}
		decodeInto(t, decodeEnvelope(t, rec).Data, &snap)
		assert.Equal(t, cart.MaxQuantity, snap.TotalQty, body)
	}
}

func TestFavorites_ToggleCoercesMalformedNumbers(t *testing.T) {
	srv := newTestServer(t)
	tok := srv.token(t, "user-1", domain.RoleCustomer)

	rec := srv.do(t, http.MethodPost, "/api/favorites/toggle", tok, `{"_id":"p1","name":"Fern","price":"x","rating":"4.5"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"items":[{"_id":"p1","name":"Fern","price":0,"imageUrl":"","rating":4.5}],"count":1,"isFavorite":true}`, string(decodeEnvelope(t, rec).Data))
}

func TestQuantity_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{`3`, 3},
		{`2.9`, 2},
		{`-4`, 0},
		{`1e20`, cart.MaxQuantity},
		{`"12"`, 12},
		{`"1a2"`, 12},
		{`"abc"`, 0},
		{`""`, 0},
		{`true`, 0},
		{`[1]`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			var q Quantity
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &q))
			assert.Equal(t, tt.want, int(q))
		})
	}
}

func TestNumber_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
	}{
		{`12.5`, 12.5},
		{`-3`, -3},
		{`"7.25"`, 7.25},
		{`" 4 "`, 4},
		{`"abc"`, 0},
		{`"NaN"`, 0},
		{`"1e400"`, 0},
		{`false`, 0},
		{`{}`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			var n Number
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &n))
			assert.Equal(t, tt.want, float64(n))
		})
	}
}

// ============================================================================
// Favorites and notifications
// ============================================================================

func TestFavorites_ToggleFlow(t *testing.T) {
	srv := newTestServer(t)
	tok := srv.token(t, "user-1", domain.RoleCustomer)
	fern := map[string]any{"_id": "p1", "name": "Fern", "imageUrl": "https://placehold.co/1.png", "rating": 4}

	rec := srv.do(t, http.MethodPost, "/api/favorites/toggle", tok, fern)
	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Notification)
	assert.Equal(t, "Fern added to favorites!", env.Notification.Message)
	assert.JSONEq(t, `{"items":[{"_id":"p1","name":"Fern","imageUrl":"https://placehold.co/1.png","rating":4}],"count":1,"isFavorite":true}`, string(env.Data))

	rec = srv.do(t, http.MethodGet, "/api/favorites/p1", tok, nil)
	assert.JSONEq(t, `{"isFavorite":true}`, string(decodeEnvelope(t, rec).Data))

	rec = srv.do(t, http.MethodPost, "/api/favorites/toggle", tok, fern)
	env = decodeEnvelope(t, rec)
	assert.Equal(t, "Fern removed from favorites!", env.Notification.Message)
	assert.JSONEq(t, `{"items":[],"count":0,"isFavorite":false}`, string(env.Data))
}

func TestFavorites_AnonymousToggleIsDenied(t *testing.T) {
	srv := newTestServer(t)

	rec := srv.do(t, http.MethodPost, "/api/favorites/toggle", "", map[string]any{"_id": "p1", "name": "Fern"})

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Notification)
	assert.Equal(t, service.MsgFavoritesLoginRequired, env.Notification.Message)
}

func TestFavorites_RemoveAndClear(t *testing.T) {
	srv := newTestServer(t)
	tok := srv.token(t, "user-1", domain.RoleCustomer)
	srv.do(t, http.MethodPost, "/api/favorites/toggle", tok, map[string]any{"_id": "p1", "name": "Fern"})
	srv.do(t, http.MethodPost, "/api/favorites/toggle", tok, map[string]any{"_id": "p2", "name": "Ivy"})

	rec := srv.do(t, http.MethodDelete, "/api/favorites/p1", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, "Fern removed from favorites!", env.Notification.Message)

	rec = srv.do(t, http.MethodDelete, "/api/favorites", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"items":[],"count":0}`, string(decodeEnvelope(t, rec).Data))

	rec = srv.do(t, http.MethodGet, "/api/favorites", tok, nil)
	assert.JSONEq(t, `{"items":[],"count":0}`, string(decodeEnvelope(t, rec).Data))
}

func TestNotifications_Dismiss(t *testing.T) {
	srv := newTestServer(t)
	tok := srv.token(t, "user-1", domain.RoleCustomer)
	rec := srv.do(t, http.MethodPost, "/api/favorites/toggle", tok, map[string]any{"_id": "p1", "name": "Fern"})
	n := decodeEnvelope(t, rec).Notification
	require.NotNil(t, n)

	rec = srv.do(t, http.MethodDelete, "/api/notifications/"+n.ID, tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"dismissed":true}`, string(decodeEnvelope(t, rec).Data))

	rec = srv.do(t, http.MethodGet, "/api/notifications", tok, nil)
	assert.JSONEq(t, `[]`, string(decodeEnvelope(t, rec).Data))
}
