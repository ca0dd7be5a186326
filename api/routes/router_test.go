package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/bxgy-bundles-backend/internal/classic"
	pkgAuth "github.com/angelmondragon/bxgy-bundles-backend/pkg/auth"
	"github.com/angelmondragon/bxgy-bundles-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/bxgy-bundles-backend/pkg/errors"
)

type okPinger struct{}

func (okPinger) Ping(context.Context) error { return nil }

type stubClassicService struct {
	bundles []classic.BundleResponse
}

func (s stubClassicService) List(context.Context, string) ([]classic.BundleResponse, error) {
	return s.bundles, nil
}

func (s stubClassicService) Get(context.Context, string, uuid.UUID) (*classic.BundleResponse, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "bundle not found")
}

func (s stubClassicService) Create(context.Context, string, classic.BundleInput) (*classic.BundleResponse, error) {
	return nil, pkgerrors.New(pkgerrors.CodeInternal, "not implemented")
}

func (s stubClassicService) Update(context.Context, string, uuid.UUID, classic.BundleInput) (*classic.BundleResponse, error) {
	return nil, pkgerrors.New(pkgerrors.CodeInternal, "not implemented")
}

func (s stubClassicService) Toggle(context.Context, string, uuid.UUID) (*classic.BundleResponse, error) {
	return nil, pkgerrors.New(pkgerrors.CodeInternal, "not implemented")
}

func (s stubClassicService) Delete(context.Context, string, uuid.UUID) error {
	return pkgerrors.New(pkgerrors.CodeInternal, "not implemented")
}

func routerConfig() *config.Config {
	return &config.Config{
		App:     config.AppConfig{Env: "test"},
		Shopify: config.ShopifyConfig{APIKey: "test-api-key", APISecret: "test-api-secret"},
	}
}

func mintSessionToken(t *testing.T, cfg *config.Config) string {
	t.Helper()
	claims := pkgAuth.SessionClaims{
		Dest: "https://demo.myshopify.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Audience:  jwt.ClaimStrings{cfg.Shopify.APIKey},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.Shopify.APISecret))
	require.NoError(t, err)
	return token
}

func newTestRouter(t *testing.T, cfg *config.Config, svc classic.Service) http.Handler {
	t.Helper()
	reg := prometheus.NewRegistry()
	return NewRouter(cfg, nil, okPinger{}, okPinger{}, reg, svc, nil, nil, nil)
}

func TestRouterHealthEndpointsUnauthenticated(t *testing.T) {
	router := newTestRouter(t, routerConfig(), nil)

	for _, path := range []string{"/health/live", "/health/ready"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestRouterMetricsEndpoint(t *testing.T) {
	router := newTestRouter(t, routerConfig(), nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouterBundlesRequireSessionToken(t *testing.T) {
	router := newTestRouter(t, routerConfig(), stubClassicService{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/bundles/classic", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouterBundlesWithSessionToken(t *testing.T) {
	cfg := routerConfig()
	svc := stubClassicService{bundles: []classic.BundleResponse{{ID: uuid.New(), Name: "Buy 2 Get 1"}}}
	router := newTestRouter(t, cfg, svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/bundles/classic", nil)
	req.Header.Set("Authorization", "Bearer "+mintSessionToken(t, cfg))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Buy 2 Get 1")
}

func TestRouterUnknownRoute(t *testing.T) {
	router := newTestRouter(t, routerConfig(), nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/unknown", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
