package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaradmin/jar-backend/internal/education"
	pkgAuth "github.com/jaradmin/jar-backend/pkg/auth"
	"github.com/jaradmin/jar-backend/pkg/config"
	"github.com/jaradmin/jar-backend/pkg/enums"
	"github.com/jaradmin/jar-backend/pkg/logger"
)

type allowSessions struct{}

func (allowSessions) HasSession(ctx context.Context, accessID string) (bool, error) {
	return true, nil
}

type stubEducation struct {
	education.Service
	lastParams education.ListPostsParams
}

func (s *stubEducation) ListNews(ctx context.Context, params education.ListPostsParams) (*education.NewsListResult, error) {
	s.lastParams = params
	return &education.NewsListResult{}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test"},
		JWT: config.JWTConfig{
			Secret:            "router-test-secret",
			Issuer:            "jar-test",
			ExpirationMinutes: 15,
		},
	}
}

func testRouter(t *testing.T, svcs Services) http.Handler {
	t.Helper()
	cfg := testConfig()
	logg := logger.New(logger.Options{ServiceName: "router-test"})
	return NewRouter(cfg, logg, nil, nil, allowSessions{}, nil, svcs)
}

func mintToken(t *testing.T, role enums.Role) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(testConfig().JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID:       uuid.New(),
		Role:         role,
		Capabilities: enums.CapabilitiesForRole(role),
		JTI:          uuid.NewString(),
	})
	require.NoError(t, err)
	return token
}

func TestHealthzServesWithoutAuth(t *testing.T) {
	router := testRouter(t, Services{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "test", rec.Header().Get("X-JAR-Env"))
}

func TestProtectedRoutesRejectMissingToken(t *testing.T) {
	router := testRouter(t, Services{})

	paths := []string{
		"/api/v1/users/me",
		"/api/v1/matches",
		"/api/v1/notifications",
	}
	for _, path := range paths {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)

		var envelope map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope), path)
		assert.Equal(t, false, envelope["success"], path)
	}
}

func TestCapabilityGateBlocksReferee(t *testing.T) {
	router := testRouter(t, Services{})
	token := mintToken(t, enums.RoleReferee)

	cases := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/users"},
		{http.MethodPost, "/api/v1/matches"},
		{http.MethodGet, "/api/v1/declarations"},
		{http.MethodGet, "/api/v1/audit"},
		{http.MethodPost, "/api/v1/news"},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, strings.NewReader("{}"))
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code, tc.path)
	}
}

func TestAdminRoleRequiredForSettings(t *testing.T) {
	router := testRouter(t, Services{})

	// JT admin holds user_admin but settings stay role-gated.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/settings", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, enums.RoleJTAdmin))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestPublicNewsNeedsNoSession(t *testing.T) {
	stub := &stubEducation{}
	router := testRouter(t, Services{Education: stub})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/public/news", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, stub.lastParams.PublishedOnly)
}

func TestInvalidTokenRejected(t *testing.T) {
	router := testRouter(t, Services{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
