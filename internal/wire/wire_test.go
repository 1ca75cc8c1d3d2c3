package wire

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gig-booking/internal/data/repository"
	"gig-booking/internal/payment"
	"gig-booking/pkg/metrics"
	"gig-booking/pkg/middleware"
	"gig-booking/pkg/utils"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "wire-test-secret"

func newTestApp() *App {
	config := &utils.Config{
		App: utils.AppConfig{Name: "gig-booking-test", CORSAllowedOrigins: []string{"*"}},
		JWT: utils.JWTConfig{Secret: testSecret},
	}
	return Wiring(&repository.Repository{}, config, payment.NewDisabled(), metrics.New("wire_test"), zap.NewNop())
}

func serve(app *App, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

func TestPublicRoutes(t *testing.T) {
	app := newTestApp()

	rec := serve(app, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())

	rec = serve(app, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAPIRoutesRequireToken(t *testing.T) {
	app := newTestApp()

	for _, path := range []string{"/api/gigs", "/api/bookings", "/api/admin/audit"} {
		rec := serve(app, http.MethodGet, path, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	app := newTestApp()
	claims := middleware.Claims{
		Role: "worker",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uuid.New().String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)

	rec := serve(app, http.MethodGet, "/api/admin/audit", token)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = serve(app, http.MethodPost, "/api/admin/catalog/seed", token)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
