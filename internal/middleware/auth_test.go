package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/salamjillani/mauritius-property-hub/internal/config"
	"github.com/salamjillani/mauritius-property-hub/internal/domain/user"
	"github.com/salamjillani/mauritius-property-hub/internal/service"
)

const testSecret = "middleware-test-secret-key"

func testAuthService() *service.AuthService {
	cfg := config.Auth{
		JWTSecret:         testSecret,
		AccessTokenExpiry: 15 * time.Minute,
		BcryptCost:        4,
	}
	// Token validation never touches the store.
	return service.NewAuthService(nil, &cfg)
}

func signTestToken(t *testing.T, subject string, role user.Role, expiry time.Duration) string {
	t.Helper()
	now := time.Now()
	claims := service.Claims{
		Email: subject + "@example.com",
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestAuthAnonymousPassThrough(t *testing.T) {
	var seen *user.User
	called := false
	handler := Auth(testAuthService())(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		called = true
		seen = UserFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", http.NoBody))

	if !called {
		t.Fatal("handler not called for anonymous request")
	}
	if seen != nil {
		t.Errorf("anonymous request carried a user: %+v", seen)
	}
}

func TestAuthValidToken(t *testing.T) {
	var seen *user.User
	handler := Auth(testAuthService())(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = UserFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	req.Header.Set("Authorization", "Bearer "+signTestToken(t, "u1", user.RoleAgent, 15*time.Minute))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if seen == nil {
		t.Fatal("no user injected for valid token")
	}
	if seen.ID != "u1" || seen.Role != user.RoleAgent {
		t.Errorf("user = %+v, want u1/agent", seen)
	}
}

func TestAuthMalformedHeader(t *testing.T) {
	handler := Auth(testAuthService())(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		t.Error("handler called for malformed header")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestAuthExpiredToken(t *testing.T) {
	handler := Auth(testAuthService())(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		t.Error("handler called for expired token")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	req.Header.Set("Authorization", "Bearer "+signTestToken(t, "u1", user.RoleAgent, -time.Minute))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestRequireAuth(t *testing.T) {
	handler := RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// Anonymous is rejected.
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", http.NoBody))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous: status = %d, want 401", rec.Code)
	}

	// Authenticated passes.
	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	req = req.WithContext(WithUser(req.Context(), &user.User{ID: "u1", Role: user.RoleIndividual}))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("authenticated: status = %d, want 200", rec.Code)
	}
}
