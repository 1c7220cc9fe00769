package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const testSecret = "test-secret"

type stubRevocations struct {
	revokedAt time.Time
	revoked   bool
	err       error
}

func (s *stubRevocations) RevokedAt(_ context.Context, _ string) (time.Time, bool, error) {
	return s.revokedAt, s.revoked, s.err
}

func signToken(t *testing.T, username string, issuedAt time.Time) string {
	t.Helper()
	claims := jwt.MapClaims{
		"username":     username,
		"display_name": username,
		"role":         "operator",
		"iat":          issuedAt.Unix(),
		"exp":          issuedAt.Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return token
}

func invoke(t *testing.T, mw echo.MiddlewareFunc, authHeader string) (int, bool) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	err := mw(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})(c)

	if err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) {
			return he.Code, called
		}
		t.Fatalf("unexpected error type: %v", err)
	}
	return rec.Code, called
}

func TestAuth_MissingHeader(t *testing.T) {
	mw := Auth(testSecret, nil)
	code, called := invoke(t, mw, "")
	if code != http.StatusUnauthorized || called {
		t.Fatalf("expected 401 without handler call, got %d (called=%v)", code, called)
	}
}

func TestAuth_MalformedHeader(t *testing.T) {
	mw := Auth(testSecret, nil)
	code, _ := invoke(t, mw, "Token abc")
	if code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", code)
	}
}

func TestAuth_BadSignature(t *testing.T) {
	claims := jwt.MapClaims{"username": "ana", "iat": time.Now().Unix()}
	token, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("other-secret"))

	mw := Auth(testSecret, nil)
	code, _ := invoke(t, mw, "Bearer "+token)
	if code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", code)
	}
}

func TestAuth_ValidTokenPasses(t *testing.T) {
	token := signToken(t, "ana", time.Now())

	mw := Auth(testSecret, &stubRevocations{})
	code, called := invoke(t, mw, "Bearer "+token)
	if code != http.StatusOK || !called {
		t.Fatalf("expected handler to run, got %d (called=%v)", code, called)
	}
}

func TestAuth_TokenIssuedBeforeRevocationRejected(t *testing.T) {
	now := time.Now()
	token := signToken(t, "ana", now.Add(-10*time.Minute))

	mw := Auth(testSecret, &stubRevocations{revokedAt: now, revoked: true})
	code, called := invoke(t, mw, "Bearer "+token)
	if code != http.StatusUnauthorized || called {
		t.Fatalf("stale token must be rejected, got %d (called=%v)", code, called)
	}
}

func TestAuth_TokenIssuedAfterRevocationAccepted(t *testing.T) {
	now := time.Now()
	token := signToken(t, "ana", now.Add(time.Minute))

	mw := Auth(testSecret, &stubRevocations{revokedAt: now, revoked: true})
	code, called := invoke(t, mw, "Bearer "+token)
	if code != http.StatusOK || !called {
		t.Fatalf("re-login token must pass, got %d (called=%v)", code, called)
	}
}

func TestAuth_RevocationStoreUnavailable(t *testing.T) {
	token := signToken(t, "ana", time.Now())

	mw := Auth(testSecret, &stubRevocations{err: errors.New("connection refused")})
	code, called := invoke(t, mw, "Bearer "+token)
	if code != http.StatusServiceUnavailable || called {
		t.Fatalf("expected 503 when the revocation check fails, got %d (called=%v)", code, called)
	}
}
