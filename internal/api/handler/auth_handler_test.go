package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/clubpedal/members-system/internal/core/domain"
	"github.com/clubpedal/members-system/internal/session"
)

type stubAuthFns struct {
	registerFn func(ctx context.Context, username, password, displayName, email, role string) (*domain.User, error)
	loginFn    func(ctx context.Context, username, password string) (string, *domain.User, error)
}

func (s *stubAuthFns) Register(ctx context.Context, username, password, displayName, email, role string) (*domain.User, error) {
	return s.registerFn(ctx, username, password, displayName, email, role)
}

func (s *stubAuthFns) Login(ctx context.Context, username, password string) (string, *domain.User, error) {
	return s.loginFn(ctx, username, password)
}

func newTestRegistry() *session.Registry {
	return session.NewRegistry(time.Hour, session.NewScheduler(), nil, zerolog.Nop())
}

func TestAuthHandler_Register_Success(t *testing.T) {
	e := echo.New()
	stub := &stubAuthFns{
		registerFn: func(_ context.Context, username, _, displayName, _, role string) (*domain.User, error) {
			if username != "ana" || role != domain.RoleOperator {
				t.Fatalf("unexpected args: %s %s", username, role)
			}
			return &domain.User{Username: username, DisplayName: displayName, Role: role}, nil
		},
	}
	h := NewAuthHandler(stub, newTestRegistry())

	body := strings.NewReader(`{"username":"ana","password":"secret","display_name":"Ana R","role":"operator"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/register", body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	user, ok := resp["user"].(map[string]any)
	if !ok || user["username"] != "ana" {
		t.Fatalf("unexpected user payload: %+v", resp)
	}
}

func TestAuthHandler_Register_InvalidPayload(t *testing.T) {
	e := echo.New()
	stub := &stubAuthFns{
		registerFn: func(context.Context, string, string, string, string, string) (*domain.User, error) {
			t.Fatal("should not be called")
			return nil, nil
		},
	}
	h := NewAuthHandler(stub, newTestRegistry())

	req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader("not-json"))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.Register(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestAuthHandler_Login_AttachesMonitor(t *testing.T) {
	e := echo.New()
	registry := newTestRegistry()
	stub := &stubAuthFns{
		loginFn: func(_ context.Context, username, password string) (string, *domain.User, error) {
			if username != "ana" || password != "secret" {
				t.Fatalf("unexpected args: %s %s", username, password)
			}
			return "token123", &domain.User{Username: "ana", Role: domain.RoleAdmin}, nil
		},
	}
	h := NewAuthHandler(stub, registry)

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"username":"ana","password":"secret"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	defer registry.Stop("ana")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["token"] != "token123" {
		t.Fatalf("expected token, got %v", resp["token"])
	}

	// Login is the authentication-became-true transition.
	m, ok := registry.Get("ana")
	if !ok {
		t.Fatal("login must attach an inactivity monitor")
	}
	if st := m.State(); st.Phase != session.PhaseRunning {
		t.Fatalf("expected running monitor, got %s", st.Phase)
	}
}

func TestAuthHandler_Login_UnknownUserIndistinguishable(t *testing.T) {
	e := echo.New()
	registry := newTestRegistry()
	stub := &stubAuthFns{
		loginFn: func(context.Context, string, string) (string, *domain.User, error) {
			return "", nil, domain.ErrUserNotFound
		},
	}
	h := NewAuthHandler(stub, registry)

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"username":"ghost","password":"pwd"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	// Unknown user and wrong password must look the same to the caller.
	if err := h.Login(c); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if registry.Count() != 0 {
		t.Error("failed login must not attach a monitor")
	}
}
