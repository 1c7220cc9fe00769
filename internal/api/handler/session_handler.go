package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clubpedal/members-system/internal/session"
)

// SessionRevoker invalidates all of a principal's outstanding tokens.
type SessionRevoker interface {
	Revoke(ctx context.Context, username string) error
}

// SessionHandler exposes the inactivity monitor to the presentation layer:
// the observable {phase, seconds_remaining} snapshot plus the activity,
// stay-logged-in, and logout signals.
type SessionHandler struct {
	sessions *session.Registry
	revoker  SessionRevoker
}

func NewSessionHandler(sessions *session.Registry, revoker SessionRevoker) *SessionHandler {
	return &SessionHandler{sessions: sessions, revoker: revoker}
}

// State handles GET /v1/session — the snapshot the warning dialog renders.
//
// @Summary      Current session phase and countdown
// @Tags         session
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  session.State
// @Router       /v1/session [get]
func (h *SessionHandler) State(c echo.Context) error {
	username, _, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	m, ok := h.sessions.Get(username)
	if !ok {
		return c.JSON(http.StatusOK, session.State{Phase: session.PhaseIdle})
	}
	return c.JSON(http.StatusOK, m.State())
}

// Activity handles POST /v1/session/activity — a coalesced user-activity
// signal; deadlines end up measured from the most recent one.
//
// @Summary      Report user activity
// @Tags         session
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  session.State
// @Router       /v1/session/activity [post]
func (h *SessionHandler) Activity(c echo.Context) error {
	username, _, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	m, ok := h.sessions.Get(username)
	if !ok {
		return c.JSON(http.StatusOK, session.State{Phase: session.PhaseIdle})
	}
	m.OnActivity()
	return c.JSON(http.StatusOK, m.State())
}

// Reset handles POST /v1/session/reset — an explicit re-arm of both
// deadlines from now.
//
// @Summary      Reset the inactivity timers
// @Tags         session
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  session.State
// @Router       /v1/session/reset [post]
func (h *SessionHandler) Reset(c echo.Context) error {
	username, _, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	m, ok := h.sessions.Get(username)
	if !ok {
		return c.JSON(http.StatusOK, session.State{Phase: session.PhaseIdle})
	}
	m.Reset()
	return c.JSON(http.StatusOK, m.State())
}

// Stay handles POST /v1/session/stay — the "stay logged in" action on the
// warning dialog.
//
// @Summary      Dismiss the expiry warning
// @Tags         session
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  session.State
// @Router       /v1/session/stay [post]
func (h *SessionHandler) Stay(c echo.Context) error {
	username, _, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	m, ok := h.sessions.Get(username)
	if !ok {
		return c.JSON(http.StatusOK, session.State{Phase: session.PhaseIdle})
	}
	m.StayLoggedIn()
	return c.JSON(http.StatusOK, m.State())
}

// Logout handles POST /v1/session/logout — immediate forced logout,
// bypassing any remaining countdown. The monitor's logout hook revokes the
// principal's tokens and detaches the monitor.
//
// @Summary      Log out now
// @Tags         session
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  session.State
// @Router       /v1/session/logout [post]
func (h *SessionHandler) Logout(c echo.Context) error {
	username, _, err := ctxPrincipal(c)
	if err != nil {
		return err
	}

	if m, ok := h.sessions.Get(username); ok {
		m.LogoutNow()
	} else if h.revoker != nil {
		// No monitor attached (e.g. after a restart): revoke directly.
		if err := h.revoker.Revoke(c.Request().Context(), username); err != nil {
			return err
		}
	}
	return c.JSON(http.StatusOK, session.State{Phase: session.PhaseIdle})
}
