package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ctxPrincipal extracts the auth claims injected by the Auth middleware and
// performs a fast-fail check before any service call: username must be
// non-empty (presence proves the middleware ran). The returned actor is the
// display name stamped into audit entries, falling back to the username.
func ctxPrincipal(c echo.Context) (username, actor string, err error) {
	username, _ = c.Get("username").(string)
	if username == "" {
		return "", "", echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}

	actor, _ = c.Get("display_name").(string)
	if actor == "" {
		actor = username
	}
	return username, actor, nil
}
