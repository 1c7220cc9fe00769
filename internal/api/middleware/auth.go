package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// RevocationChecker reports whether a principal's sessions were revoked, and
// when. Tokens issued at or before that instant are no longer accepted.
type RevocationChecker interface {
	RevokedAt(ctx context.Context, username string) (time.Time, bool, error)
}

// Auth validates the JWT, rejects tokens invalidated by a session revocation,
// and injects claims into context.
func Auth(jwtSecret string, revocations RevocationChecker) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			claims := jwt.MapClaims{}
			tkn, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
				if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
					return nil, jwt.ErrTokenSignatureInvalid
				}
				return []byte(jwtSecret), nil
			})
			if err != nil || !tkn.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			username, _ := claims["username"].(string)
			if revocations != nil {
				revokedAt, revoked, err := revocations.RevokedAt(c.Request().Context(), username)
				if err != nil {
					return echo.NewHTTPError(http.StatusServiceUnavailable, "session check unavailable")
				}
				if revoked {
					iat, _ := claims["iat"].(float64)
					if int64(iat) <= revokedAt.Unix() {
						return echo.NewHTTPError(http.StatusUnauthorized, "session revoked")
					}
				}
			}

			c.Set("username", claims["username"])
			c.Set("display_name", claims["display_name"])
			c.Set("role", claims["role"])

			return next(c)
		}
	}
}
