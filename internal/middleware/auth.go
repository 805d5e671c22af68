package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/amirkenesbay/auth-service/internal/tokens"
)

type RequireAuthMiddleware struct {
	JWTSecret []byte
}

func NewRequireAuth(secret []byte) *RequireAuthMiddleware {
	return &RequireAuthMiddleware{JWTSecret: secret}
}

func (m *RequireAuthMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
		}

		claims, err := tokens.AccessClaimsFromToken(raw, m.JWTSecret)
		if err != nil || claims == nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
		}

		c.Set("user_id", claims.Subject)
		c.Set("role", claims.Role)

		return next(c)
	}
}
