package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/hrisapp/hris_backend/internal/service/token"
)

const AccessCookieName = "accessToken"

// RequireLogin verifies the request's access token and attaches the decoded
// principal to the echo context. A bearer Authorization header is preferred;
// when absent, the access cookie is promoted into one so downstream code
// only ever sees the header form.
func RequireLogin(ts *token.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := bearerToken(c.Request())
			if raw == "" {
				cookie, err := c.Cookie(AccessCookieName)
				if err != nil {
					return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
				}
				raw = cookie.Value
				c.Request().Header.Set(echo.HeaderAuthorization, "Bearer "+raw)
			}

			p, err := ts.ParseAccessToken(raw)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}

			setPrincipal(c, p)
			return next(c)
		}
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get(echo.HeaderAuthorization)
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}
