package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RequireRoles admits a principal holding at least one of the named roles.
// With no roles named, any authenticated principal passes. Must run after
// RequireLogin; an unauthenticated request is rejected outright.
func RequireRoles(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p := PrincipalFrom(c)
			if p == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			if len(allowed) == 0 {
				return next(c)
			}
			for _, role := range p.Roles {
				if _, ok := allowed[role]; ok {
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusForbidden, "insufficient role")
		}
	}
}
