package auth

import (
	"github.com/labstack/echo/v4"

	"github.com/hrisapp/hris_backend/internal/service/token"
)

const principalKey = "principal"

func setPrincipal(c echo.Context, p *token.Principal) {
	c.Set(principalKey, p)
}

// PrincipalFrom returns the authenticated principal or nil when the request
// never passed RequireLogin.
func PrincipalFrom(c echo.Context) *token.Principal {
	if v, ok := c.Get(principalKey).(*token.Principal); ok {
		return v
	}
	return nil
}
