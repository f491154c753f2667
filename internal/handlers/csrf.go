package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hrisapp/hris_backend/internal/middleware/csrf"
)

type CSRFHandler struct {
	Cfg csrf.Config
}

// GetToken mints a fresh CSRF token and hands it to the client, which must
// echo it back in the X-CSRF-Token header on state-changing calls.
func (h *CSRFHandler) GetToken(c echo.Context) error {
	token, err := csrf.GenerateToken(h.Cfg, c)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create CSRF token")
	}
	return c.JSON(http.StatusOK, echo.Map{"csrfToken": token})
}
