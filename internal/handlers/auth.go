package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hrisapp/hris_backend/internal/hrkafka"
	"github.com/hrisapp/hris_backend/internal/logging"
	authmw "github.com/hrisapp/hris_backend/internal/middleware/auth"
	"github.com/hrisapp/hris_backend/internal/service/auth"
)

const RefreshCookieName = "refreshToken"

type AuthHandler struct {
	Svc      *auth.Service
	Producer *hrkafka.Producer
	Secure   bool
}

func CreateCookie(name, value, path string, exp time.Time, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Expires:  exp,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	}
}

func DeleteCookie(name, path string, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     path,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	}
}

func (h *AuthHandler) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_register")

	var req struct {
		Email       string  `json:"email"`
		Password    string  `json:"password"`
		FullName    string  `json:"full_name"`
		PhoneNumber *string `json:"phone_number"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.Email == "" || req.Password == "" || req.FullName == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email, password and full_name are required")
	}

	user, err := h.Svc.Register(ctx, auth.RegisterInput{
		Email:       req.Email,
		Password:    req.Password,
		FullName:    req.FullName,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		if errors.Is(err, auth.ErrEmailTaken) || errors.Is(err, auth.ErrPhoneTaken) {
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		l.Error("register_error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "registration failed")
	}

	publish(c, h.Producer, "user_events", user.ID, map[string]interface{}{
		"type":    "user_registered",
		"user_id": user.ID,
		"email":   user.Email,
	})

	return c.JSON(http.StatusCreated, user)
}

func (h *AuthHandler) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login")

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	res, err := h.Svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials),
			errors.Is(err, auth.ErrNoRole),
			errors.Is(err, auth.ErrInvalidRole):
			return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
		}
		l.Error("login_error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "login failed")
	}

	h.setSessionCookies(c, res)

	publish(c, h.Producer, "user_events", res.User.ID, map[string]interface{}{
		"type":    "user_logged_in",
		"user_id": res.User.ID,
		"email":   res.User.Email,
	})

	return c.JSON(http.StatusOK, echo.Map{
		"message": "Login successful",
		"user":    res.User,
	})
}

func (h *AuthHandler) Refresh(c echo.Context) error {
	ctx := c.Request().Context()

	cookie, err := c.Cookie(RefreshCookieName)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "refresh token not provided")
	}

	res, err := h.Svc.Refresh(ctx, cookie.Value)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidRefresh),
			errors.Is(err, auth.ErrNoRole),
			errors.Is(err, auth.ErrInvalidRole):
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid refresh token")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "refresh failed")
	}

	h.setSessionCookies(c, res)

	return c.JSON(http.StatusOK, echo.Map{
		"message": "Token refreshed successfully",
		"user":    res.User,
	})
}

func (h *AuthHandler) LogOut(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "auth_logout")

	// no revocation store: clearing the cookies is the whole operation and
	// an already-issued token stays valid until its natural expiry
	c.SetCookie(DeleteCookie(authmw.AccessCookieName, "/", h.Secure))
	c.SetCookie(DeleteCookie(RefreshCookieName, "/", h.Secure))

	l.Info("logout_successful")
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Logout successful",
	})
}

func (h *AuthHandler) Me(c echo.Context) error {
	p := authmw.PrincipalFrom(c)
	if p == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	return c.JSON(http.StatusOK, p)
}

func (h *AuthHandler) setSessionCookies(c echo.Context, res *auth.SessionResult) {
	c.SetCookie(CreateCookie(authmw.AccessCookieName, res.AccessToken, "/", res.AccessExp, h.Secure))
	c.SetCookie(CreateCookie(RefreshCookieName, res.RefreshToken, "/", res.RefreshExp, h.Secure))
}

