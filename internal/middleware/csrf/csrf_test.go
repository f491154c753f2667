package csrf

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

func newCSRFEcho(cfg Config) *echo.Echo {
	e := echo.New()
	e.Use(Middleware(cfg))
	e.GET("/token", func(c echo.Context) error {
		token, err := GenerateToken(cfg, c)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, echo.Map{"csrfToken": token})
	})
	e.POST("/mutate", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"ok": true})
	})
	return e
}

func fetchToken(t *testing.T, e *echo.Echo) (string, *http.Cookie) {
	req := httptest.NewRequest(http.MethodGet, "/token", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var cookie *http.Cookie
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == "_csrf" {
			cookie = ck
		}
	}
	require.NotNil(t, cookie, "expected _csrf cookie")
	return cookie.Value, cookie
}

func TestStateChangingRequestWithoutHeaderRejected(t *testing.T) {
	e := newCSRFEcho(DefaultConfig([]byte("csrf-secret")))
	_, cookie := fetchToken(t, e)

	req := httptest.NewRequest(http.MethodPost, "/mutate", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestStateChangingRequestWithoutCookieRejected(t *testing.T) {
	e := newCSRFEcho(DefaultConfig([]byte("csrf-secret")))

	req := httptest.NewRequest(http.MethodPost, "/mutate", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestMatchingHeaderAdmitsRequest(t *testing.T) {
	e := newCSRFEcho(DefaultConfig([]byte("csrf-secret")))
	token, cookie := fetchToken(t, e)

	req := httptest.NewRequest(http.MethodPost, "/mutate", nil)
	req.AddCookie(cookie)
	req.Header.Set("X-CSRF-Token", token)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestForgedTokenRejected(t *testing.T) {
	e := newCSRFEcho(DefaultConfig([]byte("csrf-secret")))

	forged := "bm90LXRoZS1tYWM.bm90LXRoZS1yYW5k"
	req := httptest.NewRequest(http.MethodPost, "/mutate", nil)
	req.AddCookie(&http.Cookie{Name: "_csrf", Value: forged})
	req.Header.Set("X-CSRF-Token", forged)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestSafeMethodsSkipEnforcement(t *testing.T) {
	e := newCSRFEcho(DefaultConfig([]byte("csrf-secret")))
	e.GET("/read", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/read", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestSkipPaths(t *testing.T) {
	cfg := DefaultConfig([]byte("csrf-secret"))
	cfg.SkipPaths = []string{"/mutate"}
	e := newCSRFEcho(cfg)

	req := httptest.NewRequest(http.MethodPost, "/mutate", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}
