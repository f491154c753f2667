package csrf

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

// Double-submit CSRF: the token lives in a cookie and must be echoed back in
// a request header on every state-changing call. The token itself is an HMAC
// over the caller's session identifier plus a random value, so a token
// minted for one caller cannot be replayed by another. With no richer
// session concept the identifier is the client network address.

type Config struct {
	Secret []byte

	CookieName string
	HeaderName string

	CookiePath string
	Secure     bool
	SameSite   http.SameSite
	MaxAge     time.Duration

	SkipPaths []string
}

func DefaultConfig(secret []byte) Config {
	return Config{
		Secret:     secret,
		CookieName: "_csrf",
		HeaderName: "X-CSRF-Token",
		CookiePath: "/",
		SameSite:   http.SameSiteStrictMode,
		MaxAge:     24 * time.Hour,
	}
}

func Middleware(cfg Config) echo.MiddlewareFunc {
	def := DefaultConfig(cfg.Secret)
	if cfg.CookieName == "" {
		cfg.CookieName = def.CookieName
	}
	if cfg.HeaderName == "" {
		cfg.HeaderName = def.HeaderName
	}
	if cfg.CookiePath == "" {
		cfg.CookiePath = def.CookiePath
	}
	if cfg.SameSite == 0 {
		cfg.SameSite = def.SameSite
	}
	if cfg.MaxAge == 0 {
		cfg.MaxAge = def.MaxAge
	}

	skip := map[string]struct{}{}
	for _, p := range cfg.SkipPaths {
		skip[p] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			if _, ok := skip[req.URL.Path]; ok {
				return next(c)
			}

			method := strings.ToUpper(req.Method)
			if method == http.MethodGet || method == http.MethodHead || method == http.MethodOptions {
				return next(c)
			}

			cookie := readCookie(req, cfg.CookieName)
			if cookie == "" {
				return echo.NewHTTPError(http.StatusForbidden, "missing CSRF token")
			}
			if !validToken(cfg, sessionIdentifier(c), cookie) {
				return echo.NewHTTPError(http.StatusForbidden, "invalid CSRF token")
			}
			provided := req.Header.Get(cfg.HeaderName)
			if !secureCompare(cookie, provided) {
				return echo.NewHTTPError(http.StatusForbidden, "invalid CSRF token")
			}

			return next(c)
		}
	}
}

// GenerateToken mints a fresh token bound to the caller and sets the cookie.
func GenerateToken(cfg Config, c echo.Context) (string, error) {
	def := DefaultConfig(cfg.Secret)
	if cfg.CookieName == "" {
		cfg.CookieName = def.CookieName
	}
	if cfg.CookiePath == "" {
		cfg.CookiePath = def.CookiePath
	}
	if cfg.SameSite == 0 {
		cfg.SameSite = def.SameSite
	}
	if cfg.MaxAge == 0 {
		cfg.MaxAge = def.MaxAge
	}

	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	random := base64.RawURLEncoding.EncodeToString(b)
	token := sign(cfg.Secret, sessionIdentifier(c), random) + "." + random

	c.SetCookie(&http.Cookie{
		Name:     cfg.CookieName,
		Value:    token,
		Path:     cfg.CookiePath,
		Secure:   cfg.Secure,
		HttpOnly: true,
		MaxAge:   int(cfg.MaxAge.Seconds()),
		SameSite: cfg.SameSite,
	})

	return token, nil
}

func validToken(cfg Config, session, token string) bool {
	mac, random, ok := strings.Cut(token, ".")
	if !ok {
		return false
	}
	return secureCompare(mac, sign(cfg.Secret, session, random))
}

func sign(secret []byte, session, random string) string {
	h := hmac.New(sha256.New, secret)
	h.Write([]byte(session + "!" + random))
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}

func sessionIdentifier(c echo.Context) string {
	if ip := c.RealIP(); ip != "" {
		return ip
	}
	return "unknown-ip"
}

func readCookie(req *http.Request, name string) string {
	ck, err := req.Cookie(name)
	if err != nil {
		return ""
	}
	return ck.Value
}

func secureCompare(a, b string) bool {
	if len(a) == 0 || len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
