package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/hrisapp/hris_backend/internal/hash"
	authmw "github.com/hrisapp/hris_backend/internal/middleware/auth"
	"github.com/hrisapp/hris_backend/internal/models"
	authsvc "github.com/hrisapp/hris_backend/internal/service/auth"
	"github.com/hrisapp/hris_backend/internal/service/token"
)

type testEnv struct {
	T      *testing.T
	E      *echo.Echo
	DB     *gorm.DB
	Tokens *token.Service

	Auth     *AuthHandler
	Users    *AccessUserHandler
	EmpLeave *EmployeeLeaveHandler
	HRLeave  *HRLeaveHandler
	HRAnn    *HRAnnouncementHandler
	EmpAnn   *EmployeeAnnouncementHandler
}

func initTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Role{},
		&models.UserRole{},
		&models.Leave{},
		&models.Announcement{},
	); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}
	return db
}

func newTestEnv(t *testing.T) *testEnv {
	db := initTestDB(t)
	tokens := token.NewService([]byte("access-secret"), []byte("refresh-secret"))

	env := &testEnv{
		T:      t,
		E:      echo.New(),
		DB:     db,
		Tokens: tokens,
		Auth: &AuthHandler{
			Svc: &authsvc.Service{DB: db, Tokens: tokens},
		},
		Users:    &AccessUserHandler{DB: db},
		EmpLeave: &EmployeeLeaveHandler{DB: db, UploadDir: t.TempDir()},
		HRLeave:  &HRLeaveHandler{DB: db},
		HRAnn:    &HRAnnouncementHandler{DB: db},
		EmpAnn:   &EmployeeAnnouncementHandler{DB: db},
	}

	requireLogin := authmw.RequireLogin(tokens)

	v1 := env.E.Group("/api/v1")
	v1.POST("/auth/register", env.Auth.Register)
	v1.POST("/auth/login", env.Auth.Login)
	v1.POST("/auth/refresh", env.Auth.Refresh)
	v1.POST("/auth/logout", env.Auth.LogOut, requireLogin)
	v1.GET("/auth/me", env.Auth.Me, requireLogin)

	admin := v1.Group("/admin/access-user", requireLogin, authmw.RequireRoles("admin"))
	admin.GET("", env.Users.ListUsers)
	admin.POST("/assign-role", env.Users.AssignRole)

	empLeave := v1.Group("/employee/leave", requireLogin, authmw.RequireRoles("employee", "hr", "admin"))
	empLeave.POST("", env.EmpLeave.Create)
	empLeave.GET("/list", env.EmpLeave.ListMine)
	empLeave.GET("/:id", env.EmpLeave.Detail)

	empAnn := v1.Group("/employee/announcement", requireLogin, authmw.RequireRoles("employee", "hr", "admin"))
	empAnn.GET("/list", env.EmpAnn.List)
	empAnn.GET("/:id", env.EmpAnn.Detail)

	hrLeave := v1.Group("/hr/leave", requireLogin, authmw.RequireRoles("hr", "admin"))
	hrLeave.GET("/list", env.HRLeave.ListAll)
	hrLeave.GET("/:id", env.HRLeave.Detail)
	hrLeave.PATCH("/:id/status", env.HRLeave.UpdateStatus)

	hrAnn := v1.Group("/hr/announcement", requireLogin, authmw.RequireRoles("hr", "admin"))
	hrAnn.POST("", env.HRAnn.Create)
	hrAnn.GET("/list", env.HRAnn.List)
	hrAnn.GET("/:id", env.HRAnn.Detail)
	hrAnn.PATCH("/:id", env.HRAnn.Update)
	hrAnn.DELETE("/:id", env.HRAnn.Delete)

	return env
}

func (env *testEnv) seedUser(email, password string, roleNames ...string) models.User {
	digest, err := hash.HashPassword(password)
	require.NoError(env.T, err)

	user := models.User{Email: email, PasswordHash: digest, FullName: "User " + email}
	require.NoError(env.T, env.DB.Create(&user).Error)

	for _, name := range roleNames {
		var role models.Role
		err := env.DB.Where("name_role = ?", name).First(&role).Error
		if err != nil {
			role = models.Role{NameRole: name}
			require.NoError(env.T, env.DB.Create(&role).Error)
		}
		require.NoError(env.T, env.DB.Create(&models.UserRole{
			UserID: user.ID, RoleID: role.ID, CreatedByUserID: "seed",
		}).Error)
	}
	return user
}

func (env *testEnv) doJSON(method, path string, payload interface{}, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(env.T, err)
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	env.E.ServeHTTP(rec, req)
	return rec
}

func (env *testEnv) login(email, password string) []*http.Cookie {
	rec := env.doJSON(http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email": email, "password": password,
	})
	require.Equal(env.T, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(env.T, cookies, 2)
	return cookies
}

func mustDate(t *testing.T, s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	require.NoError(t, err)
	return d
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}
