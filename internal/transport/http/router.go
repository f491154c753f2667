package httpserver

import (
	"github.com/labstack/echo/v4"

	"github.com/hrisapp/hris_backend/internal/handlers"
	authmw "github.com/hrisapp/hris_backend/internal/middleware/auth"
	"github.com/hrisapp/hris_backend/internal/service/token"
)

type Deps struct {
	Tokens *token.Service

	AuthHandler          *handlers.AuthHandler
	CSRFHandler          *handlers.CSRFHandler
	AccessUserHandler    *handlers.AccessUserHandler
	EmployeeLeave        *handlers.EmployeeLeaveHandler
	HRLeave              *handlers.HRLeaveHandler
	HRAnnouncement       *handlers.HRAnnouncementHandler
	EmployeeAnnouncement *handlers.EmployeeAnnouncementHandler
	SearchHandler        *handlers.SearchHandler
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	v1 := e.Group("/api/v1")

	requireLogin := authmw.RequireLogin(d.Tokens)

	authGroup := v1.Group("/auth")
	authGroup.POST("/register", d.AuthHandler.Register)
	authGroup.POST("/login", d.AuthHandler.Login)
	authGroup.POST("/refresh", d.AuthHandler.Refresh)
	authGroup.POST("/logout", d.AuthHandler.LogOut, requireLogin)
	authGroup.GET("/me", d.AuthHandler.Me, requireLogin)
	authGroup.GET("/csrf/token", d.CSRFHandler.GetToken)

	admin := v1.Group("/admin/access-user", requireLogin, authmw.RequireRoles("admin"))
	admin.GET("", d.AccessUserHandler.ListUsers)
	admin.POST("/assign-role", d.AccessUserHandler.AssignRole)

	empLeave := v1.Group("/employee/leave", requireLogin, authmw.RequireRoles("employee", "hr", "admin"))
	empLeave.POST("", d.EmployeeLeave.Create)
	empLeave.GET("/list", d.EmployeeLeave.ListMine)
	empLeave.GET("/:id", d.EmployeeLeave.Detail)

	empAnn := v1.Group("/employee/announcement", requireLogin, authmw.RequireRoles("employee", "hr", "admin"))
	empAnn.GET("/list", d.EmployeeAnnouncement.List)
	empAnn.GET("/:id", d.EmployeeAnnouncement.Detail)

	hrLeave := v1.Group("/hr/leave", requireLogin, authmw.RequireRoles("hr", "admin"))
	hrLeave.GET("/list", d.HRLeave.ListAll)
	hrLeave.GET("/:id", d.HRLeave.Detail)
	hrLeave.PATCH("/:id/status", d.HRLeave.UpdateStatus)

	hrAnn := v1.Group("/hr/announcement", requireLogin, authmw.RequireRoles("hr", "admin"))
	hrAnn.POST("", d.HRAnnouncement.Create)
	hrAnn.GET("/list", d.HRAnnouncement.List)
	hrAnn.GET("/:id", d.HRAnnouncement.Detail)
	hrAnn.PATCH("/:id", d.HRAnnouncement.Update)
	hrAnn.DELETE("/:id", d.HRAnnouncement.Delete)

	searchGroup := v1.Group("/search", requireLogin, authmw.RequireRoles())
	searchGroup.GET("/announcements", d.SearchHandler.Announcements)
}
