package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/hrisapp/hris_backend/internal/logging"
	authmw "github.com/hrisapp/hris_backend/internal/middleware/auth"
	"github.com/hrisapp/hris_backend/internal/models"
	"github.com/hrisapp/hris_backend/internal/util"
)

// AccessUserHandler serves the admin user directory and role assignment.
type AccessUserHandler struct {
	DB *gorm.DB
}

type userListItem struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	FullName    string    `json:"full_name"`
	PhoneNumber *string   `json:"phone_number,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Roles       []string  `json:"roles"`
}

func (h *AccessUserHandler) ListUsers(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, page, limit := util.Calculate(page, limit)
	search := c.QueryParam("search")

	q := h.DB.Model(&models.User{}).Where("deleted_at IS NULL")
	if search != "" {
		q = q.Where("LOWER(full_name) LIKE LOWER(?)", "%"+search+"%")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list users")
	}

	var users []models.User
	if err := q.
		Preload("Roles", "deleted_at IS NULL").
		Preload("Roles.Role").
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&users).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list users")
	}

	data := make([]userListItem, 0, len(users))
	for _, u := range users {
		roles := make([]string, 0, len(u.Roles))
		for _, ur := range u.Roles {
			roles = append(roles, ur.Role.NameRole)
		}
		data = append(data, userListItem{
			ID:          u.ID,
			Email:       u.Email,
			FullName:    u.FullName,
			PhoneNumber: u.PhoneNumber,
			CreatedAt:   u.CreatedAt,
			UpdatedAt:   u.UpdatedAt,
			Roles:       roles,
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"data":       data,
		"pagination": util.BuildMeta(total, page, limit),
	})
}

func (h *AccessUserHandler) AssignRole(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "assign_role")

	var req struct {
		UserID string `json:"user_id"`
		RoleID string `json:"role_id"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if req.UserID == "" || req.RoleID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "user_id and role_id are required")
	}

	var user models.User
	if err := h.DB.Where("id = ?", req.UserID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "User not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to assign role")
	}
	if user.DeletedAt != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Cannot assign role to deleted user")
	}

	var role models.Role
	if err := h.DB.Where("id = ?", req.RoleID).First(&role).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Role not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to assign role")
	}
	if role.DeletedAt != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Cannot assign deleted role")
	}

	var existing models.UserRole
	err := h.DB.
		Where("user_id = ? AND role_id = ? AND deleted_at IS NULL", req.UserID, req.RoleID).
		First(&existing).Error
	if err == nil {
		return echo.NewHTTPError(http.StatusConflict, "User already has this role")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to assign role")
	}

	admin := authmw.PrincipalFrom(c)
	assignment := models.UserRole{
		UserID:          req.UserID,
		RoleID:          req.RoleID,
		CreatedByUserID: admin.ID,
	}
	if err := h.DB.Create(&assignment).Error; err != nil {
		l.Error("assign_role_error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to assign role")
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Role assigned successfully",
	})
}
