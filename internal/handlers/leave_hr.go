package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/hrisapp/hris_backend/internal/hrkafka"
	"github.com/hrisapp/hris_backend/internal/logging"
	authmw "github.com/hrisapp/hris_backend/internal/middleware/auth"
	"github.com/hrisapp/hris_backend/internal/models"
	"github.com/hrisapp/hris_backend/internal/util"
)

var validLeaveStatuses = []string{
	models.LeaveStatusPending,
	models.LeaveStatusApproved,
	models.LeaveStatusRejected,
	models.LeaveStatusUnderReview,
}

// HRLeaveHandler is the review side of the leave workflow.
type HRLeaveHandler struct {
	DB       *gorm.DB
	Producer *hrkafka.Producer
}

type hrLeaveItem struct {
	ID           string    `json:"id"`
	LeaveType    string    `json:"leave_type"`
	LeaveStatus  string    `json:"leave_status"`
	FromDate     time.Time `json:"from_date"`
	UntilDate    time.Time `json:"until_date"`
	Note         string    `json:"note"`
	FileURL      *string   `json:"file_url,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	EmployeeName string    `json:"employee_name"`
	HRName       *string   `json:"hr_name,omitempty"`
}

func (h *HRLeaveHandler) ListAll(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, page, limit := util.Calculate(page, limit)

	q := h.DB.Model(&models.Leave{}).Where("leaves.deleted_at IS NULL")
	if status := c.QueryParam("status"); status != "" {
		q = q.Where("leave_status = ?", strings.ToUpper(status))
	}
	if fullName := c.QueryParam("full_name"); fullName != "" {
		q = q.Joins("JOIN users ON users.id = leaves.user_employee_id").
			Where("LOWER(users.full_name) LIKE LOWER(?)", "%"+fullName+"%")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list leaves")
	}

	var leaves []models.Leave
	if err := q.
		Preload("Employee").
		Preload("HR").
		Order("leaves.created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&leaves).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list leaves")
	}

	data := make([]hrLeaveItem, 0, len(leaves))
	for _, lv := range leaves {
		data = append(data, toHRLeaveItem(lv))
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": "All leaves retrieved successfully",
		"data":    data,
		"meta":    util.BuildMeta(total, page, limit),
	})
}

// Detail returns one leave request; reading a PENDING request marks it
// UNDER_REVIEW so employees can see it was picked up.
func (h *HRLeaveHandler) Detail(c echo.Context) error {
	var leave models.Leave
	err := h.DB.
		Preload("Employee").
		Preload("HR").
		Where("id = ? AND deleted_at IS NULL", c.Param("id")).
		First(&leave).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Leave request not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load leave")
	}

	if leave.LeaveStatus == models.LeaveStatusPending {
		if err := h.DB.Model(&models.Leave{}).
			Where("id = ?", leave.ID).
			Update("leave_status", models.LeaveStatusUnderReview).Error; err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to update leave status")
		}
		leave.LeaveStatus = models.LeaveStatusUnderReview
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": "Leave detail retrieved successfully",
		"data":    toHRLeaveItem(leave),
	})
}

func (h *HRLeaveHandler) UpdateStatus(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "leave_update_status")
	p := authmw.PrincipalFrom(c)

	var req struct {
		LeaveStatus string `json:"leave_status"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	newStatus := strings.ToUpper(req.LeaveStatus)
	if !slicesContains(validLeaveStatuses, newStatus) {
		return echo.NewHTTPError(http.StatusBadRequest,
			fmt.Sprintf("Invalid status. Must be one of: %s", strings.Join(validLeaveStatuses, ", ")))
	}

	var leave models.Leave
	err := h.DB.Where("id = ? AND deleted_at IS NULL", c.Param("id")).First(&leave).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Leave request not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load leave")
	}

	if err := h.DB.Model(&models.Leave{}).
		Where("id = ?", leave.ID).
		Updates(map[string]interface{}{
			"leave_status": newStatus,
			"user_hr_id":   p.ID,
		}).Error; err != nil {
		l.Error("leave_status_error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to update leave status")
	}

	publish(c, h.Producer, "leave_events", leave.ID, map[string]interface{}{
		"type":     "leave_status_changed",
		"leave_id": leave.ID,
		"status":   newStatus,
		"hr_id":    p.ID,
	})

	return c.JSON(http.StatusOK, echo.Map{
		"message": fmt.Sprintf("Leave request %s successfully", strings.ToLower(newStatus)),
	})
}

func toHRLeaveItem(lv models.Leave) hrLeaveItem {
	item := hrLeaveItem{
		ID:           lv.ID,
		LeaveType:    lv.LeaveType,
		LeaveStatus:  lv.LeaveStatus,
		FromDate:     lv.FromDate,
		UntilDate:    lv.UntilDate,
		Note:         lv.Note,
		FileURL:      lv.FileURL,
		CreatedAt:    lv.CreatedAt,
		UpdatedAt:    lv.UpdatedAt,
		EmployeeName: lv.Employee.FullName,
	}
	if lv.HR != nil {
		item.HRName = &lv.HR.FullName
	}
	return item
}

func slicesContains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
