package handlers

import (
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"path/filepath"
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

const maxAttachmentSize = 5 * 1024 * 1024

var allowedAttachmentTypes = map[string]struct{}{
	"application/pdf": {},
	"image/jpeg":      {},
	"image/png":       {},
}

// EmployeeLeaveHandler covers the employee-facing leave workflow: filing a
// request with an optional attachment and reading back one's own requests.
type EmployeeLeaveHandler struct {
	DB        *gorm.DB
	Producer  *hrkafka.Producer
	UploadDir string
}

func (h *EmployeeLeaveHandler) Create(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "leave_create")
	p := authmw.PrincipalFrom(c)

	leaveType := c.FormValue("leave_type")
	fromDateRaw := c.FormValue("from_date")
	untilDateRaw := c.FormValue("until_date")
	note := c.FormValue("note")

	if leaveType == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "leave_type is required")
	}
	if fromDateRaw == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "from_date is required")
	}
	if untilDateRaw == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "until_date is required")
	}

	fromDate, err1 := time.Parse("2006-01-02", fromDateRaw)
	untilDate, err2 := time.Parse("2006-01-02", untilDateRaw)
	if err1 != nil || err2 != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid date format")
	}
	if fromDate.After(untilDate) {
		return echo.NewHTTPError(http.StatusBadRequest, "From date must be before or equal to until date")
	}

	fileURL, err := h.storeAttachment(c)
	if err != nil {
		return err
	}

	leave := models.Leave{
		UserEmployeeID: p.ID,
		LeaveType:      leaveType,
		LeaveStatus:    models.LeaveStatusPending,
		FromDate:       fromDate,
		UntilDate:      untilDate,
		Note:           note,
		FileURL:        fileURL,
	}
	if err := h.DB.Create(&leave).Error; err != nil {
		l.Error("leave_create_error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create leave request")
	}

	publish(c, h.Producer, "leave_events", leave.ID, map[string]interface{}{
		"type":     "leave_requested",
		"leave_id": leave.ID,
		"user_id":  p.ID,
	})

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Leave request created successfully",
		"data":    leave,
	})
}

func (h *EmployeeLeaveHandler) ListMine(c echo.Context) error {
	p := authmw.PrincipalFrom(c)

	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, page, limit := util.Calculate(page, limit)

	q := h.DB.Model(&models.Leave{}).
		Where("user_employee_id = ? AND deleted_at IS NULL", p.ID)
	if status := c.QueryParam("status"); status != "" {
		q = q.Where("leave_status = ?", strings.ToUpper(status))
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list leaves")
	}

	var leaves []models.Leave
	if err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&leaves).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list leaves")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": "My leaves retrieved successfully",
		"data":    leaves,
		"meta":    util.BuildMeta(total, page, limit),
	})
}

func (h *EmployeeLeaveHandler) Detail(c echo.Context) error {
	p := authmw.PrincipalFrom(c)

	var leave models.Leave
	err := h.DB.
		Where("id = ? AND user_employee_id = ? AND deleted_at IS NULL", c.Param("id"), p.ID).
		First(&leave).Error
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Leave request not found or you are not authorized to view it")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": "Leave detail retrieved successfully",
		"data":    leave,
	})
}

// storeAttachment saves an optional multipart "file" part under UploadDir
// and returns its public URL. Absence of the part is not an error.
func (h *EmployeeLeaveHandler) storeAttachment(c echo.Context) (*string, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		return nil, nil
	}

	if fh.Size > maxAttachmentSize {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "File too large. Maximum size is 5MB")
	}
	mime := fh.Header.Get("Content-Type")
	if _, ok := allowedAttachmentTypes[mime]; !ok {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "Invalid file type. Only PDF, JPG, and PNG are allowed")
	}

	src, err := fh.Open()
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "failed to store attachment")
	}
	defer src.Close()

	if err := os.MkdirAll(h.UploadDir, 0o755); err != nil {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "failed to store attachment")
	}

	name := fmt.Sprintf("leave-%d-%d%s", time.Now().UnixMilli(), rand.Intn(1_000_000_000), filepath.Ext(fh.Filename))
	dst, err := os.Create(filepath.Join(h.UploadDir, name))
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "failed to store attachment")
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "failed to store attachment")
	}

	url := "/uploads/leave-attachments/" + name
	return &url, nil
}
