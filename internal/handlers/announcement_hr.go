package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/hrisapp/hris_backend/internal/hrkafka"
	"github.com/hrisapp/hris_backend/internal/logging"
	authmw "github.com/hrisapp/hris_backend/internal/middleware/auth"
	"github.com/hrisapp/hris_backend/internal/models"
	"github.com/hrisapp/hris_backend/internal/service/search"
	"github.com/hrisapp/hris_backend/internal/util"
)

var validAnnouncementTypes = []string{models.AnnouncementUrgent, models.AnnouncementDaily}

// HRAnnouncementHandler owns announcement CRUD. Writes are mirrored into
// the search index; index failures are logged, not surfaced.
type HRAnnouncementHandler struct {
	DB       *gorm.DB
	ES       *elasticsearch.Client
	Index    string
	Producer *hrkafka.Producer
}

func (h *HRAnnouncementHandler) Create(c echo.Context) error {
	p := authmw.PrincipalFrom(c)

	var req struct {
		AnnouncementType string `json:"announcement_type"`
		Title            string `json:"title"`
		Note             string `json:"note"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if !slicesContains(validAnnouncementTypes, req.AnnouncementType) {
		return echo.NewHTTPError(http.StatusBadRequest,
			fmt.Sprintf("Invalid announcement type. Must be one of: %s", strings.Join(validAnnouncementTypes, ", ")))
	}
	if req.Title == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "title is required")
	}

	ann := models.Announcement{
		UserHRID:         p.ID,
		AnnouncementType: req.AnnouncementType,
		Title:            req.Title,
		Note:             req.Note,
	}
	if err := h.DB.Create(&ann).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create announcement")
	}

	h.reindex(c, &ann)
	publish(c, h.Producer, "announcement_events", ann.ID, map[string]interface{}{
		"type":            "announcement_published",
		"announcement_id": ann.ID,
		"hr_id":           p.ID,
	})

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Announcement created successfully",
		"data":    ann,
	})
}

func (h *HRAnnouncementHandler) List(c echo.Context) error {
	return listAnnouncements(c, h.DB)
}

func (h *HRAnnouncementHandler) Detail(c echo.Context) error {
	return announcementDetail(c, h.DB)
}

func (h *HRAnnouncementHandler) Update(c echo.Context) error {
	var req struct {
		AnnouncementType *string `json:"announcement_type"`
		Title            *string `json:"title"`
		Note             *string `json:"note"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	var ann models.Announcement
	err := h.DB.Where("id = ? AND deleted_at IS NULL", c.Param("id")).First(&ann).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Announcement not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load announcement")
	}

	updates := map[string]interface{}{}
	if req.AnnouncementType != nil {
		if !slicesContains(validAnnouncementTypes, *req.AnnouncementType) {
			return echo.NewHTTPError(http.StatusBadRequest,
				fmt.Sprintf("Invalid announcement type. Must be one of: %s", strings.Join(validAnnouncementTypes, ", ")))
		}
		updates["announcement_type"] = *req.AnnouncementType
		ann.AnnouncementType = *req.AnnouncementType
	}
	if req.Title != nil {
		updates["title"] = *req.Title
		ann.Title = *req.Title
	}
	if req.Note != nil {
		updates["note"] = *req.Note
		ann.Note = *req.Note
	}
	if len(updates) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "nothing to update")
	}

	if err := h.DB.Model(&models.Announcement{}).Where("id = ?", ann.ID).Updates(updates).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to update announcement")
	}

	h.reindex(c, &ann)

	return c.JSON(http.StatusOK, echo.Map{
		"message": "Announcement updated successfully",
		"data":    ann,
	})
}

func (h *HRAnnouncementHandler) Delete(c echo.Context) error {
	var ann models.Announcement
	err := h.DB.Where("id = ? AND deleted_at IS NULL", c.Param("id")).First(&ann).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Announcement not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load announcement")
	}

	if err := h.DB.Model(&models.Announcement{}).
		Where("id = ?", ann.ID).
		Update("deleted_at", gorm.Expr("CURRENT_TIMESTAMP")).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to delete announcement")
	}

	if h.ES != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()
		if err := search.DeleteAnnouncement(ctx, h.ES, h.Index, ann.ID); err != nil {
			logging.FromContext(c.Request().Context()).Error("search deindex error", "error", err)
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": "Announcement deleted successfully",
	})
}

func (h *HRAnnouncementHandler) reindex(c echo.Context, ann *models.Announcement) {
	if h.ES == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := search.IndexAnnouncement(ctx, h.ES, h.Index, ann); err != nil {
		logging.FromContext(c.Request().Context()).Error("search index error", "error", err)
	}
}

// listAnnouncements and announcementDetail back both the HR and employee
// read endpoints; only write access differs between the two roles.
func listAnnouncements(c echo.Context, db *gorm.DB) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, page, limit := util.Calculate(page, limit)

	q := db.Model(&models.Announcement{}).Where("deleted_at IS NULL")
	if t := c.QueryParam("type"); t != "" {
		q = q.Where("announcement_type = ?", strings.ToUpper(t))
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list announcements")
	}

	var anns []models.Announcement
	if err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&anns).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list announcements")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": "Announcements retrieved successfully",
		"data":    anns,
		"meta":    util.BuildMeta(total, page, limit),
	})
}

func announcementDetail(c echo.Context, db *gorm.DB) error {
	var ann models.Announcement
	err := db.Where("id = ? AND deleted_at IS NULL", c.Param("id")).First(&ann).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Announcement not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load announcement")
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": "Announcement retrieved successfully",
		"data":    ann,
	})
}
