package handlers

import (
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// EmployeeAnnouncementHandler is the read-only announcement view.
type EmployeeAnnouncementHandler struct {
	DB *gorm.DB
}

func (h *EmployeeAnnouncementHandler) List(c echo.Context) error {
	return listAnnouncements(c, h.DB)
}

func (h *EmployeeAnnouncementHandler) Detail(c echo.Context) error {
	return announcementDetail(c, h.DB)
}
