package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	LeaveStatusPending     = "PENDING"
	LeaveStatusUnderReview = "UNDER_REVIEW"
	LeaveStatusApproved    = "APPROVED"
	LeaveStatusRejected    = "REJECTED"
)

const (
	AnnouncementUrgent = "URGENT"
	AnnouncementDaily  = "DAILY"
)

type User struct {
	ID           string     `gorm:"primaryKey;size:36"       json:"id"`
	Email        string     `gorm:"unique;not null"          json:"email"`
	PhoneNumber  *string    `gorm:"unique"                   json:"phone_number,omitempty"`
	PasswordHash string     `gorm:"not null"                 json:"-"`
	FullName     string     `gorm:"not null"                 json:"full_name"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	DeletedAt    *time.Time `gorm:"index"                    json:"-"`

	Roles []UserRole `gorm:"foreignKey:UserID" json:"-"`
}

type Role struct {
	ID        string     `gorm:"primaryKey;size:36" json:"id"`
	NameRole  string     `gorm:"unique;not null"    json:"name_role"`
	DeletedAt *time.Time `gorm:"index"              json:"-"`
}

// UserRole links users to roles. A (user, role) pair must be unique among
// rows whose DeletedAt is null; the application checks before insert and a
// storage-level race surfaces as a conflict.
type UserRole struct {
	ID              string     `gorm:"primaryKey;size:36" json:"id"`
	UserID          string     `gorm:"index;not null"     json:"user_id"`
	RoleID          string     `gorm:"index;not null"     json:"role_id"`
	CreatedByUserID string     `gorm:"size:36"            json:"create_by_user_id"`
	CreatedAt       time.Time  `json:"created_at"`
	DeletedAt       *time.Time `gorm:"index"              json:"-"`

	Role Role `gorm:"foreignKey:RoleID" json:"role"`
}

type Leave struct {
	ID             string     `gorm:"primaryKey;size:36" json:"id"`
	UserEmployeeID string     `gorm:"index;not null"     json:"user_employee_id"`
	UserHRID       *string    `gorm:"size:36"            json:"user_hr_id,omitempty"`
	LeaveType      string     `gorm:"not null"           json:"leave_type"`
	LeaveStatus    string     `gorm:"not null"           json:"leave_status"`
	FromDate       time.Time  `gorm:"not null"           json:"from_date"`
	UntilDate      time.Time  `gorm:"not null"           json:"until_date"`
	Note           string     `json:"note"`
	FileURL        *string    `json:"file_url,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	DeletedAt      *time.Time `gorm:"index"              json:"-"`

	Employee User  `gorm:"foreignKey:UserEmployeeID" json:"-"`
	HR       *User `gorm:"foreignKey:UserHRID"       json:"-"`
}

type Announcement struct {
	ID               string     `gorm:"primaryKey;size:36" json:"id"`
	UserHRID         string     `gorm:"index;not null"     json:"user_hr_id"`
	AnnouncementType string     `gorm:"not null"           json:"announcement_type"`
	Title            string     `gorm:"not null"           json:"title"`
	Note             string     `json:"note"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	DeletedAt        *time.Time `gorm:"index"              json:"-"`

	HR User `gorm:"foreignKey:UserHRID" json:"-"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

func (r *Role) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

func (ur *UserRole) BeforeCreate(tx *gorm.DB) error {
	if ur.ID == "" {
		ur.ID = uuid.NewString()
	}
	return nil
}

func (l *Leave) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}

func (a *Announcement) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
