package auth

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/hrisapp/hris_backend/internal/hash"
	"github.com/hrisapp/hris_backend/internal/logging"
	"github.com/hrisapp/hris_backend/internal/models"
	"github.com/hrisapp/hris_backend/internal/service/token"
)

var (
	ErrEmailTaken         = errors.New("user with this email already exists")
	ErrPhoneTaken         = errors.New("user with this phone number already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNoRole             = errors.New("user does not have any assigned role, please contact admin")
	ErrInvalidRole        = errors.New("user has an invalid role")
	ErrInvalidRefresh     = errors.New("invalid refresh token")
)

type Service struct {
	DB     *gorm.DB
	Tokens *token.Service
}

type RegisterInput struct {
	Email       string
	Password    string
	FullName    string
	PhoneNumber *string
}

// UserView is the redacted user shape returned from login and refresh. It
// never carries the password digest.
type UserView struct {
	ID       string   `json:"id"`
	Email    string   `json:"email"`
	FullName string   `json:"full_name"`
	Roles    []string `json:"roles"`
}

type SessionResult struct {
	AccessToken  string
	RefreshToken string
	AccessExp    time.Time
	RefreshExp   time.Time
	User         UserView
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	var existing models.User
	err := s.DB.Where("email = ? AND deleted_at IS NULL", in.Email).First(&existing).Error
	if err == nil {
		return nil, ErrEmailTaken
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if in.PhoneNumber != nil && *in.PhoneNumber != "" {
		err := s.DB.Where("phone_number = ? AND deleted_at IS NULL", *in.PhoneNumber).First(&existing).Error
		if err == nil {
			return nil, ErrPhoneTaken
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	digest, err := hash.HashPassword(in.Password)
	if err != nil {
		l.Error("register_error", "reason", "cannot hash the password", "error", err)
		return nil, err
	}

	user := models.User{
		Email:        in.Email,
		PhoneNumber:  in.PhoneNumber,
		PasswordHash: digest,
		FullName:     in.FullName,
	}
	if err := s.DB.Create(&user).Error; err != nil {
		// a concurrent registration loses the race at the unique index
		if isUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	l.Info("user_registered", "user_id", user.ID)
	return &user, nil
}

// Login verifies credentials and the role set, then issues a fresh token
// pair. Unknown user and wrong password both surface as
// ErrInvalidCredentials so callers cannot enumerate accounts.
func (s *Service) Login(ctx context.Context, email, password string) (*SessionResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	user, err := s.loadActiveUser("email = ?", email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !hash.CheckPassword(user.PasswordHash, password) {
		l.Warn("login_failed", "reason", "credential mismatch")
		return nil, ErrInvalidCredentials
	}

	roles, err := activeRoleNames(user)
	if err != nil {
		l.Warn("login_failed", "reason", err.Error(), "user_id", user.ID)
		return nil, err
	}

	res, err := s.issueSession(user, roles)
	if err != nil {
		return nil, err
	}
	l.Info("login_successful", "user_id", user.ID)
	return res, nil
}

// Refresh rotates a token pair. Roles are re-read from the store rather
// than trusted from the old token, so an assignment change takes effect
// within one refresh cycle.
func (s *Service) Refresh(ctx context.Context, rawRefresh string) (*SessionResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	p, err := s.Tokens.ParseRefreshToken(rawRefresh)
	if err != nil {
		return nil, ErrInvalidRefresh
	}

	user, err := s.loadActiveUser("id = ?", p.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidRefresh
		}
		return nil, err
	}

	roles, err := activeRoleNames(user)
	if err != nil {
		l.Warn("refresh_failed", "reason", err.Error(), "user_id", user.ID)
		return nil, err
	}

	res, err := s.issueSession(user, roles)
	if err != nil {
		return nil, err
	}
	l.Info("session_refreshed", "user_id", user.ID)
	return res, nil
}

func (s *Service) loadActiveUser(cond string, arg any) (*models.User, error) {
	var user models.User
	err := s.DB.
		Preload("Roles", "deleted_at IS NULL").
		Preload("Roles.Role").
		Where(cond, arg).
		Where("deleted_at IS NULL").
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func activeRoleNames(user *models.User) ([]string, error) {
	if len(user.Roles) == 0 {
		return nil, ErrNoRole
	}
	names := make([]string, 0, len(user.Roles))
	for _, ur := range user.Roles {
		if ur.Role.ID == "" || ur.Role.NameRole == "" || ur.Role.DeletedAt != nil {
			return nil, ErrInvalidRole
		}
		names = append(names, ur.Role.NameRole)
	}
	return names, nil
}

func (s *Service) issueSession(user *models.User, roles []string) (*SessionResult, error) {
	p := token.Principal{ID: user.ID, Email: user.Email, Roles: roles}

	access, accessExp, err := s.Tokens.SignAccessToken(p)
	if err != nil {
		return nil, err
	}
	refresh, refreshExp, err := s.Tokens.SignRefreshToken(p)
	if err != nil {
		return nil, err
	}

	return &SessionResult{
		AccessToken:  access,
		RefreshToken: refresh,
		AccessExp:    accessExp,
		RefreshExp:   refreshExp,
		User: UserView{
			ID:       user.ID,
			Email:    user.Email,
			FullName: user.FullName,
			Roles:    roles,
		},
	}, nil
}

func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
