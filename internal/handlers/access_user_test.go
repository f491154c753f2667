package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hrisapp/hris_backend/internal/models"
)

func TestListUsersRequiresAdmin(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser("emp@x.com", "p1", "employee")
	cookies := env.login("emp@x.com", "p1")

	rec := env.doJSON(http.MethodGet, "/api/v1/admin/access-user", nil, cookies...)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestListUsers(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser("admin@x.com", "p1", "admin")
	env.seedUser("emp one@x.com", "p1", "employee")
	env.seedUser("emp2@x.com", "p1", "employee", "hr")
	cookies := env.login("admin@x.com", "p1")

	rec := env.doJSON(http.MethodGet, "/api/v1/admin/access-user", nil, cookies...)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	require.Len(t, body["data"], 3)

	pagination := body["pagination"].(map[string]interface{})
	require.EqualValues(t, 3, pagination["total"])

	for _, raw := range body["data"].([]interface{}) {
		u := raw.(map[string]interface{})
		require.NotContains(t, u, "password")
		require.NotContains(t, u, "password_hash")
		require.Contains(t, u, "roles")
	}

	rec = env.doJSON(http.MethodGet, "/api/v1/admin/access-user?search=emp2", nil, cookies...)
	require.Len(t, decodeBody(t, rec)["data"], 1)
}

func TestListUsersExcludesSoftDeleted(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser("admin@x.com", "p1", "admin")
	gone := env.seedUser("gone@x.com", "p1", "employee")
	cookies := env.login("admin@x.com", "p1")

	now := time.Now()
	require.NoError(t, env.DB.Model(&models.User{}).Where("id = ?", gone.ID).Update("deleted_at", now).Error)

	rec := env.doJSON(http.MethodGet, "/api/v1/admin/access-user", nil, cookies...)
	require.Len(t, decodeBody(t, rec)["data"], 1)
}

func TestAssignRole(t *testing.T) {
	env := newTestEnv(t)
	admin := env.seedUser("admin@x.com", "p1", "admin")
	emp := env.seedUser("emp@x.com", "p1")
	cookies := env.login("admin@x.com", "p1")

	role := models.Role{NameRole: "employee"}
	require.NoError(t, env.DB.Create(&role).Error)

	rec := env.doJSON(http.MethodPost, "/api/v1/admin/access-user/assign-role", map[string]string{
		"user_id": emp.ID, "role_id": role.ID,
	}, cookies...)
	require.Equal(t, http.StatusCreated, rec.Code)

	var assignment models.UserRole
	require.NoError(t, env.DB.Where("user_id = ? AND role_id = ?", emp.ID, role.ID).First(&assignment).Error)
	require.Equal(t, admin.ID, assignment.CreatedByUserID)

	// second active assignment of the same pair is a conflict
	rec = env.doJSON(http.MethodPost, "/api/v1/admin/access-user/assign-role", map[string]string{
		"user_id": emp.ID, "role_id": role.ID,
	}, cookies...)
	require.Equal(t, http.StatusConflict, rec.Code)

	// soft-deleting the assignment frees the pair again
	now := time.Now()
	require.NoError(t, env.DB.Model(&models.UserRole{}).Where("id = ?", assignment.ID).Update("deleted_at", now).Error)
	rec = env.doJSON(http.MethodPost, "/api/v1/admin/access-user/assign-role", map[string]string{
		"user_id": emp.ID, "role_id": role.ID,
	}, cookies...)
	require.Equal(t, http.StatusCreated, rec.Code)
}

func TestAssignRoleValidation(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser("admin@x.com", "p1", "admin")
	emp := env.seedUser("emp@x.com", "p1")
	cookies := env.login("admin@x.com", "p1")

	role := models.Role{NameRole: "employee"}
	require.NoError(t, env.DB.Create(&role).Error)

	rec := env.doJSON(http.MethodPost, "/api/v1/admin/access-user/assign-role", map[string]string{
		"user_id": "missing", "role_id": role.ID,
	}, cookies...)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.doJSON(http.MethodPost, "/api/v1/admin/access-user/assign-role", map[string]string{
		"user_id": emp.ID, "role_id": "missing",
	}, cookies...)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.doJSON(http.MethodPost, "/api/v1/admin/access-user/assign-role", map[string]string{
		"user_id": emp.ID,
	}, cookies...)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	now := time.Now()
	deadRole := models.Role{NameRole: "legacy", DeletedAt: &now}
	require.NoError(t, env.DB.Create(&deadRole).Error)
	rec = env.doJSON(http.MethodPost, "/api/v1/admin/access-user/assign-role", map[string]string{
		"user_id": emp.ID, "role_id": deadRole.ID,
	}, cookies...)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
