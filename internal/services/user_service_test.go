package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dthink_backend/internal/appErrors"
	"dthink_backend/internal/models"
	"dthink_backend/internal/services/dto"
	"dthink_backend/internal/session"
)

func TestAdminUpdate_RoleChangeRefreshesLiveSessions(t *testing.T) {
	t.Parallel()

	userRepo := newFakeUserRepo()
	user := seedLocalUser(t, userRepo, "ada@example.com", "password123")

	store := session.NewMemoryStore(time.Hour)
	token, err := store.Create(user)
	require.NoError(t, err)

	svc := NewUserService(userRepo, newFakePlanRepo(), store)

	role := "admin"
	_, err = svc.AdminUpdate(user.ID, &dto.AdminUpdateUserRequest{Role: &role})
	require.NoError(t, err)

	// The already-issued session sees the new role without a re-login.
	snap, err := store.Resolve(token)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, models.UserRoleAdmin, snap.Role)
}

func TestAdminUpdate_PlanMustExist(t *testing.T) {
	t.Parallel()

	userRepo := newFakeUserRepo()
	user := seedLocalUser(t, userRepo, "ada@example.com", "password123")
	svc := NewUserService(userRepo, newFakePlanRepo(), session.NewMemoryStore(time.Hour))

	planID := "plan-ghost"
	_, err := svc.AdminUpdate(user.ID, &dto.AdminUpdateUserRequest{PlanID: &planID})
	assert.True(t, appErrors.Is(err, appErrors.ErrPlanNotFound))
}

func TestAdminUpdate_CustomLimitsPropagate(t *testing.T) {
	t.Parallel()

	userRepo := newFakeUserRepo()
	user := seedLocalUser(t, userRepo, "ada@example.com", "password123")

	store := session.NewMemoryStore(time.Hour)
	token, err := store.Create(user)
	require.NoError(t, err)

	svc := NewUserService(userRepo, newFakePlanRepo(), store)

	_, err = svc.AdminUpdate(user.ID, &dto.AdminUpdateUserRequest{
		CustomLimits: map[string]int{models.LimitProjects: 25},
	})
	require.NoError(t, err)

	snap, err := store.Resolve(token)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, 25, snap.CustomLimits[models.LimitProjects])

	// The evaluator honors the override immediately.
	quota := NewQuotaService(newFakePlanRepo(), newFakeProjectRepo())
	eval, err := quota.Evaluate(snap)
	require.NoError(t, err)
	require.NotNil(t, eval.Limit)
	assert.Equal(t, 25, *eval.Limit)
}

func TestAdminUpdate_UnknownUser(t *testing.T) {
	t.Parallel()

	svc := NewUserService(newFakeUserRepo(), newFakePlanRepo(), session.NewMemoryStore(time.Hour))

	role := "admin"
	_, err := svc.AdminUpdate("nobody", &dto.AdminUpdateUserRequest{Role: &role})
	assert.True(t, appErrors.Is(err, appErrors.ErrUserNotFound))
}

func TestUpdateProfile(t *testing.T) {
	t.Parallel()

	userRepo := newFakeUserRepo()
	user := seedLocalUser(t, userRepo, "ada@example.com", "password123")
	svc := NewUserService(userRepo, newFakePlanRepo(), session.NewMemoryStore(time.Hour))

	name := "Ada Lovelace"
	resp, err := svc.UpdateProfile(user.ID, &name, nil)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", resp.DisplayName)

	// Untouched fields survive a partial update.
	assert.Equal(t, user.Email, resp.Email)
}
