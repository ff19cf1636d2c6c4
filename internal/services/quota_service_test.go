package services

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dthink_backend/internal/appErrors"
	"dthink_backend/internal/models"
	"dthink_backend/internal/session"
)

func snapshotFor(userID string, planID *string, custom map[string]int) *session.Snapshot {
	return &session.Snapshot{
		UserID:       userID,
		Username:     "tester",
		Email:        "tester@example.com",
		Role:         models.UserRoleUser,
		PlanID:       planID,
		CustomLimits: custom,
		Status:       models.UserStatusActive,
	}
}

func planWithLimits(id, name string, price float64, limits map[string]int) *models.SubscriptionPlan {
	plan := &models.SubscriptionPlan{
		BaseModel: models.BaseModel{ID: id},
		Name:      name,
		Price:     price,
		IsActive:  true,
	}
	if limits != nil {
		raw, _ := json.Marshal(limits)
		plan.Limits = raw
	}
	return plan
}

func TestEvaluate_ImplicitFreeTierBoundary(t *testing.T) {
	t.Parallel()

	planRepo := newFakePlanRepo()
	projectRepo := newFakeProjectRepo()
	svc := NewQuotaService(planRepo, projectRepo)

	snap := snapshotFor("u1", nil, nil)

	// Two existing projects: the third is still allowed.
	projectRepo.counts["u1/"+string(models.ProjectKindDoubleDiamond)] = 2

	eval, err := svc.Evaluate(snap)
	require.NoError(t, err)
	assert.True(t, eval.Allowed)
	assert.Equal(t, 2, eval.CurrentUsage)
	require.NotNil(t, eval.Limit)
	assert.Equal(t, models.FreeProjectLimit, *eval.Limit)
	assert.Equal(t, "free", eval.PlanName)

	// At the limit: rejected, exactly-at-limit counts as full.
	projectRepo.counts["u1/"+string(models.ProjectKindDoubleDiamond)] = 3

	eval, err = svc.Evaluate(snap)
	require.NoError(t, err)
	assert.False(t, eval.Allowed)
	assert.Equal(t, 3, eval.CurrentUsage)
}

func TestEvaluate_NilPlanNeedsNoLookup(t *testing.T) {
	t.Parallel()

	// An empty plan repo would fail any lookup; a nil plan reference must
	// not trigger one.
	planRepo := newFakePlanRepo()
	projectRepo := newFakeProjectRepo()
	svc := NewQuotaService(planRepo, projectRepo)

	eval, err := svc.Evaluate(snapshotFor("u1", nil, nil))
	require.NoError(t, err)
	assert.Equal(t, "free", eval.PlanName)
	assert.True(t, eval.Allowed)
}

func TestEvaluate_PlanNumericLimit(t *testing.T) {
	t.Parallel()

	planRepo := newFakePlanRepo()
	planRepo.add(planWithLimits("plan-pro", "pro", 19, map[string]int{models.LimitProjects: 5}))
	projectRepo := newFakeProjectRepo()
	svc := NewQuotaService(planRepo, projectRepo)

	planID := "plan-pro"
	snap := snapshotFor("u1", &planID, nil)

	projectRepo.counts["u1/"+string(models.ProjectKindDoubleDiamond)] = 4
	eval, err := svc.Evaluate(snap)
	require.NoError(t, err)
	assert.True(t, eval.Allowed)
	assert.Equal(t, "pro", eval.PlanName)

	projectRepo.counts["u1/"+string(models.ProjectKindDoubleDiamond)] = 5
	eval, err = svc.Evaluate(snap)
	require.NoError(t, err)
	assert.False(t, eval.Allowed)
}

func TestEvaluate_PaidPlanWithoutLimitsIsUnlimited(t *testing.T) {
	t.Parallel()

	planRepo := newFakePlanRepo()
	planRepo.add(planWithLimits("plan-team", "team", 49, nil))
	projectRepo := newFakeProjectRepo()
	svc := NewQuotaService(planRepo, projectRepo)

	planID := "plan-team"
	projectRepo.counts["u1/"+string(models.ProjectKindDoubleDiamond)] = 1000

	eval, err := svc.Evaluate(snapshotFor("u1", &planID, nil))
	require.NoError(t, err)
	assert.True(t, eval.Allowed)
	assert.Nil(t, eval.Limit)
	assert.Equal(t, "team", eval.PlanName)
}

func TestEvaluate_FreeTierPlanRowWithoutLimits(t *testing.T) {
	t.Parallel()

	planRepo := newFakePlanRepo()
	planRepo.add(planWithLimits("plan-free", "free", 0, nil))
	projectRepo := newFakeProjectRepo()
	svc := NewQuotaService(planRepo, projectRepo)

	planID := "plan-free"
	projectRepo.counts["u1/"+string(models.ProjectKindDoubleDiamond)] = 3

	eval, err := svc.Evaluate(snapshotFor("u1", &planID, nil))
	require.NoError(t, err)
	assert.False(t, eval.Allowed)
	require.NotNil(t, eval.Limit)
	assert.Equal(t, models.FreeProjectLimit, *eval.Limit)
}

func TestEvaluate_CustomLimitTakesPrecedence(t *testing.T) {
	t.Parallel()

	planRepo := newFakePlanRepo()
	planRepo.add(planWithLimits("plan-pro", "pro", 19, map[string]int{models.LimitProjects: 5}))
	projectRepo := newFakeProjectRepo()
	svc := NewQuotaService(planRepo, projectRepo)

	planID := "plan-pro"
	snap := snapshotFor("u1", &planID, map[string]int{models.LimitProjects: 10})

	projectRepo.counts["u1/"+string(models.ProjectKindDoubleDiamond)] = 7
	eval, err := svc.Evaluate(snap)
	require.NoError(t, err)
	assert.True(t, eval.Allowed)
	require.NotNil(t, eval.Limit)
	assert.Equal(t, 10, *eval.Limit)
	assert.Equal(t, "pro", eval.PlanName)
}

func TestEvaluate_ZeroCustomLimitBlocksCreation(t *testing.T) {
	t.Parallel()

	planRepo := newFakePlanRepo()
	projectRepo := newFakeProjectRepo()
	svc := NewQuotaService(planRepo, projectRepo)

	snap := snapshotFor("u1", nil, map[string]int{models.LimitProjects: 0})

	eval, err := svc.Evaluate(snap)
	require.NoError(t, err)
	assert.False(t, eval.Allowed)
	assert.Equal(t, 0, eval.CurrentUsage)
}

func TestEvaluate_OrphanedPlanDegradesToFree(t *testing.T) {
	t.Parallel()

	planRepo := newFakePlanRepo() // no plans registered
	projectRepo := newFakeProjectRepo()
	svc := NewQuotaService(planRepo, projectRepo)

	planID := "plan-deleted"
	snap := snapshotFor("u1", &planID, nil)

	projectRepo.counts["u1/"+string(models.ProjectKindDoubleDiamond)] = 2
	eval, err := svc.Evaluate(snap)
	require.NoError(t, err)
	assert.True(t, eval.Allowed)
	require.NotNil(t, eval.Limit)
	assert.Equal(t, models.FreeProjectLimit, *eval.Limit)
	assert.Equal(t, "free", eval.PlanName)

	projectRepo.counts["u1/"+string(models.ProjectKindDoubleDiamond)] = 3
	eval, err = svc.Evaluate(snap)
	require.NoError(t, err)
	assert.False(t, eval.Allowed)
}

func TestEvaluate_PlanLookupFailureIsStoreUnavailable(t *testing.T) {
	t.Parallel()

	// Only a missing plan row degrades to the free tier. A connectivity
	// failure must surface as an error, not quietly cap a paid user.
	planRepo := newFakePlanRepo()
	planRepo.findErr = errors.New("connection refused")
	projectRepo := newFakeProjectRepo()
	svc := NewQuotaService(planRepo, projectRepo)

	planID := "plan-team"
	projectRepo.counts["u1/"+string(models.ProjectKindDoubleDiamond)] = 5

	_, err := svc.Evaluate(snapshotFor("u1", &planID, nil))
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrStoreUnavailable))
}

func TestEvaluate_CountErrorIsStoreUnavailable(t *testing.T) {
	t.Parallel()

	planRepo := newFakePlanRepo()
	projectRepo := newFakeProjectRepo()
	projectRepo.countErr = errors.New("connection refused")
	svc := NewQuotaService(planRepo, projectRepo)

	_, err := svc.Evaluate(snapshotFor("u1", nil, nil))
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrStoreUnavailable))
}
