package services

import (
	"dthink_backend/internal/appErrors"
	"dthink_backend/internal/logger"
	"dthink_backend/internal/models"
	"dthink_backend/internal/repositories"
	"dthink_backend/internal/session"
)

// Evaluation is the quota decision for one creation attempt. A nil Limit
// means unlimited.
type Evaluation struct {
	Allowed      bool
	CurrentUsage int
	Limit        *int
	PlanName     string
}

// QuotaService decides whether a user may create another capped project.
// Usage is a live count at evaluation time; two concurrent creations can
// both pass, so the cap is best-effort by design.
type QuotaService interface {
	Evaluate(snap *session.Snapshot) (*Evaluation, error)
}

type quotaService struct {
	planRepo    repositories.PlanRepository
	projectRepo repositories.ProjectRepository
}

func NewQuotaService(planRepo repositories.PlanRepository, projectRepo repositories.ProjectRepository) QuotaService {
	return &quotaService{
		planRepo:    planRepo,
		projectRepo: projectRepo,
	}
}

func (s *quotaService) Evaluate(snap *session.Snapshot) (*Evaluation, error) {
	count, err := s.projectRepo.CountByOwnerAndKind(snap.UserID, models.ProjectKindDoubleDiamond)
	if err != nil {
		return nil, appErrors.StoreUnavailable(err)
	}

	limit, planName, err := s.effectiveLimit(snap)
	if err != nil {
		return nil, err
	}

	eval := &Evaluation{
		CurrentUsage: int(count),
		Limit:        limit,
		PlanName:     planName,
	}
	// The limit is inclusive of existing rows and exclusive of the next
	// one: exactly-at-limit attempts are rejected.
	eval.Allowed = limit == nil || eval.CurrentUsage < *limit
	return eval, nil
}

// effectiveLimit resolves the limit in precedence order: per-user override,
// per-plan numeric limit, then the free/paid binary.
func (s *quotaService) effectiveLimit(snap *session.Snapshot) (*int, string, error) {
	if v, ok := snap.CustomLimits[models.LimitProjects]; ok {
		name, err := s.planNameFor(snap)
		if err != nil {
			return nil, "", err
		}
		return &v, name, nil
	}

	// nil plan reference means the free tier; no row lookup needed.
	if snap.PlanID == nil {
		return freeLimit(), "free", nil
	}

	plan, err := s.planRepo.FindByID(*snap.PlanID)
	if err != nil {
		if appErrors.Is(err, repositories.ErrPlanNotFound) {
			// Orphaned plan reference: degrade to free-tier limits instead
			// of failing the request.
			logger.Warn("orphaned plan reference, degrading to free tier",
				"user_id", snap.UserID, "plan_id", *snap.PlanID)
			return freeLimit(), "free", nil
		}
		return nil, "", appErrors.StoreUnavailable(err)
	}

	if l := plan.LimitFor(models.LimitProjects); l != nil {
		return l, plan.Name, nil
	}
	if plan.IsFreeTier() {
		return freeLimit(), plan.Name, nil
	}
	return nil, plan.Name, nil
}

func (s *quotaService) planNameFor(snap *session.Snapshot) (string, error) {
	if snap.PlanID == nil {
		return "free", nil
	}
	plan, err := s.planRepo.FindByID(*snap.PlanID)
	if err != nil {
		if appErrors.Is(err, repositories.ErrPlanNotFound) {
			return "free", nil
		}
		return "", appErrors.StoreUnavailable(err)
	}
	return plan.Name, nil
}

func freeLimit() *int {
	l := models.FreeProjectLimit
	return &l
}
