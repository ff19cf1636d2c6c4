package repositories

import (
	"errors"

	"gorm.io/gorm"

	"dthink_backend/internal/models"
)

var ErrPlanNotFound = errors.New("plan not found")

type PlanRepository interface {
	Create(plan *models.SubscriptionPlan) error
	Update(plan *models.SubscriptionPlan) error
	FindByID(id string) (*models.SubscriptionPlan, error)
	FindByName(name string) (*models.SubscriptionPlan, error)
	ListActive() ([]models.SubscriptionPlan, error)

	// FindFreeTier resolves the default plan. Exactly one active plan may
	// be the free tier; zero or several is a deployment misconfiguration.
	FindFreeTier() (*models.SubscriptionPlan, error)
}

var ErrAmbiguousFreeTier = errors.New("multiple plans qualify as the free tier")

type planRepository struct {
	db *gorm.DB
}

func NewPlanRepository(db *gorm.DB) PlanRepository {
	return &planRepository{db: db}
}

func (r *planRepository) Create(plan *models.SubscriptionPlan) error {
	return r.db.Create(plan).Error
}

func (r *planRepository) Update(plan *models.SubscriptionPlan) error {
	return r.db.Save(plan).Error
}

func (r *planRepository) FindByID(id string) (*models.SubscriptionPlan, error) {
	var plan models.SubscriptionPlan
	err := r.db.First(&plan, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	return &plan, nil
}

func (r *planRepository) FindByName(name string) (*models.SubscriptionPlan, error) {
	var plan models.SubscriptionPlan
	err := r.db.First(&plan, "name = ?", name).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	return &plan, nil
}

func (r *planRepository) ListActive() ([]models.SubscriptionPlan, error) {
	var plans []models.SubscriptionPlan
	err := r.db.Where("is_active = ?", true).Order("price ASC").Find(&plans).Error
	return plans, err
}

func (r *planRepository) FindFreeTier() (*models.SubscriptionPlan, error) {
	var plans []models.SubscriptionPlan
	err := r.db.Where("is_active = ? AND (name = ? OR price = 0)", true, "free").Find(&plans).Error
	if err != nil {
		return nil, err
	}
	switch len(plans) {
	case 0:
		return nil, ErrPlanNotFound
	case 1:
		return &plans[0], nil
	default:
		return nil, ErrAmbiguousFreeTier
	}
}
