package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// FreeProjectLimit caps double-diamond projects for the free tier.
const FreeProjectLimit = 3

// LimitProjects is the key under SubscriptionPlan.Limits and
// User.CustomLimits for the capped project count.
const LimitProjects = "projects"

type SubscriptionPlan struct {
	BaseModel
	// Name is the machine name ("free", "pro", "team"); exactly one active
	// plan may be the free tier, see IsFreeTier.
	Name          string         `gorm:"uniqueIndex;not null" json:"name"`
	DisplayName   string         `gorm:"not null" json:"display_name"`
	Price         float64        `gorm:"not null" json:"price"`
	Currency      string         `gorm:"default:'USD'" json:"currency"`
	Duration      string         `gorm:"not null;default:'monthly'" json:"duration"`
	StripePriceID string         `json:"-"`
	Features      datatypes.JSON `gorm:"type:jsonb" json:"features"` // {"ai_translation": true, ...}
	Limits        datatypes.JSON `gorm:"type:jsonb" json:"limits"`   // {"projects": 3}
	IsActive      bool           `gorm:"default:true" json:"is_active"`
}

// IsFreeTier reports whether this plan is the default tier. The seed keeps
// this unambiguous: only one active plan may satisfy it.
func (p *SubscriptionPlan) IsFreeTier() bool {
	return p.Name == "free" || p.Price == 0
}

// LimitFor returns the plan's numeric limit for a resource kind, or nil when
// the plan does not cap it. A missing limits document on a paid plan means
// unlimited; on the free tier the caller falls back to FreeProjectLimit.
func (p *SubscriptionPlan) LimitFor(kind string) *int {
	if len(p.Limits) == 0 {
		return nil
	}
	var limits map[string]int
	if err := json.Unmarshal(p.Limits, &limits); err != nil {
		return nil
	}
	if v, ok := limits[kind]; ok {
		return &v
	}
	return nil
}

type PaymentTransaction struct {
	BaseModel
	UserID          string        `gorm:"type:uuid;not null;index" json:"user_id"`
	PlanID          string        `gorm:"type:uuid;not null;index" json:"plan_id"`
	Amount          float64       `json:"amount"`
	Currency        string        `json:"currency"`
	Status          PaymentStatus `gorm:"type:varchar(20);default:'pending'" json:"status"`
	StripeSessionID string        `gorm:"uniqueIndex" json:"-"`
	PaidAt          *time.Time    `json:"paid_at,omitempty"`

	Plan SubscriptionPlan `gorm:"foreignKey:PlanID" json:"-"`
}
