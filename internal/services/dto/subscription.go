package dto

type CreatePlanRequest struct {
	Name          string          `json:"name" binding:"required" validate:"required,max=50"`
	DisplayName   string          `json:"display_name" binding:"required" validate:"required,max=100"`
	Price         float64         `json:"price" validate:"gte=0"`
	Currency      string          `json:"currency" validate:"omitempty,len=3"`
	Duration      string          `json:"duration" validate:"omitempty,oneof=monthly yearly"`
	StripePriceID string          `json:"stripe_price_id"`
	Features      map[string]bool `json:"features"`
	Limits        map[string]int  `json:"limits"`
	IsActive      bool            `json:"is_active"`
}

type UpdatePlanRequest struct {
	DisplayName *string         `json:"display_name" validate:"omitempty,max=100"`
	Price       *float64        `json:"price" validate:"omitempty,gte=0"`
	Features    map[string]bool `json:"features"`
	Limits      map[string]int  `json:"limits"`
	IsActive    *bool           `json:"is_active"`
}

type CheckoutRequest struct {
	PlanID string `json:"plan_id" binding:"required" validate:"required,uuid"`
}

type CheckoutResponse struct {
	URL string `json:"url"`
}

type AdminUpdateUserRequest struct {
	Role         *string        `json:"role" validate:"omitempty,oneof=user admin"`
	PlanID       *string        `json:"plan_id" validate:"omitempty,uuid"`
	CustomLimits map[string]int `json:"custom_limits"`
}
