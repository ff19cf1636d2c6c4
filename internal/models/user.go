package models

import (
	"gorm.io/datatypes"
)

type User struct {
	BaseModel
	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	Username string `gorm:"uniqueIndex;not null" json:"username"`

	// PasswordHash is empty for federated-only accounts. A login-capable
	// account has a password hash, a provider id, or both (after linking).
	PasswordHash string       `gorm:"" json:"-"`
	Provider     AuthProvider `gorm:"type:varchar(20);not null;default:'local'" json:"provider"`
	ProviderID   string       `gorm:"index:idx_users_provider_identity" json:"-"`

	DisplayName string `json:"display_name"`
	Picture     string `json:"picture"`

	Role   UserRole   `gorm:"type:varchar(20);not null;default:'user'" json:"role"`
	Status UserStatus `gorm:"type:varchar(20);default:'active'" json:"status"`

	// SubscriptionPlanID is nullable; nil means the default free tier.
	SubscriptionPlanID *string            `gorm:"type:uuid;index" json:"subscription_plan_id"`
	SubscriptionStatus SubscriptionStatus `gorm:"type:varchar(20);default:'active'" json:"subscription_status"`
	StripeCustomerID   string             `gorm:"index" json:"-"`

	// CustomLimits holds per-user overrides, e.g. {"projects": 10}.
	CustomLimits datatypes.JSON `gorm:"type:jsonb" json:"custom_limits,omitempty"`

	// Relations
	Plan     *SubscriptionPlan `gorm:"foreignKey:SubscriptionPlanID" json:"plan,omitempty"`
	Projects []Project         `gorm:"foreignKey:OwnerID" json:"-"`
}

// HasPassword reports whether local login is possible for this account.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}
