package models

import "time"

// ProjectInvite is an email invitation to collaborate on a project. The
// invite travels as a signed token; acceptance is idempotent and requires
// the accepting user's email to match.
type ProjectInvite struct {
	BaseModel
	ProjectID string       `gorm:"type:uuid;not null;index" json:"project_id"`
	InvitedBy string       `gorm:"type:uuid;not null" json:"invited_by"`
	Email     string       `gorm:"not null;index" json:"email"`
	Role      MemberRole   `gorm:"type:varchar(20);not null;default:'viewer'" json:"role"`
	Status    InviteStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	ExpiresAt time.Time    `gorm:"not null" json:"expires_at"`

	Project Project `gorm:"foreignKey:ProjectID" json:"-"`
}
