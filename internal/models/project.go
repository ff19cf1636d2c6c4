package models

import (
	"gorm.io/datatypes"
)

// Project is a team journey through the design thinking phases. Projects of
// kind "double_diamond" are the capped resource on the free tier.
type Project struct {
	BaseModelWithDeleted
	OwnerID      string       `gorm:"type:uuid;not null;index" json:"owner_id"`
	Name         string       `gorm:"not null" json:"name"`
	Description  string       `json:"description"`
	Kind         ProjectKind  `gorm:"type:varchar(30);not null;default:'design_thinking';index" json:"kind"`
	CurrentPhase JourneyPhase `gorm:"type:varchar(20);not null;default:'empathize'" json:"current_phase"`

	// Relations
	Owner   User            `gorm:"foreignKey:OwnerID" json:"-"`
	Members []ProjectMember `gorm:"foreignKey:ProjectID" json:"members,omitempty"`
	Entries []PhaseEntry    `gorm:"foreignKey:ProjectID" json:"-"`
}

type ProjectMember struct {
	BaseModel
	ProjectID string     `gorm:"type:uuid;not null;uniqueIndex:idx_project_user" json:"project_id"`
	UserID    string     `gorm:"type:uuid;not null;uniqueIndex:idx_project_user" json:"user_id"`
	Role      MemberRole `gorm:"type:varchar(20);not null;default:'viewer'" json:"role"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

// PhaseEntry is a piece of content produced within one journey phase:
// interview notes, problem statements, ideas, prototype links, test results.
type PhaseEntry struct {
	BaseModel
	ProjectID  string         `gorm:"type:uuid;not null;index" json:"project_id"`
	AuthorID   string         `gorm:"type:uuid;not null" json:"author_id"`
	Phase      JourneyPhase   `gorm:"type:varchar(20);not null;index" json:"phase"`
	Title      string         `gorm:"not null" json:"title"`
	Body       string         `gorm:"type:text" json:"body"`
	Translated datatypes.JSON `gorm:"type:jsonb" json:"translated,omitempty"` // {"es": "...", "de": "..."}
}
