package dto

import "dthink_backend/internal/models"

type CreateProjectRequest struct {
	Name        string             `json:"name" binding:"required" validate:"required,max=200"`
	Description string             `json:"description" validate:"max=2000"`
	Kind        models.ProjectKind `json:"kind" validate:"omitempty,oneof=design_thinking double_diamond"`
}

type UpdateProjectRequest struct {
	Name        *string `json:"name" validate:"omitempty,max=200"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
}

type CreateEntryRequest struct {
	Phase models.JourneyPhase `json:"phase" binding:"required" validate:"required,oneof=empathize define ideate prototype test"`
	Title string              `json:"title" binding:"required" validate:"required,max=200"`
	Body  string              `json:"body"`
}

type TranslateEntryRequest struct {
	Language string `json:"language" binding:"required" validate:"required,len=2"`
}
