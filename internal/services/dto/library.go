package dto

import "dthink_backend/internal/models"

type CreateLibraryItemRequest struct {
	Title  string              `json:"title" binding:"required" validate:"required,max=200"`
	Phase  models.JourneyPhase `json:"phase" validate:"omitempty,oneof=empathize define ideate prototype test"`
	Body   string              `json:"body"`
	Tags   string              `json:"tags" validate:"max=500"`
	Global bool                `json:"global"`
}

type UpdateLibraryItemRequest struct {
	Title *string `json:"title" validate:"omitempty,max=200"`
	Body  *string `json:"body"`
	Tags  *string `json:"tags" validate:"omitempty,max=500"`
}
