package dto

import "dthink_backend/internal/models"

type CreateInviteRequest struct {
	Email string            `json:"email" binding:"required" validate:"required,email"`
	Role  models.MemberRole `json:"role" validate:"omitempty,oneof=editor viewer"`
}

type AcceptInviteRequest struct {
	Token string `json:"token" binding:"required" validate:"required"`
}

type InviteResponse struct {
	ID        string              `json:"id"`
	ProjectID string              `json:"project_id"`
	Email     string              `json:"email"`
	Role      models.MemberRole   `json:"role"`
	Status    models.InviteStatus `json:"status"`
}
