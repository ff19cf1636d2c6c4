package dto

import "dthink_backend/internal/models"

type RegisterRequest struct {
	Email       string `json:"email" binding:"required" validate:"required,email"`
	Username    string `json:"username" validate:"omitempty,min=3,max=32"`
	Password    string `json:"password" binding:"required" validate:"required,min=8"`
	DisplayName string `json:"display_name" validate:"max=100"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required" validate:"required,email"`
	Password string `json:"password" binding:"required" validate:"required"`
}

type GoogleCallbackRequest struct {
	Code  string `json:"code" form:"code" binding:"required" validate:"required"`
	State string `json:"state" form:"state"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required" validate:"required"`
	NewPassword     string `json:"new_password" binding:"required" validate:"required,min=8"`
}

type UpdateProfileRequest struct {
	DisplayName *string `json:"display_name" validate:"omitempty,max=100"`
	Picture     *string `json:"picture" validate:"omitempty,url"`
}

type UserResponse struct {
	ID          string              `json:"id"`
	Email       string              `json:"email"`
	Username    string              `json:"username"`
	DisplayName string              `json:"display_name"`
	Picture     string              `json:"picture,omitempty"`
	Provider    models.AuthProvider `json:"provider"`
	Role        models.UserRole     `json:"role"`
	PlanID      *string             `json:"plan_id"`
	PlanName    string              `json:"plan_name,omitempty"`
}

func NewUserResponse(user *models.User) *UserResponse {
	resp := &UserResponse{
		ID:          user.ID,
		Email:       user.Email,
		Username:    user.Username,
		DisplayName: user.DisplayName,
		Picture:     user.Picture,
		Provider:    user.Provider,
		Role:        user.Role,
		PlanID:      user.SubscriptionPlanID,
	}
	if user.Plan != nil {
		resp.PlanName = user.Plan.Name
	}
	return resp
}
