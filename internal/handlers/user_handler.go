package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"dthink_backend/internal/middleware"
	"dthink_backend/internal/services"
	"dthink_backend/internal/services/dto"
)

type UserHandler struct {
	*BaseHandler
	userService services.UserService
}

func NewUserHandler(base *BaseHandler, userService services.UserService) *UserHandler {
	return &UserHandler{
		BaseHandler: base,
		userService: userService,
	}
}

func (h *UserHandler) GetProfile(c *gin.Context) {
	snap := middleware.GetSnapshot(c)
	if snap == nil {
		middleware.AbortUnauthenticated(c)
		return
	}

	user, err := h.userService.Get(snap.UserID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	snap := middleware.GetSnapshot(c)
	if snap == nil {
		middleware.AbortUnauthenticated(c)
		return
	}

	var req dto.UpdateProfileRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	user, err := h.userService.UpdateProfile(snap.UserID, req.DisplayName, req.Picture)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// Admin endpoints. Routes mount these behind RequireAdmin.

func (h *UserHandler) AdminList(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	users, total, err := h.userService.AdminList(page, pageSize)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	responses := make([]*dto.UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, dto.NewUserResponse(&users[i]))
	}

	c.JSON(http.StatusOK, gin.H{
		"users": responses,
		"total": total,
		"page":  page,
	})
}

func (h *UserHandler) AdminUpdate(c *gin.Context) {
	var req dto.AdminUpdateUserRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	user, err := h.userService.AdminUpdate(c.Param("id"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}
