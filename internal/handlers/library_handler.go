package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dthink_backend/internal/middleware"
	"dthink_backend/internal/models"
	"dthink_backend/internal/services"
	"dthink_backend/internal/services/dto"
)

type LibraryHandler struct {
	*BaseHandler
	libraryService services.LibraryService
}

func NewLibraryHandler(base *BaseHandler, libraryService services.LibraryService) *LibraryHandler {
	return &LibraryHandler{
		BaseHandler:    base,
		libraryService: libraryService,
	}
}

func (h *LibraryHandler) Create(c *gin.Context) {
	snap := middleware.GetSnapshot(c)
	if snap == nil {
		middleware.AbortUnauthenticated(c)
		return
	}

	var req dto.CreateLibraryItemRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	item, err := h.libraryService.Create(snap, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"item": item})
}

func (h *LibraryHandler) List(c *gin.Context) {
	snap := middleware.GetSnapshot(c)
	if snap == nil {
		middleware.AbortUnauthenticated(c)
		return
	}

	phase := models.JourneyPhase(c.Query("phase"))
	items, err := h.libraryService.List(snap, phase)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "total": len(items)})
}

func (h *LibraryHandler) Get(c *gin.Context) {
	snap := middleware.GetSnapshot(c)
	if snap == nil {
		middleware.AbortUnauthenticated(c)
		return
	}

	item, err := h.libraryService.Get(snap, c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"item": item})
}

func (h *LibraryHandler) Update(c *gin.Context) {
	snap := middleware.GetSnapshot(c)
	if snap == nil {
		middleware.AbortUnauthenticated(c)
		return
	}

	var req dto.UpdateLibraryItemRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	item, err := h.libraryService.Update(snap, c.Param("id"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"item": item})
}

func (h *LibraryHandler) Delete(c *gin.Context) {
	snap := middleware.GetSnapshot(c)
	if snap == nil {
		middleware.AbortUnauthenticated(c)
		return
	}

	if err := h.libraryService.Delete(snap, c.Param("id")); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Item deleted"})
}
