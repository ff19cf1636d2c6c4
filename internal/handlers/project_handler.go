package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dthink_backend/internal/middleware"
	"dthink_backend/internal/models"
	"dthink_backend/internal/services"
	"dthink_backend/internal/services/dto"
)

type ProjectHandler struct {
	*BaseHandler
	projectService services.ProjectService
	inviteService  services.InviteService
}

func NewProjectHandler(base *BaseHandler, projectService services.ProjectService, inviteService services.InviteService) *ProjectHandler {
	return &ProjectHandler{
		BaseHandler:    base,
		projectService: projectService,
		inviteService:  inviteService,
	}
}

func (h *ProjectHandler) Create(c *gin.Context) {
	snap := middleware.GetSnapshot(c)
	if snap == nil {
		middleware.AbortUnauthenticated(c)
		return
	}

	// Buffered bind: the quota middleware already read the body.
	var req dto.CreateProjectRequest
	if !h.BindAndValidate_BufferedJSON(c, &req) {
		return
	}

	project, err := h.projectService.Create(snap, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"project": project})
}

func (h *ProjectHandler) List(c *gin.Context) {
	snap := middleware.GetSnapshot(c)
	if snap == nil {
		middleware.AbortUnauthenticated(c)
		return
	}

	projects, err := h.projectService.List(snap)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"projects": projects, "total": len(projects)})
}

func (h *ProjectHandler) Get(c *gin.Context) {
	snap := middleware.GetSnapshot(c)
	if snap == nil {
		middleware.AbortUnauthenticated(c)
		return
	}

	project, err := h.projectService.Get(snap, c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"project": project})
}

func (h *ProjectHandler) Update(c *gin.Context) {
	snap := middleware.GetSnapshot(c)
	if snap == nil {
		middleware.AbortUnauthenticated(c)
		return
	}

	var req dto.UpdateProjectRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	project, err := h.projectService.Update(snap, c.Param("id"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"project": project})
}

func (h *ProjectHandler) Delete(c *gin.Context) {
	snap := middleware.GetSnapshot(c)
	if snap == nil {
		middleware.AbortUnauthenticated(c)
		return
	}

	if err := h.projectService.Delete(snap, c.Param("id")); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Project deleted"})
}

func (h *ProjectHandler) AdvancePhase(c *gin.Context) {
	snap := middleware.GetSnapshot(c)
	if snap == nil {
		middleware.AbortUnauthenticated(c)
		return
	}

	project, err := h.projectService.AdvancePhase(snap, c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"project": project})
}

func (h *ProjectHandler) CreateEntry(c *gin.Context) {
	snap := middleware.GetSnapshot(c)
	if snap == nil {
		middleware.AbortUnauthenticated(c)
		return
	}

	var req dto.CreateEntryRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	entry, err := h.projectService.CreateEntry(snap, c.Param("id"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"entry": entry})
}

func (h *ProjectHandler) ListEntries(c *gin.Context) {
	snap := middleware.GetSnapshot(c)
	if snap == nil {
		middleware.AbortUnauthenticated(c)
		return
	}

	phase := models.JourneyPhase(c.Query("phase"))
	entries, err := h.projectService.ListEntries(snap, c.Param("id"), phase)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries, "total": len(entries)})
}

func (h *ProjectHandler) TranslateEntry(c *gin.Context) {
	snap := middleware.GetSnapshot(c)
	if snap == nil {
		middleware.AbortUnauthenticated(c)
		return
	}

	var req dto.TranslateEntryRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	entry, err := h.projectService.TranslateEntry(c.Request.Context(), snap, c.Param("id"), c.Param("entryId"), req.Language)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entry": entry})
}

func (h *ProjectHandler) CreateInvite(c *gin.Context) {
	snap := middleware.GetSnapshot(c)
	if snap == nil {
		middleware.AbortUnauthenticated(c)
		return
	}

	var req dto.CreateInviteRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	invite, err := h.inviteService.Create(snap, c.Param("id"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"invite": invite})
}

func (h *ProjectHandler) ListInvites(c *gin.Context) {
	snap := middleware.GetSnapshot(c)
	if snap == nil {
		middleware.AbortUnauthenticated(c)
		return
	}

	invites, err := h.inviteService.ListByProject(snap, c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invites": invites, "total": len(invites)})
}

func (h *ProjectHandler) AcceptInvite(c *gin.Context) {
	snap := middleware.GetSnapshot(c)
	if snap == nil {
		middleware.AbortUnauthenticated(c)
		return
	}

	var req dto.AcceptInviteRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	invite, err := h.inviteService.Accept(snap, req.Token)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invite": invite})
}
