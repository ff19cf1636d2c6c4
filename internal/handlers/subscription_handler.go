package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"dthink_backend/internal/appErrors"
	"dthink_backend/internal/middleware"
	"dthink_backend/internal/services"
	"dthink_backend/internal/services/dto"
)

type SubscriptionHandler struct {
	*BaseHandler
	subscriptionService services.SubscriptionService
}

func NewSubscriptionHandler(base *BaseHandler, subscriptionService services.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{
		BaseHandler:         base,
		subscriptionService: subscriptionService,
	}
}

func (h *SubscriptionHandler) ListPlans(c *gin.Context) {
	plans, err := h.subscriptionService.ListPlans()
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"plans": plans, "total": len(plans)})
}

func (h *SubscriptionHandler) GetPlan(c *gin.Context) {
	plan, err := h.subscriptionService.GetPlan(c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"plan": plan})
}

func (h *SubscriptionHandler) CreatePlan(c *gin.Context) {
	var req dto.CreatePlanRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	plan, err := h.subscriptionService.CreatePlan(&req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"plan": plan, "message": "Plan created successfully"})
}

func (h *SubscriptionHandler) UpdatePlan(c *gin.Context) {
	var req dto.UpdatePlanRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	plan, err := h.subscriptionService.UpdatePlan(c.Param("id"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"plan": plan})
}

func (h *SubscriptionHandler) CreateCheckout(c *gin.Context) {
	snap := middleware.GetSnapshot(c)
	if snap == nil {
		middleware.AbortUnauthenticated(c)
		return
	}

	var req dto.CheckoutRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	resp, err := h.subscriptionService.CreateCheckout(snap, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *SubscriptionHandler) CreatePortal(c *gin.Context) {
	snap := middleware.GetSnapshot(c)
	if snap == nil {
		middleware.AbortUnauthenticated(c)
		return
	}

	resp, err := h.subscriptionService.CreatePortal(snap)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *SubscriptionHandler) PaymentHistory(c *gin.Context) {
	snap := middleware.GetSnapshot(c)
	if snap == nil {
		middleware.AbortUnauthenticated(c)
		return
	}

	payments, err := h.subscriptionService.PaymentHistory(snap)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payments": payments, "total": len(payments)})
}

// Webhook receives billing provider events; authenticated by signature,
// not by session.
func (h *SubscriptionHandler) Webhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		appErrors.HandleError(c, appErrors.NewBadRequestError("unreadable payload"))
		return
	}

	if err := h.subscriptionService.HandleWebhook(payload, c.GetHeader("Stripe-Signature")); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
