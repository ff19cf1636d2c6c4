package routes

import (
	"github.com/gin-gonic/gin"

	"dthink_backend/internal/handlers"
	"dthink_backend/internal/logger"
)

// Middlewares carries the request guards the route tree depends on. They
// are built by the app with their backing services already injected.
type Middlewares struct {
	RequireAuth  gin.HandlerFunc
	RequireAdmin gin.HandlerFunc
	ProjectQuota gin.HandlerFunc
}

// RegisterRoutes wires every HTTP route of the API.
func RegisterRoutes(ginRouter *gin.Engine, appHandlers *handlers.AppHandlers, mw Middlewares) {
	api := ginRouter.Group("/api/v1")

	// Public endpoints: no session required.
	auth := api.Group("/auth")
	{
		auth.POST("/register", appHandlers.AuthHandler.Register)
		auth.POST("/login", appHandlers.AuthHandler.Login)
		auth.GET("/google", appHandlers.AuthHandler.GoogleRedirect)
		auth.GET("/google/callback", appHandlers.AuthHandler.GoogleCallback)
		auth.POST("/logout", appHandlers.AuthHandler.Logout)
	}

	plans := api.Group("/plans")
	{
		plans.GET("", appHandlers.SubscriptionHandler.ListPlans)
		plans.GET("/:id", appHandlers.SubscriptionHandler.GetPlan)
	}

	// Stripe calls this endpoint directly; it authenticates with the
	// webhook signature, not a session cookie.
	api.POST("/billing/webhook", appHandlers.SubscriptionHandler.Webhook)

	// Authenticated endpoints.
	private := api.Group("")
	private.Use(mw.RequireAuth)
	{
		private.GET("/auth/me", appHandlers.AuthHandler.Me)
		private.POST("/auth/change-password", appHandlers.AuthHandler.ChangePassword)

		private.GET("/profile", appHandlers.UserHandler.GetProfile)
		private.PATCH("/profile", appHandlers.UserHandler.UpdateProfile)

		projects := private.Group("/projects")
		{
			projects.POST("", mw.ProjectQuota, appHandlers.ProjectHandler.Create)
			projects.GET("", appHandlers.ProjectHandler.List)
			projects.GET("/:id", appHandlers.ProjectHandler.Get)
			projects.PATCH("/:id", appHandlers.ProjectHandler.Update)
			projects.DELETE("/:id", appHandlers.ProjectHandler.Delete)
			projects.POST("/:id/advance", appHandlers.ProjectHandler.AdvancePhase)

			projects.POST("/:id/entries", appHandlers.ProjectHandler.CreateEntry)
			projects.GET("/:id/entries", appHandlers.ProjectHandler.ListEntries)
			projects.POST("/:id/entries/:entryId/translate", appHandlers.ProjectHandler.TranslateEntry)

			projects.POST("/:id/invites", appHandlers.ProjectHandler.CreateInvite)
			projects.GET("/:id/invites", appHandlers.ProjectHandler.ListInvites)
		}
		private.POST("/invites/accept", appHandlers.ProjectHandler.AcceptInvite)

		library := private.Group("/library")
		{
			library.POST("", appHandlers.LibraryHandler.Create)
			library.GET("", appHandlers.LibraryHandler.List)
			library.GET("/:id", appHandlers.LibraryHandler.Get)
			library.PATCH("/:id", appHandlers.LibraryHandler.Update)
			library.DELETE("/:id", appHandlers.LibraryHandler.Delete)
		}

		billing := private.Group("/billing")
		{
			billing.POST("/checkout", appHandlers.SubscriptionHandler.CreateCheckout)
			billing.POST("/portal", appHandlers.SubscriptionHandler.CreatePortal)
			billing.GET("/payments", appHandlers.SubscriptionHandler.PaymentHistory)
		}
	}

	// Administration.
	admin := api.Group("/admin")
	admin.Use(mw.RequireAuth, mw.RequireAdmin)
	{
		admin.GET("/users", appHandlers.UserHandler.AdminList)
		admin.PATCH("/users/:id", appHandlers.UserHandler.AdminUpdate)
		admin.POST("/plans", appHandlers.SubscriptionHandler.CreatePlan)
		admin.PATCH("/plans/:id", appHandlers.SubscriptionHandler.UpdatePlan)
	}

	logger.Info("routes registered", "base_path", "/api/v1")
}
