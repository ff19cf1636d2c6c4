package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"dthink_backend/internal/appErrors"
	"dthink_backend/internal/models"
	"dthink_backend/internal/services"
	"dthink_backend/internal/session"
)

const snapshotKey = "sessionSnapshot"

// RequireAuth resolves the session cookie and stores the snapshot in the
// request context. No or unknown or expired token is 401; only a store
// outage is a server error.
func RequireAuth(store session.Store, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie(cookieName)

		snap, err := store.Resolve(token)
		if err != nil {
			appErrors.HandleError(c, err)
			return
		}
		if snap == nil {
			appErrors.HandleError(c, appErrors.ErrUnauthorized)
			return
		}
		if snap.Status == models.UserStatusSuspended {
			appErrors.HandleError(c, appErrors.ErrUserSuspended)
			return
		}

		c.Set(snapshotKey, snap)
		c.Next()
	}
}

// RequireAdmin rejects authenticated non-admin callers with 403. Must run
// after RequireAuth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		snap := GetSnapshot(c)
		if snap == nil {
			appErrors.HandleError(c, appErrors.ErrUnauthorized)
			return
		}
		if !snap.IsAdmin() {
			appErrors.HandleError(c, appErrors.ErrForbidden)
			return
		}
		c.Next()
	}
}

type kindProbe struct {
	Kind models.ProjectKind `json:"kind"`
}

// RequireProjectQuota gates capped-project creation. The body is read with
// ShouldBindBodyWith so the handler can bind it again. Admins bypass the
// quota unconditionally.
func RequireProjectQuota(quota services.QuotaService, upgradeURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap := GetSnapshot(c)
		if snap == nil {
			appErrors.HandleError(c, appErrors.ErrUnauthorized)
			return
		}
		if snap.IsAdmin() {
			c.Next()
			return
		}

		var probe kindProbe
		if err := c.ShouldBindBodyWith(&probe, binding.JSON); err != nil {
			appErrors.HandleValidationError(c, err)
			return
		}
		if probe.Kind != models.ProjectKindDoubleDiamond {
			// Only the capped kind is quota-gated.
			c.Next()
			return
		}

		eval, err := quota.Evaluate(snap)
		if err != nil {
			appErrors.HandleError(c, err)
			return
		}
		if !eval.Allowed {
			// Business-rule rejection with enough detail to render an
			// upgrade prompt, not a bare error string.
			appErrors.HandleError(c, appErrors.LimitReached(appErrors.LimitDetails{
				CurrentUsage: eval.CurrentUsage,
				Limit:        eval.Limit,
				PlanName:     eval.PlanName,
				UpgradeURL:   upgradeURL,
			}))
			return
		}

		c.Next()
	}
}

// GetSnapshot extracts the session snapshot placed by RequireAuth.
func GetSnapshot(c *gin.Context) *session.Snapshot {
	val, exists := c.Get(snapshotKey)
	if !exists {
		return nil
	}
	snap, ok := val.(*session.Snapshot)
	if !ok {
		return nil
	}
	return snap
}

// AbortUnauthenticated is the short-circuit for handlers finding no
// snapshot where one is required.
func AbortUnauthenticated(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
}
