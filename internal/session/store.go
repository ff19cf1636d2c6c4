package session

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"

	"dthink_backend/internal/models"
)

// Snapshot is the cached subset of a user's authorization-relevant fields
// kept alongside the session token, so resolving a request never needs a
// database join. It goes stale when the authoritative user changes; callers
// mutating role, plan or limits must refresh the owning sessions.
type Snapshot struct {
	UserID       string            `json:"user_id"`
	Username     string            `json:"username"`
	Email        string            `json:"email"`
	Role         models.UserRole   `json:"role"`
	PlanID       *string           `json:"plan_id"`
	CustomLimits map[string]int    `json:"custom_limits,omitempty"`
	Status       models.UserStatus `json:"status"`
}

func (s *Snapshot) IsAdmin() bool {
	return s.Role == models.UserRoleAdmin
}

// NewSnapshot builds a snapshot from the authoritative user record.
func NewSnapshot(user *models.User) *Snapshot {
	snap := &Snapshot{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		Role:     user.Role,
		PlanID:   user.SubscriptionPlanID,
		Status:   user.Status,
	}
	if len(user.CustomLimits) > 0 {
		var limits map[string]int
		if err := json.Unmarshal(user.CustomLimits, &limits); err == nil {
			snap.CustomLimits = limits
		}
	}
	return snap
}

// Store maps opaque session tokens to snapshots. Implementations must be
// safe for concurrent use; last-write-wins on Refresh/Destroy is acceptable.
type Store interface {
	// Create registers a new session and returns its token.
	Create(user *models.User) (string, error)

	// Resolve returns the snapshot for a token, or nil when the token is
	// absent, unknown or expired. A nil snapshot means "unauthenticated",
	// not a fault; a non-nil error means the store itself is unavailable.
	Resolve(token string) (*Snapshot, error)

	// Refresh overwrites the snapshot of one session from the
	// authoritative user record.
	Refresh(token string, user *models.User) (*Snapshot, error)

	// RefreshUser overwrites the snapshots of every session owned by the
	// user. Called after admin role changes and plan activations, where
	// the acting request does not hold the affected user's token.
	RefreshUser(user *models.User) error

	// Destroy removes a session. Destroying an unknown token is a no-op.
	Destroy(token string) error

	// Prune removes expired sessions and returns how many were dropped.
	Prune() (int, error)
}

// NewToken returns a cryptographically random opaque session token.
func NewToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
