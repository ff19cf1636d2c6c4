package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dthink_backend/internal/models"
	"dthink_backend/internal/services"
	"dthink_backend/internal/session"
)

const testCookie = "dthink_session"

func init() {
	gin.SetMode(gin.TestMode)
}

type stubQuota struct {
	eval   *services.Evaluation
	err    error
	called int
}

func (q *stubQuota) Evaluate(snap *session.Snapshot) (*services.Evaluation, error) {
	q.called++
	return q.eval, q.err
}

func activeUser(role models.UserRole) *models.User {
	return &models.User{
		BaseModel: models.BaseModel{ID: "11111111-1111-1111-1111-111111111111"},
		Email:     "ada@example.com",
		Username:  "ada",
		Role:      role,
		Status:    models.UserStatusActive,
	}
}

func newAuthedRouter(store session.Store) *gin.Engine {
	r := gin.New()
	r.GET("/me", RequireAuth(store, testCookie), func(c *gin.Context) {
		snap := GetSnapshot(c)
		c.JSON(http.StatusOK, gin.H{"role": snap.Role})
	})
	r.GET("/admin", RequireAuth(store, testCookie), RequireAdmin(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func doRequest(r *gin.Engine, method, path, token string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.AddCookie(&http.Cookie{Name: testCookie, Value: token})
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireAuth_NoCookie(t *testing.T) {
	t.Parallel()

	r := newAuthedRouter(session.NewMemoryStore(time.Hour))
	w := doRequest(r, http.MethodGet, "/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuth_UnknownToken(t *testing.T) {
	t.Parallel()

	r := newAuthedRouter(session.NewMemoryStore(time.Hour))
	w := doRequest(r, http.MethodGet, "/me", "deadbeef", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuth_ValidSession(t *testing.T) {
	t.Parallel()

	store := session.NewMemoryStore(time.Hour)
	token, err := store.Create(activeUser(models.UserRoleUser))
	require.NoError(t, err)

	r := newAuthedRouter(store)
	w := doRequest(r, http.MethodGet, "/me", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "user")
}

func TestRequireAuth_ExpiredSession(t *testing.T) {
	t.Parallel()

	// Negative TTL: everything is expired the moment it is created.
	store := session.NewMemoryStore(-time.Minute)
	token, err := store.Create(activeUser(models.UserRoleUser))
	require.NoError(t, err)

	r := newAuthedRouter(store)
	w := doRequest(r, http.MethodGet, "/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuth_SuspendedUser(t *testing.T) {
	t.Parallel()

	store := session.NewMemoryStore(time.Hour)
	user := activeUser(models.UserRoleUser)
	user.Status = models.UserStatusSuspended
	token, err := store.Create(user)
	require.NoError(t, err)

	r := newAuthedRouter(store)
	w := doRequest(r, http.MethodGet, "/me", token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireAdmin_ForbiddenForUsers(t *testing.T) {
	t.Parallel()

	store := session.NewMemoryStore(time.Hour)
	token, err := store.Create(activeUser(models.UserRoleUser))
	require.NoError(t, err)

	r := newAuthedRouter(store)
	w := doRequest(r, http.MethodGet, "/admin", token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

// A role change takes effect on the live session once the owning sessions
// are refreshed, without a new login.
func TestRoleChangeVisibleAfterRefresh(t *testing.T) {
	t.Parallel()

	store := session.NewMemoryStore(time.Hour)
	user := activeUser(models.UserRoleUser)
	token, err := store.Create(user)
	require.NoError(t, err)

	r := newAuthedRouter(store)

	w := doRequest(r, http.MethodGet, "/admin", token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	user.Role = models.UserRoleAdmin
	require.NoError(t, store.RefreshUser(user))

	w = doRequest(r, http.MethodGet, "/admin", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func newQuotaRouter(store session.Store, quota services.QuotaService) *gin.Engine {
	r := gin.New()
	r.POST("/projects",
		RequireAuth(store, testCookie),
		RequireProjectQuota(quota, "https://app.example.com/billing/upgrade"),
		func(c *gin.Context) {
			// The handler must still see the body consumed by the quota gate.
			var payload struct {
				Name string             `json:"name"`
				Kind models.ProjectKind `json:"kind"`
			}
			if err := c.ShouldBindBodyWith(&payload, binding.JSON); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusCreated, gin.H{"name": payload.Name})
		})
	return r
}

func TestRequireProjectQuota_AllowedPasses(t *testing.T) {
	t.Parallel()

	store := session.NewMemoryStore(time.Hour)
	token, err := store.Create(activeUser(models.UserRoleUser))
	require.NoError(t, err)

	limit := 3
	quota := &stubQuota{eval: &services.Evaluation{Allowed: true, CurrentUsage: 1, Limit: &limit, PlanName: "free"}}
	r := newQuotaRouter(store, quota)

	body := []byte(`{"name": "Kiosk", "kind": "double_diamond"}`)
	w := doRequest(r, http.MethodPost, "/projects", token, body)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "Kiosk")
	assert.Equal(t, 1, quota.called)
}

func TestRequireProjectQuota_RejectsAtLimit(t *testing.T) {
	t.Parallel()

	store := session.NewMemoryStore(time.Hour)
	token, err := store.Create(activeUser(models.UserRoleUser))
	require.NoError(t, err)

	limit := 3
	quota := &stubQuota{eval: &services.Evaluation{Allowed: false, CurrentUsage: 3, Limit: &limit, PlanName: "free"}}
	r := newQuotaRouter(store, quota)

	body := []byte(`{"name": "One too many", "kind": "double_diamond"}`)
	w := doRequest(r, http.MethodPost, "/projects", token, body)
	assert.Equal(t, http.StatusForbidden, w.Code)

	var resp struct {
		Error struct {
			Code    string `json:"code"`
			Details struct {
				CurrentUsage int    `json:"current_usage"`
				Limit        *int   `json:"limit"`
				PlanName     string `json:"plan_name"`
				UpgradeURL   string `json:"upgrade_url"`
			} `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "LIMIT_REACHED", resp.Error.Code)
	assert.Equal(t, 3, resp.Error.Details.CurrentUsage)
	require.NotNil(t, resp.Error.Details.Limit)
	assert.Equal(t, 3, *resp.Error.Details.Limit)
	assert.Equal(t, "free", resp.Error.Details.PlanName)
	assert.NotEmpty(t, resp.Error.Details.UpgradeURL)
}

func TestRequireProjectQuota_AdminBypass(t *testing.T) {
	t.Parallel()

	store := session.NewMemoryStore(time.Hour)
	token, err := store.Create(activeUser(models.UserRoleAdmin))
	require.NoError(t, err)

	quota := &stubQuota{err: errors.New("must not be called")}
	r := newQuotaRouter(store, quota)

	body := []byte(`{"name": "Admin project", "kind": "double_diamond"}`)
	w := doRequest(r, http.MethodPost, "/projects", token, body)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 0, quota.called)
}

func TestRequireProjectQuota_UncappedKindSkipsEvaluation(t *testing.T) {
	t.Parallel()

	store := session.NewMemoryStore(time.Hour)
	token, err := store.Create(activeUser(models.UserRoleUser))
	require.NoError(t, err)

	quota := &stubQuota{err: errors.New("must not be called")}
	r := newQuotaRouter(store, quota)

	body := []byte(`{"name": "Open-ended", "kind": "design_thinking"}`)
	w := doRequest(r, http.MethodPost, "/projects", token, body)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 0, quota.called)
}
