package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"dthink_backend/internal/appErrors"
	"dthink_backend/internal/auth"
	"dthink_backend/internal/config"
	"dthink_backend/internal/middleware"
	"dthink_backend/internal/services"
	"dthink_backend/internal/services/dto"
)

const oauthStateCookie = "oauth_state"

type AuthHandler struct {
	*BaseHandler
	authService services.AuthService
	userService services.UserService
	google      *auth.GoogleProvider
	cfg         *config.Config
}

func NewAuthHandler(
	base *BaseHandler,
	authService services.AuthService,
	userService services.UserService,
	google *auth.GoogleProvider,
	cfg *config.Config,
) *AuthHandler {
	return &AuthHandler{
		BaseHandler: base,
		authService: authService,
		userService: userService,
		google:      google,
		cfg:         cfg,
	}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	user, err := h.authService.Register(&req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user": dto.NewUserResponse(user)})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	token, user, err := h.authService.Login(&req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.setSessionCookie(c, token)
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// GoogleRedirect starts the OAuth flow with an anti-CSRF state cookie.
func (h *AuthHandler) GoogleRedirect(c *gin.Context) {
	state := randomState()
	c.SetCookie(oauthStateCookie, state, 600, "/", "", h.cfg.Session.Secure, true)
	c.Redirect(http.StatusFound, h.google.AuthURL(state))
}

func (h *AuthHandler) GoogleCallback(c *gin.Context) {
	var req dto.GoogleCallbackRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		appErrors.HandleValidationError(c, err)
		return
	}

	wantState, err := c.Cookie(oauthStateCookie)
	if err != nil || wantState == "" || req.State != wantState {
		h.HandleServiceError(c, appErrors.ErrInvalidToken)
		return
	}
	c.SetCookie(oauthStateCookie, "", -1, "/", "", h.cfg.Session.Secure, true)

	assertion, err := h.google.Exchange(c.Request.Context(), req.Code)
	if err != nil {
		h.HandleServiceError(c, appErrors.Wrap(err, appErrors.CodeExternalService, "Identity provider error", http.StatusBadGateway))
		return
	}

	token, user, err := h.authService.LoginFederated(assertion)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	h.setSessionCookie(c, token)
	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	token, _ := c.Cookie(h.cfg.Session.CookieName)
	if token != "" {
		if err := h.authService.Logout(token); err != nil {
			h.HandleServiceError(c, err)
			return
		}
	}
	c.SetCookie(h.cfg.Session.CookieName, "", -1, "/", "", h.cfg.Session.Secure, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

func (h *AuthHandler) Me(c *gin.Context) {
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

func (h *AuthHandler) ChangePassword(c *gin.Context) {
	snap := middleware.GetSnapshot(c)
	if snap == nil {
		middleware.AbortUnauthenticated(c)
		return
	}

	var req dto.ChangePasswordRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	if err := h.authService.ChangePassword(snap.UserID, &req); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password changed"})
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, token string) {
	maxAge := h.cfg.Session.TTL * 60
	c.SetCookie(h.cfg.Session.CookieName, token, maxAge, "/", "", h.cfg.Session.Secure, true)
}

func randomState() string {
	return uuid.NewString()
}
