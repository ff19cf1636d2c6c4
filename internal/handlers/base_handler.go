package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"dthink_backend/internal/appErrors"
	"dthink_backend/internal/logger"
	"dthink_backend/internal/validator"
)

type BaseHandler struct {
	validator *validator.Validator
}

func NewBaseHandler(v *validator.Validator) *BaseHandler {
	return &BaseHandler{
		validator: v,
	}
}

// BindAndValidate_JSON binds the JSON body and validates it; on failure it
// writes the error response and returns false.
func (h *BaseHandler) BindAndValidate_JSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		logger.Warn("failed to bind JSON body", "path", c.Request.URL.Path, "error", err)
		appErrors.HandleValidationError(c, err)
		return false
	}
	return h.validate(c, obj)
}

// BindAndValidate_BufferedJSON is BindAndValidate_JSON over a buffered
// body, for routes where middleware already consumed it.
func (h *BaseHandler) BindAndValidate_BufferedJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindBodyWith(obj, binding.JSON); err != nil {
		logger.Warn("failed to bind JSON body", "path", c.Request.URL.Path, "error", err)
		appErrors.HandleValidationError(c, err)
		return false
	}
	return h.validate(c, obj)
}

func (h *BaseHandler) BindAndValidate_Query(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindQuery(obj); err != nil {
		logger.Warn("failed to bind query params", "path", c.Request.URL.Path, "error", err)
		appErrors.HandleValidationError(c, err)
		return false
	}
	return h.validate(c, obj)
}

func (h *BaseHandler) validate(c *gin.Context, obj interface{}) bool {
	if err := h.validator.Validate(obj); err != nil {
		if vErr, ok := err.(*validator.ValidationError); ok {
			logger.Warn("validation failed", "errors", vErr.Errors, "path", c.Request.URL.Path)
			appErrors.HandleError(c, appErrors.ValidationError(vErr.Errors))
		} else {
			logger.Error("internal validator error", "error", err, "path", c.Request.URL.Path)
			appErrors.HandleError(c, appErrors.InternalError(err))
		}
		return false
	}
	return true
}

// HandleServiceError maps service errors onto the wire.
func (h *BaseHandler) HandleServiceError(c *gin.Context, err error) {
	appErrors.HandleError(c, err)
}
