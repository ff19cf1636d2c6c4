package appErrors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode identifies an application error class.
type ErrorCode string

// AppError is the application error carried across service boundaries.
type AppError struct {
	Code     ErrorCode   `json:"code"`
	Message  string      `json:"message"`
	Details  interface{} `json:"details,omitempty"`
	Err      error       `json:"-"`
	HTTPCode int         `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches AppErrors by code so that the sentinel values below survive
// WithDetails copies.
func (e *AppError) Is(target error) bool {
	var appErr *AppError
	if stderrors.As(target, &appErr) {
		return e.Code == appErr.Code
	}
	return false
}

func New(code ErrorCode, message string, httpCode int) *AppError {
	return &AppError{
		Code:     code,
		Message:  message,
		HTTPCode: httpCode,
	}
}

func Wrap(err error, code ErrorCode, message string, httpCode int) *AppError {
	return &AppError{
		Code:     code,
		Message:  message,
		Err:      err,
		HTTPCode: httpCode,
	}
}

// WithDetails returns a copy carrying structured details, leaving the
// sentinel untouched.
func (e *AppError) WithDetails(details interface{}) *AppError {
	clone := *e
	clone.Details = details
	return &clone
}

func (e *AppError) MarshalJSON() ([]byte, error) {
	type alias struct {
		Code    ErrorCode   `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	}
	return json.Marshal(&alias{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
}

// Is - wrapper over the standard errors.Is
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As - wrapper over the standard errors.As
func As(err error, target interface{}) bool {
	return stderrors.As(err, target)
}

// Predefined errors
var (
	// Authentication. ErrInvalidCredentials is deliberately the single
	// answer for unknown email, federated-only account and wrong password.
	ErrInvalidCredentials = New(CodeInvalidCredentials, "Invalid email or password", http.StatusUnauthorized)
	ErrUnauthorized       = New(CodeUnauthorized, "Authentication required", http.StatusUnauthorized)
	ErrForbidden          = New(CodeForbidden, "Access denied", http.StatusForbidden)
	ErrInvalidToken       = New(CodeInvalidToken, "Invalid or expired token", http.StatusUnauthorized)
	ErrMissingEmail       = New(CodeMissingEmail, "Identity provider returned no email", http.StatusBadRequest)

	// Users
	ErrUserNotFound       = New(CodeUserNotFound, "User not found", http.StatusNotFound)
	ErrEmailAlreadyExists = New(CodeEmailAlreadyExists, "Email already exists", http.StatusConflict)
	ErrUsernameTaken      = New(CodeUsernameTaken, "Username already taken", http.StatusConflict)
	ErrUserSuspended      = New(CodeUserSuspended, "User account suspended", http.StatusForbidden)
	ErrWeakPassword       = New(CodeWeakPassword, "Password must be at least 8 characters", http.StatusBadRequest)

	// Projects and journeys
	ErrProjectNotFound = New(CodeProjectNotFound, "Project not found", http.StatusNotFound)

	// Invites
	ErrInviteNotFound      = New(CodeInviteNotFound, "Invite not found", http.StatusNotFound)
	ErrInviteExpired       = New(CodeInviteExpired, "Invite has expired", http.StatusGone)
	ErrInviteEmailMismatch = New(CodeInviteEmailMismatch, "Invite was issued for a different email", http.StatusForbidden)

	// Library
	ErrItemNotFound = New(CodeItemNotFound, "Library item not found", http.StatusNotFound)

	// Plans and quota
	ErrPlanNotFound = New(CodePlanNotFound, "Plan not found", http.StatusNotFound)
	ErrLimitReached = New(CodeLimitReached, "Plan limit reached", http.StatusForbidden)

	// System. PlanConfiguration signals a deployment defect: the default
	// free tier could not be resolved unambiguously. The message stays
	// generic so configuration details never leak to the caller.
	ErrPlanConfiguration = New(CodePlanConfiguration, "Internal server error", http.StatusInternalServerError)
	ErrStoreUnavailable  = New(CodeStoreUnavailable, "Service temporarily unavailable", http.StatusInternalServerError)

	// Validation
	ErrValidationFailed = New(CodeValidationFailed, "Validation failed", http.StatusBadRequest)
)

// LimitDetails is attached to LIMIT_REACHED rejections so the client can
// render a specific upgrade prompt, never a bare error string.
type LimitDetails struct {
	CurrentUsage int    `json:"current_usage"`
	Limit        *int   `json:"limit"`
	PlanName     string `json:"plan_name"`
	UpgradeURL   string `json:"upgrade_url"`
}

// LimitReached builds the structured quota rejection.
func LimitReached(details LimitDetails) *AppError {
	return ErrLimitReached.WithDetails(details)
}

func ValidationError(details interface{}) *AppError {
	return ErrValidationFailed.WithDetails(details)
}

func InternalError(err error) *AppError {
	return Wrap(err, CodeInternalError, "Internal server error", http.StatusInternalServerError)
}

func StoreUnavailable(err error) *AppError {
	return Wrap(err, CodeStoreUnavailable, "Service temporarily unavailable", http.StatusInternalServerError)
}

func NewBadRequestError(message string) *AppError {
	return New(CodeValidationFailed, message, http.StatusBadRequest)
}

func NewNotFoundError(message string) *AppError {
	return New(CodeUserNotFound, message, http.StatusNotFound)
}

func NewForbiddenError(message string) *AppError {
	return New(CodeForbidden, message, http.StatusForbidden)
}
