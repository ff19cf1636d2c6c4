package appErrors

// Error codes grouped by domain
const (
	// Authentication and authorization
	CodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	CodeUnauthorized       ErrorCode = "UNAUTHORIZED"
	CodeForbidden          ErrorCode = "FORBIDDEN"
	CodeInvalidToken       ErrorCode = "INVALID_TOKEN"

	// Validation
	CodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	CodeWeakPassword     ErrorCode = "WEAK_PASSWORD"
	CodeMissingEmail     ErrorCode = "MISSING_EMAIL"

	// Resources
	CodeUserNotFound    ErrorCode = "USER_NOT_FOUND"
	CodeProjectNotFound ErrorCode = "PROJECT_NOT_FOUND"
	CodePlanNotFound    ErrorCode = "PLAN_NOT_FOUND"
	CodeInviteNotFound  ErrorCode = "INVITE_NOT_FOUND"
	CodeItemNotFound    ErrorCode = "ITEM_NOT_FOUND"

	// Business rules
	CodeEmailAlreadyExists  ErrorCode = "EMAIL_ALREADY_EXISTS"
	CodeUsernameTaken       ErrorCode = "USERNAME_TAKEN"
	CodeLimitReached        ErrorCode = "LIMIT_REACHED"
	CodeInviteEmailMismatch ErrorCode = "INVITE_EMAIL_MISMATCH"
	CodeInviteExpired       ErrorCode = "INVITE_EXPIRED"
	CodeUserSuspended       ErrorCode = "USER_SUSPENDED"

	// System errors
	CodePlanConfiguration ErrorCode = "PLAN_CONFIGURATION_ERROR"
	CodeStoreUnavailable  ErrorCode = "STORE_UNAVAILABLE"
	CodeInternalError     ErrorCode = "INTERNAL_ERROR"
	CodeExternalService   ErrorCode = "EXTERNAL_SERVICE_ERROR"
)
