package constants

const (
	// Environment constants
	EnvDevelopment = "development"
	EnvTest        = "test"
	EnvProduction  = "production"

	// HTTP Headers
	HeaderContentType       = "Content-Type"
	HeaderXRequestID        = "X-Request-ID"
	HeaderAPIKey            = "X-API-Key"
	HeaderLicenseKey        = "X-License-Key"
	HeaderIdempotencyKey    = "Idempotency-Key"
	HeaderIdempotentReplay  = "Idempotent-Replayed"
	HeaderRateLimitLimit    = "X-RateLimit-Limit"
	HeaderRateLimitRemain   = "X-RateLimit-Remaining"
	HeaderRateLimitReset    = "X-RateLimit-Reset"
	MaxIdempotencyKeyLength = 255

	// Content Types
	ContentTypeJSON = "application/json; charset=utf-8"

	// Context keys
	ContextKeyRequestID = "request_id"
	ContextKeyTenant    = "tenant"
	ContextKeyLicense   = "license_key"

	// Database table names
	TableBrands             = "brands"
	TableProducts           = "products"
	TableAPIKeys            = "api_keys"
	TableLicenseKeys        = "license_keys"
	TableLicenses           = "licenses"
	TableActivations        = "activations"
	TableIdempotencyRecords = "idempotency_records"
	TableCasbinRules        = "casbin_rules"

	// Error messages
	ErrMsgInternalServerError = "Internal server error occurred"
	ErrMsgResourceNotFound    = "Resource not found"
	ErrMsgUnauthorized        = "Unauthorized access"
	ErrMsgForbidden           = "Access forbidden"
	ErrMsgValidationFailed    = "Validation failed"
)
