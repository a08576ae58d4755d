package common

const (
	// AuthorizationHeader carries "Bearer <access token>" on protected requests.
	AuthorizationHeader = "Authorization"
	// BearerScheme is the only accepted authorization scheme.
	BearerScheme = "Bearer"
	// RequestIDHeader is echoed back on every response.
	RequestIDHeader = "X-Request-ID"
)
