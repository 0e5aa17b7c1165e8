package common

const (
	// AuthorizationHeaderName carries "Bearer <token>" on HTTP requests and
	// the lowercase key of the same value in gRPC metadata.
	AuthorizationHeaderName = "Authorization"

	// BearerScheme is the only authorization scheme accepted.
	BearerScheme = "Bearer"

	// DefaultAccessTokenCookie is the cookie consulted when no header is present.
	DefaultAccessTokenCookie = "access_token"
)
