package common

// AuthorizationHeaderName is the HTTP header carrying the admin bearer token.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix precedes the token in AuthorizationHeaderName.
const BearerPrefix = "Bearer "

// RequestIDHeaderName is echoed back on every HTTP response.
const RequestIDHeaderName = "X-Request-ID"
