// Package common contains shared constants and sentinel errors used across
// Nozoku server components.
package common

// AuthHeaderName is the HTTP header carrying the bearer access token.
const AuthHeaderName = "Authorization"

// BearerPrefix is the expected prefix of the Authorization header value.
const BearerPrefix = "Bearer "
