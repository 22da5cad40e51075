// Package common contains shared constants and sentinel errors used across
// Kidsgram components.
package common

// AuthorizationHeaderName carries the bearer token on inbound requests.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix is the scheme prefix expected in the Authorization header.
const BearerPrefix = "Bearer "

// DateLayout is the canonical calendar date form used for entry dates.
const DateLayout = "2006-01-02"
