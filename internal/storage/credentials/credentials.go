// Package credentials keeps the session credential under two fixed names,
// TokenKey and RoleKey. Values are opaque strings.
package credentials

const (
	TokenKey = "authToken"
	RoleKey  = "role"
)
