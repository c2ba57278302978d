package model

import "github.com/golang-jwt/jwt/v5"

// AppClaims is the payload carried inside an access credential.
// Extra holds caller-defined claims that the core signs but does not interpret.
type AppClaims struct {
	UserID int                    `json:"user_id"`
	Role   string                 `json:"role"`
	Extra  map[string]interface{} `json:"extra,omitempty"`
	jwt.RegisteredClaims
}
