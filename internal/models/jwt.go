package models

// JWTClaims represents the claims extracted from a bearer identity token
type JWTClaims struct {
	Sub           string `json:"sub"`   // Subject (user ID from provider)
	Email         string `json:"email"` // User email
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Exp           int64  `json:"exp"`
	Iat           int64  `json:"iat"`
	Iss           string `json:"iss"`
	Aud           string `json:"aud"`
}
