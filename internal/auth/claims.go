package auth

import (
	"time"
)

// AccessClaims are the decrypted contents of an access token.
type AccessClaims struct {
	ProfileID string `json:"profile_id"`
	Email     string `json:"email"`
	SessionID string `json:"sid"`

	Issuer     string    `json:"iss"`
	Subject    string    `json:"sub"`
	Audience   string    `json:"aud"`
	Expiration time.Time `json:"exp"`
	NotBefore  time.Time `json:"nbf"`
	IssuedAt   time.Time `json:"iat"`
	TokenID    string    `json:"jti"`
}

// ClientInfo describes the caller that opened a session.
type ClientInfo struct {
	IPAddress string `json:"-"`
	UserAgent string `json:"-"`
}
