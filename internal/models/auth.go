package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWTClaims carries the resolved caller identity. ProfileID is the linked
// student or lecturer record, used for ownership checks.
type JWTClaims struct {
	AccountID string      `json:"account_id"`
	Username  string      `json:"username"`
	Role      AccountRole `json:"role"`
	ProfileID string      `json:"profile_id,omitempty"`
	jwt.RegisteredClaims
}

// LoginRequest is the credential payload for token issuance.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the issued access token and account summary.
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresIn   int64     `json:"expires_in"`
	IssuedAt    time.Time `json:"issued_at"`
	Account     Account   `json:"account"`
}
