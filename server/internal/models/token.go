package models

import "github.com/golang-jwt/jwt/v5"

// TokenIssuer is the iss claim of every access token.
const TokenIssuer = "redactvault-server"

// TokenClaims is the payload of an access token.
type TokenClaims struct {
	UserID int64  `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}
