package models

// AuthClaims are the JWT claims accepted on the submit API. The token
// authorizes the caller; job parameters travel in the request body.
type AuthClaims struct {
	Issuer    string `json:"iss"` // optional
	Subject   string `json:"sub"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}
