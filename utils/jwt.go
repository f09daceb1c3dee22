package utils

import (
	"errors"
	"fmt"
	"time"

	"compressd/models"

	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"
)

var (
	ErrInvalidToken     = errors.New("invalid token format")
	ErrTokenExpired     = errors.New("token has expired")
	ErrTokenNotYetValid = errors.New("token not yet valid")
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrInvalidIssuer    = errors.New("invalid issuer")
)

// VerifyConfig holds verification configuration
type VerifyConfig struct {
	SecretKey      []byte        // For HMAC (HS256)
	PublicKey      any           // For RSA (RS256) - *rsa.PublicKey
	ExpectedIssuer string        // Optional: validate issuer
	ClockSkew      time.Duration // Optional: allow clock skew (default 0)
}

// VerifyToken verifies a submit-API bearer token and returns its claims.
func VerifyToken(tokenString string, config VerifyConfig) (*models.AuthClaims, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}

	var allowedAlgs []jose.SignatureAlgorithm
	if config.SecretKey != nil {
		allowedAlgs = append(allowedAlgs, jose.HS256)
	}
	if config.PublicKey != nil {
		allowedAlgs = append(allowedAlgs, jose.RS256)
	}
	if len(allowedAlgs) == 0 {
		return nil, errors.New("no verification key provided")
	}

	tok, err := jwt.ParseSigned(tokenString, allowedAlgs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims := &models.AuthClaims{}

	var verifyErr error
	if config.SecretKey != nil {
		verifyErr = tok.Claims(config.SecretKey, claims)
	} else if config.PublicKey != nil {
		verifyErr = tok.Claims(config.PublicKey, claims)
	}
	if verifyErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, verifyErr)
	}

	now := time.Now().Unix()
	clockSkew := int64(config.ClockSkew.Seconds())

	if claims.ExpiresAt > 0 && claims.ExpiresAt < (now-clockSkew) {
		return nil, ErrTokenExpired
	}
	if claims.IssuedAt > 0 && claims.IssuedAt > (now+clockSkew) {
		return nil, ErrTokenNotYetValid
	}
	if config.ExpectedIssuer != "" && claims.Issuer != config.ExpectedIssuer {
		return nil, fmt.Errorf("%w: expected '%s', got '%s'",
			ErrInvalidIssuer, config.ExpectedIssuer, claims.Issuer)
	}

	return claims, nil
}

// CreateToken signs claims with an HMAC secret. Used by operators issuing
// API tokens and by tests.
func CreateToken(claims *models.AuthClaims, secretKey []byte) (string, error) {
	if claims == nil {
		return "", errors.New("claims cannot be nil")
	}

	signer, err := jose.NewSigner(jose.SigningKey{Algorithm: jose.HS256, Key: secretKey}, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create signer: %w", err)
	}

	token, err := jwt.Signed(signer).Claims(claims).Serialize()
	if err != nil {
		return "", fmt.Errorf("failed to create JWT: %w", err)
	}
	return token, nil
}
