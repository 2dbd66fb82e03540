package utils

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the claims the API accepts in a bearer token
type Claims struct {
	jwt.RegisteredClaims
	OwnerID string `json:"ownerId,omitempty"`
	Scope   string `json:"scope,omitempty"`
}

// Owner returns the account the token acts for, preferring the explicit claim
func (c *Claims) Owner() string {
	if c.OwnerID != "" {
		return c.OwnerID
	}
	return c.Subject
}

// ParseJWT parses a JWT token and validates it
func ParseJWT(tokenString string, keyFunc jwt.Keyfunc, opts ...jwt.ParserOption) (*Claims, error) {
	opts = append(opts, jwt.WithExpirationRequired())

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, keyFunc, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, errors.New("invalid claims type")
	}
	if claims.Owner() == "" {
		return nil, errors.New("token carries no owner")
	}

	return claims, nil
}

// HMACKeyFunc verifies HS256 tokens against a shared secret
func HMACKeyFunc(secret []byte) jwt.Keyfunc {
	return func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	}
}

// IssueToken signs an HS256 token for ownerID valid for ttl from now
func IssueToken(secret []byte, issuer, ownerID string, ttl time.Duration, now time.Time) (string, error) {
	if ownerID == "" {
		return "", errors.New("owner is required")
	}
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   ownerID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		OwnerID: ownerID,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ExtractBearerToken extracts the token from the Authorization header
func ExtractBearerToken(authHeader string) (string, error) {
	if authHeader == "" {
		return "", errors.New("authorization header is required")
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", errors.New("authorization header format must be: Bearer {token}")
	}

	return parts[1], nil
}

// HeaderValue looks a header up case-insensitively, API Gateway keeps client casing
func HeaderValue(headers map[string]string, name string) string {
	if v, ok := headers[name]; ok {
		return v
	}
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}
