package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/antoniogar11/refolder-sub002/internal/common/utils"
)

// SecretSource provides the shared HS256 secret
type SecretSource interface {
	SigningSecret(ctx context.Context) ([]byte, error)
}

// Verifier validates bearer tokens. HS256 tokens are checked against the
// shared secret; RS256 and ES256 tokens against the JWKS when one is configured.
type Verifier struct {
	secrets SecretSource
	jwks    *JWKSCache
	issuer  string
	logger  *zap.Logger
}

// NewVerifier creates a token verifier. jwks may be nil.
func NewVerifier(secrets SecretSource, jwks *JWKSCache, issuer string, logger *zap.Logger) *Verifier {
	return &Verifier{
		secrets: secrets,
		jwks:    jwks,
		issuer:  issuer,
		logger:  logger,
	}
}

// Verify parses and validates token, returning its claims
func (v *Verifier) Verify(ctx context.Context, token string) (*utils.Claims, error) {
	var opts []jwt.ParserOption
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	opts = append(opts, jwt.WithValidMethods([]string{"HS256", "RS256", "ES256"}))

	claims, err := utils.ParseJWT(token, v.keyFunc(ctx), opts...)
	if err != nil {
		v.logger.Debug("token rejected", zap.Error(err))
		return nil, err
	}
	return claims, nil
}

func (v *Verifier) keyFunc(ctx context.Context) jwt.Keyfunc {
	return func(token *jwt.Token) (interface{}, error) {
		switch token.Method.(type) {
		case *jwt.SigningMethodHMAC:
			if v.secrets == nil {
				return nil, errors.New("shared-secret tokens are not accepted")
			}
			return v.secrets.SigningSecret(ctx)
		case *jwt.SigningMethodRSA, *jwt.SigningMethodECDSA:
			if v.jwks == nil {
				return nil, errors.New("no key set configured for asymmetric tokens")
			}
			kid, ok := token.Header["kid"].(string)
			if !ok || kid == "" {
				return nil, errors.New("key ID not found in token header")
			}
			return v.jwks.Key(ctx, kid)
		default:
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
	}
}
