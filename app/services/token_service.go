package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/feirahub/commission-engine/utils"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Token validation errors
var (
	ErrTokenExpired = errors.New("token has expired")
	ErrTokenInvalid = errors.New("invalid token")
)

// TokenService validates operator tokens issued by the marketplace's auth
// service. Role policy (who may advance which payout) stays with that
// collaborator; this service only verifies the signature and extracts the
// operator identity.
type TokenService interface {
	GenerateOperatorToken(operatorID uint) (string, error)
	ValidateOperatorToken(token string) (*OperatorTokenClaims, error)
}

// OperatorTokenClaims represents claims for operator JWTs
type OperatorTokenClaims struct {
	OperatorID uint      `json:"operator_id"`
	IssuedAt   time.Time `json:"issued_at"`
	ExpiresAt  time.Time `json:"expires_at"`
	TokenID    string    `json:"jti"`
}

// TokenServiceImpl implements TokenService with an HMAC shared secret
type TokenServiceImpl struct {
	secretKey []byte
	issuer    string
	audience  string
	tokenTTL  time.Duration
}

// NewTokenService creates a new token service
func NewTokenService(secretKey, issuer, audience string, tokenTTL time.Duration) (TokenService, error) {
	if len(secretKey) < 32 {
		return nil, errors.New("secret key must be at least 32 characters")
	}
	if tokenTTL <= 0 {
		tokenTTL = utils.OperatorTokenTTL
	}
	return &TokenServiceImpl{
		secretKey: []byte(secretKey),
		issuer:    issuer,
		audience:  audience,
		tokenTTL:  tokenTTL,
	}, nil
}

// GenerateOperatorToken issues a signed operator token. Used by admin tooling
// and test fixtures; production tokens normally come from the auth service.
func (s *TokenServiceImpl) GenerateOperatorToken(operatorID uint) (string, error) {
	now := utils.UTCNow()
	claims := jwt.MapClaims{
		"operator_id": operatorID,
		"iss":         s.issuer,
		"aud":         s.audience,
		"iat":         now.Unix(),
		"exp":         now.Add(s.tokenTTL).Unix(),
		"jti":         uuid.New().String(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secretKey)
}

// ValidateOperatorToken verifies the signature and standard claims and
// extracts the operator identity.
func (s *TokenServiceImpl) ValidateOperatorToken(tokenString string) (*OperatorTokenClaims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secretKey, nil
	},
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}

	operatorID, ok := claims["operator_id"].(float64)
	if !ok || operatorID <= 0 {
		return nil, ErrTokenInvalid
	}

	out := &OperatorTokenClaims{
		OperatorID: uint(operatorID),
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		out.IssuedAt = iat.Time
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}
	if jti, ok := claims["jti"].(string); ok {
		out.TokenID = jti
	}

	return out, nil
}
