package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

const defaultTokenTTL = 24 * time.Hour

// Claims carries the principal a token was issued for.
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// JWTService issues and verifies HS256 tokens.
type JWTService struct {
	secretKey []byte
	issuer    string
	ttl       time.Duration
}

// NewJWTService creates a JWTService. A non-positive ttl falls back to 24 hours.
func NewJWTService(secretKey string, opts ...Option) *JWTService {
	j := &JWTService{
		secretKey: []byte(secretKey),
		ttl:       defaultTokenTTL,
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Option configures a JWTService.
type Option func(*JWTService)

// WithIssuer sets and requires the iss claim.
func WithIssuer(issuer string) Option {
	return func(j *JWTService) { j.issuer = issuer }
}

// WithTTL sets the lifetime of issued tokens.
func WithTTL(ttl time.Duration) Option {
	return func(j *JWTService) {
		if ttl > 0 {
			j.ttl = ttl
		}
	}
}

func (j *JWTService) GenerateToken(userID string) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    j.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.secretKey)
}

func (j *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if j.issuer != "" {
		opts = append(opts, jwt.WithIssuer(j.issuer))
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return j.secretKey, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	if claims.UserID == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// Resolve returns the principal a valid token was issued for.
func (j *JWTService) Resolve(credential string) (string, error) {
	claims, err := j.ValidateToken(credential)
	if err != nil {
		return "", err
	}
	return claims.UserID, nil
}
