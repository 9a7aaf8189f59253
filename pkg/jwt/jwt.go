package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidSigningMethod = errors.New("unexpected signing method")
	ErrInvalidToken         = errors.New("invalid token")
	ErrEmptySecret          = errors.New("signing secret is empty")
)

// Claims are the claims of the internal session assertion. The assertion
// itself is never handed to clients; it is stored next to its hash and
// re-verified on every session validation.
type Claims struct {
	jwt.RegisteredClaims
	UserID uuid.UUID `json:"uid"`
}

// TokenService signs and verifies the internal session assertion with a
// server-held HMAC secret.
type TokenService struct {
	secret []byte
	expiry time.Duration
	issuer string
	now    func() time.Time
}

func NewTokenService(secret []byte, expiry time.Duration, issuer string) (*TokenService, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}

	return &TokenService{
		secret: secret,
		expiry: expiry,
		issuer: issuer,
		now:    time.Now,
	}, nil
}

// Generate builds a signed assertion binding the given user id for the
// configured validity window.
func (s *TokenService) Generate(userID uuid.UUID) (string, error) {
	now := s.now()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.New().String(),
		},
		UserID: userID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", err
	}

	return signed, nil
}

// Validate checks the assertion's signature and expiry and returns its claims.
func (s *TokenService) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidSigningMethod
		}
		return s.secret, nil
	})

	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// Expiry returns the validity window assertions are issued with.
func (s *TokenService) Expiry() time.Duration {
	return s.expiry
}
