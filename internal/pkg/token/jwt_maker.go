package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const minSecretKeySize = 32

type claims struct {
	UPN  string `json:"upn"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// JWTMaker HS256 簽章
type JWTMaker struct {
	secretKey []byte
	now       func() time.Time
}

func NewJWTMaker(secretKey string) (*JWTMaker, error) {
	if len(secretKey) < minSecretKeySize {
		return nil, fmt.Errorf("invalid key size: must be at least %d characters", minSecretKeySize)
	}
	return &JWTMaker{secretKey: []byte(secretKey), now: time.Now}, nil
}

func (m *JWTMaker) CreateToken(userID, upn, role string, duration time.Duration) (string, *Payload, error) {
	if duration <= 0 {
		duration = DefaultTokenTTL
	}
	now := m.now()
	payload := &Payload{
		ID:        uuid.NewString(),
		UserID:    userID,
		UPN:       upn,
		Role:      role,
		IssuedAt:  now,
		ExpiredAt: now.Add(duration),
	}
	c := claims{
		UPN:  upn,
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        payload.ID,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(payload.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(payload.ExpiredAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(m.secretKey)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, payload, nil
}

func (m *JWTMaker) VerifyToken(tokenStr string) (*Payload, error) {
	var c claims
	_, err := jwt.ParseWithClaims(tokenStr, &c, func(t *jwt.Token) (any, error) {
		return m.secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if c.Subject == "" {
		return nil, ErrInvalidToken
	}
	return &Payload{
		ID:        c.ID,
		UserID:    c.Subject,
		UPN:       c.UPN,
		Role:      c.Role,
		IssuedAt:  c.IssuedAt.Time,
		ExpiredAt: c.ExpiresAt.Time,
	}, nil
}

var _ Maker = (*JWTMaker)(nil)
