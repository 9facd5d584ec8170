package token

import (
	"errors"
	"time"
)

var (
	ErrInvalidToken = errors.New("token is invalid")
	ErrExpiredToken = errors.New("token has expired")
)

const DefaultTokenTTL = 7 * 24 * time.Hour

// Payload token 內的身分資訊
type Payload struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	UPN       string    `json:"upn"`
	Role      string    `json:"role"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiredAt time.Time `json:"expired_at"`
}

type Maker interface {
	CreateToken(userID, upn, role string, duration time.Duration) (string, *Payload, error)
	VerifyToken(token string) (*Payload, error)
}
