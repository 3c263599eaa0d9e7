// Package jwt выпускает и проверяет подписанные bearer-токены, которые
// идентифицируют Account в API.
package jwt

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Maker генерирует и разбирает токены аккаунтов.
type Maker interface {
	GenerateToken(accountID int64, email string) (string, error)
	ParseToken(tokenStr string) (*CustomClaims, error)
}

// CustomClaims содержит claims токена аккаунта. id аккаунта также
// записывается в стандартный subject.
type CustomClaims struct {
	AccountID int64  `json:"account_id"`
	Email     string `json:"email"`
	jwt.RegisteredClaims
}

// MakerImpl подписывает токены HMAC-секретом и задает фиксированный срок жизни.
type MakerImpl struct {
	secretKey string
	tokenTTL  time.Duration
	issuer    string
}

// NewJWTMaker создает MakerImpl по секретному ключу и TTL токена.
func NewJWTMaker(secretKey string, ttl time.Duration) *MakerImpl {
	return &MakerImpl{
		secretKey: secretKey,
		tokenTTL:  ttl,
		issuer:    "club-membership",
	}
}
