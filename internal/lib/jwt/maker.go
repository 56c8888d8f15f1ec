// Package jwt реализует генерацию и парсинг JWT токенов с идентификатором пользователя.
//
// Maker подписывает токены одним секретом и одним TTL, поэтому для access и refresh
// токенов создаются два независимых экземпляра с разными секретами.
package jwt

import (
	"errors"
	"time"
)

var (
	// ErrInvalid токен повреждён, подписан другим ключом или не содержит userId.
	ErrInvalid = errors.New("invalid token")
	// ErrExpired срок действия токена истёк.
	ErrExpired = errors.New("token expired")
)

// Maker описывает интерфейс для генерации и парсинга JWT токенов.
type Maker interface {
	// GenerateToken возвращает подписанный токен и момент его истечения.
	GenerateToken(userID string) (string, time.Time, error)
	// ParseToken проверяет подпись и срок действия, возвращает claims.
	ParseToken(tokenStr string) (*CustomClaims, error)
}

// MakerImpl реализует Maker с HMAC-подписью.
type MakerImpl struct {
	secretKey string           // Секретный ключ для подписи токенов.
	tokenTTL  time.Duration    // Время жизни токена.
	now       func() time.Time // Источник времени, подменяется в тестах.
}

// Option настраивает MakerImpl.
type Option func(*MakerImpl)

// WithClock подменяет источник текущего времени.
func WithClock(now func() time.Time) Option {
	return func(m *MakerImpl) {
		m.now = now
	}
}

// NewJWTMaker создаёт новый экземпляр MakerImpl на основе секретного ключа и TTL.
func NewJWTMaker(secretKey string, ttl time.Duration, opts ...Option) *MakerImpl {
	m := &MakerImpl{
		secretKey: secretKey,
		tokenTTL:  ttl,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// TTL возвращает время жизни выпускаемых токенов.
func (j *MakerImpl) TTL() time.Duration {
	return j.tokenTTL
}
