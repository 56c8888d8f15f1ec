// Package password реализует хеширование и проверку паролей пользователей через bcrypt.
package password

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	// Cost стоимость bcrypt для новых хешей.
	Cost = 12
	// MaxBytes предел bcrypt на длину пароля в байтах.
	MaxBytes = 72
)

var (
	// ErrMismatch возвращается, если пароль не соответствует хешу.
	ErrMismatch = errors.New("password does not match")
	// ErrTooLong возвращается для паролей длиннее MaxBytes байт.
	ErrTooLong = errors.New("password exceeds 72 bytes")
)

// GetHash принимает пароль пользователя и возвращает его bcrypt‑хэш.
func GetHash(password string) (string, error) {
	const op = "password.GetHash"
	if len(password) > MaxBytes {
		return "", fmt.Errorf("%s: %w", op, ErrTooLong)
	}
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), Cost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return string(hashedPassword), nil
}

// CompareHash сравнивает bcrypt‑хэш с введённым паролем.
//
// Возвращает nil при совпадении, ErrMismatch при неверном пароле
// и обёрнутую ошибку bcrypt, если хеш повреждён.
func CompareHash(originalHash, externalPassword string) error {
	const op = "password.CompareHash"
	err := bcrypt.CompareHashAndPassword([]byte(originalHash), []byte(externalPassword))
	if err == nil {
		return nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return fmt.Errorf("%s: %w", op, ErrMismatch)
	}
	return fmt.Errorf("%s: %w", op, err)
}
