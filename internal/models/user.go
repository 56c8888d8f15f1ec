// Package models содержит доменные структуры: пользователь, план, подписка, пара токенов.
package models

import "time"

// Роли пользователей.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User представляет зарегистрированного пользователя системы.
// PasswordHash никогда не сериализуется в ответы.
type User struct {
	UserID       string    `json:"user_id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Identity пользователь, подтверждённый Auth Gate для текущего запроса.
type Identity struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

// NewUser данные для регистрации.
type NewUser struct {
	Name     string
	Email    string
	Password string
	Role     string
	AdminKey string
}

// TokenPair пара токенов, выдаваемая при входе и ротации.
type TokenPair struct {
	AccessToken      string    `json:"accessToken"`
	RefreshToken     string    `json:"refreshToken"`
	RefreshExpiresAt time.Time `json:"-"`
}
