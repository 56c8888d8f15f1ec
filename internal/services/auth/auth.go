// Package auth содержит бизнес-логику регистрации, входа и работы с токенами.
//
// Access и refresh токены подписываются разными секретами. Refresh-токен хранится
// в БД: у пользователя в штатном режиме один действующий refresh-токен, вход
// вытесняет предыдущие, ротация удаляет предъявленный.
package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/magabrotheeeer/subscription-manager/internal/lib/jwt"
	"github.com/magabrotheeeer/subscription-manager/internal/lib/password"
	"github.com/magabrotheeeer/subscription-manager/internal/metrics"
	"github.com/magabrotheeeer/subscription-manager/internal/models"
	"github.com/magabrotheeeer/subscription-manager/internal/storage"
)

var (
	ErrUserExists          = errors.New("user already exists with this email")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrInvalidAdminKey     = errors.New("invalid admin registration key")
	ErrInvalidRole         = errors.New("invalid role")
	ErrTokenInvalid        = errors.New("invalid token")
	ErrTokenExpired        = errors.New("token expired")
	ErrUserNotFound        = errors.New("user not found")
	ErrRefreshTokenRevoked = errors.New("refresh token revoked")
)

// UserRepository хранилище пользователей.
type UserRepository interface {
	CreateUser(ctx context.Context, user models.User) (*models.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetIdentity(ctx context.Context, userID string) (*models.Identity, error)
}

// TokenRepository хранилище refresh-токенов.
type TokenRepository interface {
	ReplaceRefreshToken(ctx context.Context, userID, token string, expiresAt time.Time) error
	RotateRefreshToken(ctx context.Context, userID, oldToken, newToken string, expiresAt, now time.Time) error
	DeleteRefreshTokens(ctx context.Context, userID string) (int64, error)
}

// Repository объединяет оба хранилища, его реализует storage.Storage.
type Repository interface {
	UserRepository
	TokenRepository
}

// AuthService отвечает за регистрацию, вход, выпуск и проверку токенов.
type AuthService struct {
	users    UserRepository
	tokens   TokenRepository
	access   jwt.Maker
	refresh  jwt.Maker
	adminKey string
	metrics  *metrics.Metrics
	now      func() time.Time
}

// Option настраивает AuthService.
type Option func(*AuthService)

// WithMetrics включает счётчики попыток входа и регистрации.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *AuthService) { s.metrics = m }
}

// WithClock подменяет источник времени для проверки срока refresh-токенов в БД.
func WithClock(now func() time.Time) Option {
	return func(s *AuthService) { s.now = now }
}

// NewAuthService создает новый экземпляр AuthService.
// Пустой adminKey запрещает регистрацию администраторов.
func NewAuthService(repo Repository, access, refresh jwt.Maker, adminKey string, opts ...Option) *AuthService {
	s := &AuthService{
		users:    repo,
		tokens:   repo,
		access:   access,
		refresh:  refresh,
		adminKey: adminKey,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register создает пользователя. Администратора можно зарегистрировать только
// с корректным ключом; занятый email проверяется раньше ключа.
func (s *AuthService) Register(ctx context.Context, in models.NewUser) (*models.User, error) {
	const op = "services.auth.Register"

	role := in.Role
	if role == "" {
		role = models.RoleUser
	}
	if role != models.RoleUser && role != models.RoleAdmin {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidRole)
	}
	email := normalizeEmail(in.Email)

	exists, err := s.users.EmailExists(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if exists {
		s.count("register", "conflict")
		return nil, fmt.Errorf("%s: %w", op, ErrUserExists)
	}

	if role == models.RoleAdmin && !s.validAdminKey(in.AdminKey) {
		s.count("register", "forbidden")
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidAdminKey)
	}

	hashed, err := password.GetHash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	user, err := s.users.CreateUser(ctx, models.User{
		Name:         in.Name,
		Email:        email,
		PasswordHash: hashed,
		Role:         role,
	})
	if err != nil {
		if errors.Is(err, storage.ErrUserExists) {
			s.count("register", "conflict")
			return nil, fmt.Errorf("%s: %w", op, ErrUserExists)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.count("register", "success")
	return user, nil
}

// Login проверяет пароль, выпускает пару токенов и сохраняет refresh-токен,
// удаляя все предыдущие refresh-токены пользователя.
func (s *AuthService) Login(ctx context.Context, email, rawPassword string) (*models.User, *models.TokenPair, error) {
	const op = "services.auth.Login"

	user, err := s.users.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.count("login", "invalid_credentials")
			return nil, nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		if errors.Is(err, password.ErrMismatch) {
			s.count("login", "invalid_credentials")
			return nil, nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	pair, err := s.IssueTokenPair(user.UserID)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.tokens.ReplaceRefreshToken(ctx, user.UserID, pair.RefreshToken, pair.RefreshExpiresAt); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	user.PasswordHash = ""
	s.count("login", "success")
	return user, pair, nil
}

// IssueTokenPair подписывает access и refresh токены для userID. Побочных эффектов нет.
func (s *AuthService) IssueTokenPair(userID string) (*models.TokenPair, error) {
	const op = "services.auth.IssueTokenPair"

	accessToken, _, err := s.access.GenerateToken(userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	refreshToken, refreshExp, err := s.refresh.GenerateToken(userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &models.TokenPair{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// VerifyAccessToken проверяет подпись и срок access-токена и возвращает userID.
// Сохранённые refresh-токены не учитываются.
func (s *AuthService) VerifyAccessToken(token string) (string, error) {
	const op = "services.auth.VerifyAccessToken"
	claims, err := s.access.ParseToken(token)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, tokenError(err))
	}
	return claims.UserID, nil
}

// Authenticate проверяет access-токен и загружает пользователя без хеша пароля.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.Identity, error) {
	const op = "services.auth.Authenticate"

	userID, err := s.VerifyAccessToken(token)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	identity, err := s.users.GetIdentity(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return identity, nil
}

// Refresh обменивает действующий refresh-токен на новую пару.
// Повторное предъявление уже ротированного или отозванного токена даёт ErrRefreshTokenRevoked.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error) {
	const op = "services.auth.Refresh"

	claims, err := s.refresh.ParseToken(refreshToken)
	if err != nil {
		s.count("refresh", "invalid")
		return nil, fmt.Errorf("%s: %w", op, tokenError(err))
	}

	pair, err := s.IssueTokenPair(claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	err = s.tokens.RotateRefreshToken(ctx, claims.UserID, refreshToken, pair.RefreshToken, pair.RefreshExpiresAt, s.now())
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.count("refresh", "revoked")
			return nil, fmt.Errorf("%s: %w", op, ErrRefreshTokenRevoked)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.count("refresh", "success")
	return pair, nil
}

// Logout удаляет все refresh-токены пользователя. Выданные access-токены
// остаются действительными до истечения срока.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	const op = "services.auth.Logout"
	if _, err := s.tokens.DeleteRefreshTokens(ctx, userID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *AuthService) validAdminKey(key string) bool {
	if s.adminKey == "" || key == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(s.adminKey), []byte(key)) == 1
}

func (s *AuthService) count(action, result string) {
	if s.metrics == nil {
		return
	}
	s.metrics.AuthAttempts.WithLabelValues(action, result).Inc()
}

func tokenError(err error) error {
	if errors.Is(err, jwt.ErrExpired) {
		return ErrTokenExpired
	}
	return fmt.Errorf("%w: %v", ErrTokenInvalid, err)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
