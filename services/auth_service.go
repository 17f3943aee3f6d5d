package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"calorietrack/apperrors"
	"calorietrack/config"
	"calorietrack/logger"
	"calorietrack/models"
	"calorietrack/utils"

	"gorm.io/gorm"
)

// Registration holds the fields a new account needs.
type Registration struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

// Credentials are what a user logs in with.
type Credentials struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthService struct {
	db     *gorm.DB
	secret string
	ttl    time.Duration
	log    *slog.Logger
}

func NewAuthService(db *gorm.DB, cfg config.AuthConfig, log *slog.Logger) *AuthService {
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &AuthService{db: db, secret: cfg.JWTSecret, ttl: ttl, log: logger.Module(log, "auth")}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a user. Emails are unique case-insensitively.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	const op = "auth.register"

	username = strings.TrimSpace(username)
	email = normalizeEmail(email)
	if err := utils.ValidateStruct(op, Registration{Username: username, Email: email, Password: password}); err != nil {
		return nil, err
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, apperrors.Internal(op, "registration failed", err)
	}
	if count > 0 {
		return nil, apperrors.Conflict(op, "already registered, please login")
	}

	hashed, err := utils.HashPassword(password)
	if err != nil {
		return nil, apperrors.Internal(op, "registration failed", err)
	}

	user := &models.User{Username: username, Email: email, Password: hashed}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.Conflict(op, "already registered, please login")
		}
		return nil, apperrors.Internal(op, "registration failed", err)
	}
	s.log.InfoContext(ctx, "user registered", "user_id", user.ID)
	return user, nil
}

// Login checks credentials and returns a signed token.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	const op = "auth.login"

	email = normalizeEmail(email)
	if err := utils.ValidateStruct(op, Credentials{Email: email, Password: password}); err != nil {
		return "", err
	}
	if s.secret == "" {
		return "", apperrors.Configuration(op, "server misconfigured: JWT_SECRET not set")
	}

	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", apperrors.NotFound(op, "user not found")
		}
		return "", apperrors.Internal(op, "login failed", err)
	}

	if !utils.CheckPasswordHash(password, user.Password) {
		s.log.WarnContext(ctx, "login rejected", "user_id", user.ID)
		return "", apperrors.Unauthorized(op, "invalid credentials")
	}

	token, err := utils.GenerateJWT(s.secret, user.ID, s.ttl)
	if err != nil {
		return "", apperrors.Internal(op, "login failed", err)
	}
	return token, nil
}

// Me returns the user; the password hash is never serialized.
func (s *AuthService) Me(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("auth.me", "user not found")
		}
		return nil, apperrors.Internal("auth.me", "failed to load user", err)
	}
	return &user, nil
}

// VerifyToken returns the user id carried by a bearer token.
func (s *AuthService) VerifyToken(token string) (string, error) {
	if s.secret == "" {
		return "", apperrors.Configuration("auth.verify", "server misconfigured: JWT_SECRET not set")
	}
	userID, err := utils.ParseJWT(s.secret, token)
	if err != nil {
		return "", apperrors.Unauthorized("auth.verify", "invalid token")
	}
	return userID, nil
}
