package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/nozoku/nozoku-server/internal/common"
	"github.com/nozoku/nozoku-server/internal/server/auth"
	"github.com/nozoku/nozoku-server/internal/server/config"
	"github.com/nozoku/nozoku-server/internal/server/models"
	"github.com/nozoku/nozoku-server/internal/server/repositories/repomanager"
)

// TokenPair is the credential set returned by Login and Refresh.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// UserService covers registration, authentication, profile and settings.
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	jwtSecret   []byte

	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
}

func NewUserService(db *sql.DB, rm repomanager.RepositoryManager, cfg *config.Config) *UserService {
	return &UserService{
		db:                           db,
		repomanager:                  rm,
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
	}
}

// Register creates an account with default settings. The email must be unique.
func (s *UserService) Register(ctx context.Context, email, password, displayName string) (*models.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" || strings.TrimSpace(displayName) == "" {
		return nil, common.ErrorValidation
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		DisplayName:  strings.TrimSpace(displayName),
		Settings:     models.DefaultSettings(),
	}

	user, err = s.repomanager.Users(s.db).Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	return user, nil
}

// Login verifies the password and issues a token pair.
func (s *UserService) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, common.ErrorInternal
	}

	if bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)) != nil {
		return nil, common.ErrorUnauthorized
	}

	return s.issueTokens(ctx, user.ID)
}

// Refresh rotates the refresh token and issues a fresh pair.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	repo := s.repomanager.RefreshTokens(s.db)

	stored, err := repo.Find(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, common.ErrorInternal
	}

	if time.Now().After(stored.Expires) {
		_ = repo.Delete(ctx, refreshToken)
		return nil, common.ErrRefreshTokenExpired
	}

	if err := repo.Delete(ctx, refreshToken); err != nil {
		return nil, common.ErrorInternal
	}

	return s.issueTokens(ctx, stored.UserID)
}

func (s *UserService) issueTokens(ctx context.Context, userID string) (*TokenPair, error) {
	accessToken, err := auth.GenerateToken(userID, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, common.ErrorInternal
	}

	refreshToken, err := common.MakeRandHexString(32)
	if err != nil {
		return nil, common.ErrorInternal
	}

	if err := s.repomanager.RefreshTokens(s.db).Create(ctx, userID, refreshToken, s.refreshTokenValidityDuration); err != nil {
		return nil, common.ErrorInternal
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// ChangePassword re-verifies the current password before accepting the new one.
func (s *UserService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	if newPassword == "" {
		return common.ErrorValidation
	}

	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(currentPassword)) != nil {
		return common.ErrorUnauthorized
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("error hashing password: %w", err)
	}

	return repo.UpdatePassword(ctx, userID, hash)
}

// GetUser returns the full account record of the authenticated user.
func (s *UserService) GetUser(ctx context.Context, userID string) (*models.User, error) {
	return s.repomanager.Users(s.db).GetByID(ctx, userID)
}

// GetProfile resolves the public directory view of any user.
func (s *UserService) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	return s.repomanager.Users(s.db).GetProfile(ctx, userID)
}

func (s *UserService) UpdateProfile(ctx context.Context, userID, displayName, bio, avatarKey string) error {
	if strings.TrimSpace(displayName) == "" {
		return common.ErrorValidation
	}
	return s.repomanager.Users(s.db).UpdateProfile(ctx, userID, strings.TrimSpace(displayName), bio, avatarKey)
}

func (s *UserService) UpdateSettings(ctx context.Context, userID string, settings models.Settings) error {
	switch settings.MessagePrivacy {
	case models.MessagePrivacyEveryone, models.MessagePrivacyFollowers, models.MessagePrivacyNoone:
	default:
		settings.MessagePrivacy = models.MessagePrivacyEveryone
	}
	return s.repomanager.Users(s.db).UpdateSettings(ctx, userID, settings)
}

// UpdateCreatorOptions sets the subscription mode and price of a creator page.
func (s *UserService) UpdateCreatorOptions(ctx context.Context, userID string, mode models.SubscriptionMode, price int64) error {
	switch mode {
	case models.SubscriptionFree, models.SubscriptionPaid, models.SubscriptionBoth:
	default:
		return common.ErrorValidation
	}
	if mode != models.SubscriptionFree && price <= 0 {
		return common.ErrInvalidAmount
	}
	return s.repomanager.Users(s.db).UpdateCreatorOptions(ctx, userID, mode, price)
}
