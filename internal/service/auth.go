package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"CareCompanion/config"
	"CareCompanion/internal/cache"
	"CareCompanion/internal/model/dto"
	"CareCompanion/internal/repository"
	"CareCompanion/pkg/errors"
	"CareCompanion/pkg/logger"
	"CareCompanion/pkg/token"
	"CareCompanion/storage/database"
)

var (
	authService *AuthService
	authOnce    sync.Once
)

func Auth() *AuthService {
	authOnce.Do(func() {
		authService = &AuthService{}
	})
	return authService
}

type AuthService struct{}

// RefreshToken 校验并轮换 refresh token，旧 token 立即失效
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*dto.TokenResponse, error) {
	userID, _, err := token.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, errors.Unauthorized
	}

	if !cache.ValidateRefreshTokenExists(ctx, userID, refreshToken) {
		return nil, errors.Unauthorized
	}

	return s.issue(ctx, userID)
}

// IssueDevToken 仅开发环境，跳过登录直接签发
func (s *AuthService) IssueDevToken(ctx context.Context, userID int64) (*dto.TokenResponse, error) {
	if !config.Cfg.IsDevelopment() {
		return nil, errors.Unauthorized
	}
	return s.issue(ctx, userID)
}

func (s *AuthService) Logout(ctx context.Context, userID int64) error {
	return cache.DeleteRefreshToken(ctx, userID)
}

// issue 角色以数据库为准，不沿用旧 token 中的角色
func (s *AuthService) issue(ctx context.Context, userID int64) (*dto.TokenResponse, error) {
	user, err := repository.NewUserRepository(database.DB()).Get(ctx, userID)
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.Unauthorized
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	pair, err := token.GenerateTokenPair(user.ID, string(user.Role))
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	if err := cache.SetRefreshToken(ctx, user.ID, pair.RefreshToken); err != nil {
		logger.Logger.Warn("Failed to store refresh token",
			zap.Int64("user_id", user.ID),
			zap.Error(err),
		)
	}

	return &dto.TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
	}, nil
}
