package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"CareCompanion/internal/model/dto"
	"CareCompanion/internal/repository"
	"CareCompanion/pkg/errors"
	"CareCompanion/pkg/logger"
	"CareCompanion/storage/database"
	"CareCompanion/utils"
)

type UserService struct{}

var (
	userService *UserService
	userOnce    sync.Once
)

func User() *UserService {
	userOnce.Do(func() {
		userService = &UserService{}
	})
	return userService
}

func (s *UserService) Me(ctx context.Context, userID int64) (*dto.MeResponse, error) {
	u, err := repository.NewUserRepository(database.DB()).Get(ctx, userID)
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.Unauthorized
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user %d: %w", userID, err)
	}
	return &dto.MeResponse{
		ID:          u.ID,
		Nickname:    u.Nickname,
		Role:        string(u.Role),
		Timezone:    u.Timezone,
		HasPhone:    len(u.PhoneCipher) > 0,
		CaregiverID: u.CaregiverID,
	}, nil
}

// UpdatePhone 照护者登记接收漏服短信的手机号，明文不落库
func (s *UserService) UpdatePhone(ctx context.Context, userID int64, phone string) error {
	phone = strings.TrimSpace(phone)
	if !utils.ValidatePhone(phone) {
		return errors.InvalidRequest
	}

	cipher, err := utils.EncryptPhone(phone)
	if err != nil {
		return fmt.Errorf("failed to encrypt phone: %w", err)
	}

	if err := repository.NewUserRepository(database.DB()).UpdatePhone(ctx, userID, cipher, utils.HashPhone(phone)); err != nil {
		return fmt.Errorf("failed to update phone: %w", err)
	}

	logger.Logger.Info("User phone updated", zap.Int64("user_id", userID))
	return nil
}
