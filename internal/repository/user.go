package repository

import (
	"context"

	"gorm.io/gorm"

	"CareCompanion/internal/model"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Get(ctx context.Context, id int64) (*model.User, error) {
	var u model.User
	if err := r.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdatePhone 同时写入密文与哈希
func (r *UserRepository) UpdatePhone(ctx context.Context, id int64, cipher []byte, hash string) error {
	return r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).
		Updates(map[string]any{"phone_cipher": cipher, "phone_hash": hash}).Error
}
