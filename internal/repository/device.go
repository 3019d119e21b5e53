package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/tareksakakini/SipLocal-sub003/internal/model"
)

type DeviceRepository interface {
	TokensForUser(ctx context.Context, userID string) ([]string, error)
	Register(ctx context.Context, device *model.UserDevice) error
}

type deviceRepoImpl struct {
	db *gorm.DB
}

func NewDeviceRepository(db *gorm.DB) DeviceRepository {
	return &deviceRepoImpl{
		db: db,
	}
}

func (r *deviceRepoImpl) TokensForUser(ctx context.Context, userID string) ([]string, error) {
	var tokens []string
	err := r.db.WithContext(ctx).
		Model(&model.UserDevice{}).
		Where("user_id = ?", userID).
		Pluck("device_token", &tokens).Error
	if err != nil {
		return nil, err
	}

	return tokens, nil
}

func (r *deviceRepoImpl) Register(ctx context.Context, device *model.UserDevice) error {
	return r.db.WithContext(ctx).Create(device).Error
}
