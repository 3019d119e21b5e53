package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tareksakakini/SipLocal-sub003/internal/model"
)

type CredentialRepository interface {
	Get(ctx context.Context, merchantID string) (*model.MerchantCredential, error)
	Upsert(ctx context.Context, cred *model.MerchantCredential) error
	CacheLocation(ctx context.Context, merchantID, locationID string) error
}

type credentialRepoImpl struct {
	db *gorm.DB
}

func NewCredentialRepository(db *gorm.DB) CredentialRepository {
	return &credentialRepoImpl{
		db: db,
	}
}

func (r *credentialRepoImpl) Get(ctx context.Context, merchantID string) (*model.MerchantCredential, error) {
	var cred model.MerchantCredential
	err := r.db.WithContext(ctx).
		Where("merchant_id = ?", merchantID).
		First(&cred).Error
	if err != nil {
		return nil, err
	}

	return &cred, nil
}

func (r *credentialRepoImpl) Upsert(ctx context.Context, cred *model.MerchantCredential) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		DoUpdates: clause.Assignments(map[string]interface{}{
			"pos_type":     cred.POSType,
			"access_token": cred.AccessToken,
			"location_id":  cred.LocationID,
			"updated_at":   time.Now(),
		}),
	}).Create(&cred).Error
}

func (r *credentialRepoImpl) CacheLocation(ctx context.Context, merchantID, locationID string) error {
	result := r.db.WithContext(ctx).
		Model(&model.MerchantCredential{}).
		Where("merchant_id = ?", merchantID).
		Updates(map[string]interface{}{
			"location_id": locationID,
			"updated_at":  time.Now(),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
