package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tareksakakini/SipLocal-sub003/internal/model"
)

type OrderRepository interface {
	Create(ctx context.Context, tx *gorm.DB, order *model.Order) error
	CreateOrderItems(ctx context.Context, tx *gorm.DB, items []*model.OrderItem) error
	FindByTransactionID(ctx context.Context, transactionID string) (*model.Order, error)
	FindByPOSOrderID(ctx context.Context, posOrderID string) (*model.Order, error)
	GetOrderItems(ctx context.Context, transactionID string) ([]*model.OrderItem, error)

	// UpdateStatusIf transitions transactionID from `from` to `to` as a
	// single conditional write; false means some other path won the race and
	// the caller should treat its own transition as a no-op.
	UpdateStatusIf(ctx context.Context, transactionID string, from, to model.OrderStatus, extra map[string]interface{}) (bool, error)

	// SetPOSOrder assigns the POS order id at most once.
	SetPOSOrder(ctx context.Context, transactionID, posOrderID string) error
}

type orderRepoImpl struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepoImpl{
		db: db,
	}
}

func (r *orderRepoImpl) Create(ctx context.Context, tx *gorm.DB, order *model.Order) error {
	return tx.WithContext(ctx).Create(order).Error
}

func (r *orderRepoImpl) CreateOrderItems(ctx context.Context, tx *gorm.DB, items []*model.OrderItem) error {
	return tx.WithContext(ctx).Create(&items).Error
}

func (r *orderRepoImpl) FindByTransactionID(ctx context.Context, transactionID string) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Where("transaction_id = ?", transactionID).
		First(&order).Error

	if err != nil {
		return nil, err
	}

	return &order, nil
}

func (r *orderRepoImpl) FindByPOSOrderID(ctx context.Context, posOrderID string) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Where("pos_order_id = ?", posOrderID).
		First(&order).Error

	if err != nil {
		return nil, err
	}

	return &order, nil
}

func (r *orderRepoImpl) GetOrderItems(ctx context.Context, transactionID string) ([]*model.OrderItem, error) {
	var items []*model.OrderItem
	err := r.db.WithContext(ctx).
		Where("transaction_id = ?", transactionID).
		Find(&items).Error

	if err != nil {
		return nil, err
	}

	return items, nil
}

func (r *orderRepoImpl) UpdateStatusIf(ctx context.Context, transactionID string, from, to model.OrderStatus, extra map[string]interface{}) (bool, error) {
	updates := map[string]interface{}{
		"status":     to,
		"updated_at": time.Now(),
	}
	if to.Terminal() {
		now := time.Now()
		updates["completed_at"] = &now
	}
	for k, v := range extra {
		updates[k] = v
	}

	result := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("transaction_id = ? AND status = ?", transactionID, from).
		Updates(updates)

	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

func (r *orderRepoImpl) SetPOSOrder(ctx context.Context, transactionID, posOrderID string) error {
	result := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("transaction_id = ? AND (pos_order_id = '' OR pos_order_id IS NULL)", transactionID).
		Updates(map[string]interface{}{
			"pos_order_id": posOrderID,
			"updated_at":   time.Now(),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
