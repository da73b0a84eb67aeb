package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"orderhub/internal/model"
)

// OrderRepository defines persistence operations for the order aggregate.
type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) error
	FindByID(ctx context.Context, id uint) (*model.Order, error)
	FindByIDForUpdate(ctx context.Context, id uint) (*model.Order, error)
	ListAll(ctx context.Context) ([]model.Order, error)
	ListByOwner(ctx context.Context, ownerID uint) ([]model.Order, error)
	FindItemByID(ctx context.Context, id uint) (*model.OrderItem, error)
	CreateItem(ctx context.Context, item *model.OrderItem) error
	DeleteItem(ctx context.Context, item *model.OrderItem) error
	UpdatePrice(ctx context.Context, order *model.Order) error
	UpdateStatus(ctx context.Context, order *model.Order) error
	// Transaction methods
	WithTransaction(ctx context.Context, fn func(ctx context.Context, repo OrderRepository) error) error
}

type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates a new order repository.
func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func preloadItems(db *gorm.DB) *gorm.DB {
	return db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("order_items.id")
	})
}

// Create inserts an order without items.
func (r *orderRepository) Create(ctx context.Context, order *model.Order) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(order).Error
}

// FindByID finds an order with its items.
func (r *orderRepository) FindByID(ctx context.Context, id uint) (*model.Order, error) {
	var order model.Order
	if err := preloadItems(r.db.WithContext(ctx)).First(&order, id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// FindByIDForUpdate finds an order with its items and locks the order row.
// It only serialises writers when called inside WithTransaction.
func (r *orderRepository) FindByIDForUpdate(ctx context.Context, id uint) (*model.Order, error) {
	var order model.Order
	err := preloadItems(r.db.WithContext(ctx)).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&order, id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListAll lists every order with items.
func (r *orderRepository) ListAll(ctx context.Context) ([]model.Order, error) {
	var orders []model.Order
	if err := preloadItems(r.db.WithContext(ctx)).Order("id").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// ListByOwner lists one user's orders.
func (r *orderRepository) ListByOwner(ctx context.Context, ownerID uint) ([]model.Order, error) {
	var orders []model.Order
	if err := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).Order("id").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// FindItemByID finds a single order item.
func (r *orderRepository) FindItemByID(ctx context.Context, id uint) (*model.OrderItem, error) {
	var item model.OrderItem
	if err := r.db.WithContext(ctx).First(&item, id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// CreateItem inserts an item; item.ID is populated on success.
func (r *orderRepository) CreateItem(ctx context.Context, item *model.OrderItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

// DeleteItem removes an item by primary key.
func (r *orderRepository) DeleteItem(ctx context.Context, item *model.OrderItem) error {
	return r.db.WithContext(ctx).Delete(&model.OrderItem{}, item.ID).Error
}

// UpdatePrice persists the order's recomputed price.
func (r *orderRepository) UpdatePrice(ctx context.Context, order *model.Order) error {
	return r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ?", order.ID).
		Update("price", order.Price).Error
}

// UpdateStatus persists the order's status.
func (r *orderRepository) UpdateStatus(ctx context.Context, order *model.Order) error {
	return r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ?", order.ID).
		Update("status", order.Status).Error
}

// WithTransaction executes a function within a database transaction.
func (r *orderRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context, repo OrderRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &orderRepository{db: tx})
	})
}
