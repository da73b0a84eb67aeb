package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"orderhub/internal/access"
	apperrors "orderhub/internal/errors"
	"orderhub/internal/events"
	"orderhub/internal/logger"
	"orderhub/internal/metrics"
	"orderhub/internal/model"
	"orderhub/internal/repository"
)

// ItemInput describes an item to add to an order.
type ItemInput struct {
	Quantity  int
	Flavor    string
	Size      string
	UnitPrice decimal.Decimal
}

// OrderService exposes order operations.
// Every operation authorizes the principal after loading the order.
type OrderService interface {
	Create(ctx context.Context, p *access.Principal, ownerID uint) (*model.Order, error)
	ListAll(ctx context.Context, p *access.Principal) ([]model.Order, error)
	ListByUser(ctx context.Context, p *access.Principal, userID uint) ([]model.Order, error)
	Get(ctx context.Context, p *access.Principal, orderID uint) (*model.Order, error)
	AddItem(ctx context.Context, p *access.Principal, orderID uint, in ItemInput) (*model.Order, *model.OrderItem, error)
	RemoveItem(ctx context.Context, p *access.Principal, itemID uint) (*model.Order, error)
	Cancel(ctx context.Context, p *access.Principal, orderID uint) (*model.Order, error)
	Complete(ctx context.Context, p *access.Principal, orderID uint) (*model.Order, error)
}

type orderService struct {
	orderRepo repository.OrderRepository
	users     UserService
	publisher events.Publisher
	log       *logger.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(orderRepo repository.OrderRepository, users UserService, publisher events.Publisher, log *logger.Logger) OrderService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &orderService{
		orderRepo: orderRepo,
		users:     users,
		publisher: publisher,
		log:       log,
	}
}

func orderKey(id uint) string {
	return fmt.Sprint(id)
}

func notFoundOr(err error, notFound error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return fmt.Errorf("%s: %w", what, err)
}

// Create opens a pending, empty order for ownerID.
func (s *orderService) Create(ctx context.Context, p *access.Principal, ownerID uint) (*model.Order, error) {
	if !access.AuthorizeResourceAccess(p, ownerID) {
		return nil, apperrors.ErrAccessDenied
	}
	if _, err := s.users.GetUser(ctx, ownerID); err != nil {
		return nil, err
	}

	order := model.NewOrder(ownerID)
	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	s.log.Info("order created", "order_id", order.ID, "owner_id", ownerID)
	s.publisher.Publish(ctx, events.EventOrderCreated, orderKey(order.ID), events.OrderCreatedPayload{
		OrderID: order.ID,
		OwnerID: ownerID,
	})
	return order, nil
}

// ListAll returns every order. Admin only.
func (s *orderService) ListAll(ctx context.Context, p *access.Principal) ([]model.Order, error) {
	if !access.RequireAdmin(p) {
		return nil, apperrors.ErrAccessDenied
	}
	orders, err := s.orderRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// ListByUser returns the orders owned by userID.
func (s *orderService) ListByUser(ctx context.Context, p *access.Principal, userID uint) ([]model.Order, error) {
	if !access.AuthorizeResourceAccess(p, userID) {
		return nil, apperrors.ErrAccessDenied
	}
	orders, err := s.orderRepo.ListByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders for user %d: %w", userID, err)
	}
	return orders, nil
}

// Get returns one order with its items.
func (s *orderService) Get(ctx context.Context, p *access.Principal, orderID uint) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, notFoundOr(err, apperrors.ErrOrderNotFound, "find order")
	}
	if !access.AuthorizeResourceAccess(p, order.OwnerID) {
		return nil, apperrors.ErrAccessDenied
	}
	return order, nil
}

// lockOrder loads and locks an order inside a transaction, then authorizes.
func lockOrder(ctx context.Context, repo repository.OrderRepository, p *access.Principal, orderID uint) (*model.Order, error) {
	order, err := repo.FindByIDForUpdate(ctx, orderID)
	if err != nil {
		return nil, notFoundOr(err, apperrors.ErrOrderNotFound, "lock order")
	}
	if !access.AuthorizeResourceAccess(p, order.OwnerID) {
		return nil, apperrors.ErrAccessDenied
	}
	return order, nil
}

// AddItem appends an item and stores the recomputed price in one transaction.
func (s *orderService) AddItem(ctx context.Context, p *access.Principal, orderID uint, in ItemInput) (*model.Order, *model.OrderItem, error) {
	var (
		order *model.Order
		added model.OrderItem
	)
	err := s.orderRepo.WithTransaction(ctx, func(ctx context.Context, repo repository.OrderRepository) error {
		var err error
		order, err = lockOrder(ctx, repo, p, orderID)
		if err != nil {
			return err
		}

		item, err := order.AddItem(in.Quantity, in.Flavor, in.Size, in.UnitPrice)
		if err != nil {
			return err
		}
		if err := repo.CreateItem(ctx, item); err != nil {
			return fmt.Errorf("create item: %w", err)
		}
		if err := repo.UpdatePrice(ctx, order); err != nil {
			return fmt.Errorf("update price: %w", err)
		}
		added = *item
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.publisher.Publish(ctx, events.EventOrderItemAdded, orderKey(order.ID), events.OrderItemPayload{
		OrderID:    order.ID,
		ItemID:     added.ID,
		Quantity:   added.Quantity,
		UnitPrice:  added.UnitPrice.StringFixed(2),
		OrderPrice: order.Price.StringFixed(2),
	})
	return order, &added, nil
}

// RemoveItem deletes an item and stores the recomputed price in one transaction.
func (s *orderService) RemoveItem(ctx context.Context, p *access.Principal, itemID uint) (*model.Order, error) {
	var (
		order   *model.Order
		removed *model.OrderItem
	)
	err := s.orderRepo.WithTransaction(ctx, func(ctx context.Context, repo repository.OrderRepository) error {
		item, err := repo.FindItemByID(ctx, itemID)
		if err != nil {
			return notFoundOr(err, apperrors.ErrItemNotFound, "find item")
		}
		order, err = lockOrder(ctx, repo, p, item.OrderID)
		if err != nil {
			return err
		}

		removed, err = order.RemoveItem(itemID)
		if err != nil {
			return err
		}
		if err := repo.DeleteItem(ctx, removed); err != nil {
			return fmt.Errorf("delete item: %w", err)
		}
		if err := repo.UpdatePrice(ctx, order); err != nil {
			return fmt.Errorf("update price: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(ctx, events.EventOrderItemRemoved, orderKey(order.ID), events.OrderItemPayload{
		OrderID:    order.ID,
		ItemID:     removed.ID,
		Quantity:   removed.Quantity,
		UnitPrice:  removed.UnitPrice.StringFixed(2),
		OrderPrice: order.Price.StringFixed(2),
	})
	return order, nil
}

// Cancel moves a pending order to canceled.
func (s *orderService) Cancel(ctx context.Context, p *access.Principal, orderID uint) (*model.Order, error) {
	return s.transition(ctx, p, orderID, model.OrderStatusCanceled)
}

// Complete moves a pending order to completed.
func (s *orderService) Complete(ctx context.Context, p *access.Principal, orderID uint) (*model.Order, error) {
	return s.transition(ctx, p, orderID, model.OrderStatusCompleted)
}

func (s *orderService) transition(ctx context.Context, p *access.Principal, orderID uint, to model.OrderStatus) (*model.Order, error) {
	var (
		order *model.Order
		from  model.OrderStatus
	)
	err := s.orderRepo.WithTransaction(ctx, func(ctx context.Context, repo repository.OrderRepository) error {
		var err error
		order, err = lockOrder(ctx, repo, p, orderID)
		if err != nil {
			return err
		}
		from = order.Status
		if err := order.Transition(to); err != nil {
			return err
		}
		if err := repo.UpdateStatus(ctx, order); err != nil {
			return fmt.Errorf("update status: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.OrderTransitions.WithLabelValues(string(to)).Inc()
	s.log.Info("order status changed", "order_id", order.ID, "from", from, "to", to)
	s.publisher.Publish(ctx, events.EventOrderStatusChanged, orderKey(order.ID), events.OrderStatusChangedPayload{
		OrderID: order.ID,
		From:    string(from),
		To:      string(to),
	})
	return order, nil
}
