package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	apperrors "orderhub/internal/errors"
)

// OrderStatus represents the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusCanceled  OrderStatus = "canceled"
	OrderStatusCompleted OrderStatus = "completed"
)

var orderTransitions = map[OrderStatus]map[OrderStatus]bool{
	OrderStatusPending:   {OrderStatusCanceled: true, OrderStatusCompleted: true},
	OrderStatusCanceled:  {},
	OrderStatusCompleted: {},
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to OrderStatus) bool {
	return orderTransitions[from][to]
}

// Order is the aggregate root: it owns its items and the derived price.
type Order struct {
	ID        uint            `json:"id" gorm:"primaryKey"`
	OwnerID   uint            `json:"user_id" gorm:"not null;index"`
	Status    OrderStatus     `json:"status" gorm:"type:varchar(20);not null;index"`
	Price     decimal.Decimal `json:"price" gorm:"type:decimal(12,2);not null"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`

	// Relations
	Owner User        `json:"-" gorm:"foreignKey:OwnerID"`
	Items []OrderItem `json:"items" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

// OrderItem is a line of an order.
type OrderItem struct {
	ID        uint            `json:"id" gorm:"primaryKey"`
	OrderID   uint            `json:"order_id" gorm:"not null;index"`
	Quantity  int             `json:"quantity" gorm:"not null"`
	Flavor    string          `json:"flavor" gorm:"size:100;not null"`
	Size      string          `json:"size" gorm:"size:50;not null"`
	UnitPrice decimal.Decimal `json:"unit_price" gorm:"type:decimal(12,2);not null"`
	CreatedAt time.Time       `json:"created_at"`
}

// Subtotal returns quantity * unit price.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// NewOrder returns a pending, empty order for the given owner.
func NewOrder(ownerID uint) *Order {
	return &Order{
		OwnerID: ownerID,
		Status:  OrderStatusPending,
		Price:   decimal.Zero,
		Items:   []OrderItem{},
	}
}

// MaxAmount is the largest value a decimal(12,2) price column holds.
var MaxAmount = decimal.New(999999999999, -2)

// AddItem validates and appends an item, then recomputes the price.
// The returned pointer refers to the appended element.
func (o *Order) AddItem(quantity int, flavor, size string, unitPrice decimal.Decimal) (*OrderItem, error) {
	if quantity <= 0 {
		return nil, apperrors.ErrInvalidQuantity
	}
	if unitPrice.IsNegative() || !unitPrice.Equal(unitPrice.Round(2)) || unitPrice.GreaterThan(MaxAmount) {
		return nil, apperrors.ErrInvalidUnitPrice
	}
	flavor, size = strings.TrimSpace(flavor), strings.TrimSpace(size)
	if flavor == "" || size == "" {
		return nil, apperrors.ErrInvalidItem
	}
	if o.Status != OrderStatusPending {
		return nil, apperrors.ErrOrderClosed
	}

	subtotal := unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
	total := subtotal
	for _, item := range o.Items {
		total = total.Add(item.Subtotal())
	}
	if total.GreaterThan(MaxAmount) {
		return nil, apperrors.ErrInvalidUnitPrice.WithMessage("order total exceeds " + MaxAmount.StringFixed(2))
	}

	o.Items = append(o.Items, OrderItem{
		OrderID:   o.ID,
		Quantity:  quantity,
		Flavor:    flavor,
		Size:      size,
		UnitPrice: unitPrice,
	})
	o.RecalculatePrice()
	return &o.Items[len(o.Items)-1], nil
}

// RemoveItem drops the item with the given id and recomputes the price.
func (o *Order) RemoveItem(itemID uint) (*OrderItem, error) {
	idx := -1
	for i := range o.Items {
		if o.Items[i].ID == itemID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, apperrors.ErrItemNotFound
	}
	if o.Status != OrderStatusPending {
		return nil, apperrors.ErrOrderClosed
	}

	removed := o.Items[idx]
	o.Items = append(o.Items[:idx], o.Items[idx+1:]...)
	o.RecalculatePrice()
	return &removed, nil
}

// RecalculatePrice sets Price to the sum of item subtotals.
func (o *Order) RecalculatePrice() {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Subtotal())
	}
	o.Price = total
}

// Transition applies a status change; terminal orders reject every change.
func (o *Order) Transition(to OrderStatus) error {
	if !CanTransition(o.Status, to) {
		return apperrors.ErrInvalidTransition.WithMessage(
			"Order cannot move from " + string(o.Status) + " to " + string(to) + ".")
	}
	o.Status = to
	return nil
}

// Cancel moves a pending order to canceled.
func (o *Order) Cancel() error { return o.Transition(OrderStatusCanceled) }

// Complete moves a pending order to completed.
func (o *Order) Complete() error { return o.Transition(OrderStatusCompleted) }
