package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"orderhub/internal/access"
	"orderhub/internal/logger"
	"orderhub/internal/model"
	"orderhub/internal/service"
)

// OrderHandler handles order endpoints. Every route requires a principal.
type OrderHandler struct {
	orderService service.OrderService
	log          *logger.Logger
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(orderService service.OrderService, log *logger.Logger) *OrderHandler {
	if log == nil {
		log = logger.NewNop()
	}
	return &OrderHandler{orderService: orderService, log: log}
}

// CreateOrderRequest represents an order creation request.
type CreateOrderRequest struct {
	UserID uint `json:"user_id" validate:"required"`
}

// ItemSize accepts both "large" and 12 on the wire.
type ItemSize string

// UnmarshalJSON implements json.Unmarshaler.
func (s *ItemSize) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = ItemSize(str)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return fmt.Errorf("size must be a string or a number")
	}
	*s = ItemSize(num.String())
	return nil
}

// AddItemRequest represents an item to add.
type AddItemRequest struct {
	Quantity  int              `json:"quantity"`
	Flavor    string           `json:"flavor"`
	Size      ItemSize         `json:"size" swaggertype:"string"`
	UnitPrice *decimal.Decimal `json:"unit_price" validate:"required" swaggertype:"number"`
}

// CreateOrderResponse is returned after creating an order.
type CreateOrderResponse struct {
	Response string `json:"response"`
	OrderID  uint   `json:"order_id"`
}

// OrdersListResponse wraps every order.
type OrdersListResponse struct {
	OrdersList []model.Order `json:"orders_list"`
}

// OrderSummary is the per-user listing shape.
type OrderSummary struct {
	ID     uint              `json:"id"`
	Status model.OrderStatus `json:"status"`
	Price  decimal.Decimal   `json:"price" swaggertype:"string"`
}

// OrderDetailResponse is returned by the get order route.
type OrderDetailResponse struct {
	ItemCount int          `json:"qnt_order_itens"`
	Order     *model.Order `json:"order"`
}

// AddItemResponse is returned after adding an item.
type AddItemResponse struct {
	Response    string          `json:"response"`
	OrderItemID uint            `json:"order_item_id"`
	OrderPrice  decimal.Decimal `json:"order_price" swaggertype:"string"`
}

// RemoveItemResponse is returned after removing an item.
type RemoveItemResponse struct {
	Response   string            `json:"response"`
	OrderItems []model.OrderItem `json:"order_itens"`
	Order      *model.Order      `json:"order"`
}

// OrderResponse is returned after a status change.
type OrderResponse struct {
	Response string       `json:"response"`
	Order    *model.Order `json:"order"`
}

// Index godoc
// @Summary Orders index
// @Tags orders
// @Produce json
// @Success 200 {object} MessageResponse
// @Failure 401 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /orders [get]
func (h *OrderHandler) Index(c echo.Context) error {
	return c.JSON(http.StatusOK, MessageResponse{Response: "You have accessed the order route"})
}

// Create godoc
// @Summary Create an order
// @Description Non-admins may only create orders for themselves.
// @Tags orders
// @Accept json
// @Produce json
// @Param request body CreateOrderRequest true "Order owner"
// @Success 200 {object} CreateOrderResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /orders/order [post]
func (h *OrderHandler) Create(c echo.Context) error {
	var req CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(err.Error())
	}

	order, err := h.orderService.Create(c.Request().Context(), principalFrom(c), req.UserID)
	if err != nil {
		return respondError(c, h.log, err)
	}

	return c.JSON(http.StatusOK, CreateOrderResponse{
		Response: fmt.Sprintf("Order created successfully. Order ID: %d", order.ID),
		OrderID:  order.ID,
	})
}

// ListAll godoc
// @Summary List all orders
// @Tags orders
// @Produce json
// @Success 200 {object} OrdersListResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /orders/list [get]
func (h *OrderHandler) ListAll(c echo.Context) error {
	orders, err := h.orderService.ListAll(c.Request().Context(), principalFrom(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	if orders == nil {
		orders = []model.Order{}
	}
	return c.JSON(http.StatusOK, OrdersListResponse{OrdersList: orders})
}

// ListByUser godoc
// @Summary List a user's orders
// @Tags orders
// @Produce json
// @Param user_id path int true "User ID"
// @Success 200 {array} OrderSummary
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /orders/list/orders_user/{user_id} [get]
func (h *OrderHandler) ListByUser(c echo.Context) error {
	userID, err := parseID(c, "user_id")
	if err != nil {
		return err
	}

	orders, err := h.orderService.ListByUser(c.Request().Context(), principalFrom(c), userID)
	if err != nil {
		return respondError(c, h.log, err)
	}

	summaries := make([]OrderSummary, 0, len(orders))
	for _, o := range orders {
		summaries = append(summaries, OrderSummary{ID: o.ID, Status: o.Status, Price: o.Price})
	}
	return c.JSON(http.StatusOK, summaries)
}

// Get godoc
// @Summary Get an order
// @Tags orders
// @Produce json
// @Param order_id path int true "Order ID"
// @Success 200 {object} OrderDetailResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /orders/order/{order_id} [get]
func (h *OrderHandler) Get(c echo.Context) error {
	orderID, err := parseID(c, "order_id")
	if err != nil {
		return err
	}

	order, err := h.orderService.Get(c.Request().Context(), principalFrom(c), orderID)
	if err != nil {
		return respondError(c, h.log, err)
	}

	return c.JSON(http.StatusOK, OrderDetailResponse{ItemCount: len(order.Items), Order: order})
}

// AddItem godoc
// @Summary Add an item to an order
// @Tags orders
// @Accept json
// @Produce json
// @Param order_id path int true "Order ID"
// @Param request body AddItemRequest true "Item"
// @Success 200 {object} AddItemResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /orders/order/add_item/{order_id} [post]
func (h *OrderHandler) AddItem(c echo.Context) error {
	orderID, err := parseID(c, "order_id")
	if err != nil {
		return err
	}
	var req AddItemRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(err.Error())
	}

	order, item, err := h.orderService.AddItem(c.Request().Context(), principalFrom(c), orderID, service.ItemInput{
		Quantity:  req.Quantity,
		Flavor:    req.Flavor,
		Size:      string(req.Size),
		UnitPrice: *req.UnitPrice,
	})
	if err != nil {
		return respondError(c, h.log, err)
	}

	return c.JSON(http.StatusOK, AddItemResponse{
		Response:    "Item created successfully",
		OrderItemID: item.ID,
		OrderPrice:  order.Price,
	})
}

// RemoveItem godoc
// @Summary Remove an item from its order
// @Tags orders
// @Produce json
// @Param order_item_id path int true "Order item ID"
// @Success 200 {object} RemoveItemResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /orders/order/remove_item/{order_item_id} [post]
func (h *OrderHandler) RemoveItem(c echo.Context) error {
	itemID, err := parseID(c, "order_item_id")
	if err != nil {
		return err
	}

	order, err := h.orderService.RemoveItem(c.Request().Context(), principalFrom(c), itemID)
	if err != nil {
		return respondError(c, h.log, err)
	}

	return c.JSON(http.StatusOK, RemoveItemResponse{
		Response:   "Item deleted successfully",
		OrderItems: order.Items,
		Order:      order,
	})
}

// Cancel godoc
// @Summary Cancel a pending order
// @Tags orders
// @Produce json
// @Param order_id path int true "Order ID"
// @Success 200 {object} OrderResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /orders/order/cancel/{order_id} [post]
func (h *OrderHandler) Cancel(c echo.Context) error {
	return h.changeStatus(c, h.orderService.Cancel, "canceled")
}

// Complete godoc
// @Summary Complete a pending order
// @Tags orders
// @Produce json
// @Param order_id path int true "Order ID"
// @Success 200 {object} OrderResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Security BearerAuth
// @Router /orders/order/complete/{order_id} [post]
func (h *OrderHandler) Complete(c echo.Context) error {
	return h.changeStatus(c, h.orderService.Complete, "completed")
}

type statusChange func(ctx context.Context, p *access.Principal, orderID uint) (*model.Order, error)

func (h *OrderHandler) changeStatus(c echo.Context, apply statusChange, verb string) error {
	orderID, err := parseID(c, "order_id")
	if err != nil {
		return err
	}

	order, err := apply(c.Request().Context(), principalFrom(c), orderID)
	if err != nil {
		return respondError(c, h.log, err)
	}

	return c.JSON(http.StatusOK, OrderResponse{
		Response: fmt.Sprintf("Order %d %s successfully.", order.ID, verb),
		Order:    order,
	})
}
