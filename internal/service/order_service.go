package service

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"techtrove/internal/auth"
	"techtrove/internal/model"
	"techtrove/internal/payment"
	"techtrove/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// orderService implements OrderService.
type orderService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	payments    payment.Gateway
	currency    string
	logger      zerolog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	payments payment.Gateway,
	currency string,
	logger zerolog.Logger,
) OrderService {
	return &orderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		payments:    payments,
		currency:    currency,
		logger:      logger.With().Str("service", "order").Logger(),
	}
}

// maxLineQuantity caps a merged line at what the integer stock column can hold.
const maxLineQuantity = math.MaxInt32

// orderLine is a validated request line with duplicates merged.
type orderLine struct {
	productID uuid.UUID
	quantity  int
}

// CreateOrder validates every line against current stock, captures prices and
// persists the order with a conditional stock decrement in one transaction.
func (s *orderService) CreateOrder(ctx context.Context, caller auth.Identity, req *model.CreateOrderRequest) (*model.OrderResponse, error) {
	lines, err := s.validateOrderRequest(req)
	if err != nil {
		return nil, err
	}

	productIDs := make([]uuid.UUID, len(lines))
	for i, line := range lines {
		productIDs[i] = line.productID
	}

	products, err := s.productRepo.GetByIDs(ctx, productIDs)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to load products for order")
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	byID := make(map[uuid.UUID]model.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	now := time.Now().UTC()
	order := &model.Order{
		ID:              uuid.New(),
		UserID:          caller.ID,
		ShippingAddress: req.ShippingAddress,
		Status:          model.StatusPending,
		PaymentMethod:   req.PaymentMethod,
		PaymentStatus:   model.PaymentPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	order.Items = make([]model.OrderItem, len(lines))
	for i, line := range lines {
		p, ok := byID[line.productID]
		if !ok {
			s.logger.Warn().Str("product_id", line.productID.String()).Msg("order references unknown product")
			return nil, model.NewProductNotFoundError(line.productID)
		}
		if line.quantity > p.Stock {
			s.logger.Warn().
				Str("product_id", p.ID.String()).
				Int("requested", line.quantity).
				Int("available", p.Stock).
				Msg("insufficient stock")
			return nil, model.NewInsufficientStockError(p.Name)
		}
		order.Items[i] = model.OrderItem{
			ID:        uuid.New(),
			OrderID:   order.ID,
			ProductID: p.ID,
			Name:      p.Name,
			Quantity:  line.quantity,
			Price:     p.Price,
		}
	}
	order.TotalAmount = model.CalculateTotal(order.Items)

	resp := &model.OrderResponse{Order: order}

	if order.PaymentMethod == model.PaymentStripe {
		intent, err := s.payments.CreateIntent(ctx, model.MinorUnits(order.TotalAmount), s.currency, map[string]string{
			"orderId": order.ID.String(),
		})
		if err != nil {
			s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to create payment intent")
			return nil, fmt.Errorf("%w: %w", model.ErrPaymentFailed, err)
		}
		order.PaymentIntentID = &intent.ID
		resp.ClientSecret = intent.ClientSecret
	}

	if err := s.persistOrder(ctx, order); err != nil {
		if order.PaymentIntentID != nil {
			s.cancelIntent(ctx, order)
		}
		return nil, err
	}

	s.productRepo.Invalidate(ctx, productIDs...)

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Str("user_id", caller.ID.String()).
		Int("item_count", len(order.Items)).
		Str("total", order.TotalAmount.StringFixed(2)).
		Msg("order created successfully")

	return resp, nil
}

// persistOrder decrements stock and writes the order in one transaction.
func (s *orderService) persistOrder(ctx context.Context, order *model.Order) (err error) {
	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	defer s.rollbackOnError(ctx, tx, &err)

	for _, item := range byLockOrder(order.Items) {
		ok, decErr := s.productRepo.DecrementStock(ctx, tx, item.ProductID, item.Quantity)
		if decErr != nil {
			return fmt.Errorf("failed to reserve stock: %w", decErr)
		}
		if !ok {
			s.logger.Warn().
				Str("product_id", item.ProductID.String()).
				Int("requested", item.Quantity).
				Msg("stock changed before order could be placed")
			return model.NewInsufficientStockError(item.Name)
		}
	}

	if err = s.orderRepo.CreateOrder(ctx, tx, order); err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	if err = s.orderRepo.CreateOrderItems(ctx, tx, order.Items); err != nil {
		return fmt.Errorf("failed to create order items: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to commit transaction")
		return fmt.Errorf("failed to create order: %w", err)
	}

	return nil
}

// cancelIntent voids the intent of an order that was never stored.
func (s *orderService) cancelIntent(ctx context.Context, order *model.Order) {
	if err := s.payments.CancelIntent(context.WithoutCancel(ctx), *order.PaymentIntentID); err != nil {
		s.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Str("intent_id", *order.PaymentIntentID).
			Msg("failed to cancel orphaned payment intent")
	}
}

// byLockOrder returns a copy of items sorted by product id. Checkout and
// cancellation lock product rows in this order so they cannot deadlock.
func byLockOrder(items []model.OrderItem) []model.OrderItem {
	sorted := slices.Clone(items)
	slices.SortFunc(sorted, func(a, b model.OrderItem) int {
		return bytes.Compare(a.ProductID[:], b.ProductID[:])
	})
	return sorted
}

func (s *orderService) rollbackOnError(ctx context.Context, tx pgx.Tx, err *error) {
	if *err == nil {
		return
	}
	if rbErr := tx.Rollback(ctx); rbErr != nil {
		s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
	}
}

// GetOrder returns an order visible to the caller.
func (s *orderService) GetOrder(ctx context.Context, caller auth.Identity, id uuid.UUID) (*model.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to get order")
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		return nil, model.ErrOrderNotFound
	}
	if !caller.CanAccess(order.UserID) {
		s.logger.Warn().
			Str("order_id", id.String()).
			Str("caller", caller.ID.String()).
			Msg("order access denied")
		return nil, model.ErrForbidden
	}
	return order, nil
}

// ListMyOrders returns the caller's orders, newest first.
func (s *orderService) ListMyOrders(ctx context.Context, caller auth.Identity) ([]model.Order, error) {
	orders, err := s.orderRepo.ListByUser(ctx, caller.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// ListOrders returns one page of all orders for an admin.
func (s *orderService) ListOrders(ctx context.Context, caller auth.Identity, filter model.OrderFilter) (*model.OrderPage, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}

	if filter.Status != "" {
		if _, known := validStatuses[filter.Status]; !known {
			return nil, model.NewValidationError("Invalid status filter", "status must be one of "+statusList)
		}
	}

	filter.Page, filter.Limit = normalizePage(filter.Page, filter.Limit)

	orders, total, err := s.orderRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	return &model.OrderPage{
		Orders:      orders,
		CurrentPage: filter.Page,
		TotalPages:  model.TotalPages(total, filter.Limit),
		TotalOrders: total,
	}, nil
}

var validStatuses = map[model.OrderStatus]struct{}{
	model.StatusPending:    {},
	model.StatusProcessing: {},
	model.StatusShipped:    {},
	model.StatusDelivered:  {},
	model.StatusCancelled:  {},
}

var statusList = strings.Join([]string{
	string(model.StatusPending),
	string(model.StatusProcessing),
	string(model.StatusShipped),
	string(model.StatusDelivered),
	string(model.StatusCancelled),
}, ", ")

// UpdateStatus moves an order forward. Stock is not touched.
func (s *orderService) UpdateStatus(ctx context.Context, caller auth.Identity, id uuid.UUID, status model.OrderStatus) (_ *model.Order, err error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	if !status.AdminSettable() {
		return nil, model.NewValidationError("Invalid status", "status must be one of processing, shipped, delivered")
	}

	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to update order: %w", err)
	}
	defer s.rollbackOnError(ctx, tx, &err)

	order, err := s.orderRepo.GetByIDForUpdate(ctx, tx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update order: %w", err)
	}
	if order == nil {
		return nil, model.ErrOrderNotFound
	}
	if !order.Status.CanAdvanceTo(status) {
		s.logger.Warn().
			Str("order_id", id.String()).
			Str("from", string(order.Status)).
			Str("to", string(status)).
			Msg("rejected status transition")
		return nil, model.ErrInvalidTransition
	}

	if err = s.orderRepo.UpdateStatus(ctx, tx, id, status); err != nil {
		return nil, fmt.Errorf("failed to update order: %w", err)
	}
	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to update order: %w", err)
	}

	s.logger.Info().
		Str("order_id", id.String()).
		Str("from", string(order.Status)).
		Str("to", string(status)).
		Msg("order status updated")

	order.Status = status
	order.UpdatedAt = time.Now().UTC()
	return order, nil
}

// CancelOrder cancels an order, restores its stock and refunds a captured card payment.
func (s *orderService) CancelOrder(ctx context.Context, caller auth.Identity, id uuid.UUID) (_ *model.Order, err error) {
	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to cancel order: %w", err)
	}
	defer s.rollbackOnError(ctx, tx, &err)

	order, err := s.orderRepo.GetByIDForUpdate(ctx, tx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to cancel order: %w", err)
	}
	if order == nil {
		return nil, model.ErrOrderNotFound
	}
	if !caller.CanAccess(order.UserID) {
		return nil, model.ErrForbidden
	}
	if !order.Status.Cancellable() {
		s.logger.Warn().
			Str("order_id", id.String()).
			Str("status", string(order.Status)).
			Msg("order cannot be cancelled")
		return nil, model.ErrNotCancellable
	}

	productIDs := make([]uuid.UUID, len(order.Items))
	for i, item := range byLockOrder(order.Items) {
		if err = s.productRepo.IncrementStock(ctx, tx, item.ProductID, item.Quantity); err != nil {
			return nil, fmt.Errorf("failed to restore stock: %w", err)
		}
		productIDs[i] = item.ProductID
	}

	if err = s.orderRepo.UpdateStatus(ctx, tx, id, model.StatusCancelled); err != nil {
		return nil, fmt.Errorf("failed to cancel order: %w", err)
	}

	refund := order.PaymentMethod == model.PaymentStripe &&
		order.PaymentStatus == model.PaymentPaid &&
		order.PaymentIntentID != nil
	if refund {
		if err = s.payments.Refund(ctx, *order.PaymentIntentID); err != nil {
			s.logger.Error().Err(err).Str("order_id", id.String()).Msg("refund failed, cancellation rolled back")
			return nil, fmt.Errorf("%w: %w", model.ErrPaymentFailed, err)
		}
		if err = s.orderRepo.UpdatePaymentStatus(ctx, tx, id, model.PaymentRefunded); err != nil {
			return nil, fmt.Errorf("failed to record refund: %w", err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		if refund {
			s.logger.Error().Err(err).Str("order_id", id.String()).Msg("refund issued but cancellation commit failed")
		}
		return nil, fmt.Errorf("failed to cancel order: %w", err)
	}

	s.productRepo.Invalidate(ctx, productIDs...)

	s.logger.Info().
		Str("order_id", id.String()).
		Str("caller", caller.ID.String()).
		Bool("refunded", refund).
		Msg("order cancelled")

	order.Status = model.StatusCancelled
	if refund {
		order.PaymentStatus = model.PaymentRefunded
	}
	order.UpdatedAt = time.Now().UTC()
	return order, nil
}

// UpdatePaymentStatus records whether a pending payment succeeded.
func (s *orderService) UpdatePaymentStatus(ctx context.Context, caller auth.Identity, id uuid.UUID, status model.PaymentStatus) (_ *model.Order, err error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	if status != model.PaymentPaid && status != model.PaymentFailed {
		return nil, model.NewValidationError("Invalid payment status", "paymentStatus must be one of paid, failed")
	}

	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to update payment: %w", err)
	}
	defer s.rollbackOnError(ctx, tx, &err)

	order, err := s.orderRepo.GetByIDForUpdate(ctx, tx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update payment: %w", err)
	}
	if order == nil {
		return nil, model.ErrOrderNotFound
	}
	if order.Status == model.StatusCancelled || order.PaymentStatus != model.PaymentPending {
		return nil, model.ErrPaymentNotPending
	}

	if err = s.orderRepo.UpdatePaymentStatus(ctx, tx, id, status); err != nil {
		return nil, fmt.Errorf("failed to update payment: %w", err)
	}
	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to update payment: %w", err)
	}

	s.logger.Info().
		Str("order_id", id.String()).
		Str("payment_status", string(status)).
		Msg("payment status recorded")

	order.PaymentStatus = status
	order.UpdatedAt = time.Now().UTC()
	return order, nil
}

// validateOrderRequest checks the request shape and merges duplicate products.
func (s *orderService) validateOrderRequest(req *model.CreateOrderRequest) ([]orderLine, error) {
	if req == nil {
		return nil, model.NewValidationError("Order request is required")
	}

	if len(req.Items) == 0 {
		return nil, model.NewValidationError("Order must contain at least one item", "items is required")
	}

	var details []string
	lines := make([]orderLine, 0, len(req.Items))
	index := make(map[uuid.UUID]int, len(req.Items))

	for i, item := range req.Items {
		id, err := uuid.Parse(item.ProductID)
		if err != nil {
			details = append(details, fmt.Sprintf("items[%d].product is invalid", i))
			continue
		}
		if item.Quantity < 1 {
			s.logger.Warn().
				Int("item_index", i).
				Str("product_id", item.ProductID).
				Int("quantity", item.Quantity).
				Msg("invalid quantity")
			details = append(details, fmt.Sprintf("items[%d].quantity must be at least 1", i))
			continue
		}
		if item.Quantity > maxLineQuantity {
			details = append(details, fmt.Sprintf("items[%d].quantity must be at most %d", i, maxLineQuantity))
			continue
		}
		if j, seen := index[id]; seen {
			if item.Quantity > maxLineQuantity-lines[j].quantity {
				details = append(details, fmt.Sprintf("items[%d].quantity must be at most %d", i, maxLineQuantity))
				continue
			}
			lines[j].quantity += item.Quantity
			continue
		}
		index[id] = len(lines)
		lines = append(lines, orderLine{productID: id, quantity: item.Quantity})
	}

	addr := req.ShippingAddress
	for _, f := range []struct{ name, value string }{
		{"shippingAddress.street", addr.Street},
		{"shippingAddress.city", addr.City},
		{"shippingAddress.state", addr.State},
		{"shippingAddress.zipCode", addr.ZipCode},
		{"shippingAddress.country", addr.Country},
	} {
		if strings.TrimSpace(f.value) == "" {
			details = append(details, f.name+" is required")
		}
	}

	if !req.PaymentMethod.Valid() {
		details = append(details, "paymentMethod must be one of stripe, cod")
	}

	if len(details) > 0 {
		return nil, model.NewValidationError("Invalid order request", details...)
	}

	return lines, nil
}
