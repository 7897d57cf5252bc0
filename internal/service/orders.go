package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/linemk/agriconnect/internal/access"
	"github.com/linemk/agriconnect/internal/domain/models"
	"github.com/linemk/agriconnect/internal/scope"
	"github.com/linemk/agriconnect/internal/storage"
	"github.com/shopspring/decimal"
)

var (
	ErrEmptyOrder      = fmt.Errorf("%w: order must contain at least one item", models.ErrValidation)
	ErrPriceMismatch   = fmt.Errorf("%w: item price does not match the current product price", models.ErrValidation)
	ErrTotalMismatch   = fmt.Errorf("%w: total_amount does not match the sum of items", models.ErrValidation)
	ErrTotalTooLarge   = fmt.Errorf("%w: order total exceeds the allowed amount", models.ErrValidation)
	ErrOrderNotPending = fmt.Errorf("%w: only pending orders can be modified", models.ErrValidation)
	ErrBadTransition   = fmt.Errorf("%w: status transition not allowed", models.ErrValidation)
	ErrBuyerCancelOnly = fmt.Errorf("%w: buyers can only cancel orders", models.ErrForbidden)
)

// OrderItemInput позиция нового заказа; Price необязательна и сверяется с ценой товара
type OrderItemInput struct {
	ProductID int64
	Quantity  int
	Price     *decimal.Decimal
}

// OrderInput новый заказ; TotalAmount необязательна и сверяется с суммой позиций
type OrderInput struct {
	Items           []OrderItemInput
	TotalAmount     *decimal.Decimal
	ShippingAddress string
	PhoneNumber     string
}

// OrderPatch изменяемые реквизиты доставки
type OrderPatch struct {
	ShippingAddress *string
	PhoneNumber     *string
}

type OrderService interface {
	List(ctx context.Context, actor access.Actor) ([]*models.Order, error)
	// Mine заказы, оформленные самим актором, независимо от роли
	Mine(ctx context.Context, actor access.Actor) ([]*models.Order, error)
	Get(ctx context.Context, actor access.Actor, id int64) (*models.Order, error)
	Create(ctx context.Context, actor access.Actor, in OrderInput) (*models.Order, error)
	Update(ctx context.Context, actor access.Actor, id int64, patch OrderPatch) (*models.Order, error)
	Delete(ctx context.Context, actor access.Actor, id int64) error
	UpdateStatus(ctx context.Context, actor access.Actor, id int64, status models.OrderStatus) (*models.Order, error)
}

type orderService struct {
	log         *slog.Logger
	db          *sql.DB
	orderRepo   storage.OrderStorage
	productRepo storage.ProductStorage
}

func NewOrderService(log *slog.Logger, db *sql.DB, orderRepo storage.OrderStorage, productRepo storage.ProductStorage) OrderService {
	return &orderService{
		log:         log,
		db:          db,
		orderRepo:   orderRepo,
		productRepo: productRepo,
	}
}

func (s *orderService) List(ctx context.Context, actor access.Actor) ([]*models.Order, error) {
	return s.list(ctx, actor, scope.Orders(actor))
}

func (s *orderService) Mine(ctx context.Context, actor access.Actor) ([]*models.Order, error) {
	return s.list(ctx, actor, scope.OwnOrders(actor))
}

func (s *orderService) list(ctx context.Context, actor access.Actor, sc scope.OrderScope) ([]*models.Order, error) {
	const op = "service.Orders.List"

	if !actor.Authenticated() {
		return nil, models.ErrUnauthenticated
	}
	orders, err := s.orderRepo.ListOrders(ctx, sc)
	if err != nil {
		s.log.Error("failed to list orders", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return orders, nil
}

func (s *orderService) Get(ctx context.Context, actor access.Actor, id int64) (*models.Order, error) {
	const op = "service.Orders.Get"

	if !actor.Authenticated() {
		return nil, models.ErrUnauthenticated
	}
	order, err := s.orderRepo.GetOrder(ctx, id, scope.Orders(actor))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return order, nil
}

// Create оформляет заказ в одной транзакции: цены позиций берутся из текущих
// цен товаров, переданные клиентом цена и сумма должны с ними совпадать.
func (s *orderService) Create(ctx context.Context, actor access.Actor, in OrderInput) (*models.Order, error) {
	const op = "service.Orders.Create"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", actor.ID))

	if !actor.Authenticated() {
		return nil, models.ErrUnauthenticated
	}
	if err := validateOrderInput(in); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("failed to begin transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}

	order, err := s.createTx(ctx, tx, actor, in)
	if err != nil {
		tx.Rollback()
		if errors.Is(err, models.ErrValidation) {
			logger.Warn("order rejected", slog.Any("error", err))
			return nil, err
		}
		logger.Error("failed to create order", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		logger.Error("failed to commit transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}
	logger.Info("order created", slog.Int64("orderID", order.ID), slog.String("total", order.TotalAmount.String()))

	// перечитываем, чтобы получить buyer_name и product_title
	created, err := s.orderRepo.GetOrder(ctx, order.ID, scope.OwnOrders(actor))
	if err != nil {
		logger.Warn("failed to reload order", slog.Any("error", err))
		return order, nil
	}
	return created, nil
}

func (s *orderService) createTx(ctx context.Context, tx *sql.Tx, actor access.Actor, in OrderInput) (*models.Order, error) {
	ids := make([]int64, 0, len(in.Items))
	seen := make(map[int64]bool, len(in.Items))
	for _, it := range in.Items {
		if !seen[it.ProductID] {
			seen[it.ProductID] = true
			ids = append(ids, it.ProductID)
		}
	}

	products, err := s.productRepo.GetProductsTx(ctx, tx, ids)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		BuyerID:         actor.ID,
		ShippingAddress: strings.TrimSpace(in.ShippingAddress),
		PhoneNumber:     strings.TrimSpace(in.PhoneNumber),
		Status:          models.StatusPending,
		Items:           make([]models.OrderItem, 0, len(in.Items)),
	}
	for _, it := range in.Items {
		p, ok := products[it.ProductID]
		if !ok {
			return nil, fmt.Errorf("%w: %d", storage.ErrUnknownProduct, it.ProductID)
		}
		if it.Price != nil && !it.Price.Equal(p.Price) {
			return nil, fmt.Errorf("%w: product %d costs %s", ErrPriceMismatch, p.ID, p.Price.StringFixed(2))
		}
		order.Items = append(order.Items, models.OrderItem{
			ProductID:    p.ID,
			ProductTitle: p.Title,
			Quantity:     it.Quantity,
			Price:        p.Price,
		})
	}

	order.TotalAmount = order.ItemsTotal()
	if !models.ValidAmount(order.TotalAmount) {
		return nil, fmt.Errorf("%w: %s", ErrTotalTooLarge, order.TotalAmount.StringFixed(2))
	}
	if in.TotalAmount != nil && !in.TotalAmount.Equal(order.TotalAmount) {
		return nil, fmt.Errorf("%w: expected %s", ErrTotalMismatch, order.TotalAmount.StringFixed(2))
	}

	if err := s.orderRepo.CreateOrder(ctx, tx, order); err != nil {
		return nil, err
	}
	for i := range order.Items {
		order.Items[i].OrderID = order.ID
		if err := s.orderRepo.CreateOrderItem(ctx, tx, &order.Items[i]); err != nil {
			return nil, err
		}
	}
	return order, nil
}

func validateOrderInput(in OrderInput) error {
	if len(in.Items) == 0 {
		return ErrEmptyOrder
	}
	for _, it := range in.Items {
		if it.ProductID <= 0 {
			return fmt.Errorf("%w: product is required", models.ErrValidation)
		}
		if it.Quantity < 1 {
			return fmt.Errorf("%w: quantity must be at least 1", models.ErrValidation)
		}
		if it.Quantity > models.MaxQuantity {
			return fmt.Errorf("%w: quantity must not exceed %d", models.ErrValidation, models.MaxQuantity)
		}
		if it.Price != nil && it.Price.IsNegative() {
			return fmt.Errorf("%w: price must not be negative", models.ErrValidation)
		}
		if it.Price != nil && !models.ValidAmount(*it.Price) {
			return fmt.Errorf("%w: price must be below %s with at most 2 decimal places", models.ErrValidation, models.MaxAmount)
		}
	}
	if in.TotalAmount != nil && !models.ValidAmount(*in.TotalAmount) {
		return fmt.Errorf("%w: total_amount must be a non-negative amount below %s", models.ErrValidation, models.MaxAmount)
	}
	if strings.TrimSpace(in.ShippingAddress) == "" {
		return fmt.Errorf("%w: shipping_address is required", models.ErrValidation)
	}
	if strings.TrimSpace(in.PhoneNumber) == "" {
		return fmt.Errorf("%w: phone_number is required", models.ErrValidation)
	}
	return nil
}

// loadOwned загружает заказ из области видимости актора и проверяет,
// что актор его покупатель и заказ еще не ушел в работу
func (s *orderService) loadOwned(ctx context.Context, actor access.Actor, id int64, op access.Operation) (*models.Order, error) {
	if !actor.Authenticated() {
		return nil, models.ErrUnauthenticated
	}
	order, err := s.orderRepo.GetOrder(ctx, id, scope.Orders(actor))
	if err != nil {
		return nil, err
	}
	if err := access.Authorize(actor, order, op); err != nil {
		return nil, err
	}
	if order.Status != models.StatusPending {
		return nil, ErrOrderNotPending
	}
	return order, nil
}

func (s *orderService) Update(ctx context.Context, actor access.Actor, id int64, patch OrderPatch) (*models.Order, error) {
	const op = "service.Orders.Update"
	logger := s.log.With(slog.String("op", op), slog.Int64("orderID", id))

	order, err := s.loadOwned(ctx, actor, id, access.OpUpdate)
	if err != nil {
		logger.Warn("update rejected", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	setString(&order.ShippingAddress, patch.ShippingAddress)
	setString(&order.PhoneNumber, patch.PhoneNumber)
	if strings.TrimSpace(order.ShippingAddress) == "" {
		return nil, fmt.Errorf("%w: shipping_address is required", models.ErrValidation)
	}

	if err := s.orderRepo.UpdateOrder(ctx, order); err != nil {
		logger.Error("failed to update order", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return order, nil
}

func (s *orderService) Delete(ctx context.Context, actor access.Actor, id int64) error {
	const op = "service.Orders.Delete"
	logger := s.log.With(slog.String("op", op), slog.Int64("orderID", id))

	if _, err := s.loadOwned(ctx, actor, id, access.OpDelete); err != nil {
		logger.Warn("delete rejected", slog.Any("error", err))
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.orderRepo.DeleteOrder(ctx, id); err != nil {
		logger.Error("failed to delete order", slog.Any("error", err))
		return fmt.Errorf("%s: %w", op, err)
	}
	logger.Info("order deleted")
	return nil
}

// UpdateStatus переводит заказ по графу статусов. Фермер двигает заказ вперед,
// покупатель может только отменить его.
func (s *orderService) UpdateStatus(ctx context.Context, actor access.Actor, id int64, status models.OrderStatus) (*models.Order, error) {
	const op = "service.Orders.UpdateStatus"
	logger := s.log.With(
		slog.String("op", op),
		slog.Int64("orderID", id),
		slog.String("status", string(status)),
	)

	if !actor.Authenticated() {
		return nil, models.ErrUnauthenticated
	}
	if status == "" {
		return nil, fmt.Errorf("%w: status is required", models.ErrValidation)
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: invalid status %q", models.ErrValidation, status)
	}

	order, err := s.orderRepo.GetOrder(ctx, id, scope.Orders(actor))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if order.Status == status {
		return order, nil
	}
	if !actor.IsFarmer() && status != models.StatusCancelled {
		logger.Warn("buyer tried to advance order")
		return nil, ErrBuyerCancelOnly
	}
	if !order.Status.CanTransition(status) {
		logger.Warn("transition rejected", slog.String("from", string(order.Status)))
		return nil, fmt.Errorf("%w: %s -> %s", ErrBadTransition, order.Status, status)
	}

	if err := s.orderRepo.UpdateOrderStatus(ctx, id, status); err != nil {
		logger.Error("failed to update status", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	order.Status = status
	logger.Info("order status updated")
	return order, nil
}
