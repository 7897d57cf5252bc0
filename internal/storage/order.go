package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/linemk/agriconnect/internal/domain/models"
	"github.com/linemk/agriconnect/internal/scope"
)

// OrderStorage описывает методы для работы с заказами и их позициями.
type OrderStorage interface {
	// CreateOrder вставляет заголовок заказа в рамках транзакции.
	CreateOrder(ctx context.Context, tx *sql.Tx, order *models.Order) error
	// CreateOrderItem вставляет позицию заказа в рамках той же транзакции.
	CreateOrderItem(ctx context.Context, tx *sql.Tx, item *models.OrderItem) error
	// GetOrder возвращает заказ с позициями, если он входит в область видимости sc.
	GetOrder(ctx context.Context, id int64, sc scope.OrderScope) (*models.Order, error)
	// ListOrders возвращает все заказы области видимости sc, новые первыми.
	ListOrders(ctx context.Context, sc scope.OrderScope) ([]*models.Order, error)
	UpdateOrder(ctx context.Context, order *models.Order) error
	UpdateOrderStatus(ctx context.Context, id int64, status models.OrderStatus) error
	DeleteOrder(ctx context.Context, id int64) error
}

type orderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) OrderStorage {
	return &orderRepository{db: db}
}

const orderSelect = `SELECT o.id, o.buyer_id, u.first_name, u.last_name, o.total_amount, o.shipping_address,
	o.phone_number, o.status, o.created_at, o.updated_at
	FROM orders o
	JOIN users u ON u.id = o.buyer_id`

// заказ виден фермеру, если хотя бы одна позиция ссылается на его товар
const farmerOrderCond = `EXISTS (SELECT 1 FROM order_items oi JOIN products p ON p.id = oi.product_id
	WHERE oi.order_id = o.id AND p.farmer_id = $1)`

// scopeCondition возвращает условие WHERE для области видимости; аргумент всегда $1
func scopeCondition(sc scope.OrderScope) (string, int64) {
	if sc.FarmerID != 0 {
		return farmerOrderCond, sc.FarmerID
	}
	return "o.buyer_id = $1", sc.BuyerID
}

func scanOrder(row rowScanner) (*models.Order, error) {
	o := &models.Order{}
	var first, last string
	err := row.Scan(&o.ID, &o.BuyerID, &first, &last, &o.TotalAmount, &o.ShippingAddress,
		&o.PhoneNumber, &o.Status, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	o.BuyerName = strings.TrimSpace(first + " " + last)
	o.Items = []models.OrderItem{}
	return o, nil
}

func (r *orderRepository) CreateOrder(ctx context.Context, tx *sql.Tx, order *models.Order) error {
	query := `INSERT INTO orders (buyer_id, total_amount, shipping_address, phone_number, status, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
	          RETURNING id, created_at, updated_at`
	err := tx.QueryRowContext(ctx, query, order.BuyerID, order.TotalAmount, order.ShippingAddress,
		order.PhoneNumber, order.Status).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

func (r *orderRepository) CreateOrderItem(ctx context.Context, tx *sql.Tx, item *models.OrderItem) error {
	query := `INSERT INTO order_items (order_id, product_id, quantity, price)
	          VALUES ($1, $2, $3, $4)
	          RETURNING id`
	err := tx.QueryRowContext(ctx, query, item.OrderID, item.ProductID, item.Quantity, item.Price).Scan(&item.ID)
	if err != nil {
		if pqCode(err) == codeForeignKeyViolation {
			return ErrUnknownProduct
		}
		return fmt.Errorf("failed to create order item: %w", err)
	}
	return nil
}

func (r *orderRepository) GetOrder(ctx context.Context, id int64, sc scope.OrderScope) (*models.Order, error) {
	cond, arg := scopeCondition(sc)
	row := r.db.QueryRowContext(ctx, orderSelect+" WHERE "+cond+" AND o.id = $2", arg, id)
	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if err := r.attachItems(ctx, []*models.Order{order}); err != nil {
		return nil, err
	}
	return order, nil
}

func (r *orderRepository) ListOrders(ctx context.Context, sc scope.OrderScope) ([]*models.Order, error) {
	cond, arg := scopeCondition(sc)
	rows, err := r.db.QueryContext(ctx, orderSelect+" WHERE "+cond+" ORDER BY o.created_at DESC, o.id DESC", arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	orders := []*models.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// attachItems одним запросом загружает позиции для всех переданных заказов
func (r *orderRepository) attachItems(ctx context.Context, orders []*models.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(orders))
	byID := make(map[int64]*models.Order, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
		byID[o.ID] = o
	}

	query := `SELECT oi.id, oi.order_id, oi.product_id, p.title, oi.quantity, oi.price
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = ANY($1)
		ORDER BY oi.id`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var it models.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductTitle, &it.Quantity, &it.Price); err != nil {
			return fmt.Errorf("failed to scan order item: %w", err)
		}
		if o, ok := byID[it.OrderID]; ok {
			o.Items = append(o.Items, it)
		}
	}
	return rows.Err()
}

func (r *orderRepository) UpdateOrder(ctx context.Context, order *models.Order) error {
	err := r.db.QueryRowContext(ctx,
		`UPDATE orders SET shipping_address = $1, phone_number = $2, updated_at = NOW()
		 WHERE id = $3
		 RETURNING updated_at`,
		order.ShippingAddress, order.PhoneNumber, order.ID,
	).Scan(&order.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrOrderNotFound
		}
		return fmt.Errorf("failed to update order: %w", err)
	}
	return nil
}

// UpdateOrderStatus без оптимистичной блокировки: побеждает последняя запись
func (r *orderRepository) UpdateOrderStatus(ctx context.Context, id int64, status models.OrderStatus) error {
	res, err := r.db.ExecContext(ctx, "UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2", status, id)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	return expectAffected(res, ErrOrderNotFound)
}

// DeleteOrder удаляет заказ; позиции удаляются каскадно
func (r *orderRepository) DeleteOrder(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM orders WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}
	return expectAffected(res, ErrOrderNotFound)
}
