package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus статус заказа
type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusProcessing OrderStatus = "processing"
	StatusShipped    OrderStatus = "shipped"
	StatusDelivered  OrderStatus = "delivered"
	StatusCancelled  OrderStatus = "cancelled"
)

// допустимые переходы; delivered и cancelled терминальные
var transitions = map[OrderStatus][]OrderStatus{
	StatusPending:    {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusShipped, StatusCancelled},
	StatusShipped:    {StatusDelivered, StatusCancelled},
	StatusDelivered:  nil,
	StatusCancelled:  nil,
}

func (s OrderStatus) Valid() bool {
	_, ok := transitions[s]
	return ok
}

func (s OrderStatus) Terminal() bool {
	return s.Valid() && len(transitions[s]) == 0
}

// CanTransition сообщает, можно ли перевести заказ из s в next.
// Повторная установка текущего статуса разрешена.
func (s OrderStatus) CanTransition(next OrderStatus) bool {
	if s == next {
		return next.Valid()
	}
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Order заказ покупателя с вложенными позициями
type Order struct {
	ID              int64           `json:"id"`
	BuyerID         int64           `json:"buyer"`
	BuyerName       string          `json:"buyer_name"`
	Items           []OrderItem     `json:"items"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	ShippingAddress string          `json:"shipping_address"`
	PhoneNumber     string          `json:"phone_number"`
	Status          OrderStatus     `json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"-"`
}

func (o *Order) Ownership() Ownership {
	return Ownership{Relation: RelationBuyer, OwnerID: o.BuyerID}
}

// ItemsTotal сумма price*quantity по всем позициям
func (o *Order) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, it := range o.Items {
		total = total.Add(it.LineTotal())
	}
	return total
}

// OrderItem позиция заказа; Price: цена товара на момент заказа
type OrderItem struct {
	ID           int64           `json:"id"`
	OrderID      int64           `json:"-"`
	ProductID    int64           `json:"product"`
	ProductTitle string          `json:"product_title"`
	Quantity     int             `json:"quantity"`
	Price        decimal.Decimal `json:"price"`
}

func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
