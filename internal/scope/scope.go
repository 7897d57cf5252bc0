// Package scope описывает видимые актору наборы записей: фильтры списков
// товаров и отзывов, разобранные из query-параметров, и область видимости заказов.
package scope

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/linemk/agriconnect/internal/access"
	"github.com/linemk/agriconnect/internal/domain/models"
	"github.com/shopspring/decimal"
)

// Поля, по которым разрешена сортировка товаров
const (
	OrderByPrice       = "price"
	OrderByCreatedAt   = "created_at"
	OrderByHarvestDate = "harvest_date"
)

// Ordering ключ сортировки; пустое Field означает сортировку по id
type Ordering struct {
	Field string
	Desc  bool
}

// ProductFilter: конъюнкция необязательных условий выборки товаров
type ProductFilter struct {
	Category  string // сравнивается без учета регистра
	FarmerID  int64
	IsOrganic *bool
	MinPrice  *decimal.Decimal
	MaxPrice  *decimal.Decimal
	Search    []string // каждый термин должен встретиться хотя бы в одном поле
	Ordering  Ordering
}

// ParseProductFilter разбирает category, farmer, is_organic, min_price,
// max_price, search и ordering. Пустые параметры игнорируются.
func ParseProductFilter(q url.Values) (ProductFilter, error) {
	var f ProductFilter

	if c := strings.TrimSpace(q.Get("category")); c != "" && !strings.EqualFold(c, "all") {
		f.Category = c
	}

	if v := q.Get("farmer"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			return f, fmt.Errorf("%w: farmer must be a positive integer", models.ErrValidation)
		}
		f.FarmerID = id
	}

	if v := q.Get("is_organic"); v != "" {
		organic := strings.EqualFold(v, "true")
		f.IsOrganic = &organic
	}

	var err error
	if f.MinPrice, err = parsePrice(q, "min_price"); err != nil {
		return f, err
	}
	if f.MaxPrice, err = parsePrice(q, "max_price"); err != nil {
		return f, err
	}

	f.Search = strings.Fields(q.Get("search"))

	if f.Ordering, err = ParseOrdering(q.Get("ordering")); err != nil {
		return f, err
	}
	return f, nil
}

func parsePrice(q url.Values, key string) (*decimal.Decimal, error) {
	v := q.Get(key)
	if v == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be a decimal number", models.ErrValidation, key)
	}
	return &d, nil
}

// ParseOrdering принимает price, created_at, harvest_date с необязательным "-"
func ParseOrdering(v string) (Ordering, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return Ordering{}, nil
	}
	o := Ordering{Field: strings.TrimPrefix(v, "-"), Desc: strings.HasPrefix(v, "-")}
	switch o.Field {
	case OrderByPrice, OrderByCreatedAt, OrderByHarvestDate:
		return o, nil
	}
	return Ordering{}, fmt.Errorf("%w: cannot order by %q", models.ErrValidation, v)
}

// ReviewFilter фильтрует отзывы по товару и/или автору
type ReviewFilter struct {
	ProductID int64
	UserID    int64
}

func ParseReviewFilter(q url.Values) (ReviewFilter, error) {
	var f ReviewFilter
	var err error
	if f.ProductID, err = parseID(q, "product"); err != nil {
		return f, err
	}
	if f.UserID, err = parseID(q, "user"); err != nil {
		return f, err
	}
	return f, nil
}

func parseID(q url.Values, key string) (int64, error) {
	v := q.Get(key)
	if v == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", models.ErrValidation, key)
	}
	return id, nil
}

// OrderScope: заказы, видимые актору. Ровно одно поле ненулевое:
// BuyerID для собственных заказов, FarmerID для заказов с товарами фермера.
type OrderScope struct {
	BuyerID  int64
	FarmerID int64
}

// Orders строит область видимости заказов в зависимости от роли актора
func Orders(actor access.Actor) OrderScope {
	if actor.IsFarmer() {
		return OrderScope{FarmerID: actor.ID}
	}
	return OrderScope{BuyerID: actor.ID}
}

// OwnOrders: заказы, оформленные самим актором, независимо от роли
func OwnOrders(actor access.Actor) OrderScope {
	return OrderScope{BuyerID: actor.ID}
}
