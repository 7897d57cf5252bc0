package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Category категория товара
type Category string

const (
	CategoryVegetables Category = "vegetables"
	CategoryFruits     Category = "fruits"
	CategoryGrains     Category = "grains"
	CategoryDairy      Category = "dairy"
	CategoryOther      Category = "other"
)

var categories = []Category{CategoryVegetables, CategoryFruits, CategoryGrains, CategoryDairy, CategoryOther}

// ParseCategory сопоставляет строку с категорией без учета регистра
func ParseCategory(s string) (Category, bool) {
	for _, c := range categories {
		if strings.EqualFold(string(c), s) {
			return c, true
		}
	}
	return "", false
}

// Product товар, выставленный фермером
type Product struct {
	ID          int64           `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"image_url"`
	Category    Category        `json:"category"`
	FarmerID    int64           `json:"farmer"`
	FarmerName  string          `json:"farmer_name"` // заполняется через JOIN с users
	Location    string          `json:"location"`
	HarvestDate Date            `json:"harvest_date"`
	IsOrganic   bool            `json:"is_organic"`
	Quantity    int             `json:"quantity"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"-"`
}

func (p *Product) Ownership() Ownership {
	return Ownership{Relation: RelationFarmer, OwnerID: p.FarmerID}
}
