package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lib/pq"
	"github.com/linemk/agriconnect/internal/domain/models"
	"github.com/linemk/agriconnect/internal/scope"
)

// ProductStorage описывает методы для работы с товарами.
type ProductStorage interface {
	CreateProduct(ctx context.Context, p *models.Product) (*models.Product, error)
	GetProductByID(ctx context.Context, id int64) (*models.Product, error)
	// ListProducts возвращает товары, удовлетворяющие фильтру
	ListProducts(ctx context.Context, f scope.ProductFilter) ([]*models.Product, error)
	UpdateProduct(ctx context.Context, p *models.Product) error
	DeleteProduct(ctx context.Context, id int64) error
	// GetProductsTx загружает товары по id внутри транзакции оформления заказа
	GetProductsTx(ctx context.Context, tx *sql.Tx, ids []int64) (map[int64]*models.Product, error)
}

type productRepository struct {
	db *sql.DB
}

func NewProductRepository(db *sql.DB) ProductStorage {
	return &productRepository{db: db}
}

const productSelect = `SELECT p.id, p.title, p.description, p.price, p.image_url, p.category, p.farmer_id,
	u.first_name, u.last_name, p.location, p.harvest_date, p.is_organic, p.quantity, p.created_at, p.updated_at
	FROM products p
	JOIN users u ON u.id = p.farmer_id`

func scanProduct(row rowScanner) (*models.Product, error) {
	p := &models.Product{}
	var first, last string
	err := row.Scan(&p.ID, &p.Title, &p.Description, &p.Price, &p.ImageURL, &p.Category, &p.FarmerID,
		&first, &last, &p.Location, &p.HarvestDate.Time, &p.IsOrganic, &p.Quantity, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.FarmerName = strings.TrimSpace(first + " " + last)
	return p, nil
}

func (r *productRepository) CreateProduct(ctx context.Context, p *models.Product) (*models.Product, error) {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO products (title, description, price, image_url, category, farmer_id, location, harvest_date, is_organic, quantity)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id, created_at, updated_at`,
		p.Title, p.Description, p.Price, p.ImageURL, p.Category, p.FarmerID, p.Location,
		p.HarvestDate.Time, p.IsOrganic, p.Quantity,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return p, nil
}

func (r *productRepository) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	p, err := scanProduct(r.db.QueryRowContext(ctx, productSelect+" WHERE p.id = $1", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *productRepository) ListProducts(ctx context.Context, f scope.ProductFilter) ([]*models.Product, error) {
	query, args := ProductListQuery(f)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := []*models.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return products, nil
}

// ProductListQuery собирает SELECT по фильтру. Все значения передаются
// плейсхолдерами, имя колонки сортировки берется из закрытого списка.
func ProductListQuery(f scope.ProductFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	next := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if f.Category != "" {
		conds = append(conds, "LOWER(p.category) = LOWER("+next(f.Category)+")")
	}
	if f.FarmerID != 0 {
		conds = append(conds, "p.farmer_id = "+next(f.FarmerID))
	}
	if f.IsOrganic != nil {
		conds = append(conds, "p.is_organic = "+next(*f.IsOrganic))
	}
	if f.MinPrice != nil {
		conds = append(conds, "p.price >= "+next(*f.MinPrice))
	}
	if f.MaxPrice != nil {
		conds = append(conds, "p.price <= "+next(*f.MaxPrice))
	}
	for _, term := range f.Search {
		ph := next("%" + escapeLike(term) + "%")
		conds = append(conds, fmt.Sprintf(
			"(p.title ILIKE %[1]s OR p.description ILIKE %[1]s OR p.category ILIKE %[1]s OR p.location ILIKE %[1]s)", ph))
	}

	var sb strings.Builder
	sb.WriteString(productSelect)
	if len(conds) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(conds, " AND "))
	}
	sb.WriteString(" ORDER BY ")
	if col, ok := productOrderColumns[f.Ordering.Field]; ok {
		sb.WriteString(col)
		if f.Ordering.Desc {
			sb.WriteString(" DESC")
		}
		sb.WriteString(", ")
	}
	sb.WriteString("p.id")
	return sb.String(), args
}

var productOrderColumns = map[string]string{
	scope.OrderByPrice:       "p.price",
	scope.OrderByCreatedAt:   "p.created_at",
	scope.OrderByHarvestDate: "p.harvest_date",
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func (r *productRepository) UpdateProduct(ctx context.Context, p *models.Product) error {
	err := r.db.QueryRowContext(ctx,
		`UPDATE products SET title = $1, description = $2, price = $3, image_url = $4, category = $5,
		 location = $6, harvest_date = $7, is_organic = $8, quantity = $9, updated_at = NOW()
		 WHERE id = $10
		 RETURNING updated_at`,
		p.Title, p.Description, p.Price, p.ImageURL, p.Category, p.Location, p.HarvestDate.Time,
		p.IsOrganic, p.Quantity, p.ID,
	).Scan(&p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrProductNotFound
		}
		return fmt.Errorf("failed to update product: %w", err)
	}
	return nil
}

func (r *productRepository) DeleteProduct(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return expectAffected(res, ErrProductNotFound)
}

func (r *productRepository) GetProductsTx(ctx context.Context, tx *sql.Tx, ids []int64) (map[int64]*models.Product, error) {
	rows, err := tx.QueryContext(ctx, productSelect+" WHERE p.id = ANY($1)", pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := make(map[int64]*models.Product, len(ids))
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return products, nil
}
