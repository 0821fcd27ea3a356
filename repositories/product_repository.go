package repositories

import (
	"context"
	"errors"
	"greenbasket/models"
	"sort"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var ErrProductNotFound = errors.New("product not found")

// ProductCatalog resolves the prices a cart line needs from a product id.
type ProductCatalog interface {
	GetProductByID(ctx context.Context, id int64) (*models.Product, error)
	GetAllProducts(ctx context.Context, page, limit int) ([]models.Product, int, error)
}

type ProductRepository struct {
	db *pgxpool.Pool
}

var _ ProductCatalog = (*ProductRepository)(nil)

func NewProductRepository(db *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{db: db}
}

const productColumns = `id, name, COALESCE(description, ''), COALESCE(category, ''),
	retail_price::text, wholesale_price::text, min_wholesale_qty::text, stock_kg::text,
	COALESCE(image_url, ''), is_active, created_at, updated_at`

func (r *ProductRepository) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1 AND is_active = true`

	p, err := scanProduct(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *ProductRepository) GetAllProducts(ctx context.Context, page, limit int) ([]models.Product, int, error) {
	offset := (page - 1) * limit

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM products WHERE is_active = true`).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + productColumns + ` FROM products WHERE is_active = true
	          ORDER BY name LIMIT $1 OFFSET $2`

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	products := []models.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		products = append(products, *p)
	}
	return products, total, rows.Err()
}

func scanProduct(row pgx.Row) (*models.Product, error) {
	var (
		p                                  models.Product
		retail, wholesale, minQty, stockKg string
	)
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.Category,
		&retail, &wholesale, &minQty, &stockKg,
		&p.ImageURL, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	for _, f := range []struct {
		dst *decimal.Decimal
		raw string
	}{
		{&p.RetailPrice, retail},
		{&p.WholesalePrice, wholesale},
		{&p.MinWholesaleQty, minQty},
		{&p.StockKg, stockKg},
	} {
		v, err := decimal.NewFromString(f.raw)
		if err != nil {
			return nil, err
		}
		*f.dst = v
	}
	return &p, nil
}

// MemoryProductCatalog serves a fixed product list. It backs development
// servers started without a database.
type MemoryProductCatalog struct {
	mu       sync.RWMutex
	products map[int64]models.Product
}

var _ ProductCatalog = (*MemoryProductCatalog)(nil)

func NewMemoryProductCatalog(products ...models.Product) *MemoryProductCatalog {
	c := &MemoryProductCatalog{products: make(map[int64]models.Product, len(products))}
	for _, p := range products {
		c.products[p.ID] = p
	}
	return c
}

func (c *MemoryProductCatalog) Put(p models.Product) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.products[p.ID] = p
}

func (c *MemoryProductCatalog) GetProductByID(_ context.Context, id int64) (*models.Product, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.products[id]
	if !ok || !p.IsActive {
		return nil, ErrProductNotFound
	}
	return &p, nil
}

func (c *MemoryProductCatalog) GetAllProducts(_ context.Context, page, limit int) ([]models.Product, int, error) {
	c.mu.RLock()
	active := make([]models.Product, 0, len(c.products))
	for _, p := range c.products {
		if p.IsActive {
			active = append(active, p)
		}
	}
	c.mu.RUnlock()

	sort.Slice(active, func(i, j int) bool { return active[i].Name < active[j].Name })

	offset := (page - 1) * limit
	if offset >= len(active) {
		return []models.Product{}, len(active), nil
	}
	end := offset + limit
	if end > len(active) {
		end = len(active)
	}
	return active[offset:end], len(active), nil
}
