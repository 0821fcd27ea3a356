package services

import (
	"context"
	"greenbasket/models"
	"greenbasket/repositories"
	"math"

	"github.com/shopspring/decimal"
)

type ProductService struct {
	catalog repositories.ProductCatalog
}

func NewProductService(catalog repositories.ProductCatalog) *ProductService {
	return &ProductService{catalog: catalog}
}

func (s *ProductService) GetAllProducts(ctx context.Context, page, limit int) (*models.PaginationResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	products, total, err := s.catalog.GetAllProducts(ctx, page, limit)
	if err != nil {
		return nil, err
	}

	totalPages := int(math.Ceil(float64(total) / float64(limit)))

	return &models.PaginationResponse{
		Success: true,
		Message: "Products retrieved successfully",
		Data:    products,
		Meta: models.MetaData{
			Page:       page,
			Limit:      limit,
			TotalItems: total,
			TotalPages: totalPages,
		},
	}, nil
}

func (s *ProductService) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	return s.catalog.GetProductByID(ctx, id)
}

// LineItemFor looks the product up and seeds a cart line with its current
// prices.
func (s *ProductService) LineItemFor(ctx context.Context, id int64, quantity decimal.Decimal) (models.LineItem, error) {
	p, err := s.catalog.GetProductByID(ctx, id)
	if err != nil {
		return models.LineItem{}, err
	}
	return p.LineItem(quantity), nil
}
