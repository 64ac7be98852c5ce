package service

import (
	"context"
	"fmt"

	"github.com/niksmo/digital-store/internal/core/domain"
	"github.com/niksmo/digital-store/internal/core/port"
)

var _ port.CatalogReader = (*CatalogService)(nil)
var _ port.CatalogAdmin = (*CatalogService)(nil)

type CatalogService struct {
	products port.ProductsStorage
}

func NewCatalogService(products port.ProductsStorage) CatalogService {
	return CatalogService{products}
}

func (s CatalogService) ListProducts(
	ctx context.Context, category string,
) ([]domain.Product, error) {
	const op = "CatalogService.ListProducts"

	f := domain.ProductFilter{Category: category, OnlyActive: true}
	ps, err := s.list(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ps, nil
}

func (s CatalogService) ListProductsByType(
	ctx context.Context, productType string,
) ([]domain.Product, error) {
	const op = "CatalogService.ListProductsByType"

	t, err := domain.ParseProductType(productType)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ps, err := s.list(ctx, domain.ProductFilter{Type: t, OnlyActive: true})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ps, nil
}

// GetProduct returns an active product. Hidden products are not found.
func (s CatalogService) GetProduct(
	ctx context.Context, id int64,
) (domain.Product, error) {
	const op = "CatalogService.GetProduct"

	p, err := s.GetAnyProduct(ctx, id)
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	if !p.IsActive {
		return domain.Product{}, fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	return p, nil
}

func (s CatalogService) ListAllProducts(
	ctx context.Context,
) ([]domain.Product, error) {
	const op = "CatalogService.ListAllProducts"

	ps, err := s.list(ctx, domain.ProductFilter{})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ps, nil
}

func (s CatalogService) GetAnyProduct(
	ctx context.Context, id int64,
) (domain.Product, error) {
	const op = "CatalogService.GetAnyProduct"

	if err := ctx.Err(); err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	if id <= 0 {
		return domain.Product{}, fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}

	p, err := s.products.ReadProduct(ctx, id)
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

func (s CatalogService) CreateProduct(
	ctx context.Context, p domain.Product,
) (domain.Product, error) {
	const op = "CatalogService.CreateProduct"

	if err := ctx.Err(); err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	p.ID = 0
	if err := p.Validate(); err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	created, err := s.products.CreateProduct(ctx, p)
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}
	return created, nil
}

func (s CatalogService) UpdateProduct(
	ctx context.Context, p domain.Product,
) (domain.Product, error) {
	const op = "CatalogService.UpdateProduct"

	if err := ctx.Err(); err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	if p.ID <= 0 {
		return domain.Product{}, fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}

	if err := p.Validate(); err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	updated, err := s.products.UpdateProduct(ctx, p)
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}
	return updated, nil
}

// DeactivateProduct hides a product from the storefront.
// The row stays so carts and orders keep resolving it.
func (s CatalogService) DeactivateProduct(ctx context.Context, id int64) error {
	const op = "CatalogService.DeactivateProduct"

	if id <= 0 {
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}

	if err := s.products.DeactivateProduct(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s CatalogService) list(
	ctx context.Context, f domain.ProductFilter,
) ([]domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ps, err := s.products.ListProducts(ctx, f)
	if err != nil {
		return nil, err
	}

	if ps == nil {
		ps = []domain.Product{}
	}
	return ps, nil
}
