package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/niksmo/digital-store/internal/core/domain"
	"github.com/niksmo/digital-store/internal/core/port"
)

var _ port.ProductsStorage = (*ProductsRepository)(nil)

const productColumns = `
	id, title, description, type, category, price,
	image_url, preview_url, download_url, duration, badge,
	is_bestseller, is_new, is_active, created_at, updated_at`

type ProductsRepository struct {
	sqldb   sqldb
	timeout time.Duration
}

func NewProductsRepository(sqldb sqldb, timeout time.Duration) ProductsRepository {
	return ProductsRepository{sqldb, timeout}
}

func (r ProductsRepository) ListProducts(
	ctx context.Context, f domain.ProductFilter,
) ([]domain.Product, error) {
	const op = "ProductsRepository.ListProducts"

	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	var (
		conds []string
		args  []any
	)
	if f.OnlyActive {
		conds = append(conds, "is_active")
	}
	if f.Type != "" {
		args = append(args, string(f.Type))
		conds = append(conds, fmt.Sprintf("type = $%d", len(args)))
	}
	if f.Category != "" {
		args = append(args, f.Category)
		conds = append(conds, fmt.Sprintf("category = $%d", len(args)))
	}

	query := "SELECT" + productColumns + " FROM products"
	if len(conds) != 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY id ASC;"

	rows, err := r.sqldb.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, translateErr(err))
	}
	defer rows.Close()

	ps := []domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		ps = append(ps, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, translateErr(err))
	}
	return ps, nil
}

func (r ProductsRepository) ReadProduct(
	ctx context.Context, id int64,
) (domain.Product, error) {
	const op = "ProductsRepository.ReadProduct"

	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	query := "SELECT" + productColumns + " FROM products WHERE id = $1;"

	p, err := scanProduct(r.sqldb.QueryRowContext(ctx, query, id))
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, translateErr(err))
	}
	return p, nil
}

// ReadProducts returns the existing products among ids, in the order of ids.
func (r ProductsRepository) ReadProducts(
	ctx context.Context, ids []int64,
) ([]domain.Product, error) {
	const op = "ProductsRepository.ReadProducts"

	if len(ids) == 0 {
		return []domain.Product{}, nil
	}

	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	query := "SELECT" + productColumns + " FROM products WHERE id = ANY($1);"

	rows, err := r.sqldb.QueryContext(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, translateErr(err))
	}
	defer rows.Close()

	byID := make(map[int64]domain.Product, len(ids))
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		byID[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, translateErr(err))
	}

	ps := make([]domain.Product, 0, len(byID))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			ps = append(ps, p)
		}
	}
	return ps, nil
}

func (r ProductsRepository) CreateProduct(
	ctx context.Context, p domain.Product,
) (domain.Product, error) {
	const op = "ProductsRepository.CreateProduct"

	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		INSERT INTO products (
			title, description, type, category, price,
			image_url, preview_url, download_url, duration, badge,
			is_bestseller, is_new, is_active
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING` + productColumns + ";"

	created, err := scanProduct(r.sqldb.QueryRowContext(ctx, query,
		p.Title, p.Description, string(p.Type), p.Category, p.Price,
		p.ImageURL, p.PreviewURL, p.DownloadURL, p.Duration, p.Badge,
		p.IsBestseller, p.IsNew, p.IsActive,
	))
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, translateErr(err))
	}
	return created, nil
}

func (r ProductsRepository) UpdateProduct(
	ctx context.Context, p domain.Product,
) (domain.Product, error) {
	const op = "ProductsRepository.UpdateProduct"

	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		UPDATE products SET
			title = $2,
			description = $3,
			type = $4,
			category = $5,
			price = $6,
			image_url = $7,
			preview_url = $8,
			download_url = $9,
			duration = $10,
			badge = $11,
			is_bestseller = $12,
			is_new = $13,
			is_active = $14,
			updated_at = now()
		WHERE id = $1
		RETURNING` + productColumns + ";"

	updated, err := scanProduct(r.sqldb.QueryRowContext(ctx, query,
		p.ID, p.Title, p.Description, string(p.Type), p.Category, p.Price,
		p.ImageURL, p.PreviewURL, p.DownloadURL, p.Duration, p.Badge,
		p.IsBestseller, p.IsNew, p.IsActive,
	))
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, translateErr(err))
	}
	return updated, nil
}

func (r ProductsRepository) DeactivateProduct(ctx context.Context, id int64) error {
	const op = "ProductsRepository.DeactivateProduct"

	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		UPDATE products SET is_active = FALSE, updated_at = now()
		WHERE id = $1;`

	res, err := r.sqldb.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, translateErr(err))
	}

	n, err := rowsAffected(res)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	return nil
}

func scanProduct(row rowScanner) (domain.Product, error) {
	var (
		p     domain.Product
		ptype string
	)
	err := row.Scan(
		&p.ID, &p.Title, &p.Description, &ptype, &p.Category, &p.Price,
		&p.ImageURL, &p.PreviewURL, &p.DownloadURL, &p.Duration, &p.Badge,
		&p.IsBestseller, &p.IsNew, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return domain.Product{}, err
	}
	p.Type = domain.ProductType(ptype)
	return p, nil
}
