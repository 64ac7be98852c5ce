package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/niksmo/digital-store/internal/core/domain"
	"github.com/niksmo/digital-store/internal/core/port"
)

var _ port.CartStorage = (*CartsRepository)(nil)

const cartItemColumns = `id, cart_id, product_id, quantity, created_at, updated_at`

// A CartsRepository runs against the database, or against one
// transaction when obtained inside InTx.
type CartsRepository struct {
	sqldb   sqldb
	q       querier
	timeout time.Duration
}

func NewCartsRepository(sqldb sqldb, timeout time.Duration) CartsRepository {
	return CartsRepository{sqldb: sqldb, q: sqldb, timeout: timeout}
}

func (r CartsRepository) InTx(
	ctx context.Context, fn func(port.CartStorage) error,
) error {
	const op = "CartsRepository.InTx"

	if r.sqldb == nil {
		return fn(r)
	}

	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	err := inTx(ctx, r.sqldb, func(tx *sql.Tx) error {
		return fn(CartsRepository{q: tx, timeout: r.timeout})
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetOrCreateCart is a single upsert; concurrent first requests of one
// session resolve to the same row.
func (r CartsRepository) GetOrCreateCart(
	ctx context.Context, sessionID string,
) (domain.Cart, error) {
	const op = "CartsRepository.GetOrCreateCart"

	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		INSERT INTO carts (session_id)
		VALUES ($1)
		ON CONFLICT (session_id) DO UPDATE SET session_id = EXCLUDED.session_id
		RETURNING id, session_id, created_at, updated_at;`

	var c domain.Cart
	err := r.q.QueryRowContext(ctx, query, sessionID).Scan(
		&c.ID, &c.SessionID, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("%s: %w", op, translateErr(err))
	}
	return c, nil
}

func (r CartsRepository) ListItems(
	ctx context.Context, cartID int64,
) ([]domain.CartLine, error) {
	const op = "CartsRepository.ListItems"

	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		SELECT
			ci.id, ci.cart_id, ci.product_id, ci.quantity,
			ci.created_at, ci.updated_at,
			p.id, p.title, p.description, p.type, p.category, p.price,
			p.image_url, p.preview_url, p.download_url, p.duration, p.badge,
			p.is_bestseller, p.is_new, p.is_active, p.created_at, p.updated_at
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id = $1
		ORDER BY ci.id ASC;`

	rows, err := r.q.QueryContext(ctx, query, cartID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, translateErr(err))
	}
	defer rows.Close()

	lines := []domain.CartLine{}
	for rows.Next() {
		var (
			l     domain.CartLine
			ptype string
		)
		err := rows.Scan(
			&l.Item.ID, &l.Item.CartID, &l.Item.ProductID, &l.Item.Quantity,
			&l.Item.CreatedAt, &l.Item.UpdatedAt,
			&l.Product.ID, &l.Product.Title, &l.Product.Description, &ptype,
			&l.Product.Category, &l.Product.Price,
			&l.Product.ImageURL, &l.Product.PreviewURL, &l.Product.DownloadURL,
			&l.Product.Duration, &l.Product.Badge,
			&l.Product.IsBestseller, &l.Product.IsNew, &l.Product.IsActive,
			&l.Product.CreatedAt, &l.Product.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		l.Product.Type = domain.ProductType(ptype)
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, translateErr(err))
	}
	return lines, nil
}

// AddItem inserts a line or increments the existing one. Products that
// are missing or inactive are not found.
func (r CartsRepository) AddItem(
	ctx context.Context, cartID, productID int64, quantity int,
) (domain.CartItem, error) {
	const op = "CartsRepository.AddItem"

	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		INSERT INTO cart_items (cart_id, product_id, quantity)
		SELECT $1, p.id, $3 FROM products p WHERE p.id = $2 AND p.is_active
		ON CONFLICT (cart_id, product_id) DO UPDATE SET
			quantity = cart_items.quantity + EXCLUDED.quantity,
			updated_at = now()
		RETURNING ` + cartItemColumns + ";"

	it, err := scanCartItem(r.q.QueryRowContext(ctx, query, cartID, productID, quantity))
	if err != nil {
		return domain.CartItem{}, fmt.Errorf("%s: %w", op, translateErr(err))
	}

	if err := r.touch(ctx, cartID); err != nil {
		return domain.CartItem{}, fmt.Errorf("%s: %w", op, err)
	}
	return it, nil
}

func (r CartsRepository) SetItemQuantity(
	ctx context.Context, cartID, productID int64, quantity int,
) (domain.CartItem, error) {
	const op = "CartsRepository.SetItemQuantity"

	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	query := `
		UPDATE cart_items SET quantity = $3, updated_at = now()
		WHERE cart_id = $1 AND product_id = $2
		RETURNING ` + cartItemColumns + ";"

	it, err := scanCartItem(r.q.QueryRowContext(ctx, query, cartID, productID, quantity))
	if err != nil {
		return domain.CartItem{}, fmt.Errorf("%s: %w", op, translateErr(err))
	}

	if err := r.touch(ctx, cartID); err != nil {
		return domain.CartItem{}, fmt.Errorf("%s: %w", op, err)
	}
	return it, nil
}

func (r CartsRepository) RemoveItem(
	ctx context.Context, cartID, productID int64,
) (bool, error) {
	const op = "CartsRepository.RemoveItem"

	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	query := `DELETE FROM cart_items WHERE cart_id = $1 AND product_id = $2;`

	res, err := r.q.ExecContext(ctx, query, cartID, productID)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, translateErr(err))
	}

	n, err := rowsAffected(res)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	if n != 0 {
		if err := r.touch(ctx, cartID); err != nil {
			return false, fmt.Errorf("%s: %w", op, err)
		}
	}
	return n != 0, nil
}

func (r CartsRepository) ClearCart(ctx context.Context, cartID int64) error {
	const op = "CartsRepository.ClearCart"

	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	query := `DELETE FROM cart_items WHERE cart_id = $1;`

	if _, err := r.q.ExecContext(ctx, query, cartID); err != nil {
		return fmt.Errorf("%s: %w", op, translateErr(err))
	}

	if err := r.touch(ctx, cartID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (r CartsRepository) touch(ctx context.Context, cartID int64) error {
	query := `UPDATE carts SET updated_at = now() WHERE id = $1;`
	if _, err := r.q.ExecContext(ctx, query, cartID); err != nil {
		return fmt.Errorf("failed to touch cart: %w", translateErr(err))
	}
	return nil
}

func scanCartItem(row rowScanner) (domain.CartItem, error) {
	var it domain.CartItem
	err := row.Scan(
		&it.ID, &it.CartID, &it.ProductID, &it.Quantity,
		&it.CreatedAt, &it.UpdatedAt,
	)
	return it, err
}
