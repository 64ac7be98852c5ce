package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/niksmo/digital-store/internal/core/domain"
	"github.com/niksmo/digital-store/internal/core/port"
)

var _ port.CartManager = (*CartService)(nil)

// A CartService resolves a session's cart and edits its lines.
//
// Each mutation runs get-or-create and the line statement in one
// transaction, so a session's first add either fully happens or not at all.
type CartService struct {
	carts port.CartStorage
}

func NewCartService(carts port.CartStorage) CartService {
	return CartService{carts}
}

func (s CartService) View(
	ctx context.Context, sessionID string,
) (domain.CartView, error) {
	const op = "CartService.View"

	if err := validateSession(ctx, sessionID); err != nil {
		return domain.CartView{}, fmt.Errorf("%s: %w", op, err)
	}

	cart, err := s.carts.GetOrCreateCart(ctx, sessionID)
	if err != nil {
		return domain.CartView{}, fmt.Errorf("%s: %w", op, err)
	}

	lines, err := s.carts.ListItems(ctx, cart.ID)
	if err != nil {
		return domain.CartView{}, fmt.Errorf("%s: %w", op, err)
	}

	if lines == nil {
		lines = []domain.CartLine{}
	}

	return domain.CartView{
		Cart:  cart,
		Lines: lines,
		Total: domain.CartTotal(lines),
	}, nil
}

func (s CartService) AddItem(
	ctx context.Context, sessionID string, productID int64, quantity int,
) (domain.CartItem, error) {
	const op = "CartService.AddItem"

	if err := validateSession(ctx, sessionID); err != nil {
		return domain.CartItem{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := validateProductID(productID); err != nil {
		return domain.CartItem{}, fmt.Errorf("%s: %w", op, err)
	}

	if quantity <= 0 {
		err := domain.NewValidationError("quantity", "must be positive")
		return domain.CartItem{}, fmt.Errorf("%s: %w", op, err)
	}

	var item domain.CartItem
	err := s.carts.InTx(ctx, func(tx port.CartStorage) error {
		cart, err := tx.GetOrCreateCart(ctx, sessionID)
		if err != nil {
			return err
		}
		item, err = tx.AddItem(ctx, cart.ID, productID, quantity)
		return err
	})
	if err != nil {
		return domain.CartItem{}, fmt.Errorf("%s: %w", op, err)
	}
	return item, nil
}

// SetItemQuantity replaces a line's quantity. A non-positive quantity
// removes the line and is a no-op when the line is already gone.
func (s CartService) SetItemQuantity(
	ctx context.Context, sessionID string, productID int64, quantity int,
) (domain.CartItem, bool, error) {
	const op = "CartService.SetItemQuantity"

	if err := validateSession(ctx, sessionID); err != nil {
		return domain.CartItem{}, false, fmt.Errorf("%s: %w", op, err)
	}

	if err := validateProductID(productID); err != nil {
		return domain.CartItem{}, false, fmt.Errorf("%s: %w", op, err)
	}

	var (
		item    domain.CartItem
		removed bool
	)
	err := s.carts.InTx(ctx, func(tx port.CartStorage) error {
		cart, err := tx.GetOrCreateCart(ctx, sessionID)
		if err != nil {
			return err
		}

		if quantity <= 0 {
			_, err = tx.RemoveItem(ctx, cart.ID, productID)
			removed = true
			return err
		}

		item, err = tx.SetItemQuantity(ctx, cart.ID, productID, quantity)
		return err
	})
	if err != nil {
		return domain.CartItem{}, false, fmt.Errorf("%s: %w", op, err)
	}
	return item, removed, nil
}

func (s CartService) RemoveItem(
	ctx context.Context, sessionID string, productID int64,
) (bool, error) {
	const op = "CartService.RemoveItem"

	if err := validateSession(ctx, sessionID); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	if err := validateProductID(productID); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	var removed bool
	err := s.carts.InTx(ctx, func(tx port.CartStorage) error {
		cart, err := tx.GetOrCreateCart(ctx, sessionID)
		if err != nil {
			return err
		}
		removed, err = tx.RemoveItem(ctx, cart.ID, productID)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return removed, nil
}

func (s CartService) Clear(ctx context.Context, sessionID string) error {
	const op = "CartService.Clear"

	if err := validateSession(ctx, sessionID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err := s.carts.InTx(ctx, func(tx port.CartStorage) error {
		cart, err := tx.GetOrCreateCart(ctx, sessionID)
		if err != nil {
			return err
		}
		return tx.ClearCart(ctx, cart.ID)
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func validateSession(ctx context.Context, sessionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(sessionID) == "" {
		return domain.NewValidationError("session", "required")
	}
	return nil
}

func validateProductID(id int64) error {
	if id <= 0 {
		return domain.NewValidationError("productId", "required")
	}
	return nil
}
