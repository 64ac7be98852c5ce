package domain

import "time"

type Cart struct {
	ID        int64
	SessionID string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type CartItem struct {
	ID        int64
	CartID    int64
	ProductID int64
	Quantity  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// A CartLine is a cart item joined with the product it references.
type CartLine struct {
	Item    CartItem
	Product Product
}

func (l CartLine) Subtotal() int64 {
	return l.Product.Price * int64(l.Item.Quantity)
}

// A CartView is the display-ready state of a session's cart.
type CartView struct {
	Cart  Cart
	Lines []CartLine
	Total int64
}

// CartTotal sums stored price times quantity over lines, in minor units.
func CartTotal(lines []CartLine) int64 {
	var total int64
	for _, l := range lines {
		total += l.Subtotal()
	}
	return total
}
