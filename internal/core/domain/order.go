package domain

import "time"

type OrderStatus string

const (
	OrderStatusPending OrderStatus = "pending"
	OrderStatusPaid    OrderStatus = "paid"
	OrderStatusFailed  OrderStatus = "failed"
)

type NotificationStatus string

const (
	NotificationNone   NotificationStatus = "none"
	NotificationQueued NotificationStatus = "queued"
	NotificationSent   NotificationStatus = "sent"
	NotificationFailed NotificationStatus = "failed"
)

type Order struct {
	ID                 int64
	SessionID          string
	CartID             int64
	PaymentIntentID    string
	Amount             int64
	Currency           string
	Status             OrderStatus
	Email              string
	NotificationStatus NotificationStatus
	Items              []OrderItem
	CreatedAt          time.Time
	PaidAt             *time.Time
}

func (o Order) ProductIDs() []int64 {
	ids := make([]int64, len(o.Items))
	for i, it := range o.Items {
		ids[i] = it.ProductID
	}
	return ids
}

// An OrderItem keeps the price the buyer was charged for a product.
type OrderItem struct {
	ProductID int64
	Quantity  int
	UnitPrice int64
}

// A PaymentIntent is the processor's handle for an in-progress charge.
type PaymentIntent struct {
	ID           string
	ClientSecret string
	Amount       int64
	Currency     string
	Succeeded    bool
}

type CheckoutResult struct {
	OrderID      int64
	Intent       PaymentIntent
	Amount       int64
	Currency     string
	ItemsCharged int
}

type Confirmation struct {
	Order        Order
	Notification NotificationStatus
}

// An OrderPaid is published once an order transitions to paid.
type OrderPaid struct {
	OrderID         int64
	PaymentIntentID string
	Email           string
	Amount          int64
	Currency        string
	Items           []OrderItem
	PaidAt          time.Time
}
