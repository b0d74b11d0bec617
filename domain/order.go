package domain

import "time"

// PaymentStatus is the payment state of an order, owned by the checkout flow.
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "PENDING"
	PaymentStatusPaid     PaymentStatus = "PAID"
	PaymentStatusFailed   PaymentStatus = "FAILED"
	PaymentStatusRefunded PaymentStatus = "REFUNDED"
)

// PickupStatus tracks in-store fulfillment of an order.
type PickupStatus string

const (
	PickupStatusPending   PickupStatus = "PENDING"
	PickupStatusPickedUp  PickupStatus = "PICKED_UP"
	PickupStatusCancelled PickupStatus = "CANCELLED"
)

// Order is owned externally except for the pickup transition performed
// atomically by ticket redemption.
type Order struct {
	ID            string        `json:"id"`
	CustomerName  string        `json:"customer_name,omitempty"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	PickupStatus  PickupStatus  `json:"pickup_status"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

func (o *Order) IsPaid() bool {
	return o != nil && o.PaymentStatus == PaymentStatusPaid
}
