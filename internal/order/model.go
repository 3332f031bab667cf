package order

import "time"

type Status string

const (
	StatusPending        Status = "pending"
	StatusDriverAssigned Status = "driver_assigned"
	StatusDelivered      Status = "delivered"
	StatusCancelled      Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusDriverAssigned, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// Terminal statuses accept no further transitions.
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

type PaymentType string

const (
	PaymentDelivery PaymentType = "delivery"
	PaymentCOD      PaymentType = "cod"
	PaymentClick    PaymentType = "click"
	PaymentPayme    PaymentType = "payme"
	PaymentUzum     PaymentType = "uzum"
)

func (p PaymentType) Valid() bool {
	switch p {
	case PaymentDelivery, PaymentCOD, PaymentClick, PaymentPayme, PaymentUzum:
		return true
	}
	return false
}

// Prepaid methods are settled online before delivery.
func (p PaymentType) Prepaid() bool {
	return p == PaymentClick || p == PaymentPayme || p == PaymentUzum
}

// InitialPaymentStatus: cash methods settle on delivery, prepaid start unpaid.
func (p PaymentType) InitialPaymentStatus() PaymentStatus {
	if p.Prepaid() {
		return PaymentUnpaid
	}
	return PaymentCash
}

type PaymentStatus string

const (
	PaymentCash   PaymentStatus = "cash"
	PaymentUnpaid PaymentStatus = "unpaid"
	PaymentPaid   PaymentStatus = "paid"
)

// UserInfo is the buyer's contact as typed at checkout.
type UserInfo struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	UID      string `json:"uid"`
}

type Item struct {
	ProductID string `json:"id"`
	Title     string `json:"title"`
	Price     int64  `json:"price"`
	Quantity  int    `json:"quantity"`
	Image     string `json:"image,omitempty"`
}

type Driver struct {
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	CarNumber string `json:"carNumber,omitempty"`
}

type Order struct {
	ID                 string        `json:"id"`
	OrderID            string        `json:"orderId"` // order number shown to buyers
	UserID             string        `json:"userId"`
	UserInfo           UserInfo      `json:"userInfo"`
	Address            string        `json:"address,omitempty"`
	Notes              string        `json:"notes,omitempty"`
	Items              []Item        `json:"items"`
	Total              int64         `json:"total"`
	OriginalTotal      int64         `json:"originalTotal"`
	Discount           int64         `json:"discount"`
	DiscountPercentage int64         `json:"discountPercentage"`
	PaymentType        PaymentType   `json:"paymentType"`
	PaymentStatus      PaymentStatus `json:"paymentStatus"`
	Status             Status        `json:"status"`
	Driver             *Driver       `json:"driver,omitempty"`
	CancellationReason string        `json:"cancellationReason,omitempty"`
	CreatedAt          time.Time     `json:"createdAt"`
	UpdatedAt          time.Time     `json:"updatedAt"`
	AssignedAt         *time.Time    `json:"assignedAt,omitempty"`
	CancelledAt        *time.Time    `json:"cancelledAt,omitempty"`
	DeliveredAt        *time.Time    `json:"deliveredAt,omitempty"`
	Version            int64         `json:"version"`
}

// AwaitingPayment is true for live prepaid orders that are not paid yet.
func (o *Order) AwaitingPayment() bool {
	return o.PaymentType.Prepaid() && o.PaymentStatus != PaymentPaid && o.Status != StatusCancelled
}

// Stats is the admin desk summary.
type Stats struct {
	Total          int `json:"total"`
	Pending        int `json:"pending"`
	DriverAssigned int `json:"driver_assigned"`
	Delivered      int `json:"delivered"`
	Cancelled      int `json:"cancelled"`
	Today          int `json:"today"`
}
