package order

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrValidation          = errors.New("validation error")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrCancelWindowExpired = errors.New("cancellation window has expired")
)

// transitions lists the allowed next statuses. Terminal statuses have none.
var transitions = map[Status][]Status{
	StatusPending:        {StatusDriverAssigned, StatusCancelled},
	StatusDriverAssigned: {StatusDelivered, StatusCancelled},
}

func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func invalid(from, to Status) error {
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}

// The methods below mutate o only when they return nil.

func (o *Order) AssignDriver(d Driver, at time.Time) error {
	d.Name = strings.TrimSpace(d.Name)
	d.Phone = strings.TrimSpace(d.Phone)
	d.CarNumber = strings.TrimSpace(d.CarNumber)
	if d.Name == "" || d.Phone == "" {
		return fmt.Errorf("%w: driver name and phone are required", ErrValidation)
	}
	if !CanTransition(o.Status, StatusDriverAssigned) {
		return invalid(o.Status, StatusDriverAssigned)
	}
	o.Status = StatusDriverAssigned
	o.Driver = &d
	o.AssignedAt = &at
	o.UpdatedAt = at
	return nil
}

func (o *Order) MarkDelivered(at time.Time) error {
	if !CanTransition(o.Status, StatusDelivered) {
		return invalid(o.Status, StatusDelivered)
	}
	o.Status = StatusDelivered
	o.DeliveredAt = &at
	o.UpdatedAt = at
	return nil
}

// Cancel applies the transition; who may cancel and why is decided by the caller.
func (o *Order) Cancel(reason string, at time.Time) error {
	if !CanTransition(o.Status, StatusCancelled) {
		return invalid(o.Status, StatusCancelled)
	}
	o.Status = StatusCancelled
	o.CancellationReason = strings.TrimSpace(reason)
	o.CancelledAt = &at
	o.UpdatedAt = at
	return nil
}

// MarkPaid settles a prepaid order.
func (o *Order) MarkPaid(at time.Time) error {
	if o.Status == StatusCancelled {
		return fmt.Errorf("%w: cancelled order cannot be paid", ErrInvalidTransition)
	}
	if o.PaymentStatus == PaymentPaid {
		return fmt.Errorf("%w: order already paid", ErrInvalidTransition)
	}
	o.PaymentStatus = PaymentPaid
	o.UpdatedAt = at
	return nil
}

// CancelPolicy bounds buyer self-cancellation to a window after creation.
type CancelPolicy struct {
	Window time.Duration
}

func DefaultCancelPolicy() CancelPolicy { return CancelPolicy{Window: 120 * time.Second} }

// Allows compares whole elapsed seconds against the window, so an order
// created at T is cancellable through T+window+999ms.
func (p CancelPolicy) Allows(createdAt, now time.Time) bool {
	elapsed := int64(now.Sub(createdAt) / time.Second)
	return elapsed <= int64(p.Window/time.Second)
}

// Remaining returns whole seconds left in the window (0 once expired).
func (p CancelPolicy) Remaining(createdAt, now time.Time) int64 {
	elapsed := int64(now.Sub(createdAt) / time.Second)
	left := int64(p.Window/time.Second) - elapsed
	if left < 0 {
		return 0
	}
	return left
}
