package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/MikeMC777/multimarket/internal/auth"
	"github.com/MikeMC777/multimarket/internal/cart"
	"github.com/MikeMC777/multimarket/internal/logging"
	"github.com/MikeMC777/multimarket/internal/pricing"
)

var (
	ErrEmptyCart = errors.New("cart is empty")
	ErrForbidden = errors.New("forbidden")
	ErrUpstream  = errors.New("dependency unavailable")
)

type Deps struct {
	Repo    Repository
	Carts   cart.Store
	Catalog Catalog
	Users   Identity
	Pricing *pricing.Calculator
	Events  Publisher
	Policy  CancelPolicy
	Metrics *Metrics
	Logger  *zap.Logger
}

// Service owns cart, checkout and the order lifecycle.
type Service struct {
	repo    Repository
	carts   cart.Store
	catalog Catalog
	users   Identity
	calc    *pricing.Calculator
	events  Publisher
	policy  CancelPolicy
	metrics *Metrics
	log     *zap.Logger
	now     func() time.Time
}

func NewService(d Deps) *Service {
	s := &Service{
		repo:    d.Repo,
		carts:   d.Carts,
		catalog: d.Catalog,
		users:   d.Users,
		calc:    d.Pricing,
		events:  d.Events,
		policy:  d.Policy,
		metrics: d.Metrics,
		log:     d.Logger,
		now:     time.Now,
	}
	if s.calc == nil {
		s.calc = pricing.MustDefault()
	}
	if s.events == nil {
		s.events = NopPublisher{}
	}
	if s.policy.Window <= 0 {
		s.policy = DefaultCancelPolicy()
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	return s
}

// SetClock replaces the wall clock used for transitions and the cancel window.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

func (s *Service) Pricing() *pricing.Calculator { return s.calc }

// ---- placement ----

func (s *Service) Checkout(ctx context.Context, p *auth.Principal, req CheckoutRequest) (*Order, error) {
	req.FullName = strings.TrimSpace(req.FullName)
	req.Address = strings.TrimSpace(req.Address)
	if req.FullName == "" || req.Address == "" || strings.TrimSpace(req.Phone) == "" {
		return nil, fmt.Errorf("%w: fullName, phone and address are required", ErrValidation)
	}
	phone, err := NormalizePhone(req.Phone)
	if err != nil {
		return nil, err
	}
	if !req.PaymentType.Valid() {
		return nil, fmt.Errorf("%w: unknown payment type %q", ErrValidation, req.PaymentType)
	}

	ok, err := s.users.ValidateUser(ctx, p.UID)
	if err != nil {
		return nil, fmt.Errorf("%w: user service: %v", ErrUpstream, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: unknown buyer", ErrForbidden)
	}

	c, err := s.carts.Get(ctx, p.UID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if c.IsEmpty() {
		return nil, ErrEmptyCart
	}
	totals, err := s.calc.Totals(c.Subtotal())
	if err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(c.Items))
	for _, it := range c.Items {
		items = append(items, Item{
			ProductID: it.ProductID,
			Title:     it.Title,
			Price:     it.Price,
			Quantity:  it.Quantity,
			Image:     it.Image,
		})
	}
	o := &Order{
		ID:     uuid.NewString(),
		UserID: p.UID,
		UserInfo: UserInfo{
			FullName: req.FullName,
			Email:    p.Email,
			Phone:    phone,
			UID:      p.UID,
		},
		Address:            req.Address,
		Notes:              strings.TrimSpace(req.Notes),
		Items:              items,
		Total:              totals.Total,
		OriginalTotal:      totals.OriginalTotal,
		Discount:           totals.Discount,
		DiscountPercentage: totals.DiscountPercentage,
		PaymentType:        req.PaymentType,
		PaymentStatus:      req.PaymentType.InitialPaymentStatus(),
		Status:             StatusPending,
	}
	if err := s.repo.Create(ctx, o); err != nil {
		s.log.Error("create order failed", zap.String("user_id", p.UID), zap.Error(err))
		return nil, fmt.Errorf("persist order: %w", err)
	}

	// The order exists from here on; a stale cart is a nuisance, not a failure.
	if err := s.settleCart(ctx, c); err != nil {
		s.log.Error("clear cart after checkout failed",
			zap.String("user_id", p.UID), zap.String("order_id", o.ID), zap.Error(err))
	}
	s.metrics.orderPlaced(o)
	s.publish(ctx, EventCreated, o)
	return o, nil
}

// settleCart empties the checked-out cart. If the buyer changed it while the
// order was being written, only the ordered quantities are taken out.
func (s *Service) settleCart(ctx context.Context, ordered *cart.Cart) error {
	cleared, err := s.carts.ClearIfUnchanged(ctx, ordered.UserID, ordered.UpdatedAt)
	if err != nil || cleared {
		return err
	}
	cur, err := s.carts.Get(ctx, ordered.UserID)
	if err != nil {
		return err
	}
	cur.Subtract(ordered.Items)
	return s.carts.Save(ctx, cur)
}

// ---- reads ----

// Get returns an order to its owner or to an admin.
func (s *Service) Get(ctx context.Context, p *auth.Principal, id string) (*Order, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.IsAdmin() && o.UserID != p.UID {
		return nil, ErrForbidden
	}
	return o, nil
}

// ListMine returns the buyer's orders newest first with the seconds left to cancel.
func (s *Service) ListMine(ctx context.Context, p *auth.Principal, limit, offset int) ([]View, error) {
	orders, err := s.repo.ListByUser(ctx, p.UID, limit, offset)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := make([]View, 0, len(orders))
	for i := range orders {
		v := NewView(&orders[i])
		left := int64(0)
		if CanTransition(orders[i].Status, StatusCancelled) {
			left = s.policy.Remaining(orders[i].CreatedAt, now)
		}
		v.CancellableFor = &left
		out = append(out, v)
	}
	return out, nil
}

func (s *Service) List(ctx context.Context, f ListFilter) ([]View, error) {
	f.Query = strings.TrimSpace(f.Query)
	if f.Status != "" && !f.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, f.Status)
	}
	orders, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	out := make([]View, 0, len(orders))
	for i := range orders {
		out = append(out, NewView(&orders[i]))
	}
	return out, nil
}

// Stats counts orders; "today" starts at local midnight.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	now := s.now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return s.repo.Stats(ctx, midnight)
}

// ---- transitions ----

// mutate loads the order, applies fn and writes it back under the version check.
// Nothing is written when fn fails.
func (s *Service) mutate(ctx context.Context, id, label string, fn func(o *Order, now time.Time) error) (*Order, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(o, s.now()); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, o); err != nil {
		if !errors.Is(err, ErrConflict) {
			s.log.Error("update order failed", zap.String("order_id", id), zap.Error(err))
		}
		return nil, err
	}
	s.metrics.transition(label)
	s.publish(ctx, EventStatusChanged, o)
	return o, nil
}

func (s *Service) AssignDriver(ctx context.Context, id string, req AssignDriverRequest) (*Order, error) {
	return s.mutate(ctx, id, string(StatusDriverAssigned), func(o *Order, now time.Time) error {
		return o.AssignDriver(Driver{Name: req.Name, Phone: req.Phone, CarNumber: req.CarNumber}, now)
	})
}

func (s *Service) MarkDelivered(ctx context.Context, id string) (*Order, error) {
	return s.mutate(ctx, id, string(StatusDelivered), func(o *Order, now time.Time) error {
		return o.MarkDelivered(now)
	})
}

// CancelByAdmin needs a reason; admins are not bound by the buyer window.
func (s *Service) CancelByAdmin(ctx context.Context, id, reason string) (*Order, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, fmt.Errorf("%w: cancellation reason is required", ErrValidation)
	}
	return s.mutate(ctx, id, string(StatusCancelled), func(o *Order, now time.Time) error {
		return o.Cancel(reason, now)
	})
}

// CancelByBuyer lets the owner cancel within the window measured from the stored createdAt.
func (s *Service) CancelByBuyer(ctx context.Context, p *auth.Principal, id, reason string) (*Order, error) {
	return s.mutate(ctx, id, string(StatusCancelled), func(o *Order, now time.Time) error {
		if o.UserID != p.UID {
			return ErrForbidden
		}
		if !CanTransition(o.Status, StatusCancelled) {
			return invalid(o.Status, StatusCancelled)
		}
		if !s.policy.Allows(o.CreatedAt, now) {
			return ErrCancelWindowExpired
		}
		if strings.TrimSpace(reason) == "" {
			reason = "cancelled by customer"
		}
		return o.Cancel(reason, now)
	})
}

func (s *Service) MarkPaid(ctx context.Context, id string) (*Order, error) {
	return s.mutate(ctx, id, string(PaymentPaid), func(o *Order, now time.Time) error {
		return o.MarkPaid(now)
	})
}

// SetStatus dispatches a generic admin status change to the matching transition.
func (s *Service) SetStatus(ctx context.Context, id string, req StatusRequest) (*Order, error) {
	switch req.Status {
	case StatusDriverAssigned:
		if req.Driver == nil {
			return nil, fmt.Errorf("%w: driver is required", ErrValidation)
		}
		return s.AssignDriver(ctx, id, *req.Driver)
	case StatusDelivered:
		return s.MarkDelivered(ctx, id)
	case StatusCancelled:
		return s.CancelByAdmin(ctx, id, req.Reason)
	case StatusPending:
		return s.mutate(ctx, id, string(StatusPending), func(o *Order, _ time.Time) error {
			return invalid(o.Status, StatusPending)
		})
	default:
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, req.Status)
	}
}

// CancellableFor is the whole seconds the buyer has left to cancel o.
func (s *Service) CancellableFor(o *Order) int64 {
	if !CanTransition(o.Status, StatusCancelled) {
		return 0
	}
	return s.policy.Remaining(o.CreatedAt, s.now())
}

func (s *Service) publish(ctx context.Context, typ string, o *Order) {
	e := newEvent(typ, o, logging.RequestID(ctx))
	if err := s.events.Publish(ctx, e); err != nil {
		s.log.Warn("publish order event failed",
			zap.String("type", typ), zap.String("order_id", o.ID), zap.Error(err))
	}
}
