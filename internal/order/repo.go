package order

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound = errors.New("order not found")
	ErrConflict = errors.New("order was modified concurrently")
)

type Repository interface {
	// Create stores o with its items. The order number, timestamps and
	// version are assigned by the store and written back into o.
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]Order, error)
	List(ctx context.Context, f ListFilter) ([]Order, error)
	Stats(ctx context.Context, since time.Time) (Stats, error)
	// Update persists status, payment, driver and timestamp fields if the
	// stored version still equals o.Version, then bumps o.Version.
	Update(ctx context.Context, o *Order) error
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

const orderColumns = `
	id::text, order_number, user_id, full_name, email, phone, address, notes,
	total, original_total, discount, discount_percentage,
	payment_type, payment_status, status,
	driver_name, driver_phone, driver_car_number, cancellation_reason,
	created_at, updated_at, assigned_at, cancelled_at, delivered_at, version`

func (r *PGRepo) Create(ctx context.Context, o *Order) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := tx.QueryRow(ctx, `
		INSERT INTO orders (id, user_id, full_name, email, phone, address, notes,
			total, original_total, discount, discount_percentage,
			payment_type, payment_status, status, created_at, updated_at, version)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,NOW(),NOW(),1)
		RETURNING order_number, created_at, updated_at, version
	`, o.ID, o.UserID, o.UserInfo.FullName, o.UserInfo.Email, o.UserInfo.Phone, o.Address, o.Notes,
		o.Total, o.OriginalTotal, o.Discount, o.DiscountPercentage,
		o.PaymentType, o.PaymentStatus, o.Status,
	).Scan(&o.OrderID, &o.CreatedAt, &o.UpdatedAt, &o.Version); err != nil {
		return err
	}

	if len(o.Items) > 0 {
		batch := &pgx.Batch{}
		for i, it := range o.Items {
			batch.Queue(`
				INSERT INTO order_items (order_id, position, product_id, title, price, quantity, image)
				VALUES ($1,$2,$3,$4,$5,$6,$7)
			`, o.ID, i, it.ProductID, it.Title, it.Price, it.Quantity, it.Image)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}
	o.UserInfo.UID = o.UserID
	return nil
}

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	var driverName, driverPhone, carNum *string
	if err := row.Scan(
		&o.ID, &o.OrderID, &o.UserID, &o.UserInfo.FullName, &o.UserInfo.Email, &o.UserInfo.Phone, &o.Address, &o.Notes,
		&o.Total, &o.OriginalTotal, &o.Discount, &o.DiscountPercentage,
		&o.PaymentType, &o.PaymentStatus, &o.Status,
		&driverName, &driverPhone, &carNum, &o.CancellationReason,
		&o.CreatedAt, &o.UpdatedAt, &o.AssignedAt, &o.CancelledAt, &o.DeliveredAt, &o.Version,
	); err != nil {
		return nil, err
	}
	o.UserInfo.UID = o.UserID
	if driverName != nil {
		o.Driver = &Driver{Name: *driverName}
		if driverPhone != nil {
			o.Driver.Phone = *driverPhone
		}
		if carNum != nil {
			o.Driver.CarNumber = *carNum
		}
	}
	o.Items = []Item{}
	return &o, nil
}

func (r *PGRepo) GetByID(ctx context.Context, id string) (*Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	o, err := scanOrder(r.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id::text=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := r.loadItems(ctx, []*Order{o}); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *PGRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return r.query(ctx, `SELECT `+orderColumns+` FROM orders WHERE user_id=$1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`, userID, clampLimit(limit), max(offset, 0))
}

func (r *PGRepo) List(ctx context.Context, f ListFilter) ([]Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var status *string
	if f.Status != "" {
		s := string(f.Status)
		status = &s
	}
	var q *string
	if f.Query != "" {
		s := "%" + f.Query + "%"
		q = &s
	}
	return r.query(ctx, `SELECT `+orderColumns+` FROM orders
		WHERE ($1::text IS NULL OR status = $1)
		  AND ($2::text IS NULL OR order_number ILIKE $2 OR full_name ILIKE $2
		       OR phone ILIKE $2 OR email ILIKE $2)
		ORDER BY created_at DESC LIMIT $3 OFFSET $4`, status, q, clampLimit(f.Limit), max(f.Offset, 0))
}

func (r *PGRepo) query(ctx context.Context, sql string, args ...any) ([]Order, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	ptrs := make([]*Order, len(out))
	for i := range out {
		ptrs[i] = &out[i]
	}
	return out, r.loadItems(ctx, ptrs)
}

func (r *PGRepo) loadItems(ctx context.Context, orders []*Order) error {
	if len(orders) == 0 {
		return nil
	}
	byID := make(map[string]*Order, len(orders))
	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		byID[o.ID] = o
		ids = append(ids, o.ID)
	}
	rows, err := r.db.Query(ctx, `
		SELECT order_id::text, product_id, title, price, quantity, image
		FROM order_items WHERE order_id::text = ANY($1)
		ORDER BY order_id, position
	`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			oid string
			it  Item
		)
		if err := rows.Scan(&oid, &it.ProductID, &it.Title, &it.Price, &it.Quantity, &it.Image); err != nil {
			return err
		}
		if o := byID[oid]; o != nil {
			o.Items = append(o.Items, it)
		}
	}
	return rows.Err()
}

func (r *PGRepo) Stats(ctx context.Context, since time.Time) (Stats, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var s Stats
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'pending'),
		       COUNT(*) FILTER (WHERE status = 'driver_assigned'),
		       COUNT(*) FILTER (WHERE status = 'delivered'),
		       COUNT(*) FILTER (WHERE status = 'cancelled'),
		       COUNT(*) FILTER (WHERE created_at >= $1)
		FROM orders
	`, since).Scan(&s.Total, &s.Pending, &s.DriverAssigned, &s.Delivered, &s.Cancelled, &s.Today)
	return s, err
}

func (r *PGRepo) Update(ctx context.Context, o *Order) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var name, phone, car *string
	if o.Driver != nil {
		name, phone, car = &o.Driver.Name, &o.Driver.Phone, &o.Driver.CarNumber
	}
	tag, err := r.db.Exec(ctx, `
		UPDATE orders
		SET status = $3, payment_status = $4,
		    driver_name = $5, driver_phone = $6, driver_car_number = $7,
		    cancellation_reason = $8,
		    assigned_at = $9, cancelled_at = $10, delivered_at = $11,
		    updated_at = $12, version = version + 1
		WHERE id::text = $1 AND version = $2
	`, o.ID, o.Version, o.Status, o.PaymentStatus, name, phone, car,
		o.CancellationReason, o.AssignedAt, o.CancelledAt, o.DeliveredAt, o.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id::text=$1)`, o.ID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}
		return ErrConflict
	}
	o.Version++
	return nil
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 100 {
		return 20
	}
	return limit
}
