package testimonial

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Fixed-width UTC timestamps keep TEXT ordering chronological.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

type Repository interface {
	Create(ctx context.Context, t *Testimonial) error
	GetByID(ctx context.Context, id string) (*Testimonial, error)
	ListApproved(ctx context.Context, limit int) ([]Testimonial, error)
	List(ctx context.Context, status Status) ([]Testimonial, error)
	SetStatus(ctx context.Context, id string, s Status) (*Testimonial, error)
	Delete(ctx context.Context, id string) error
}

type SQLiteRepo struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteRepo(db *sql.DB) *SQLiteRepo {
	return &SQLiteRepo{db: db, now: time.Now}
}

func (r *SQLiteRepo) stamp() string { return r.now().UTC().Format(timeLayout) }

func (r *SQLiteRepo) Create(ctx context.Context, t *Testimonial) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Status == "" {
		t.Status = StatusPending
	}
	ts := r.stamp()
	if _, err := r.db.ExecContext(ctx,
		`INSERT INTO testimonials (id, author, text, rating, status, created_at, updated_at) VALUES (?,?,?,?,?,?,?)`,
		t.ID, t.Author, t.Text, t.Rating, string(t.Status), ts, ts); err != nil {
		return err
	}
	t.CreatedAt, _ = time.Parse(timeLayout, ts)
	t.UpdatedAt = t.CreatedAt
	return nil
}

const selectCols = `SELECT id, author, text, rating, status, created_at, updated_at FROM testimonials`

type scanner interface{ Scan(dest ...any) error }

func scan(s scanner) (*Testimonial, error) {
	var (
		t                Testimonial
		status           string
		created, updated string
	)
	if err := s.Scan(&t.ID, &t.Author, &t.Text, &t.Rating, &status, &created, &updated); err != nil {
		return nil, err
	}
	t.Status = Status(status)
	var err error
	if t.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
		return nil, err
	}
	if t.UpdatedAt, err = time.Parse(timeLayout, updated); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *SQLiteRepo) GetByID(ctx context.Context, id string) (*Testimonial, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	t, err := scan(r.db.QueryRowContext(ctx, selectCols+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return t, err
}

// ListApproved returns the public feed, newest first. limit <= 0 means no limit.
func (r *SQLiteRepo) ListApproved(ctx context.Context, limit int) ([]Testimonial, error) {
	if limit <= 0 {
		limit = -1
	}
	return r.query(ctx, selectCols+` WHERE status = ? ORDER BY created_at DESC, id LIMIT ?`,
		string(StatusApproved), limit)
}

// List returns every testimonial, or only those in the given status when it is non-empty.
func (r *SQLiteRepo) List(ctx context.Context, status Status) ([]Testimonial, error) {
	if status == "" {
		return r.query(ctx, selectCols+` ORDER BY created_at DESC, id`)
	}
	return r.query(ctx, selectCols+` WHERE status = ? ORDER BY created_at DESC, id`, string(status))
}

func (r *SQLiteRepo) query(ctx context.Context, q string, args ...any) ([]Testimonial, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Testimonial{}
	for rows.Next() {
		t, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

func (r *SQLiteRepo) SetStatus(ctx context.Context, id string, s Status) (*Testimonial, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `UPDATE testimonials SET status = ?, updated_at = ? WHERE id = ?`,
		string(s), r.stamp(), id)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *SQLiteRepo) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM testimonials WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
