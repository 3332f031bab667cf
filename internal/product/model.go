package product

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MikeMC777/multimarket/internal/pricing"
)

var ErrValidation = errors.New("validation error")

type Category string

const (
	CategoryElektr     Category = "elektr"
	CategorySantexnika Category = "santexnika"
)

func (c Category) Valid() bool {
	return c == CategoryElektr || c == CategorySantexnika
}

type Product struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	// Price is comma-grouped whole units, e.g. "1,250,000".
	Price     string    `json:"price"`
	Category  Category  `json:"category"`
	Image     string    `json:"image,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// HTTPError represents a standard error in JSON.
// swagger:model
type HTTPError struct {
	// Error message
	// example: not found
	Error string `json:"error"`
}

// ListResponse represents the paginated response of products.
// swagger:model
type ListResponse struct {
	Q        string    `json:"q,omitempty"`
	Category Category  `json:"category,omitempty"`
	Limit    int       `json:"limit"`
	Offset   int       `json:"offset"`
	Items    []Product `json:"items"`
}

// CreateProductRequest payload of creation.
// swagger:model CreateProductRequest
type CreateProductRequest struct {
	Title    string   `json:"title"    example:"Avtomat 25A"`
	Price    string   `json:"price"    example:"85,000"`
	Category Category `json:"category" example:"elektr"`
	Image    string   `json:"image"    example:"https://cdn.example.com/avtomat.jpg"`
}

// UpdateProductRequest payload of partial update; omitted fields are kept.
// swagger:model UpdateProductRequest
type UpdateProductRequest struct {
	Title    *string   `json:"title,omitempty"`
	Price    *string   `json:"price,omitempty"`
	Category *Category `json:"category,omitempty"`
	Image    *string   `json:"image,omitempty"`
}

// Patch is a validated UpdateProductRequest.
type Patch struct {
	Title    *string
	Price    *int64
	Category *Category
	Image    *string
}

func (r CreateProductRequest) Validate() (*Product, error) {
	title := strings.TrimSpace(r.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}
	if strings.TrimSpace(r.Price) == "" {
		return nil, fmt.Errorf("%w: price is required", ErrValidation)
	}
	price, err := pricing.NormalizePrice(r.Price)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if !r.Category.Valid() {
		return nil, fmt.Errorf("%w: category must be elektr or santexnika", ErrValidation)
	}
	return &Product{
		Title:    title,
		Price:    price,
		Category: r.Category,
		Image:    strings.TrimSpace(r.Image),
	}, nil
}

func (r UpdateProductRequest) Validate() (Patch, error) {
	var p Patch
	if r.Title != nil {
		t := strings.TrimSpace(*r.Title)
		if t == "" {
			return Patch{}, fmt.Errorf("%w: title must not be empty", ErrValidation)
		}
		p.Title = &t
	}
	if r.Price != nil {
		v, err := pricing.ParsePrice(*r.Price)
		if err != nil {
			return Patch{}, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		p.Price = &v
	}
	if r.Category != nil {
		if !r.Category.Valid() {
			return Patch{}, fmt.Errorf("%w: category must be elektr or santexnika", ErrValidation)
		}
		c := *r.Category
		p.Category = &c
	}
	if r.Image != nil {
		img := strings.TrimSpace(*r.Image)
		p.Image = &img
	}
	return p, nil
}

func (p Patch) Empty() bool {
	return p.Title == nil && p.Price == nil && p.Category == nil && p.Image == nil
}
