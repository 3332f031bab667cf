package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/MikeMC777/multimarket/internal/cart"
	"github.com/MikeMC777/multimarket/internal/pricing"
	"github.com/MikeMC777/multimarket/internal/userrpc"
)

var ErrProductNotFound = errors.New("product not found")

// ProductDTO is the product-service wire shape.
type ProductDTO struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Price    string `json:"price"`
	Category string `json:"category"`
	Image    string `json:"image"`
}

// Catalog resolves product snapshots for the cart.
type Catalog interface {
	FetchProduct(ctx context.Context, id string) (*ProductDTO, error)
}

// Identity confirms that a token's subject is still a known account.
type Identity interface {
	ValidateUser(ctx context.Context, id string) (bool, error)
}

// Ext bundles the calls this service makes to its neighbours.
type Ext struct {
	HTTP           *http.Client
	User           userrpc.Validator
	ProductBaseURL string
}

func NewExt(user userrpc.Validator, productBaseURL string) *Ext {
	return &Ext{
		HTTP:           &http.Client{Timeout: 5 * time.Second},
		User:           user,
		ProductBaseURL: productBaseURL,
	}
}

func (e *Ext) FetchProduct(ctx context.Context, id string) (*ProductDTO, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/products/%s", e.ProductBaseURL, url.PathEscape(id)), nil)
	if err != nil {
		return nil, err
	}
	res, err := e.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: product service: %v", ErrUpstream, err)
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound, http.StatusBadRequest:
		return nil, ErrProductNotFound
	default:
		return nil, fmt.Errorf("%w: product service: %s", ErrUpstream, res.Status)
	}
	var p ProductDTO
	if err := json.NewDecoder(res.Body).Decode(&p); err != nil {
		return nil, fmt.Errorf("%w: product service: decode: %v", ErrUpstream, err)
	}
	return &p, nil
}

func (e *Ext) ValidateUser(ctx context.Context, id string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return e.User.ValidateUser(ctx, id)
}

// snapshot converts a catalog product into a cart line priced in whole units.
func snapshot(p *ProductDTO) (cart.Item, error) {
	price, err := pricing.ParsePrice(p.Price)
	if err != nil {
		return cart.Item{}, fmt.Errorf("product %s: %w", p.ID, err)
	}
	return cart.Item{ProductID: p.ID, Title: p.Title, Price: price, Quantity: 1, Image: p.Image}, nil
}
