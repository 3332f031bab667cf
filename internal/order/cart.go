package order

import (
	"context"
	"fmt"
	"strings"

	"github.com/MikeMC777/multimarket/internal/cart"
	"github.com/MikeMC777/multimarket/internal/pricing"
)

// CartView is a cart with the discount it would earn at checkout.
type CartView struct {
	*cart.Cart
	Count   int               `json:"count"`
	Pricing pricing.Breakdown `json:"pricing"`
}

func (s *Service) cartView(c *cart.Cart) (CartView, error) {
	b, err := s.calc.Totals(c.Subtotal())
	if err != nil {
		return CartView{}, err
	}
	return CartView{Cart: c, Count: c.Count(), Pricing: b}, nil
}

func (s *Service) Cart(ctx context.Context, userID string) (CartView, error) {
	c, err := s.carts.Get(ctx, userID)
	if err != nil {
		return CartView{}, err
	}
	return s.cartView(c)
}

// AddToCart snapshots the product from the catalog and adds one unit.
func (s *Service) AddToCart(ctx context.Context, userID, productID string) (CartView, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return CartView{}, fmt.Errorf("%w: product_id is required", ErrValidation)
	}
	c, err := s.carts.Get(ctx, userID)
	if err != nil {
		return CartView{}, err
	}
	// An existing line keeps its snapshot, so the catalog is only asked for new products.
	var item cart.Item
	if !c.Has(productID) {
		p, err := s.catalog.FetchProduct(ctx, productID)
		if err != nil {
			return CartView{}, err
		}
		if item, err = snapshot(p); err != nil {
			return CartView{}, err
		}
	} else {
		item = cart.Item{ProductID: productID}
	}
	if err := c.Add(item); err != nil {
		return CartView{}, err
	}
	return s.saveCart(ctx, c)
}

func (s *Service) IncreaseItem(ctx context.Context, userID, productID string) (CartView, error) {
	return s.editCart(ctx, userID, func(c *cart.Cart) error { return c.Increase(productID) })
}

func (s *Service) DecreaseItem(ctx context.Context, userID, productID string) (CartView, error) {
	return s.editCart(ctx, userID, func(c *cart.Cart) error { return c.Decrease(productID) })
}

func (s *Service) RemoveItem(ctx context.Context, userID, productID string) (CartView, error) {
	return s.editCart(ctx, userID, func(c *cart.Cart) error { return c.Remove(productID) })
}

func (s *Service) ClearCart(ctx context.Context, userID string) (CartView, error) {
	if err := s.carts.Clear(ctx, userID); err != nil {
		return CartView{}, err
	}
	return s.cartView(cart.New(userID))
}

func (s *Service) editCart(ctx context.Context, userID string, fn func(c *cart.Cart) error) (CartView, error) {
	c, err := s.carts.Get(ctx, userID)
	if err != nil {
		return CartView{}, err
	}
	if err := fn(c); err != nil {
		return CartView{}, err
	}
	return s.saveCart(ctx, c)
}

func (s *Service) saveCart(ctx context.Context, c *cart.Cart) (CartView, error) {
	if err := s.carts.Save(ctx, c); err != nil {
		return CartView{}, fmt.Errorf("save cart: %w", err)
	}
	return s.cartView(c)
}
