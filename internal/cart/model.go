// Package cart holds a shopper's pre-checkout line items.
package cart

import (
	"errors"
	"time"
)

var (
	ErrItemNotFound   = errors.New("item not found in cart")
	ErrInvalidProduct = errors.New("invalid product")
)

// Item is a product snapshot taken when it was first added.
type Item struct {
	ProductID string `json:"id" bson:"productId"`
	Title     string `json:"title" bson:"title"`
	Price     int64  `json:"price" bson:"price"`
	Quantity  int    `json:"quantity" bson:"quantity"`
	Image     string `json:"image,omitempty" bson:"image,omitempty"`
}

func (i Item) LineTotal() int64 { return i.Price * int64(i.Quantity) }

type Cart struct {
	UserID    string    `json:"userId" bson:"userId"`
	Items     []Item    `json:"items" bson:"items"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

func New(userID string) *Cart {
	return &Cart{UserID: userID, Items: []Item{}}
}

func (c *Cart) Has(productID string) bool { return c.find(productID) >= 0 }

func (c *Cart) find(productID string) int {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// Add puts one unit of it in the cart. A product already present gets its
// quantity incremented; the stored snapshot is kept.
func (c *Cart) Add(it Item) error {
	if it.ProductID == "" || it.Price < 0 {
		return ErrInvalidProduct
	}
	if i := c.find(it.ProductID); i >= 0 {
		c.Items[i].Quantity++
		return nil
	}
	it.Quantity = 1
	c.Items = append(c.Items, it)
	return nil
}

func (c *Cart) Increase(productID string) error {
	i := c.find(productID)
	if i < 0 {
		return ErrItemNotFound
	}
	c.Items[i].Quantity++
	return nil
}

// Decrease never takes a quantity below 1.
func (c *Cart) Decrease(productID string) error {
	i := c.find(productID)
	if i < 0 {
		return ErrItemNotFound
	}
	if c.Items[i].Quantity > 1 {
		c.Items[i].Quantity--
	}
	return nil
}

func (c *Cart) Remove(productID string) error {
	i := c.find(productID)
	if i < 0 {
		return ErrItemNotFound
	}
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
	return nil
}

func (c *Cart) Clear() { c.Items = []Item{} }

// Subtract takes already ordered quantities out of the cart, dropping lines
// that reach zero. Lines added after the order was taken are left alone.
func (c *Cart) Subtract(ordered []Item) {
	for _, o := range ordered {
		i := c.find(o.ProductID)
		if i < 0 {
			continue
		}
		if c.Items[i].Quantity <= o.Quantity {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			continue
		}
		c.Items[i].Quantity -= o.Quantity
	}
}

func (c *Cart) IsEmpty() bool { return len(c.Items) == 0 }

func (c *Cart) Subtotal() int64 {
	var sum int64
	for _, it := range c.Items {
		sum += it.LineTotal()
	}
	return sum
}

// Count is the number of units across all lines.
func (c *Cart) Count() int {
	n := 0
	for _, it := range c.Items {
		n += it.Quantity
	}
	return n
}
