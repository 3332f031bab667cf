// Package pricing computes order discounts and converts catalog prices.
//
// Amounts are whole currency units (no minor units), held in int64.
package pricing

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

var (
	ErrNegativeSubtotal = errors.New("subtotal must not be negative")
	ErrInvalidTier      = errors.New("invalid discount tier")
)

// Tier awards Percentage to any subtotal >= MinAmount.
type Tier struct {
	MinAmount  int64 `yaml:"min_amount" json:"minAmount"`
	Percentage int64 `yaml:"percentage" json:"percentage"`
}

// DefaultTiers is the storefront's discount table.
var DefaultTiers = []Tier{
	{MinAmount: 2_000_000, Percentage: 12},
	{MinAmount: 1_000_000, Percentage: 8},
	{MinAmount: 500_000, Percentage: 5},
}

type Discount struct {
	Percentage int64 `json:"percentage"`
	Amount     int64 `json:"amount"`
}

// Breakdown is the priced view of a subtotal.
type Breakdown struct {
	OriginalTotal      int64 `json:"originalTotal"`
	Discount           int64 `json:"discount"`
	DiscountPercentage int64 `json:"discountPercentage"`
	Total              int64 `json:"total"`
}

type Calculator struct {
	tiers []Tier // descending by MinAmount
}

// NewCalculator validates tiers and orders them so the highest threshold is checked first.
func NewCalculator(tiers []Tier) (*Calculator, error) {
	sorted := make([]Tier, len(tiers))
	copy(sorted, tiers)
	for _, t := range sorted {
		if t.MinAmount < 0 || t.Percentage < 0 || t.Percentage > 100 {
			return nil, fmt.Errorf("%w: min_amount=%d percentage=%d", ErrInvalidTier, t.MinAmount, t.Percentage)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].MinAmount > sorted[j].MinAmount })
	for i := 1; i < len(sorted); i++ {
		if sorted[i].MinAmount == sorted[i-1].MinAmount {
			return nil, fmt.Errorf("%w: duplicate min_amount %d", ErrInvalidTier, sorted[i].MinAmount)
		}
	}
	return &Calculator{tiers: sorted}, nil
}

// MustDefault returns a calculator over DefaultTiers.
func MustDefault() *Calculator {
	c, err := NewCalculator(DefaultTiers)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Calculator) Tiers() []Tier {
	out := make([]Tier, len(c.tiers))
	copy(out, c.tiers)
	return out
}

// Calculate returns the first tier (highest threshold) the subtotal reaches.
// Amount = round(subtotal * pct / 100), halves rounded up.
func (c *Calculator) Calculate(subtotal int64) (Discount, error) {
	if subtotal < 0 {
		return Discount{}, ErrNegativeSubtotal
	}
	for _, t := range c.tiers {
		if subtotal >= t.MinAmount {
			amount := decimal.NewFromInt(subtotal).
				Mul(decimal.NewFromInt(t.Percentage)).
				Div(decimal.NewFromInt(100)).
				Round(0)
			return Discount{Percentage: t.Percentage, Amount: amount.IntPart()}, nil
		}
	}
	return Discount{}, nil
}

func (c *Calculator) Totals(subtotal int64) (Breakdown, error) {
	d, err := c.Calculate(subtotal)
	if err != nil {
		return Breakdown{}, err
	}
	return Breakdown{
		OriginalTotal:      subtotal,
		Discount:           d.Amount,
		DiscountPercentage: d.Percentage,
		Total:              subtotal - d.Amount,
	}, nil
}
