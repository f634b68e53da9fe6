// Package pricing computes booking amounts from a package price and the tax rule of the
// customer's country of residence.
package pricing

import (
	"context"
	"errors"
	"fmt"

	"github.com/Domenick1991/spacebooking/internal/domain"
	"github.com/shopspring/decimal"
)

const (
	DefaultDestination = "space-domain"
	amountPlaces       = 2
)

var (
	DefaultPercentage = decimal.NewFromInt(5)
	hundred           = decimal.NewFromInt(100)
)

type TaxRuleFinder interface {
	FindTaxRule(ctx context.Context, origin, destination string) (*domain.TaxRule, error)
}

// Quote holds fixed point amounts rounded to two decimal places.
type Quote struct {
	Original   decimal.Decimal
	Percentage decimal.Decimal
	Tax        decimal.Decimal
	Total      decimal.Decimal
}

type Engine struct {
	rules          TaxRuleFinder
	destination    string
	defaultPercent decimal.Decimal
}

type Option func(*Engine)

func WithDestination(destination string) Option {
	return func(e *Engine) {
		if destination != "" {
			e.destination = destination
		}
	}
}

func WithDefaultPercentage(pct decimal.Decimal) Option {
	return func(e *Engine) {
		e.defaultPercent = pct
	}
}

func NewEngine(rules TaxRuleFinder, opts ...Option) *Engine {
	e := &Engine{rules: rules, destination: DefaultDestination, defaultPercent: DefaultPercentage}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Destination() string {
	return e.destination
}

// Price looks up the rule for (country, destination) and falls back to the default percentage.
func (e *Engine) Price(ctx context.Context, price decimal.Decimal, country string) (Quote, error) {
	return e.Quote(ctx, price, country, e.destination)
}

func (e *Engine) Quote(ctx context.Context, amount decimal.Decimal, origin, destination string) (Quote, error) {
	pct, err := e.percentage(ctx, origin, destination)
	if err != nil {
		return Quote{}, err
	}
	return Compute(amount, pct), nil
}

func (e *Engine) percentage(ctx context.Context, origin, destination string) (decimal.Decimal, error) {
	if e.rules == nil {
		return e.defaultPercent, nil
	}
	rule, err := e.rules.FindTaxRule(ctx, origin, destination)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return e.defaultPercent, nil
		}
		return decimal.Zero, fmt.Errorf("find tax rule: %w", err)
	}
	return rule.Percentage, nil
}

// Compute applies tax = original * pct / 100 and total = original + tax.
func Compute(original, pct decimal.Decimal) Quote {
	original = original.Round(amountPlaces)
	tax := original.Mul(pct).Div(hundred).Round(amountPlaces)
	return Quote{
		Original:   original,
		Percentage: pct,
		Tax:        tax,
		Total:      original.Add(tax),
	}
}
