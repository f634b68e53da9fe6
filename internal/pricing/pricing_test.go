package pricing

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/Domenick1991/spacebooking/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockTaxRuleFinder struct {
	mock.Mock
}

func (m *MockTaxRuleFinder) FindTaxRule(ctx context.Context, origin, destination string) (*domain.TaxRule, error) {
	args := m.Called(ctx, origin, destination)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TaxRule), args.Error(1)
}

func TestEngine_Price_DefaultRule(t *testing.T) {
	rules := &MockTaxRuleFinder{}
	engine := NewEngine(rules)
	ctx := context.Background()

	rules.On("FindTaxRule", ctx, "Chile", DefaultDestination).
		Return(nil, fmt.Errorf("%w: tax rule", domain.ErrNotFound)).Once()

	quote, err := engine.Price(ctx, decimal.RequireFromString("250000.00"), "Chile")

	require.NoError(t, err)
	assert.Equal(t, "250000.00", quote.Original.StringFixed(2))
	assert.Equal(t, "12500.00", quote.Tax.StringFixed(2))
	assert.Equal(t, "262500.00", quote.Total.StringFixed(2))
	assert.True(t, quote.Percentage.Equal(DefaultPercentage))
	rules.AssertExpectations(t)
}

func TestEngine_Price_CountryRule(t *testing.T) {
	rules := &MockTaxRuleFinder{}
	engine := NewEngine(rules, WithDestination("orbit"))
	ctx := context.Background()

	rules.On("FindTaxRule", ctx, "Brazil", "orbit").
		Return(&domain.TaxRule{OriginCountry: "Brazil", Destination: "orbit", Percentage: decimal.RequireFromString("12.5")}, nil).Once()

	quote, err := engine.Price(ctx, decimal.RequireFromString("1000.10"), "Brazil")

	require.NoError(t, err)
	assert.Equal(t, "125.01", quote.Tax.StringFixed(2))
	assert.Equal(t, "1125.11", quote.Total.StringFixed(2))
	assert.True(t, quote.Total.Equal(quote.Original.Add(quote.Tax)))
}

func TestEngine_Price_LookupError(t *testing.T) {
	rules := &MockTaxRuleFinder{}
	engine := NewEngine(rules)
	ctx := context.Background()
	expectedErr := errors.New("connection refused")

	rules.On("FindTaxRule", ctx, "Peru", DefaultDestination).Return(nil, expectedErr).Once()

	_, err := engine.Price(ctx, decimal.NewFromInt(10), "Peru")

	assert.ErrorIs(t, err, expectedErr)
}

func TestEngine_NilRules(t *testing.T) {
	engine := NewEngine(nil, WithDefaultPercentage(decimal.NewFromInt(10)))

	quote, err := engine.Price(context.Background(), decimal.NewFromInt(200), "Anywhere")

	require.NoError(t, err)
	assert.Equal(t, "20.00", quote.Tax.StringFixed(2))
}

func TestCompute_NoFloatDrift(t *testing.T) {
	quote := Compute(decimal.RequireFromString("0.10"), decimal.RequireFromString("3"))
	assert.Equal(t, "0.00", quote.Tax.StringFixed(2))

	quote = Compute(decimal.RequireFromString("19.99"), decimal.RequireFromString("7.5"))
	assert.Equal(t, "1.50", quote.Tax.StringFixed(2))
	assert.Equal(t, "21.49", quote.Total.StringFixed(2))
}
