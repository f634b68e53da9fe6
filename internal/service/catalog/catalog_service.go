package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/Domenick1991/spacebooking/internal/domain"
	"github.com/Domenick1991/spacebooking/internal/pricing"
	"github.com/Domenick1991/spacebooking/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type CatalogUseCase interface {
	CreatePackage(ctx context.Context, input PackageInput) (*domain.Package, error)
	GetPackage(ctx context.Context, id string) (*domain.Package, error)
	ListPackages(ctx context.Context, page repository.Page) ([]domain.Package, error)
	SetPackageAvailability(ctx context.Context, id string, available bool) (*domain.Package, error)

	CreateTaxRule(ctx context.Context, input TaxRuleInput) (*domain.TaxRule, error)
	ListTaxRules(ctx context.Context) ([]domain.TaxRule, error)
	QuoteTax(ctx context.Context, origin, destination string, amount decimal.Decimal) (pricing.Quote, error)

	CreateCurrency(ctx context.Context, input CurrencyInput) (*domain.Currency, error)
	ListCurrencies(ctx context.Context) ([]domain.Currency, error)
	GetCurrency(ctx context.Context, code string) (*domain.Currency, error)
}

// Cache keeps the unpaged package listing. A nil slice from GetPackages is a miss.
type Cache interface {
	GetPackages(ctx context.Context) ([]domain.Package, error)
	SetPackages(ctx context.Context, packages []domain.Package) error
	InvalidatePackages(ctx context.Context) error
}

type PackageInput struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Type        domain.PackageType `json:"type"`
	Price       decimal.Decimal    `json:"price"`
	Available   *bool              `json:"available"`
}

type TaxRuleInput struct {
	OriginCountry string          `json:"origin_country"`
	Destination   string          `json:"destination"`
	Percentage    decimal.Decimal `json:"percentage"`
	Description   string          `json:"description"`
}

type CurrencyInput struct {
	Name         string          `json:"name"`
	Code         string          `json:"code"`
	ExchangeRate decimal.Decimal `json:"exchange_rate"`
}

type CatalogService struct {
	repo    repository.CatalogRepository
	pricing *pricing.Engine
	cache   Cache
	log     *zap.Logger
}

func NewCatalogService(repo repository.CatalogRepository, engine *pricing.Engine, cache Cache, log *zap.Logger) *CatalogService {
	return &CatalogService{repo: repo, pricing: engine, cache: cache, log: log}
}

func (s *CatalogService) CreatePackage(ctx context.Context, input PackageInput) (*domain.Package, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	if !input.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown package type %q", domain.ErrValidation, input.Type)
	}
	if !input.Price.IsPositive() {
		return nil, fmt.Errorf("%w: price must be positive", domain.ErrValidation)
	}

	pkg := &domain.Package{
		ID:          uuid.NewString(),
		Name:        input.Name,
		Description: input.Description,
		Type:        input.Type,
		Price:       input.Price.Round(2),
		Available:   input.Available == nil || *input.Available,
	}
	if err := s.repo.CreatePackage(ctx, pkg); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return pkg, nil
}

func (s *CatalogService) GetPackage(ctx context.Context, id string) (*domain.Package, error) {
	return s.repo.GetPackage(ctx, id)
}

// ListPackages serves the unpaged listing from the cache when possible.
func (s *CatalogService) ListPackages(ctx context.Context, page repository.Page) ([]domain.Package, error) {
	cacheable := s.cache != nil && page == (repository.Page{})
	if cacheable {
		if cached, err := s.cache.GetPackages(ctx); err == nil && cached != nil {
			return cached, nil
		}
	}

	packages, err := s.repo.ListPackages(ctx, page)
	if err != nil {
		return nil, err
	}
	if cacheable {
		if err := s.cache.SetPackages(ctx, packages); err != nil {
			s.log.Warn("failed to cache packages", zap.Error(err))
		}
	}
	return packages, nil
}

// SetPackageAvailability only gates new bookings. Existing bookings keep their package.
func (s *CatalogService) SetPackageAvailability(ctx context.Context, id string, available bool) (*domain.Package, error) {
	pkg, err := s.repo.SetPackageAvailability(ctx, id, available)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	s.log.Info("package availability changed", zap.String("package_id", id), zap.Bool("available", available))
	return pkg, nil
}

func (s *CatalogService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidatePackages(ctx); err != nil {
		s.log.Warn("failed to invalidate package cache", zap.Error(err))
	}
}

func (s *CatalogService) CreateTaxRule(ctx context.Context, input TaxRuleInput) (*domain.TaxRule, error) {
	if strings.TrimSpace(input.OriginCountry) == "" {
		return nil, fmt.Errorf("%w: origin_country is required", domain.ErrValidation)
	}
	if input.Percentage.IsNegative() || input.Percentage.GreaterThan(decimal.NewFromInt(100)) {
		return nil, fmt.Errorf("%w: percentage must be between 0 and 100", domain.ErrValidation)
	}
	destination := input.Destination
	if destination == "" {
		destination = s.pricing.Destination()
	}

	rule := &domain.TaxRule{
		ID:            uuid.NewString(),
		OriginCountry: input.OriginCountry,
		Destination:   destination,
		Percentage:    input.Percentage,
		Description:   input.Description,
	}
	if err := s.repo.CreateTaxRule(ctx, rule); err != nil {
		return nil, err
	}
	return rule, nil
}

func (s *CatalogService) ListTaxRules(ctx context.Context) ([]domain.TaxRule, error) {
	return s.repo.ListTaxRules(ctx)
}

func (s *CatalogService) QuoteTax(ctx context.Context, origin, destination string, amount decimal.Decimal) (pricing.Quote, error) {
	if !amount.IsPositive() {
		return pricing.Quote{}, fmt.Errorf("%w: amount must be positive", domain.ErrValidation)
	}
	if destination == "" {
		destination = s.pricing.Destination()
	}
	return s.pricing.Quote(ctx, amount, origin, destination)
}

func (s *CatalogService) CreateCurrency(ctx context.Context, input CurrencyInput) (*domain.Currency, error) {
	code := strings.ToUpper(strings.TrimSpace(input.Code))
	if code == "" || strings.TrimSpace(input.Name) == "" {
		return nil, fmt.Errorf("%w: name and code are required", domain.ErrValidation)
	}
	if !input.ExchangeRate.IsPositive() {
		return nil, fmt.Errorf("%w: exchange_rate must be positive", domain.ErrValidation)
	}

	currency := &domain.Currency{ID: uuid.NewString(), Name: input.Name, Code: code, ExchangeRate: input.ExchangeRate}
	if err := s.repo.CreateCurrency(ctx, currency); err != nil {
		return nil, err
	}
	return currency, nil
}

func (s *CatalogService) ListCurrencies(ctx context.Context) ([]domain.Currency, error) {
	return s.repo.ListCurrencies(ctx)
}

func (s *CatalogService) GetCurrency(ctx context.Context, code string) (*domain.Currency, error) {
	return s.repo.GetCurrencyByCode(ctx, strings.ToUpper(code))
}

var _ CatalogUseCase = (*CatalogService)(nil)
