package repository

import (
	"context"
	"fmt"

	"github.com/Domenick1991/spacebooking/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type CatalogRepository interface {
	CreatePackage(ctx context.Context, pkg *domain.Package) error
	GetPackage(ctx context.Context, id string) (*domain.Package, error)
	ListPackages(ctx context.Context, page Page) ([]domain.Package, error)
	SetPackageAvailability(ctx context.Context, id string, available bool) (*domain.Package, error)

	CreateTaxRule(ctx context.Context, rule *domain.TaxRule) error
	ListTaxRules(ctx context.Context) ([]domain.TaxRule, error)
	FindTaxRule(ctx context.Context, origin, destination string) (*domain.TaxRule, error)

	CreateCurrency(ctx context.Context, currency *domain.Currency) error
	ListCurrencies(ctx context.Context) ([]domain.Currency, error)
	GetCurrencyByCode(ctx context.Context, code string) (*domain.Currency, error)
}

type PGCatalogRepository struct {
	base
}

func NewCatalogRepository(db *pgxpool.Pool) CatalogRepository {
	return &PGCatalogRepository{base{db: db}}
}

// Money columns travel as text to keep decimal precision.
func parseDecimal(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse decimal %q: %w", s, err)
	}
	return d, nil
}

const packageColumns = `id, name, description, type, price::text, available, created_at`

func scanPackage(row pgx.Row) (*domain.Package, error) {
	var (
		p     domain.Package
		price string
		err   error
	)
	if err = row.Scan(&p.ID, &p.Name, &p.Description, &p.Type, &price, &p.Available, &p.CreatedAt); err != nil {
		return nil, err
	}
	if p.Price, err = parseDecimal(price); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PGCatalogRepository) CreatePackage(ctx context.Context, p *domain.Package) error {
	if err := r.conn(ctx).QueryRow(ctx, `INSERT INTO packages (id, name, description, type, price, available)
		VALUES ($1, $2, $3, $4, $5::numeric, $6)
		RETURNING created_at`, p.ID, p.Name, p.Description, p.Type, p.Price.String(), p.Available).Scan(&p.CreatedAt); err != nil {
		return fmt.Errorf("create package: %w", err)
	}
	return nil
}

func (r *PGCatalogRepository) GetPackage(ctx context.Context, id string) (*domain.Package, error) {
	p, err := scanPackage(r.conn(ctx).QueryRow(ctx, `SELECT `+packageColumns+` FROM packages WHERE id=$1`, id))
	if err != nil {
		return nil, notFound(err, "package "+id)
	}
	return p, nil
}

func (r *PGCatalogRepository) ListPackages(ctx context.Context, page Page) ([]domain.Package, error) {
	page = page.normalized()
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+packageColumns+` FROM packages ORDER BY created_at, id OFFSET $1 LIMIT $2`, page.Offset, page.Limit)
	if err != nil {
		return nil, fmt.Errorf("list packages: %w", err)
	}
	defer rows.Close()

	packages := make([]domain.Package, 0)
	for rows.Next() {
		p, err := scanPackage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan package: %w", err)
		}
		packages = append(packages, *p)
	}
	return packages, rows.Err()
}

func (r *PGCatalogRepository) SetPackageAvailability(ctx context.Context, id string, available bool) (*domain.Package, error) {
	p, err := scanPackage(r.conn(ctx).QueryRow(ctx, `UPDATE packages SET available=$2 WHERE id=$1 RETURNING `+packageColumns, id, available))
	if err != nil {
		return nil, notFound(err, "package "+id)
	}
	return p, nil
}

func scanTaxRule(row pgx.Row) (*domain.TaxRule, error) {
	var (
		t   domain.TaxRule
		pct string
		err error
	)
	if err = row.Scan(&t.ID, &t.OriginCountry, &t.Destination, &pct, &t.Description); err != nil {
		return nil, err
	}
	if t.Percentage, err = parseDecimal(pct); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *PGCatalogRepository) CreateTaxRule(ctx context.Context, t *domain.TaxRule) error {
	_, err := r.conn(ctx).Exec(ctx, `INSERT INTO tax_rules (id, origin_country, destination, percentage, description)
		VALUES ($1, $2, $3, $4::numeric, $5)`, t.ID, t.OriginCountry, t.Destination, t.Percentage.String(), t.Description)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: tax rule for %s -> %s already exists", domain.ErrConflict, t.OriginCountry, t.Destination)
		}
		return fmt.Errorf("create tax rule: %w", err)
	}
	return nil
}

func (r *PGCatalogRepository) ListTaxRules(ctx context.Context) ([]domain.TaxRule, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT id, origin_country, destination, percentage::text, description FROM tax_rules ORDER BY origin_country, destination`)
	if err != nil {
		return nil, fmt.Errorf("list tax rules: %w", err)
	}
	defer rows.Close()

	rules := make([]domain.TaxRule, 0)
	for rows.Next() {
		t, err := scanTaxRule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tax rule: %w", err)
		}
		rules = append(rules, *t)
	}
	return rules, rows.Err()
}

func (r *PGCatalogRepository) FindTaxRule(ctx context.Context, origin, destination string) (*domain.TaxRule, error) {
	t, err := scanTaxRule(r.conn(ctx).QueryRow(ctx, `SELECT id, origin_country, destination, percentage::text, description
		FROM tax_rules WHERE origin_country=$1 AND destination=$2`, origin, destination))
	if err != nil {
		return nil, notFound(err, "tax rule "+origin+" -> "+destination)
	}
	return t, nil
}

func scanCurrency(row pgx.Row) (*domain.Currency, error) {
	var (
		c    domain.Currency
		rate string
		err  error
	)
	if err = row.Scan(&c.ID, &c.Name, &c.Code, &rate); err != nil {
		return nil, err
	}
	if c.ExchangeRate, err = parseDecimal(rate); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *PGCatalogRepository) CreateCurrency(ctx context.Context, c *domain.Currency) error {
	_, err := r.conn(ctx).Exec(ctx, `INSERT INTO currencies (id, name, code, exchange_rate) VALUES ($1, $2, $3, $4::numeric)`,
		c.ID, c.Name, c.Code, c.ExchangeRate.String())
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: currency %s already exists", domain.ErrConflict, c.Code)
		}
		return fmt.Errorf("create currency: %w", err)
	}
	return nil
}

func (r *PGCatalogRepository) ListCurrencies(ctx context.Context) ([]domain.Currency, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT id, name, code, exchange_rate::text FROM currencies ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("list currencies: %w", err)
	}
	defer rows.Close()

	currencies := make([]domain.Currency, 0)
	for rows.Next() {
		c, err := scanCurrency(rows)
		if err != nil {
			return nil, fmt.Errorf("scan currency: %w", err)
		}
		currencies = append(currencies, *c)
	}
	return currencies, rows.Err()
}

func (r *PGCatalogRepository) GetCurrencyByCode(ctx context.Context, code string) (*domain.Currency, error) {
	c, err := scanCurrency(r.conn(ctx).QueryRow(ctx, `SELECT id, name, code, exchange_rate::text FROM currencies WHERE code=$1`, code))
	if err != nil {
		return nil, notFound(err, "currency "+code)
	}
	return c, nil
}

var _ CatalogRepository = (*PGCatalogRepository)(nil)
