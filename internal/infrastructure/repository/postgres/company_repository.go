package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/kirillkom/market-insight-engine/internal/core/domain"
	"github.com/kirillkom/market-insight-engine/internal/infrastructure/resilience"
)

// hardListCap bounds ListCompanies regardless of what the caller asks for.
const hardListCap = 1000

// CompanyRepository reads the companies table. The engine never writes to
// it; the table is owned by the ingestion pipeline.
type CompanyRepository struct {
	db   *sql.DB
	exec *resilience.Executor
}

// NewCompanyRepository wraps db. exec may be nil, in which case queries run
// without retry or circuit breaking.
func NewCompanyRepository(db *sql.DB, exec *resilience.Executor) *CompanyRepository {
	return &CompanyRepository{db: db, exec: exec}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *CompanyRepository) ListCompanies(ctx context.Context, limit int) ([]domain.Company, error) {
	if limit <= 0 || limit > hardListCap {
		limit = hardListCap
	}

	var companies []domain.Company
	err := r.run(ctx, "list_companies", func(ctx context.Context) error {
		rows, err := r.db.QueryContext(ctx, `
SELECT id, name, COALESCE(category_list, ''), COALESCE(status, ''), COALESCE(city, ''), COALESCE(country_code, ''), COALESCE(funding_total_usd, 0), COALESCE(funding_rounds, 0)
FROM companies
ORDER BY funding_total_usd DESC, name ASC
LIMIT $1
`, limit)
		if err != nil {
			return wrapTemporary(fmt.Errorf("query companies: %w", err))
		}
		defer rows.Close()

		companies = companies[:0]
		for rows.Next() {
			var c domain.Company
			if err := rows.Scan(
				&c.ID, &c.Name, &c.Categories, &c.Status, &c.City, &c.CountryCode,
				&c.FundingTotalUSD, &c.FundingRounds,
			); err != nil {
				return fmt.Errorf("scan company: %w", err)
			}
			companies = append(companies, c)
		}
		if err := rows.Err(); err != nil {
			return wrapTemporary(fmt.Errorf("iterate companies: %w", err))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return companies, nil
}

func (r *CompanyRepository) GetCompanyByID(ctx context.Context, id string) (*domain.Company, error) {
	var company domain.Company
	err := r.run(ctx, "get_company", func(ctx context.Context) error {
		row := r.db.QueryRowContext(ctx, `
SELECT id, name, COALESCE(category_list, ''), COALESCE(status, ''), COALESCE(city, ''), COALESCE(country_code, ''), COALESCE(funding_total_usd, 0), COALESCE(funding_rounds, 0)
FROM companies
WHERE id = $1
`, id)

		err := row.Scan(
			&company.ID, &company.Name, &company.Categories, &company.Status, &company.City,
			&company.CountryCode, &company.FundingTotalUSD, &company.FundingRounds,
		)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return domain.WrapError(domain.ErrCompanyNotFound, "get company", fmt.Errorf("id %s", id))
			}
			return wrapTemporary(fmt.Errorf("scan company: %w", err))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &company, nil
}

func (r *CompanyRepository) run(ctx context.Context, operation string, fn func(context.Context) error) error {
	if r.exec == nil {
		return fn(ctx)
	}
	return r.exec.Run(ctx, operation, fn, classifyPostgres)
}

// classifyPostgres retries transport-level failures but never semantic
// ones, and keeps not-found results away from the breaker counts.
func classifyPostgres(err error) resilience.Outcome {
	if domain.IsKind(err, domain.ErrCompanyNotFound) {
		return resilience.Outcome{Retry: false, CountFailure: false}
	}
	return resilience.TemporaryOnly(err)
}

func wrapTemporary(err error) error {
	return domain.WrapError(domain.ErrTemporary, "postgres", err)
}
