package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/kirillkom/market-insight-engine/internal/core/domain"
	"github.com/kirillkom/market-insight-engine/internal/infrastructure/resilience"
)

func newRepoWithMock(t *testing.T) (*CompanyRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return NewCompanyRepository(db, nil), mock, func() { _ = db.Close() }
}

func companyColumns() []string {
	return []string{"id", "name", "category_list", "status", "city", "country_code", "funding_total_usd", "funding_rounds"}
}

func TestListCompanies(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	rows := sqlmock.NewRows(companyColumns()).
		AddRow("1", "VoltMotors", "Automotive|Electric Vehicle", "operating", "Berlin", "DEU", 12_000_000.0, 3).
		AddRow("2", "PayFlow", "Fintech|Payments", "operating", "London", "GBR", 8_500_000.0, 2)
	mock.ExpectQuery("SELECT id, name, COALESCE").
		WithArgs(50).
		WillReturnRows(rows)

	companies, err := repo.ListCompanies(context.Background(), 50)
	if err != nil {
		t.Fatalf("ListCompanies error = %v", err)
	}
	if len(companies) != 2 {
		t.Fatalf("got %d companies, want 2", len(companies))
	}
	if companies[0].Name != "VoltMotors" || companies[0].FundingTotalUSD != 12_000_000 {
		t.Fatalf("unexpected first company: %+v", companies[0])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListCompaniesAppliesHardCap(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT id, name, COALESCE").
		WithArgs(hardListCap).
		WillReturnRows(sqlmock.NewRows(companyColumns()))

	if _, err := repo.ListCompanies(context.Background(), 1_000_000); err != nil {
		t.Fatalf("ListCompanies error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetCompanyByIDNotFound(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT id, name, COALESCE").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetCompanyByID(context.Background(), "missing")
	if !domain.IsKind(err, domain.ErrCompanyNotFound) {
		t.Fatalf("expected ErrCompanyNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetCompanyByID(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT id, name, COALESCE").
		WithArgs("1").
		WillReturnRows(sqlmock.NewRows(companyColumns()).
			AddRow("1", "GeneCure", "Biotechnology", "operating", "Boston", "USA", 30_000_000.0, 4))

	company, err := repo.GetCompanyByID(context.Background(), "1")
	if err != nil {
		t.Fatalf("GetCompanyByID error = %v", err)
	}
	if company.Name != "GeneCure" || company.FundingRounds != 4 {
		t.Fatalf("unexpected company: %+v", company)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListCompaniesRetriesTransportFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer func() { _ = db.Close() }()

	exec := resilience.NewExecutor(resilience.Policy{
		RetryAttempts:  2,
		RetryBaseDelay: time.Millisecond,
		RetryMaxDelay:  time.Millisecond,
		RetryFactor:    2,
		BreakerEnabled: false,
	}, slog.New(slog.DiscardHandler))
	repo := NewCompanyRepository(db, exec)

	mock.ExpectQuery("SELECT id, name, COALESCE").
		WithArgs(10).
		WillReturnError(errors.New("connection reset by peer"))
	mock.ExpectQuery("SELECT id, name, COALESCE").
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows(companyColumns()).
			AddRow("1", "SunGrid", "Solar|Clean Energy", "operating", "Madrid", "ESP", 5_000_000.0, 1))

	companies, err := repo.ListCompanies(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListCompanies error = %v", err)
	}
	if len(companies) != 1 || companies[0].Name != "SunGrid" {
		t.Fatalf("unexpected companies after retry: %+v", companies)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
