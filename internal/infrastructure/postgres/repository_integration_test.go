//go:build integration

package postgres_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/scripttb/720CRM-sub000/internal/application/billing"
	"github.com/scripttb/720CRM-sub000/internal/domain"
	"github.com/scripttb/720CRM-sub000/internal/domain/entity"
	"github.com/scripttb/720CRM-sub000/internal/infrastructure/postgres"
	"github.com/scripttb/720CRM-sub000/pkg/config"
	"github.com/scripttb/720CRM-sub000/pkg/logger"
)

func newTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("billing_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	require.NoError(t, postgres.Migrate(dsn, logger.Nop()))

	pool, err := postgres.NewPool(ctx, config.DBConfig{DatabaseURL: dsn, MaxConns: 10})
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func TestSequence_ConcurrentNextHasNoGaps(t *testing.T) {
	pool := newTestPool(t)
	runner := postgres.NewTxRunner(pool)
	ctx := context.Background()

	const workers = 20
	var wg sync.WaitGroup
	got := make(chan int64, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := runner.RunBilling(ctx, func(repos billing.BillingRepos) error {
				n, err := repos.Sequences.Next(ctx, "owner-1", entity.DocumentTypeInvoice, "", 2026)
				if err != nil {
					return err
				}
				got <- n
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	close(got)

	seen := map[int64]bool{}
	for n := range got {
		assert.False(t, seen[n], "número repetido %d", n)
		seen[n] = true
	}
	for n := int64(1); n <= workers; n++ {
		assert.True(t, seen[n], "falta el número %d", n)
	}
}

func TestSequence_RollbackLeavesNoGap(t *testing.T) {
	pool := newTestPool(t)
	runner := postgres.NewTxRunner(pool)
	ctx := context.Background()

	err := runner.RunBilling(ctx, func(repos billing.BillingRepos) error {
		_, err := repos.Sequences.Next(ctx, "owner-1", entity.DocumentTypeInvoice, "A", 2026)
		require.NoError(t, err)
		return domain.ErrOverpayment
	})
	require.ErrorIs(t, err, domain.ErrOverpayment)

	var n int64
	require.NoError(t, runner.RunBilling(ctx, func(repos billing.BillingRepos) error {
		n, err = repos.Sequences.Next(ctx, "owner-1", entity.DocumentTypeInvoice, "A", 2026)
		return err
	}))
	assert.Equal(t, int64(1), n)
}

func TestInvoice_RoundTripAndPeriod(t *testing.T) {
	pool := newTestPool(t)
	runner := postgres.NewTxRunner(pool)
	ctx := context.Background()
	now := time.Date(2026, 3, 31, 22, 0, 0, 0, time.UTC)

	customer := &entity.Customer{ID: uuid.New().String(), OwnerID: "owner-1", Name: "Cliente", Country: "AO", CreatedAt: now, UpdatedAt: now}
	rate := decimal.NewFromInt(14)
	inv := &entity.Invoice{
		DocumentHeader: entity.DocumentHeader{
			ID: uuid.New().String(), OwnerID: "owner-1", DocumentType: entity.DocumentTypeInvoice,
			Sequence: 1, DocumentNumber: "FT 2026/000001", IssueDate: now, Currency: "AOA",
			CustomerID: customer.ID, Subtotal: decimal.NewFromInt(100), TaxAmount: decimal.NewFromInt(14),
			TotalAmount: decimal.NewFromInt(114), CreatedAt: now, ModifiedAt: now,
		},
		Certification: entity.Certification{
			ATCUD: "0-1", HashControl: "cdb5c564cb18e6bd2fd03ba736f563b6598732a1a4a2ad6066239baf6c3f7351",
			DigitalSignature: "c2ln", QRCodeData: "qr", CertificationDate: now, CertificateNumber: "1/AGT",
		},
		Lines: []*entity.LineItem{{
			Description: "Serviço", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(100),
			TaxRate: &rate, Subtotal: decimal.NewFromInt(100), Net: decimal.NewFromInt(100), Tax: decimal.NewFromInt(14),
		}},
		Status: entity.InvoiceStatusIssued, PaymentStatus: entity.PaymentStatusPending, Version: 1,
	}

	require.NoError(t, runner.RunBilling(ctx, func(repos billing.BillingRepos) error {
		if err := repos.Customers.Create(ctx, customer); err != nil {
			return err
		}
		return repos.Invoices.Create(ctx, inv)
	}))

	err := runner.RunBilling(ctx, func(repos billing.BillingRepos) error {
		return repos.Invoices.Create(ctx, &entity.Invoice{DocumentHeader: inv.DocumentHeader, Certification: inv.Certification,
			Status: inv.Status, PaymentStatus: inv.PaymentStatus})
	})
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	require.NoError(t, runner.RunReadOnly(ctx, func(repos billing.BillingRepos) error {
		got, err := repos.Invoices.GetByID(ctx, "owner-1", inv.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.True(t, got.TotalAmount.Equal(inv.TotalAmount))
		assert.Equal(t, inv.HashControl, got.HashControl)
		require.Len(t, got.Lines, 1)
		assert.True(t, got.Lines[0].Rate().Equal(rate))

		missing, err := repos.Invoices.GetByID(ctx, "other", inv.ID)
		require.NoError(t, err)
		assert.Nil(t, missing)

		start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
		end := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
		list, err := repos.Invoices.ListByPeriod(ctx, "owner-1", start, end)
		require.NoError(t, err)
		assert.Len(t, list, 1, "el último día del periodo es inclusivo")

		page, total, err := repos.Invoices.List(ctx, "owner-1", 10, 0)
		require.NoError(t, err)
		assert.Equal(t, 1, total)
		require.Len(t, page, 1)
		assert.Empty(t, page[0].Lines)
		return nil
	}))

	err = runner.RunBilling(ctx, func(repos billing.BillingRepos) error {
		inv.PaidAmount = decimal.NewFromInt(10)
		return repos.Invoices.UpdatePayment(ctx, inv, 7)
	})
	assert.ErrorIs(t, err, domain.ErrStateConflict)
}
