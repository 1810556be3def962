package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/scripttb/720CRM-sub000/internal/application/billing"
)

var _ billing.BillingTxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// RunBilling inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
func (r *TxRunner) RunBilling(ctx context.Context, fn func(repos billing.BillingRepos) error) error {
	return r.run(ctx, pgx.TxOptions{}, fn)
}

// RunReadOnly snapshot consistente (REPEATABLE READ, sólo lectura) para exportaciones y consultas.
func (r *TxRunner) RunReadOnly(ctx context.Context, fn func(repos billing.BillingRepos) error) error {
	return r.run(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}, fn)
}

func (r *TxRunner) run(ctx context.Context, opts pgx.TxOptions, fn func(repos billing.BillingRepos) error) error {
	tx, err := r.pool.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(NewBillingRepos(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// NewBillingRepos repos de facturación sobre un Querier (pool o tx).
func NewBillingRepos(q Querier) billing.BillingRepos {
	return billing.BillingRepos{
		Proformas:   NewProformaRepository(q),
		Invoices:    NewInvoiceRepository(q),
		CreditNotes: NewCreditNoteRepository(q),
		Receipts:    NewPaymentReceiptRepository(q),
		Sequences:   NewSequenceRepository(q),
		Companies:   NewCompanyConfigRepository(q),
		Customers:   NewCustomerRepository(q),
		Products:    NewProductRepository(q),
	}
}
