package billing

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/scripttb/720CRM-sub000/internal/application/dto"
	"github.com/scripttb/720CRM-sub000/internal/domain/agt"
	"github.com/scripttb/720CRM-sub000/internal/domain/entity"
)

func zero() decimal.Decimal { return decimal.Zero }

// CreateInvoice emite una factura directa: numera, certifica y persiste en una sola transacción.
func (uc *DocumentUseCase) CreateInvoice(ctx context.Context, ownerID string, in dto.CreateInvoiceRequest) (*dto.InvoiceResponse, error) {
	lines := toLineItems(in.Items)
	if err := agt.ValidateLineItems(lines); err != nil {
		return nil, err
	}
	dueDate, err := parseOptionalDate("due_date", in.DueDate)
	if err != nil {
		return nil, err
	}

	now := uc.now()
	inv := &entity.Invoice{
		DocumentHeader: entity.DocumentHeader{
			ID:           uuid.New().String(),
			OwnerID:      ownerID,
			DocumentType: entity.DocumentTypeInvoice,
			Series:       uc.series(in.Series),
			IssueDate:    now,
			Currency:     currencyOrDefault(in.Currency),
			CustomerID:   in.CustomerID,
			ContactID:    in.ContactID,
			Notes:        in.Notes,
			CreatedAt:    now,
			ModifiedAt:   now,
		},
		Lines:           lines,
		Status:          entity.InvoiceStatusIssued,
		PaymentStatus:   entity.PaymentStatusPending,
		PaidAmount:      zero(),
		DueDate:         dueDate,
		TermsConditions: in.TermsConditions,
		Version:         1,
	}
	agt.ApplyLineTotals(inv.Lines)
	attachLines(inv.Lines, inv.ID)
	totals := agt.CalculateTotals(inv.Lines)
	inv.Subtotal, inv.TaxAmount, inv.TotalAmount = totals.Subtotal, totals.TaxAmount, totals.Total

	err = uc.txRunner.RunBilling(ctx, func(repos BillingRepos) error {
		company, customer, err := loadParties(ctx, repos, ownerID, in.CustomerID)
		if err != nil {
			return err
		}
		if err := allocateNumber(ctx, repos, &inv.DocumentHeader); err != nil {
			return err
		}
		if err := uc.certifier.Certify(ctx, repos, CertifyInput{
			Header: &inv.DocumentHeader, Cert: &inv.Certification, Company: company, CustomerNIF: customer.NIF,
		}, now); err != nil {
			return err
		}
		return repos.Invoices.Create(ctx, inv)
	})
	if err != nil {
		return nil, err
	}
	uc.metrics.DocumentIssued(entity.DocumentTypeInvoice)
	uc.log.Info().Str("invoice_id", inv.ID).Str("number", inv.DocumentNumber).Str("total", agt.FormatAmount(inv.TotalAmount)).Msg("factura emitida")
	return toInvoiceResponse(inv, now), nil
}

// GetInvoice obtiene una factura; el estado overdue se deriva al leer.
func (uc *DocumentUseCase) GetInvoice(ctx context.Context, ownerID, id string) (*dto.InvoiceResponse, error) {
	var inv *entity.Invoice
	err := uc.txRunner.RunReadOnly(ctx, func(repos BillingRepos) error {
		var err error
		inv, err = repos.Invoices.GetByID(ctx, ownerID, id)
		if err != nil {
			return fmt.Errorf("obtener factura: %w", err)
		}
		if inv == nil {
			return notFound("factura", id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toInvoiceResponse(inv, uc.now()), nil
}

// ListInvoices página de facturas del propietario, más recientes primero.
func (uc *DocumentUseCase) ListInvoices(ctx context.Context, ownerID string, page dto.PageRequest) (*dto.InvoiceListResponse, error) {
	page.DefaultPage()
	var (
		list  []*entity.Invoice
		total int
	)
	err := uc.txRunner.RunReadOnly(ctx, func(repos BillingRepos) error {
		var err error
		list, total, err = repos.Invoices.List(ctx, ownerID, page.Limit, page.Offset)
		if err != nil {
			return fmt.Errorf("listar facturas: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	now := uc.now()
	out := &dto.InvoiceListResponse{
		Items: make([]dto.InvoiceResponse, 0, len(list)),
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset, Total: total},
	}
	for _, inv := range list {
		out.Items = append(out.Items, *toInvoiceResponse(inv, now))
	}
	return out, nil
}

// CancelInvoice anula una factura emitida sin cobros. Estado terminal.
func (uc *DocumentUseCase) CancelInvoice(ctx context.Context, ownerID, id string, in dto.CancelInvoiceRequest) (*dto.InvoiceResponse, error) {
	var inv *entity.Invoice
	now := uc.now()
	err := uc.txRunner.RunBilling(ctx, func(repos BillingRepos) error {
		var err error
		inv, err = repos.Invoices.GetByIDForUpdate(ctx, ownerID, id)
		if err != nil {
			return fmt.Errorf("obtener factura: %w", err)
		}
		if inv == nil {
			return notFound("factura", id)
		}
		if err := agt.CanCancelInvoice(inv, in.Reason); err != nil {
			return err
		}
		if err := repos.Invoices.Cancel(ctx, inv.ID, in.Reason, now); err != nil {
			return err
		}
		inv.Status = entity.InvoiceStatusCancelled
		inv.CancelReason = in.Reason
		inv.ModifiedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("invoice_id", id).Str("reason", in.Reason).Msg("factura anulada")
	return toInvoiceResponse(inv, now), nil
}
