package billing

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/scripttb/720CRM-sub000/internal/application/dto"
	"github.com/scripttb/720CRM-sub000/internal/domain"
	"github.com/scripttb/720CRM-sub000/internal/domain/agt"
	"github.com/scripttb/720CRM-sub000/internal/domain/entity"
)

// CreateCreditNote emite una nota de crédito contra una factura existente no anulada.
// La suma de notas de crédito de una factura no puede superar su total.
func (uc *DocumentUseCase) CreateCreditNote(ctx context.Context, ownerID string, in dto.CreateCreditNoteRequest) (*dto.CreditNoteResponse, error) {
	if strings.TrimSpace(in.Reason) == "" {
		return nil, &agt.ValidationError{Field: "reason", Message: "el motivo es obligatorio"}
	}
	if in.OriginalInvoiceID == "" {
		return nil, &agt.ValidationError{Field: "original_invoice_id", Message: "la factura original es obligatoria"}
	}
	lines := toLineItems(in.Items)
	if err := agt.ValidateLineItems(lines); err != nil {
		return nil, err
	}

	now := uc.now()
	cn := &entity.CreditNote{
		DocumentHeader: entity.DocumentHeader{
			ID:           uuid.New().String(),
			OwnerID:      ownerID,
			DocumentType: entity.DocumentTypeCreditNote,
			Series:       uc.series(in.Series),
			IssueDate:    now,
			Notes:        in.Notes,
			CreatedAt:    now,
			ModifiedAt:   now,
		},
		Lines:             lines,
		OriginalInvoiceID: in.OriginalInvoiceID,
		Reason:            strings.TrimSpace(in.Reason),
		Status:            entity.CreditNoteStatusIssued,
	}
	agt.ApplyLineTotals(cn.Lines)
	attachLines(cn.Lines, cn.ID)
	totals := agt.CalculateTotals(cn.Lines)
	cn.Subtotal, cn.TaxAmount, cn.TotalAmount = totals.Subtotal, totals.TaxAmount, totals.Total

	err := uc.txRunner.RunBilling(ctx, func(repos BillingRepos) error {
		orig, err := repos.Invoices.GetByIDForUpdate(ctx, ownerID, in.OriginalInvoiceID)
		if err != nil {
			return fmt.Errorf("obtener factura original: %w", err)
		}
		if orig == nil {
			return notFound("factura", in.OriginalInvoiceID)
		}
		if orig.Status == entity.InvoiceStatusCancelled {
			return fmt.Errorf("%w: la factura %s está anulada", domain.ErrStateConflict, orig.DocumentNumber)
		}
		credited, err := repos.CreditNotes.CreditedTotal(ctx, orig.ID)
		if err != nil {
			return fmt.Errorf("total acreditado: %w", err)
		}
		if credited.Add(cn.TotalAmount).GreaterThan(orig.TotalAmount) {
			return &agt.ValidationError{
				Field: "items",
				Message: fmt.Sprintf("el total acreditado (%s + %s) supera el total de la factura %s (%s)",
					agt.FormatAmount(credited), agt.FormatAmount(cn.TotalAmount), orig.DocumentNumber, agt.FormatAmount(orig.TotalAmount)),
			}
		}

		cn.CustomerID = orig.CustomerID
		cn.ContactID = orig.ContactID
		cn.Currency = orig.Currency
		cn.OriginalInvoiceNumber = orig.DocumentNumber

		company, customer, err := loadParties(ctx, repos, ownerID, orig.CustomerID)
		if err != nil {
			return err
		}
		if err := allocateNumber(ctx, repos, &cn.DocumentHeader); err != nil {
			return err
		}
		if err := uc.certifier.Certify(ctx, repos, CertifyInput{
			Header: &cn.DocumentHeader, Cert: &cn.Certification, Company: company, CustomerNIF: customer.NIF,
		}, now); err != nil {
			return err
		}
		return repos.CreditNotes.Create(ctx, cn)
	})
	if err != nil {
		return nil, err
	}
	uc.metrics.DocumentIssued(entity.DocumentTypeCreditNote)
	uc.log.Info().Str("credit_note_id", cn.ID).Str("number", cn.DocumentNumber).Str("invoice", cn.OriginalInvoiceNumber).Msg("nota de crédito emitida")
	return toCreditNoteResponse(cn), nil
}

// GetCreditNote obtiene una nota de crédito del propietario.
func (uc *DocumentUseCase) GetCreditNote(ctx context.Context, ownerID, id string) (*dto.CreditNoteResponse, error) {
	var cn *entity.CreditNote
	err := uc.txRunner.RunReadOnly(ctx, func(repos BillingRepos) error {
		var err error
		cn, err = repos.CreditNotes.GetByID(ctx, ownerID, id)
		if err != nil {
			return fmt.Errorf("obtener nota de crédito: %w", err)
		}
		if cn == nil {
			return notFound("nota de crédito", id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toCreditNoteResponse(cn), nil
}
