package billing

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/scripttb/720CRM-sub000/internal/application/dto"
	"github.com/scripttb/720CRM-sub000/internal/domain/agt"
	"github.com/scripttb/720CRM-sub000/internal/domain/entity"
)

// CreateProforma crea una proforma en borrador. No se certifica.
func (uc *DocumentUseCase) CreateProforma(ctx context.Context, ownerID string, in dto.CreateProformaRequest) (*dto.ProformaResponse, error) {
	lines := toLineItems(in.Items)
	if err := agt.ValidateLineItems(lines); err != nil {
		return nil, err
	}
	validUntil, err := parseOptionalDate("valid_until", in.ValidUntil)
	if err != nil {
		return nil, err
	}

	now := uc.now()
	p := &entity.Proforma{
		DocumentHeader: entity.DocumentHeader{
			ID:           uuid.New().String(),
			OwnerID:      ownerID,
			DocumentType: entity.DocumentTypeProforma,
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
		Status:          entity.ProformaStatusDraft,
		ValidUntil:      validUntil,
		TermsConditions: in.TermsConditions,
	}
	agt.ApplyLineTotals(p.Lines)
	attachLines(p.Lines, p.ID)
	totals := agt.CalculateTotals(p.Lines)
	p.Subtotal, p.TaxAmount, p.TotalAmount = totals.Subtotal, totals.TaxAmount, totals.Total

	err = uc.txRunner.RunBilling(ctx, func(repos BillingRepos) error {
		if _, err := loadCustomer(ctx, repos, ownerID, in.CustomerID); err != nil {
			return err
		}
		if err := allocateNumber(ctx, repos, &p.DocumentHeader); err != nil {
			return err
		}
		return repos.Proformas.Create(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("proforma_id", p.ID).Str("number", p.DocumentNumber).Msg("proforma creada")
	return toProformaResponse(p), nil
}

// GetProforma obtiene una proforma del propietario.
func (uc *DocumentUseCase) GetProforma(ctx context.Context, ownerID, id string) (*dto.ProformaResponse, error) {
	var p *entity.Proforma
	err := uc.txRunner.RunReadOnly(ctx, func(repos BillingRepos) error {
		var err error
		p, err = repos.Proformas.GetByID(ctx, ownerID, id)
		if err != nil {
			return fmt.Errorf("obtener proforma: %w", err)
		}
		if p == nil {
			return notFound("proforma", id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toProformaResponse(p), nil
}

// TransitionProforma aplica send/accept/reject. La conversión tiene su propio caso de uso.
func (uc *DocumentUseCase) TransitionProforma(ctx context.Context, ownerID, id string, action agt.ProformaAction) (*dto.ProformaResponse, error) {
	if action == agt.ProformaActionConvert {
		return nil, &agt.ValidationError{Field: "action", Message: "use ConvertProforma"}
	}
	var p *entity.Proforma
	err := uc.txRunner.RunBilling(ctx, func(repos BillingRepos) error {
		var err error
		p, err = repos.Proformas.GetByIDForUpdate(ctx, ownerID, id)
		if err != nil {
			return fmt.Errorf("obtener proforma: %w", err)
		}
		if p == nil {
			return notFound("proforma", id)
		}
		next, err := agt.NextProformaStatus(p.Status, action)
		if err != nil {
			return err
		}
		now := uc.now()
		if err := repos.Proformas.UpdateStatus(ctx, p.ID, p.Status, next, "", now); err != nil {
			return err
		}
		p.Status = next
		p.ModifiedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("proforma_id", id).Str("action", string(action)).Str("status", string(p.Status)).Msg("proforma actualizada")
	return toProformaResponse(p), nil
}

// ConvertProforma convierte una proforma aceptada en factura certificada, de forma atómica:
// la factura se crea y certifica y la proforma pasa a converted, o no ocurre nada.
func (uc *DocumentUseCase) ConvertProforma(ctx context.Context, ownerID, id string, in dto.ConvertProformaRequest) (*dto.InvoiceResponse, error) {
	dueDate, err := parseOptionalDate("due_date", in.DueDate)
	if err != nil {
		return nil, err
	}

	var inv *entity.Invoice
	now := uc.now()
	err = uc.txRunner.RunBilling(ctx, func(repos BillingRepos) error {
		p, err := repos.Proformas.GetByIDForUpdate(ctx, ownerID, id)
		if err != nil {
			return fmt.Errorf("obtener proforma: %w", err)
		}
		if p == nil {
			return notFound("proforma", id)
		}
		if _, err := agt.NextProformaStatus(p.Status, agt.ProformaActionConvert); err != nil {
			return err
		}
		company, customer, err := loadParties(ctx, repos, ownerID, p.CustomerID)
		if err != nil {
			return err
		}

		inv = &entity.Invoice{
			DocumentHeader: entity.DocumentHeader{
				ID:           uuid.New().String(),
				OwnerID:      ownerID,
				DocumentType: entity.DocumentTypeInvoice,
				Series:       uc.series(in.Series),
				IssueDate:    now,
				Currency:     p.Currency,
				CustomerID:   p.CustomerID,
				ContactID:    p.ContactID,
				Subtotal:     p.Subtotal,
				TaxAmount:    p.TaxAmount,
				TotalAmount:  p.TotalAmount,
				Notes:        p.Notes,
				CreatedAt:    now,
				ModifiedAt:   now,
			},
			Status:          entity.InvoiceStatusIssued,
			PaymentStatus:   entity.PaymentStatusPending,
			PaidAmount:      zero(),
			DueDate:         dueDate,
			ProformaID:      p.ID,
			TermsConditions: p.TermsConditions,
			Version:         1,
		}
		inv.Lines = copyLines(p.Lines, inv.ID)

		if err := allocateNumber(ctx, repos, &inv.DocumentHeader); err != nil {
			return err
		}
		if err := uc.certifier.Certify(ctx, repos, CertifyInput{
			Header: &inv.DocumentHeader, Cert: &inv.Certification, Company: company, CustomerNIF: customer.NIF,
		}, now); err != nil {
			return err
		}
		if err := repos.Invoices.Create(ctx, inv); err != nil {
			return err
		}
		return repos.Proformas.UpdateStatus(ctx, p.ID, entity.ProformaStatusAccepted, entity.ProformaStatusConverted, inv.ID, now)
	})
	if err != nil {
		return nil, err
	}
	uc.metrics.DocumentIssued(entity.DocumentTypeInvoice)
	uc.log.Info().Str("proforma_id", id).Str("invoice_id", inv.ID).Str("number", inv.DocumentNumber).Msg("proforma convertida")
	return toInvoiceResponse(inv, now), nil
}
