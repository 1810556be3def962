package billing

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/scripttb/720CRM-sub000/internal/application/dto"
	"github.com/scripttb/720CRM-sub000/internal/domain/agt"
	"github.com/scripttb/720CRM-sub000/internal/domain/entity"
	pkgagt "github.com/scripttb/720CRM-sub000/pkg/agt"
)

// CreatePaymentReceipt emite un recibo y aplica cada asignación a su factura.
// Cualquier sobrepago aborta el recibo completo; ninguna factura queda modificada.
func (uc *DocumentUseCase) CreatePaymentReceipt(ctx context.Context, ownerID string, in dto.CreatePaymentReceiptRequest) (*dto.PaymentReceiptResponse, error) {
	if !pkgagt.ValidPaymentMechanisms[in.PaymentMethod] {
		return nil, &agt.ValidationError{Field: "payment_method", Message: fmt.Sprintf("mecanismo %q no admitido", in.PaymentMethod)}
	}
	if len(in.Allocations) == 0 {
		return nil, &agt.ValidationError{Field: "allocations", Message: "el recibo debe pagar al menos una factura"}
	}
	seen := make(map[string]bool, len(in.Allocations))
	allocs := make([]entity.PaymentAllocation, 0, len(in.Allocations))
	for i, a := range in.Allocations {
		field := fmt.Sprintf("allocations[%d]", i)
		if a.InvoiceID == "" {
			return nil, &agt.ValidationError{Field: field + ".invoice_id", Message: "obligatorio"}
		}
		if seen[a.InvoiceID] {
			return nil, &agt.ValidationError{Field: field + ".invoice_id", Message: "factura repetida en el recibo"}
		}
		seen[a.InvoiceID] = true
		if err := agt.ValidatePositiveAmount(field+".paid_amount", a.PaidAmount); err != nil {
			return nil, err
		}
		allocs = append(allocs, entity.PaymentAllocation{InvoiceID: a.InvoiceID, PaidAmount: a.PaidAmount})
	}
	// Orden estable de bloqueo para evitar interbloqueos entre recibos concurrentes.
	sort.Slice(allocs, func(i, j int) bool { return allocs[i].InvoiceID < allocs[j].InvoiceID })

	now := uc.now()
	rc := &entity.PaymentReceipt{
		DocumentHeader: entity.DocumentHeader{
			ID:           uuid.New().String(),
			OwnerID:      ownerID,
			DocumentType: entity.DocumentTypePaymentReceipt,
			Series:       uc.series(in.Series),
			IssueDate:    now,
			Currency:     currencyOrDefault(""),
			CustomerID:   in.CustomerID,
			Notes:        in.Notes,
			TaxAmount:    zero(),
			CreatedAt:    now,
			ModifiedAt:   now,
		},
		PaymentMethod: in.PaymentMethod,
		Status:        entity.PaymentReceiptStatusIssued,
	}
	total := zero()
	for _, a := range allocs {
		total = total.Add(a.PaidAmount)
	}
	rc.Subtotal, rc.TotalAmount = total, total

	err := uc.txRunner.RunBilling(ctx, func(repos BillingRepos) error {
		company, customer, err := loadParties(ctx, repos, ownerID, in.CustomerID)
		if err != nil {
			return err
		}
		for i := range allocs {
			a := &allocs[i]
			inv, err := repos.Invoices.GetByIDForUpdate(ctx, ownerID, a.InvoiceID)
			if err != nil {
				return fmt.Errorf("obtener factura: %w", err)
			}
			if inv == nil {
				return notFound("factura", a.InvoiceID)
			}
			if inv.CustomerID != in.CustomerID {
				return &agt.ValidationError{Field: "allocations", Message: fmt.Sprintf("la factura %s pertenece a otro cliente", inv.DocumentNumber)}
			}
			out, err := agt.ApplyPayment(inv, a.PaidAmount)
			if err != nil {
				return err
			}
			expected := inv.Version
			inv.PaidAmount, inv.PaymentStatus, inv.Status = out.PaidAmount, out.PaymentStatus, out.Status
			inv.ModifiedAt = now
			if err := repos.Invoices.UpdatePayment(ctx, inv, expected); err != nil {
				return err
			}
			a.InvoiceNumber = inv.DocumentNumber
			a.InvoiceDate = inv.IssueDate
		}
		rc.Allocations = allocs

		if err := allocateNumber(ctx, repos, &rc.DocumentHeader); err != nil {
			return err
		}
		if err := uc.certifier.Certify(ctx, repos, CertifyInput{
			Header: &rc.DocumentHeader, Cert: &rc.Certification, Company: company, CustomerNIF: customer.NIF,
		}, now); err != nil {
			return err
		}
		return repos.Receipts.Create(ctx, rc)
	})
	if err != nil {
		return nil, err
	}
	uc.metrics.DocumentIssued(entity.DocumentTypePaymentReceipt)
	uc.log.Info().Str("receipt_id", rc.ID).Str("number", rc.DocumentNumber).Int("invoices", len(rc.Allocations)).Msg("recibo emitido")
	return toReceiptResponse(rc), nil
}

// GetPaymentReceipt obtiene un recibo del propietario.
func (uc *DocumentUseCase) GetPaymentReceipt(ctx context.Context, ownerID, id string) (*dto.PaymentReceiptResponse, error) {
	var rc *entity.PaymentReceipt
	err := uc.txRunner.RunReadOnly(ctx, func(repos BillingRepos) error {
		var err error
		rc, err = repos.Receipts.GetByID(ctx, ownerID, id)
		if err != nil {
			return fmt.Errorf("obtener recibo: %w", err)
		}
		if rc == nil {
			return notFound("recibo", id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toReceiptResponse(rc), nil
}
