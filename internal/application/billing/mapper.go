package billing

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/scripttb/720CRM-sub000/internal/application/dto"
	"github.com/scripttb/720CRM-sub000/internal/domain"
	"github.com/scripttb/720CRM-sub000/internal/domain/agt"
	"github.com/scripttb/720CRM-sub000/internal/domain/entity"
)

func toLineItems(in []dto.LineItemRequest) []*entity.LineItem {
	out := make([]*entity.LineItem, 0, len(in))
	for i, l := range in {
		item := &entity.LineItem{
			ID:                 uuid.New().String(),
			Position:           i + 1,
			Description:        l.Description,
			ProductID:          l.ProductID,
			Quantity:           l.Quantity,
			UnitPrice:          l.UnitPrice,
			DiscountPercentage: l.DiscountPercentage,
			TaxExemptionCode:   l.TaxExemptionCode,
		}
		if l.TaxRate != nil {
			r := *l.TaxRate
			item.TaxRate = &r
		}
		out = append(out, item)
	}
	return out
}

// copyLines clona las líneas para otro documento (conversión de proforma).
func copyLines(src []*entity.LineItem, documentID string) []*entity.LineItem {
	out := make([]*entity.LineItem, 0, len(src))
	for _, l := range src {
		c := *l
		c.ID = uuid.New().String()
		c.DocumentID = documentID
		if l.TaxRate != nil {
			r := *l.TaxRate
			c.TaxRate = &r
		}
		out = append(out, &c)
	}
	return out
}

func attachLines(lines []*entity.LineItem, documentID string) {
	for _, l := range lines {
		l.DocumentID = documentID
	}
}

// parseOptionalDate "YYYY-MM-DD" o vacío.
func parseOptionalDate(field, s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, &agt.ValidationError{Field: field, Message: fmt.Sprintf("fecha %q inválida (YYYY-MM-DD)", s)}
	}
	return &t, nil
}

func formatOptionalDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.DateOnly)
}

func currencyOrDefault(c string) string {
	if c == "" {
		return "AOA"
	}
	return c
}

func notFound(what, id string) error {
	return fmt.Errorf("%w: %s %s", domain.ErrNotFound, what, id)
}

func toLineResponses(lines []*entity.LineItem) []dto.LineItemResponse {
	out := make([]dto.LineItemResponse, 0, len(lines))
	for _, l := range lines {
		out = append(out, dto.LineItemResponse{
			Description:        l.Description,
			ProductID:          l.ProductID,
			Quantity:           l.Quantity,
			UnitPrice:          l.UnitPrice,
			DiscountPercentage: l.DiscountPercentage,
			TaxRate:            l.TaxRate,
			TaxExemptionCode:   l.TaxExemptionCode,
			Subtotal:           l.Subtotal,
			Discount:           l.Discount,
			Net:                l.Net,
			Tax:                l.Tax,
		})
	}
	return out
}

func toHeaderResponse(h entity.DocumentHeader) dto.DocumentHeaderResponse {
	return dto.DocumentHeaderResponse{
		ID:             h.ID,
		DocumentType:   string(h.DocumentType),
		DocumentNumber: h.DocumentNumber,
		Series:         h.Series,
		IssueDate:      h.IssueDate.Format(time.DateOnly),
		Currency:       h.Currency,
		CustomerID:     h.CustomerID,
		ContactID:      h.ContactID,
		Subtotal:       h.Subtotal,
		TaxAmount:      h.TaxAmount,
		TotalAmount:    h.TotalAmount,
		Notes:          h.Notes,
	}
}

func toCertificationResponse(c entity.Certification) dto.CertificationResponse {
	return dto.CertificationResponse{
		ATCUD:             c.ATCUD,
		HashControl:       c.HashControl,
		PreviousHash:      c.PreviousHash,
		DigitalSignature:  c.DigitalSignature,
		QRCodeData:        c.QRCodeData,
		CertificationDate: c.CertificationDate.Format(time.RFC3339),
		CertificateNumber: c.CertificateNumber,
	}
}

func toProformaResponse(p *entity.Proforma) *dto.ProformaResponse {
	return &dto.ProformaResponse{
		DocumentHeaderResponse: toHeaderResponse(p.DocumentHeader),
		Status:                 string(p.Status),
		ValidUntil:             formatOptionalDate(p.ValidUntil),
		TermsConditions:        p.TermsConditions,
		ConvertedToInvoiceID:   p.ConvertedToInvoiceID,
		Items:                  toLineResponses(p.Lines),
	}
}

func toInvoiceResponse(inv *entity.Invoice, now time.Time) *dto.InvoiceResponse {
	return &dto.InvoiceResponse{
		DocumentHeaderResponse: toHeaderResponse(inv.DocumentHeader),
		Certification:          toCertificationResponse(inv.Certification),
		Status:                 string(agt.EffectiveInvoiceStatus(inv, now)),
		PaymentStatus:          string(inv.PaymentStatus),
		PaidAmount:             inv.PaidAmount,
		Balance:                inv.Balance(),
		DueDate:                formatOptionalDate(inv.DueDate),
		ProformaID:             inv.ProformaID,
		TermsConditions:        inv.TermsConditions,
		CancelReason:           inv.CancelReason,
		Items:                  toLineResponses(inv.Lines),
	}
}

func toCreditNoteResponse(cn *entity.CreditNote) *dto.CreditNoteResponse {
	return &dto.CreditNoteResponse{
		DocumentHeaderResponse: toHeaderResponse(cn.DocumentHeader),
		Certification:          toCertificationResponse(cn.Certification),
		Status:                 cn.Status,
		OriginalInvoiceID:      cn.OriginalInvoiceID,
		OriginalInvoiceNumber:  cn.OriginalInvoiceNumber,
		Reason:                 cn.Reason,
		Items:                  toLineResponses(cn.Lines),
	}
}

func toReceiptResponse(rc *entity.PaymentReceipt) *dto.PaymentReceiptResponse {
	allocs := make([]dto.PaymentAllocationResponse, 0, len(rc.Allocations))
	for _, a := range rc.Allocations {
		allocs = append(allocs, dto.PaymentAllocationResponse{
			InvoiceID:     a.InvoiceID,
			InvoiceNumber: a.InvoiceNumber,
			PaidAmount:    a.PaidAmount,
		})
	}
	return &dto.PaymentReceiptResponse{
		DocumentHeaderResponse: toHeaderResponse(rc.DocumentHeader),
		Certification:          toCertificationResponse(rc.Certification),
		Status:                 rc.Status,
		PaymentMethod:          rc.PaymentMethod,
		Allocations:            allocs,
	}
}
