package billing

import (
	"context"
	"fmt"
	"strings"

	"github.com/scripttb/720CRM-sub000/internal/domain"
	"github.com/scripttb/720CRM-sub000/internal/domain/entity"
)

// PDFUseCase genera la representación impresa de facturas y notas de crédito certificadas.
type PDFUseCase struct {
	txRunner  BillingTxRunner
	generator InvoicePDFGenerator
}

// NewPDFUseCase construye el caso de uso.
func NewPDFUseCase(txRunner BillingTxRunner, generator InvoicePDFGenerator) *PDFUseCase {
	return &PDFUseCase{txRunner: txRunner, generator: generator}
}

// DownloadInvoicePDF carga factura, emisor y cliente en un snapshot y genera el PDF con la QR.
//
// Retorna:
//   - (pdfBytes, filename, nil)      si todo sale bien.
//   - domain.ErrNotFound             si la factura no existe para el propietario.
//   - domain.ErrConfigurationMissing si no hay datos fiscales del emisor.
func (uc *PDFUseCase) DownloadInvoicePDF(ctx context.Context, ownerID, invoiceID string) (pdfBytes []byte, filename string, err error) {
	var doc PrintableDocument
	err = uc.txRunner.RunReadOnly(ctx, func(repos BillingRepos) error {
		inv, err := repos.Invoices.GetByID(ctx, ownerID, invoiceID)
		if err != nil {
			return fmt.Errorf("pdf: obtener factura: %w", err)
		}
		if inv == nil {
			return notFound("factura", invoiceID)
		}
		company, customer, err := loadParties(ctx, repos, ownerID, inv.CustomerID)
		if err != nil {
			return err
		}
		doc = PrintableDocument{
			Title:         "Factura",
			Header:        inv.DocumentHeader,
			Certification: inv.Certification,
			Lines:         inv.Lines,
			Company:       company,
			Customer:      customer,
			DueDate:       inv.DueDate,
		}
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	if doc.Certification.IsZero() {
		return nil, "", fmt.Errorf("%w: la factura no está certificada", domain.ErrStateConflict)
	}

	pdfBytes, err = uc.generator.GenerateDocumentPDF(ctx, doc)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: generación fallida: %w", err)
	}
	return pdfBytes, pdfFileName(doc.Header), nil
}

// pdfFileName "FT_2026_000001.pdf" a partir de "FT 2026/000001".
func pdfFileName(h entity.DocumentHeader) string {
	r := strings.NewReplacer(" ", "_", "/", "_")
	return r.Replace(h.DocumentNumber) + ".pdf"
}

// DownloadCreditNotePDF genera el PDF de una nota de crédito con la referencia a la factura original.
func (uc *PDFUseCase) DownloadCreditNotePDF(ctx context.Context, ownerID, creditNoteID string) ([]byte, string, error) {
	var doc PrintableDocument
	err := uc.txRunner.RunReadOnly(ctx, func(repos BillingRepos) error {
		cn, err := repos.CreditNotes.GetByID(ctx, ownerID, creditNoteID)
		if err != nil {
			return fmt.Errorf("pdf: obtener nota de crédito: %w", err)
		}
		if cn == nil {
			return notFound("nota de crédito", creditNoteID)
		}
		company, customer, err := loadParties(ctx, repos, ownerID, cn.CustomerID)
		if err != nil {
			return err
		}
		doc = PrintableDocument{
			Title:         "Nota de Crédito",
			Header:        cn.DocumentHeader,
			Certification: cn.Certification,
			Lines:         cn.Lines,
			Company:       company,
			Customer:      customer,
			Reference:     cn.OriginalInvoiceNumber,
		}
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	pdfBytes, err := uc.generator.GenerateDocumentPDF(ctx, doc)
	if err != nil {
		return nil, "", fmt.Errorf("pdf: generación fallida: %w", err)
	}
	return pdfBytes, pdfFileName(doc.Header), nil
}
