package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/scripttb/720CRM-sub000/internal/domain/entity"
)

// Columnas comunes de cabecera y certificación; el orden debe coincidir con headerScan/certScan.
const (
	headerColumns = `id, owner_id, series, sequence, document_number, issue_date, currency, customer_id, contact_id,
		subtotal, tax_amount, total_amount, notes, created_at, modified_at`
	certColumns = `atcud, hash_control, previous_hash, digital_signature, key_version, qr_code_data,
		certification_date, certificate_number`
)

func headerArgs(h *entity.DocumentHeader) []any {
	return []any{
		h.ID, h.OwnerID, h.Series, h.Sequence, h.DocumentNumber, h.IssueDate, h.Currency, h.CustomerID,
		nullIfEmpty(h.ContactID), h.Subtotal, h.TaxAmount, h.TotalAmount, nullIfEmpty(h.Notes), h.CreatedAt, h.ModifiedAt,
	}
}

func certArgs(c *entity.Certification) []any {
	return []any{
		c.ATCUD, c.HashControl, nullIfEmpty(c.PreviousHash), c.DigitalSignature, nullIfEmpty(c.KeyVersion),
		c.QRCodeData, c.CertificationDate, c.CertificateNumber,
	}
}

type headerScan struct {
	contact, notes *string
}

func (s *headerScan) dest(h *entity.DocumentHeader) []any {
	return []any{
		&h.ID, &h.OwnerID, &h.Series, &h.Sequence, &h.DocumentNumber, &h.IssueDate, &h.Currency, &h.CustomerID,
		&s.contact, &h.Subtotal, &h.TaxAmount, &h.TotalAmount, &s.notes, &h.CreatedAt, &h.ModifiedAt,
	}
}

func (s *headerScan) apply(h *entity.DocumentHeader, t entity.DocumentType) {
	h.DocumentType = t
	h.ContactID = deref(s.contact)
	h.Notes = deref(s.notes)
}

type certScan struct {
	previous, keyVersion *string
}

func (s *certScan) dest(c *entity.Certification) []any {
	return []any{
		&c.ATCUD, &c.HashControl, &s.previous, &c.DigitalSignature, &s.keyVersion, &c.QRCodeData,
		&c.CertificationDate, &c.CertificateNumber,
	}
}

func (s *certScan) apply(c *entity.Certification) {
	c.PreviousHash = deref(s.previous)
	c.KeyVersion = deref(s.keyVersion)
}

// placeholders "$from, ..., $from+n-1".
func placeholders(from, n int) string {
	out := make([]byte, 0, n*4)
	for i := 0; i < n; i++ {
		if i > 0 {
			out = append(out, ", "...)
		}
		out = append(out, fmt.Sprintf("$%d", from+i)...)
	}
	return string(out)
}

// insertLines persiste las líneas de un documento (proforma, factura o nota de crédito).
func insertLines(ctx context.Context, q Querier, documentID string, lines []*entity.LineItem) error {
	const query = `
		INSERT INTO document_lines (id, document_id, position, description, product_id, quantity, unit_price,
			discount_percentage, tax_rate, tax_exemption_code, subtotal, discount, net, tax)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	for i, l := range lines {
		if l.ID == "" {
			l.ID = uuid.New().String()
		}
		l.DocumentID = documentID
		if l.Position == 0 {
			l.Position = i + 1
		}
		_, err := q.Exec(ctx, query,
			l.ID, documentID, l.Position, l.Description, nullIfEmpty(l.ProductID), l.Quantity, l.UnitPrice,
			l.DiscountPercentage, l.Rate(), nullIfEmpty(l.TaxExemptionCode), l.Subtotal, l.Discount, l.Net, l.Tax,
		)
		if err != nil {
			return fmt.Errorf("insert document line: %w", err)
		}
	}
	return nil
}

// loadLines devuelve las líneas de los documentos indicados, agrupadas y ordenadas por posición.
func loadLines(ctx context.Context, q Querier, documentIDs []string) (map[string][]*entity.LineItem, error) {
	out := make(map[string][]*entity.LineItem, len(documentIDs))
	if len(documentIDs) == 0 {
		return out, nil
	}
	rows, err := q.Query(ctx, `
		SELECT id, document_id, position, description, product_id, quantity, unit_price, discount_percentage,
			tax_rate, tax_exemption_code, subtotal, discount, net, tax
		FROM document_lines
		WHERE document_id::text = ANY($1)
		ORDER BY document_id, position`, documentIDs)
	if err != nil {
		return nil, fmt.Errorf("query document lines: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var l entity.LineItem
		var rate decimal.Decimal
		var productID, exemption *string
		if err := rows.Scan(&l.ID, &l.DocumentID, &l.Position, &l.Description, &productID, &l.Quantity, &l.UnitPrice,
			&l.DiscountPercentage, &rate, &exemption, &l.Subtotal, &l.Discount, &l.Net, &l.Tax); err != nil {
			return nil, fmt.Errorf("scan document line: %w", err)
		}
		l.TaxRate = &rate
		l.ProductID = deref(productID)
		l.TaxExemptionCode = deref(exemption)
		out[l.DocumentID] = append(out[l.DocumentID], &l)
	}
	return out, rows.Err()
}

// optionalDate convierte una columna DATE nula.
func optionalDate(t *time.Time) *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	return t
}
