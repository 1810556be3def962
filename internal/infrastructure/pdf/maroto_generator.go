// Package pdf genera la representación impresa de facturas y notas de crédito certificadas.
//
// Layout A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  Emisor + NIF                │  Título + Nº + Fecha          │
//	│  Dirección del emisor / contacto                             │
//	│  Cliente + NIF (Consumidor final si no tiene)                │
//	│  Tabla: Descrição | Qtd | P.Unit | Desc% | IVA% | Total      │
//	│  Cuadro de IVA y exenciones                                  │
//	│  Totales                                                     │
//	│  QR + ATCUD + extracto del hash + nº de certificado          │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strings"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	appbilling "github.com/scripttb/720CRM-sub000/internal/application/billing"
	"github.com/scripttb/720CRM-sub000/internal/domain/agt"
	"github.com/scripttb/720CRM-sub000/internal/domain/entity"
	pkgagt "github.com/scripttb/720CRM-sub000/pkg/agt"
)

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

var _ appbilling.InvoicePDFGenerator = (*MarotoPDFGenerator)(nil)

// MarotoPDFGenerator implementa billing.InvoicePDFGenerator usando Maroto v2.
type MarotoPDFGenerator struct{}

// NewMarotoPDFGenerator construye el generador.
func NewMarotoPDFGenerator() *MarotoPDFGenerator { return &MarotoPDFGenerator{} }

// GenerateDocumentPDF genera el PDF y devuelve sus bytes.
func (g *MarotoPDFGenerator) GenerateDocumentPDF(_ context.Context, doc appbilling.PrintableDocument) ([]byte, error) {
	if doc.Company == nil || doc.Customer == nil {
		return nil, fmt.Errorf("pdf: faltan emisor o cliente")
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle(doc.Title+" "+doc.Header.DocumentNumber, true).
		WithAuthor(doc.Company.Name, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(doc))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(issuerRow(doc.Company))
	m.AddRows(customerRow(doc.Customer))
	if doc.Reference != "" {
		m.AddRows(row.New(6).Add(col.New(12).Add(
			text.New("Referente ao documento: "+doc.Reference, props.Text{Style: fontstyle.Bold, Size: 8, Top: 1}),
		)))
	}
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	m.AddRows(tableLineRows(doc.Lines)...)

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(taxSummaryRows(doc.Lines)...)
	m.AddRows(totalsRow(doc))

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(certificationRows(doc)...)

	out, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return out.GetBytes(), nil
}

func headerRow(doc appbilling.PrintableDocument) core.Row {
	right := []core.Component{
		text.New(strings.ToUpper(doc.Title), props.Text{
			Style: fontstyle.Bold, Size: 9, Align: align.Right, Color: colorPrimary, Top: 1,
		}),
		text.New(doc.Header.DocumentNumber, props.Text{
			Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 7,
		}),
		text.New("Data: "+doc.Header.IssueDate.Format("02/01/2006"), props.Text{
			Size: 8, Align: align.Right, Top: 14, Color: colorGray,
		}),
	}
	if doc.DueDate != nil {
		right = append(right, text.New("Vencimento: "+doc.DueDate.Format("02/01/2006"), props.Text{
			Size: 8, Align: align.Right, Top: 18, Color: colorGray,
		}))
	}
	return row.New(22).Add(
		col.New(7).Add(
			text.New(doc.Company.Name, props.Text{Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1}),
			text.New("NIF: "+doc.Company.NIF, props.Text{Size: 9, Top: 9, Color: colorGray}),
		),
		col.New(5).Add(right...),
	)
}

func issuerRow(c *entity.CompanyConfig) core.Row {
	address := strings.TrimSpace(strings.Join(nonBlank(c.StreetName, c.BuildingNumber, c.AddressDetail, c.City, c.Province), ", "))
	return row.New(12).Add(col.New(12).Add(
		text.New(nonEmpty(address, "-"), props.Text{Size: 8, Top: 1, Color: colorGray}),
		text.New(fmt.Sprintf("Tel: %s   |   Email: %s",
			nonEmpty(c.Telephone, "-"), nonEmpty(c.Email, "-"),
		), props.Text{Size: 8, Top: 6, Color: colorGray}),
	))
}

func customerRow(c *entity.Customer) core.Row {
	return row.New(16).Add(col.New(12).Add(
		text.New("CLIENTE", props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1}),
		text.New(c.Name, props.Text{Style: fontstyle.Bold, Size: 10, Top: 6}),
		text.New(fmt.Sprintf("NIF: %s   |   %s",
			customerNIF(c.NIF),
			nonEmpty(strings.Join(nonBlank(c.Address, c.City), ", "), "-"),
		), props.Text{Size: 8, Top: 12, Color: colorGray}),
	))
}

// customerNIF el cliente sin NIF se imprime como consumidor final.
func customerNIF(nif string) string {
	if pkgagt.NormalizeNIF(nif) == "" {
		return "Consumidor final"
	}
	return nif
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a, Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Descrição", 5, align.Left),
		h("Qtd.", 1, align.Center),
		h("Preço Unit.", 2, align.Right),
		h("Desc.%", 1, align.Center),
		h("IVA%", 1, align.Center),
		h("Total", 2, align.Right),
	)
}

func tableLineRows(lines []*entity.LineItem) []core.Row {
	out := make([]core.Row, 0, len(lines))
	for _, l := range lines {
		rate := l.Rate().StringFixed(0) + "%"
		if l.IsExempt() {
			rate = "0% " + l.TaxExemptionCode
		}
		out = append(out, row.New(7).Add(
			col.New(5).Add(text.New(l.Description, props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(1).Add(text.New(l.Quantity.String(), props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(2).Add(text.New(formatKz(l.UnitPrice), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(1).Add(text.New(l.DiscountPercentage.String(), props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(1).Add(text.New(rate, props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(2).Add(text.New(formatKz(l.Net.Add(l.Tax)), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
		))
	}
	return out
}

// taxLabel "IVA 14%" o "Isento M00 - Regime Transitório".
func taxLabel(b agt.TaxBreakdown) string {
	if b.Rate.IsZero() {
		return "Isento " + b.ExemptionCode + " - " + pkgagt.ExemptionReasons[b.ExemptionCode]
	}
	return "IVA " + b.Rate.StringFixed(0) + "%"
}

func taxSummaryRows(lines []*entity.LineItem) []core.Row {
	buckets := agt.CalculateTotals(lines).Breakdown
	out := make([]core.Row, 0, len(buckets)+1)
	out = append(out, row.New(6).Add(col.New(12).Add(
		text.New("QUADRO RESUMO DO IVA", props.Text{Style: fontstyle.Bold, Size: 7, Color: colorPrimary, Top: 1}),
	)))
	for _, b := range buckets {
		out = append(out, row.New(5).Add(
			col.New(8).Add(text.New(taxLabel(b), props.Text{Size: 7, Top: 0.5})),
			col.New(2).Add(text.New(formatKz(b.Base), props.Text{Size: 7, Align: align.Right, Top: 0.5})),
			col.New(2).Add(text.New(formatKz(b.Tax), props.Text{Size: 7, Align: align.Right, Top: 0.5, Right: 1})),
		))
	}
	return out
}

func totalsRow(doc appbilling.PrintableDocument) core.Row {
	label := func(s string, top float64) core.Component {
		return text.New(s, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2, Top: top})
	}
	value := func(s string, top float64) core.Component {
		return text.New(s, props.Text{Size: 9, Align: align.Right, Right: 1, Top: top})
	}
	currency := nonEmpty(doc.Header.Currency, pkgagt.CurrencyAOA)
	return row.New(20).Add(
		col.New(6),
		col.New(3).Add(
			label("Total ilíquido:", 1),
			label("Total IVA:", 6),
			label("TOTAL ("+currency+"):", 12),
		),
		col.New(3).Add(
			value(formatKz(doc.Header.Subtotal), 1),
			value(formatKz(doc.Header.TaxAmount), 6),
			text.New(formatKz(doc.Header.TotalAmount), props.Text{
				Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary, Right: 1, Top: 12,
			}),
		),
	)
}

func certificationRows(doc appbilling.PrintableDocument) []core.Row {
	cert := doc.Certification
	legend := fmt.Sprintf("%s-Processado por programa validado n.º %s/AGT",
		PrintedHashExcerpt(cert.DigitalSignature), nonEmpty(cert.CertificateNumber, doc.Company.CertificateNumber))

	info := col.New(8).Add(
		text.New("ATCUD: "+cert.ATCUD, props.Text{Style: fontstyle.Bold, Size: 9, Top: 4, Left: 3}),
		text.New(legend, props.Text{Size: 8, Top: 11, Left: 3, Color: colorGray}),
		text.New("Data de certificação: "+cert.CertificationDate.Format("2006-01-02 15:04:05"), props.Text{
			Size: 7, Top: 17, Left: 3, Color: colorGray,
		}),
	)
	if cert.QRCodeData == "" {
		return []core.Row{row.New(24).Add(col.New(4), info)}
	}
	return []core.Row{row.New(45).Add(
		col.New(4).Add(code.NewQr(cert.QRCodeData, props.Rect{Percent: 95, Center: true})),
		info,
	)}
}

// PrintedHashExcerpt caracteres 1, 11, 21 y 31 de la firma, tal como se imprimen en el documento.
func PrintedHashExcerpt(signature string) string {
	var b strings.Builder
	for _, i := range []int{0, 10, 20, 30} {
		if i < len(signature) {
			b.WriteByte(signature[i])
		}
	}
	return b.String()
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

func nonBlank(parts ...string) []string {
	out := parts[:0:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return out
}

// formatKz formato angolano con 2 decimales: 1234567.5 → "1.234.567,50".
func formatKz(d decimal.Decimal) string {
	s := d.Abs().StringFixed(2)
	intPart, frac, _ := strings.Cut(s, ".")
	n := len(intPart)
	buf := make([]byte, 0, n+n/3+4)
	if d.IsNegative() {
		buf = append(buf, '-')
	}
	for i, c := range []byte(intPart) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, c)
	}
	buf = append(buf, ',')
	buf = append(buf, frac...)
	return string(buf)
}
