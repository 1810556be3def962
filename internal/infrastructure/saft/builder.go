// Package saft construye, serializa y valida el fichero SAF-T (AO) de facturación
// exigido por la AGT.
package saft

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"

	"github.com/scripttb/720CRM-sub000/internal/domain"
	"github.com/scripttb/720CRM-sub000/internal/domain/agt"
	"github.com/scripttb/720CRM-sub000/internal/domain/entity"
	pkgagt "github.com/scripttb/720CRM-sub000/pkg/agt"
)

const (
	dateTimeLayout   = "2006-01-02T15:04:05"
	unknownAccountID = "Desconhecido"
	defaultUnit      = "UN"
)

// Software identificación del programa certificado. Los campos de CompanyConfig tienen prioridad.
type Software struct {
	ProductCompanyTaxID      string
	SoftwareValidationNumber string
	ProductID                string
	ProductVersion           string
}

// Input snapshot de datos del periodo.
type Input struct {
	Company     *entity.CompanyConfig
	Software    Software
	Customers   []*entity.Customer
	Products    []*entity.Product
	Invoices    []*entity.Invoice
	CreditNotes []*entity.CreditNote
	Receipts    []*entity.PaymentReceipt
	Start       time.Time
	End         time.Time
	Now         time.Time
}

// Build construye el modelo SAF-T. Sin configuración fiscal devuelve ErrConfigurationMissing;
// datos incompletos (documento sin certificar, importes inconsistentes) devuelven ErrSerialization.
func Build(in Input) (*AuditFile, error) {
	if in.Company == nil {
		return nil, domain.ErrConfigurationMissing
	}
	if in.End.Before(in.Start) {
		return nil, fmt.Errorf("%w: periodo %s > %s", domain.ErrInvalidInput, day(in.Start), day(in.End))
	}

	products := make(map[string]*entity.Product, len(in.Products))
	for _, p := range in.Products {
		products[p.ID] = p
	}

	f := &AuditFile{
		Xmlns:  pkgagt.SAFTNamespace,
		Header: buildHeader(in),
		MasterFiles: MasterFiles{
			Customers: buildCustomers(in.Customers),
			Products:  buildProducts(in.Products),
		},
	}

	sales, rates, err := buildSalesInvoices(in, products)
	if err != nil {
		return nil, err
	}
	f.SourceDocuments.SalesInvoices = sales
	f.MasterFiles.TaxTable = buildTaxTable(rates)

	payments, err := buildPayments(in)
	if err != nil {
		return nil, err
	}
	f.SourceDocuments.Payments = payments
	return f, nil
}

// text normaliza a NFC y recorta espacios.
func text(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

func day(t time.Time) string { return t.Format(time.DateOnly) }

func money(d decimal.Decimal) string { return agt.FormatAmount(d) }

func strPtr(s string) *string { return &s }

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func buildHeader(in Input) Header {
	c := in.Company
	return Header{
		AuditFileVersion:      pkgagt.SAFTAuditFileVersion,
		CompanyID:             text(c.NIF),
		TaxRegistrationNumber: text(c.NIF),
		TaxAccountingBasis:    firstNonEmpty(c.TaxAccountingBasis, pkgagt.TaxAccountingBasisBilling),
		CompanyName:           text(c.Name),
		BusinessName:          text(c.BusinessName),
		CompanyAddress: Address{
			BuildingNumber: text(c.BuildingNumber),
			StreetName:     text(c.StreetName),
			AddressDetail:  text(c.AddressDetail),
			City:           text(c.City),
			PostalCode:     text(c.PostalCode),
			Province:       text(c.Province),
			Country:        firstNonEmpty(c.Country, pkgagt.TaxCountryRegion),
		},
		FiscalYear:               in.Start.Year(),
		StartDate:                day(in.Start),
		EndDate:                  day(in.End),
		CurrencyCode:             pkgagt.CurrencyAOA,
		DateCreated:              day(in.Now),
		TaxEntity:                firstNonEmpty(text(c.TaxEntity), "Global"),
		ProductCompanyTaxID:      text(firstNonEmpty(in.Software.ProductCompanyTaxID, c.NIF)),
		SoftwareValidationNumber: text(firstNonEmpty(c.SoftwareValidationNumber, in.Software.SoftwareValidationNumber)),
		ProductID:                text(firstNonEmpty(c.ProductID, in.Software.ProductID)),
		ProductVersion:           text(firstNonEmpty(c.ProductVersion, in.Software.ProductVersion)),
		Telephone:                text(c.Telephone),
		Fax:                      text(c.Fax),
		Email:                    text(c.Email),
		Website:                  text(c.Website),
	}
}

func buildCustomers(list []*entity.Customer) []Customer {
	out := make([]Customer, 0, len(list))
	for _, c := range list {
		out = append(out, Customer{
			CustomerID:    c.ID,
			AccountID:     unknownAccountID,
			CustomerTaxID: pkgagt.CustomerTaxID(c.NIF),
			CompanyName:   text(c.Name),
			BillingAddress: Address{
				AddressDetail: text(c.Address),
				City:          text(c.City),
				PostalCode:    text(c.PostalCode),
				Province:      text(c.Province),
				Country:       firstNonEmpty(c.Country, pkgagt.TaxCountryRegion),
			},
			Telephone: text(c.Phone),
			Email:     text(c.Email),
			Website:   text(c.Website),
		})
	}
	return out
}

func productType(p *entity.Product) string {
	if p.IsService {
		return "S"
	}
	return "P"
}

func buildProducts(list []*entity.Product) []Product {
	out := make([]Product, 0, len(list))
	for _, p := range list {
		out = append(out, Product{
			ProductType:        productType(p),
			ProductCode:        text(firstNonEmpty(p.SKU, p.ID)),
			ProductDescription: text(p.Name),
			ProductNumberCode:  text(firstNonEmpty(p.SKU, p.ID)),
		})
	}
	return out
}

// taxKey tasa y código de exención presentes en las líneas del periodo.
type taxKey struct {
	rate      string
	exemption string
}

// buildTaxTable tasa normal y exenta siempre, más una entrada por cada código de exención
// y cada tasa distinta de la normal usados en el periodo.
func buildTaxTable(used map[taxKey]bool) TaxTable {
	entries := []TaxTableEntry{
		{TaxType: pkgagt.TaxTypeIVA, TaxCountryRegion: pkgagt.TaxCountryRegion, TaxCode: pkgagt.TaxCodeNormal, Description: "Taxa Normal", TaxPercentage: money(pkgagt.StandardVATRate)},
		{TaxType: pkgagt.TaxTypeIVA, TaxCountryRegion: pkgagt.TaxCountryRegion, TaxCode: pkgagt.TaxCodeExempt, Description: "Isento", TaxPercentage: "0.00"},
	}
	keys := make([]taxKey, 0, len(used))
	for k := range used {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].exemption != keys[j].exemption {
			return keys[i].exemption < keys[j].exemption
		}
		return keys[i].rate < keys[j].rate
	})
	for _, k := range keys {
		switch {
		case k.exemption != "":
			entries = append(entries, TaxTableEntry{
				TaxType: pkgagt.TaxTypeIVA, TaxCountryRegion: pkgagt.TaxCountryRegion, TaxCode: pkgagt.TaxCodeExempt,
				Description:   text(k.exemption + " - " + pkgagt.ExemptionReasons[k.exemption]),
				TaxPercentage: "0.00",
			})
		case k.rate != money(pkgagt.StandardVATRate) && k.rate != "0.00":
			entries = append(entries, TaxTableEntry{
				TaxType: pkgagt.TaxTypeIVA, TaxCountryRegion: pkgagt.TaxCountryRegion, TaxCode: taxCodeFor(k.rate),
				Description:   "Taxa " + k.rate + "%",
				TaxPercentage: k.rate,
			})
		}
	}
	return TaxTable{Entries: entries}
}

func taxCodeFor(rate string) string {
	switch rate {
	case "0.00":
		return pkgagt.TaxCodeExempt
	case money(pkgagt.StandardVATRate):
		return pkgagt.TaxCodeNormal
	default:
		return "OUT"
	}
}

func statusFields(cancelled bool, statusDate time.Time, reason, sourceID string) InvoiceStatus {
	st := InvoiceStatus{
		InvoiceStatus:     pkgagt.SAFTStatusNormal,
		InvoiceStatusDate: statusDate.Format(dateTimeLayout),
		SourceID:          sourceID,
		SourceBilling:     pkgagt.SourceBilling,
	}
	if cancelled {
		st.InvoiceStatus = pkgagt.SAFTStatusCancelled
		st.Reason = text(reason)
	}
	return st
}

func checkCertified(h entity.DocumentHeader, c entity.Certification) error {
	if c.IsZero() || c.ATCUD == "" {
		return fmt.Errorf("%w: el documento %s no está certificado", domain.ErrSerialization, h.DocumentNumber)
	}
	if h.DocumentNumber == "" || h.IssueDate.IsZero() {
		return fmt.Errorf("%w: documento %s sin número o fecha", domain.ErrSerialization, h.ID)
	}
	return nil
}

// buildLines convierte líneas; credit=true usa CreditAmount (notas de crédito).
func buildLines(lines []*entity.LineItem, products map[string]*entity.Product, taxPoint time.Time, credit bool, ref *References, used map[taxKey]bool) []Line {
	out := make([]Line, 0, len(lines))
	for i, l := range lines {
		lt := agt.CalculateLine(l)
		rate := money(l.Rate())
		used[taxKey{rate: rate, exemption: l.TaxExemptionCode}] = true

		code := ""
		if p, ok := products[l.ProductID]; ok {
			code = firstNonEmpty(p.SKU, p.ID)
		} else if l.ProductID != "" {
			code = l.ProductID
		}
		line := Line{
			LineNumber:         i + 1,
			ProductCode:        text(code),
			ProductDescription: text(l.Description),
			Quantity:           l.Quantity.String(),
			UnitOfMeasure:      defaultUnit,
			UnitPrice:          money(l.UnitPrice),
			TaxPointDate:       day(taxPoint),
			References:         ref,
			Description:        text(l.Description),
			Tax: LineTax{
				TaxType:          pkgagt.TaxTypeIVA,
				TaxCountryRegion: pkgagt.TaxCountryRegion,
				TaxCode:          taxCodeFor(rate),
				TaxPercentage:    rate,
			},
			SettlementAmount: money(lt.Discount),
		}
		if credit {
			line.CreditAmount = strPtr(money(lt.Net))
		} else {
			line.DebitAmount = strPtr(money(lt.Net))
		}
		if l.IsExempt() {
			line.TaxExemptionReason = strPtr(text(pkgagt.ExemptionReasons[l.TaxExemptionCode]))
			line.TaxExemptionCode = strPtr(l.TaxExemptionCode)
		}
		out = append(out, line)
	}
	return out
}

// roundedTotals redondea una sola vez a 2 decimales. GrossTotal es el total certificado y
// NetTotal se ajusta para que NetTotal + TaxPayable = GrossTotal.
func roundedTotals(tax, total decimal.Decimal) (DocumentTotals, decimal.Decimal) {
	gross := total.Round(2)
	taxR := tax.Round(2)
	return DocumentTotals{TaxPayable: money(taxR), NetTotal: money(gross.Sub(taxR)), GrossTotal: money(gross)}, gross
}

func buildSalesInvoices(in Input, products map[string]*entity.Product) (SalesInvoices, map[taxKey]bool, error) {
	used := make(map[taxKey]bool)
	debit, credit := decimal.Zero, decimal.Zero
	docs := make([]Invoice, 0, len(in.Invoices)+len(in.CreditNotes))

	for _, inv := range in.Invoices {
		if err := checkCertified(inv.DocumentHeader, inv.Certification); err != nil {
			return SalesInvoices{}, nil, err
		}
		cancelled := inv.Status == entity.InvoiceStatusCancelled
		statusDate := inv.CertificationDate
		if cancelled {
			statusDate = inv.ModifiedAt
		}
		totals, gross := roundedTotals(inv.TaxAmount, inv.TotalAmount)
		docs = append(docs, Invoice{
			InvoiceNo:       inv.DocumentNumber,
			ATCUD:           inv.ATCUD,
			DocumentStatus:  statusFields(cancelled, statusDate, inv.CancelReason, inv.OwnerID),
			Hash:            inv.DigitalSignature,
			HashControl:     inv.HashControl,
			Period:          int(inv.IssueDate.Month()),
			InvoiceDate:     day(inv.IssueDate),
			InvoiceType:     string(entity.DocumentTypeInvoice),
			SourceID:        inv.OwnerID,
			SystemEntryDate: inv.CreatedAt.Format(dateTimeLayout),
			CustomerID:      inv.CustomerID,
			Lines:           buildLines(inv.Lines, products, inv.IssueDate, false, nil, used),
			DocumentTotals:  totals,
		})
		if !cancelled {
			debit = debit.Add(gross)
		}
	}

	for _, cn := range in.CreditNotes {
		if err := checkCertified(cn.DocumentHeader, cn.Certification); err != nil {
			return SalesInvoices{}, nil, err
		}
		if cn.OriginalInvoiceNumber == "" {
			return SalesInvoices{}, nil, fmt.Errorf("%w: la nota de crédito %s no referencia factura", domain.ErrSerialization, cn.DocumentNumber)
		}
		ref := &References{Reference: cn.OriginalInvoiceNumber, Reason: text(cn.Reason)}
		totals, gross := roundedTotals(cn.TaxAmount, cn.TotalAmount)
		docs = append(docs, Invoice{
			InvoiceNo:       cn.DocumentNumber,
			ATCUD:           cn.ATCUD,
			DocumentStatus:  statusFields(false, cn.CertificationDate, "", cn.OwnerID),
			Hash:            cn.DigitalSignature,
			HashControl:     cn.HashControl,
			Period:          int(cn.IssueDate.Month()),
			InvoiceDate:     day(cn.IssueDate),
			InvoiceType:     string(entity.DocumentTypeCreditNote),
			SourceID:        cn.OwnerID,
			SystemEntryDate: cn.CreatedAt.Format(dateTimeLayout),
			CustomerID:      cn.CustomerID,
			Lines:           buildLines(cn.Lines, products, cn.IssueDate, true, ref, used),
			DocumentTotals:  totals,
		})
		credit = credit.Add(gross)
	}

	sort.SliceStable(docs, func(i, j int) bool {
		if docs[i].InvoiceDate != docs[j].InvoiceDate {
			return docs[i].InvoiceDate < docs[j].InvoiceDate
		}
		return docs[i].InvoiceNo < docs[j].InvoiceNo
	})

	return SalesInvoices{
		NumberOfEntries: len(docs),
		TotalDebit:      money(debit),
		TotalCredit:     money(credit),
		Invoices:        docs,
	}, used, nil
}

func buildPayments(in Input) (Payments, error) {
	total := decimal.Zero
	out := make([]Payment, 0, len(in.Receipts))
	for _, rc := range in.Receipts {
		if err := checkCertified(rc.DocumentHeader, rc.Certification); err != nil {
			return Payments{}, err
		}
		if len(rc.Allocations) == 0 {
			return Payments{}, fmt.Errorf("%w: el recibo %s no tiene facturas", domain.ErrSerialization, rc.DocumentNumber)
		}
		lines := make([]PaymentLine, 0, len(rc.Allocations))
		sum := decimal.Zero
		for i, a := range rc.Allocations {
			lines = append(lines, PaymentLine{
				LineNumber:       i + 1,
				SourceDocumentID: SourceDocumentID{OriginatingON: a.InvoiceNumber, InvoiceDate: day(a.InvoiceDate)},
				CreditAmount:     money(a.PaidAmount),
			})
			sum = sum.Add(a.PaidAmount)
		}
		if !sum.Equal(rc.TotalAmount) {
			return Payments{}, fmt.Errorf("%w: el recibo %s suma %s pero su total es %s",
				domain.ErrSerialization, rc.DocumentNumber, money(sum), money(rc.TotalAmount))
		}
		paid := rc.TotalAmount.Round(2)
		out = append(out, Payment{
			PaymentRefNo:    rc.DocumentNumber,
			ATCUD:           rc.ATCUD,
			Period:          int(rc.IssueDate.Month()),
			TransactionDate: day(rc.IssueDate),
			PaymentType:     string(entity.DocumentTypePaymentReceipt),
			DocumentStatus: PaymentStatus{
				PaymentStatus:     pkgagt.SAFTStatusNormal,
				PaymentStatusDate: rc.CertificationDate.Format(dateTimeLayout),
				SourceID:          rc.OwnerID,
				SourcePayment:     pkgagt.SourceBilling,
			},
			PaymentMethod: PaymentMethod{
				PaymentMechanism: rc.PaymentMethod,
				PaymentAmount:    money(paid),
				PaymentDate:      day(rc.IssueDate),
			},
			SourceID:        rc.OwnerID,
			SystemEntryDate: rc.CreatedAt.Format(dateTimeLayout),
			CustomerID:      rc.CustomerID,
			Lines:           lines,
			DocumentTotals:  DocumentTotals{TaxPayable: "0.00", NetTotal: money(paid), GrossTotal: money(paid)},
		})
		total = total.Add(paid)
	}
	return Payments{
		NumberOfEntries: len(out),
		TotalDebit:      "0.00",
		TotalCredit:     money(total),
		Payments:        out,
	}, nil
}
