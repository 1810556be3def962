package saft

import "encoding/xml"

// Modelo del fichero SAF-T (AO) 1.01_01. Los campos opcionales son string sin omitempty:
// el esquema exige el elemento aunque esté vacío. Sólo los elementos condicionales
// (DebitAmount/CreditAmount, References, exención) son punteros y se omiten si son nil.
// Los importes van preformateados con 2 decimales.

// AuditFile raíz del documento.
type AuditFile struct {
	XMLName         xml.Name        `xml:"AuditFile"`
	Xmlns           string          `xml:"xmlns,attr"`
	Header          Header          `xml:"Header"`
	MasterFiles     MasterFiles     `xml:"MasterFiles"`
	SourceDocuments SourceDocuments `xml:"SourceDocuments"`
}

type Header struct {
	AuditFileVersion         string  `xml:"AuditFileVersion"`
	CompanyID                string  `xml:"CompanyID"`
	TaxRegistrationNumber    string  `xml:"TaxRegistrationNumber"`
	TaxAccountingBasis       string  `xml:"TaxAccountingBasis"`
	CompanyName              string  `xml:"CompanyName"`
	BusinessName             string  `xml:"BusinessName"`
	CompanyAddress           Address `xml:"CompanyAddress"`
	FiscalYear               int     `xml:"FiscalYear"`
	StartDate                string  `xml:"StartDate"`
	EndDate                  string  `xml:"EndDate"`
	CurrencyCode             string  `xml:"CurrencyCode"`
	DateCreated              string  `xml:"DateCreated"`
	TaxEntity                string  `xml:"TaxEntity"`
	ProductCompanyTaxID      string  `xml:"ProductCompanyTaxID"`
	SoftwareValidationNumber string  `xml:"SoftwareValidationNumber"`
	ProductID                string  `xml:"ProductID"`
	ProductVersion           string  `xml:"ProductVersion"`
	Telephone                string  `xml:"Telephone"`
	Fax                      string  `xml:"Fax"`
	Email                    string  `xml:"Email"`
	Website                  string  `xml:"Website"`
}

type Address struct {
	BuildingNumber string `xml:"BuildingNumber"`
	StreetName     string `xml:"StreetName"`
	AddressDetail  string `xml:"AddressDetail"`
	City           string `xml:"City"`
	PostalCode     string `xml:"PostalCode"`
	Province       string `xml:"Province"`
	Country        string `xml:"Country"`
}

type MasterFiles struct {
	Customers []Customer `xml:"Customer"`
	Products  []Product  `xml:"Product"`
	TaxTable  TaxTable   `xml:"TaxTable"`
}

type Customer struct {
	CustomerID           string  `xml:"CustomerID"`
	AccountID            string  `xml:"AccountID"`
	CustomerTaxID        string  `xml:"CustomerTaxID"`
	CompanyName          string  `xml:"CompanyName"`
	BillingAddress       Address `xml:"BillingAddress"`
	Telephone            string  `xml:"Telephone"`
	Email                string  `xml:"Email"`
	Website              string  `xml:"Website"`
	SelfBillingIndicator int     `xml:"SelfBillingIndicator"`
}

type Product struct {
	ProductType        string `xml:"ProductType"`
	ProductCode        string `xml:"ProductCode"`
	ProductGroup       string `xml:"ProductGroup"`
	ProductDescription string `xml:"ProductDescription"`
	ProductNumberCode  string `xml:"ProductNumberCode"`
}

type TaxTable struct {
	Entries []TaxTableEntry `xml:"TaxTableEntry"`
}

type TaxTableEntry struct {
	TaxType          string `xml:"TaxType"`
	TaxCountryRegion string `xml:"TaxCountryRegion"`
	TaxCode          string `xml:"TaxCode"`
	Description      string `xml:"Description"`
	TaxPercentage    string `xml:"TaxPercentage"`
}

type SourceDocuments struct {
	SalesInvoices SalesInvoices `xml:"SalesInvoices"`
	Payments      Payments      `xml:"Payments"`
}

type SalesInvoices struct {
	NumberOfEntries int       `xml:"NumberOfEntries"`
	TotalDebit      string    `xml:"TotalDebit"`
	TotalCredit     string    `xml:"TotalCredit"`
	Invoices        []Invoice `xml:"Invoice"`
}

type Invoice struct {
	InvoiceNo       string         `xml:"InvoiceNo"`
	ATCUD           string         `xml:"ATCUD"`
	DocumentStatus  InvoiceStatus  `xml:"DocumentStatus"`
	Hash            string         `xml:"Hash"`
	HashControl     string         `xml:"HashControl"`
	Period          int            `xml:"Period"`
	InvoiceDate     string         `xml:"InvoiceDate"`
	InvoiceType     string         `xml:"InvoiceType"`
	SpecialRegimes  SpecialRegimes `xml:"SpecialRegimes"`
	SourceID        string         `xml:"SourceID"`
	SystemEntryDate string         `xml:"SystemEntryDate"`
	CustomerID      string         `xml:"CustomerID"`
	Lines           []Line         `xml:"Line"`
	DocumentTotals  DocumentTotals `xml:"DocumentTotals"`
}

type InvoiceStatus struct {
	InvoiceStatus     string `xml:"InvoiceStatus"`
	InvoiceStatusDate string `xml:"InvoiceStatusDate"`
	Reason            string `xml:"Reason"`
	SourceID          string `xml:"SourceID"`
	SourceBilling     string `xml:"SourceBilling"`
}

type SpecialRegimes struct {
	SelfBillingIndicator         int `xml:"SelfBillingIndicator"`
	CashVATSchemeIndicator       int `xml:"CashVATSchemeIndicator"`
	ThirdPartiesBillingIndicator int `xml:"ThirdPartiesBillingIndicator"`
}

type Line struct {
	LineNumber         int         `xml:"LineNumber"`
	ProductCode        string      `xml:"ProductCode"`
	ProductDescription string      `xml:"ProductDescription"`
	Quantity           string      `xml:"Quantity"`
	UnitOfMeasure      string      `xml:"UnitOfMeasure"`
	UnitPrice          string      `xml:"UnitPrice"`
	TaxPointDate       string      `xml:"TaxPointDate"`
	References         *References `xml:"References"`
	Description        string      `xml:"Description"`
	DebitAmount        *string     `xml:"DebitAmount"`
	CreditAmount       *string     `xml:"CreditAmount"`
	Tax                LineTax     `xml:"Tax"`
	TaxExemptionReason *string     `xml:"TaxExemptionReason"`
	TaxExemptionCode   *string     `xml:"TaxExemptionCode"`
	SettlementAmount   string      `xml:"SettlementAmount"`
}

type References struct {
	Reference string `xml:"Reference"`
	Reason    string `xml:"Reason"`
}

type LineTax struct {
	TaxType          string `xml:"TaxType"`
	TaxCountryRegion string `xml:"TaxCountryRegion"`
	TaxCode          string `xml:"TaxCode"`
	TaxPercentage    string `xml:"TaxPercentage"`
}

type DocumentTotals struct {
	TaxPayable string `xml:"TaxPayable"`
	NetTotal   string `xml:"NetTotal"`
	GrossTotal string `xml:"GrossTotal"`
}

type Payments struct {
	NumberOfEntries int       `xml:"NumberOfEntries"`
	TotalDebit      string    `xml:"TotalDebit"`
	TotalCredit     string    `xml:"TotalCredit"`
	Payments        []Payment `xml:"Payment"`
}

type Payment struct {
	PaymentRefNo    string         `xml:"PaymentRefNo"`
	ATCUD           string         `xml:"ATCUD"`
	Period          int            `xml:"Period"`
	TransactionDate string         `xml:"TransactionDate"`
	PaymentType     string         `xml:"PaymentType"`
	DocumentStatus  PaymentStatus  `xml:"DocumentStatus"`
	PaymentMethod   PaymentMethod  `xml:"PaymentMethod"`
	SourceID        string         `xml:"SourceID"`
	SystemEntryDate string         `xml:"SystemEntryDate"`
	CustomerID      string         `xml:"CustomerID"`
	Lines           []PaymentLine  `xml:"Line"`
	DocumentTotals  DocumentTotals `xml:"DocumentTotals"`
}

type PaymentStatus struct {
	PaymentStatus     string `xml:"PaymentStatus"`
	PaymentStatusDate string `xml:"PaymentStatusDate"`
	SourceID          string `xml:"SourceID"`
	SourcePayment     string `xml:"SourcePayment"`
}

type PaymentMethod struct {
	PaymentMechanism string `xml:"PaymentMechanism"`
	PaymentAmount    string `xml:"PaymentAmount"`
	PaymentDate      string `xml:"PaymentDate"`
}

type PaymentLine struct {
	LineNumber       int              `xml:"LineNumber"`
	SourceDocumentID SourceDocumentID `xml:"SourceDocumentID"`
	CreditAmount     string           `xml:"CreditAmount"`
}

type SourceDocumentID struct {
	OriginatingON string `xml:"OriginatingON"`
	InvoiceDate   string `xml:"InvoiceDate"`
}
