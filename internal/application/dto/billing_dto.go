package dto

import (
	"github.com/shopspring/decimal"
)

// LineItemRequest línea de un documento. tax_rate es obligatorio (14 o 0);
// con 0 se exige tax_exemption_code (M00, M02, M11, M12).
type LineItemRequest struct {
	Description        string           `json:"description" validate:"required,max=500"`
	ProductID          string           `json:"product_id,omitempty" validate:"omitempty,uuid"`
	Quantity           decimal.Decimal  `json:"quantity"`
	UnitPrice          decimal.Decimal  `json:"unit_price"`
	DiscountPercentage decimal.Decimal  `json:"discount_percentage"`
	TaxRate            *decimal.Decimal `json:"tax_rate"`
	TaxExemptionCode   string           `json:"tax_exemption_code,omitempty" validate:"omitempty,oneof=M00 M02 M11 M12"`
}

// LineItemResponse línea con importes calculados.
type LineItemResponse struct {
	Description        string           `json:"description"`
	ProductID          string           `json:"product_id,omitempty"`
	Quantity           decimal.Decimal  `json:"quantity"`
	UnitPrice          decimal.Decimal  `json:"unit_price"`
	DiscountPercentage decimal.Decimal  `json:"discount_percentage"`
	TaxRate            *decimal.Decimal `json:"tax_rate"`
	TaxExemptionCode   string           `json:"tax_exemption_code,omitempty"`
	Subtotal           decimal.Decimal  `json:"subtotal"`
	Discount           decimal.Decimal  `json:"discount"`
	Net                decimal.Decimal  `json:"net"`
	Tax                decimal.Decimal  `json:"tax"`
}

// DocumentHeaderResponse campos comunes de cualquier documento.
type DocumentHeaderResponse struct {
	ID             string          `json:"id"`
	DocumentType   string          `json:"document_type"`
	DocumentNumber string          `json:"document_number"`
	Series         string          `json:"series,omitempty"`
	IssueDate      string          `json:"issue_date"`
	Currency       string          `json:"currency"`
	CustomerID     string          `json:"customer_id"`
	ContactID      string          `json:"contact_id,omitempty"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	Notes          string          `json:"notes,omitempty"`
}

// CertificationResponse datos de certificación AGT.
type CertificationResponse struct {
	ATCUD             string `json:"atcud"`
	HashControl       string `json:"hash_control"`
	PreviousHash      string `json:"previous_hash,omitempty"`
	DigitalSignature  string `json:"digital_signature"`
	QRCodeData        string `json:"qr_code_data"`
	CertificationDate string `json:"certification_date"`
	CertificateNumber string `json:"certificate_number"`
}

// CreateProformaRequest body para POST /billing/proformas.
type CreateProformaRequest struct {
	CustomerID      string            `json:"customer_id" validate:"required"`
	ContactID       string            `json:"contact_id,omitempty"`
	Series          string            `json:"series,omitempty" validate:"omitempty,alpha,uppercase,max=10"`
	Currency        string            `json:"currency,omitempty" validate:"omitempty,len=3"`
	ValidUntil      string            `json:"valid_until,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Notes           string            `json:"notes,omitempty"`
	TermsConditions string            `json:"terms_conditions,omitempty"`
	Items           []LineItemRequest `json:"items" validate:"required,min=1,dive"`
}

// ProformaResponse proforma con líneas.
type ProformaResponse struct {
	DocumentHeaderResponse
	Status               string             `json:"status"`
	ValidUntil           string             `json:"valid_until,omitempty"`
	TermsConditions      string             `json:"terms_conditions,omitempty"`
	ConvertedToInvoiceID string             `json:"converted_to_invoice_id,omitempty"`
	Items                []LineItemResponse `json:"items"`
}

// CreateInvoiceRequest body para POST /billing/invoices (factura directa, sin proforma).
type CreateInvoiceRequest struct {
	CustomerID      string            `json:"customer_id" validate:"required"`
	ContactID       string            `json:"contact_id,omitempty"`
	Series          string            `json:"series,omitempty" validate:"omitempty,alpha,uppercase,max=10"`
	Currency        string            `json:"currency,omitempty" validate:"omitempty,len=3"`
	DueDate         string            `json:"due_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Notes           string            `json:"notes,omitempty"`
	TermsConditions string            `json:"terms_conditions,omitempty"`
	Items           []LineItemRequest `json:"items" validate:"required,min=1,dive"`
}

// ConvertProformaRequest body opcional para POST /billing/proformas/:id/convert.
type ConvertProformaRequest struct {
	Series  string `json:"series,omitempty" validate:"omitempty,alpha,uppercase,max=10"`
	DueDate string `json:"due_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// InvoiceResponse factura certificada con líneas.
type InvoiceResponse struct {
	DocumentHeaderResponse
	Certification   CertificationResponse `json:"certification"`
	Status          string                `json:"status"` // issued, paid, overdue, cancelled
	PaymentStatus   string                `json:"payment_status"`
	PaidAmount      decimal.Decimal       `json:"paid_amount"`
	Balance         decimal.Decimal       `json:"balance"`
	DueDate         string                `json:"due_date,omitempty"`
	ProformaID      string                `json:"proforma_id,omitempty"`
	TermsConditions string                `json:"terms_conditions,omitempty"`
	CancelReason    string                `json:"cancel_reason,omitempty"`
	Items           []LineItemResponse    `json:"items"`
}

// InvoiceListResponse página de facturas (sin líneas) para GET /billing/invoices.
type InvoiceListResponse struct {
	Items []InvoiceResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}

// CancelInvoiceRequest body para POST /billing/invoices/:id/cancel.
type CancelInvoiceRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// CreateCreditNoteRequest body para POST /billing/credit-notes.
type CreateCreditNoteRequest struct {
	OriginalInvoiceID string            `json:"original_invoice_id" validate:"required"`
	Reason            string            `json:"reason" validate:"required,max=500"`
	Series            string            `json:"series,omitempty" validate:"omitempty,alpha,uppercase,max=10"`
	Notes             string            `json:"notes,omitempty"`
	Items             []LineItemRequest `json:"items" validate:"required,min=1,dive"`
}

// CreditNoteResponse nota de crédito certificada.
type CreditNoteResponse struct {
	DocumentHeaderResponse
	Certification         CertificationResponse `json:"certification"`
	Status                string                `json:"status"`
	OriginalInvoiceID     string                `json:"original_invoice_id"`
	OriginalInvoiceNumber string                `json:"original_invoice_number"`
	Reason                string                `json:"reason"`
	Items                 []LineItemResponse    `json:"items"`
}

// PaymentAllocationRequest importe aplicado a una factura.
type PaymentAllocationRequest struct {
	InvoiceID  string          `json:"invoice_id" validate:"required"`
	PaidAmount decimal.Decimal `json:"paid_amount"`
}

// CreatePaymentReceiptRequest body para POST /billing/payment-receipts.
type CreatePaymentReceiptRequest struct {
	CustomerID    string                     `json:"customer_id" validate:"required"`
	PaymentMethod string                     `json:"payment_method" validate:"required,oneof=NU TB CD CC OU"`
	Series        string                     `json:"series,omitempty" validate:"omitempty,alpha,uppercase,max=10"`
	Notes         string                     `json:"notes,omitempty"`
	Allocations   []PaymentAllocationRequest `json:"allocations" validate:"required,min=1,dive"`
}

// PaymentAllocationResponse asignación en la respuesta.
type PaymentAllocationResponse struct {
	InvoiceID     string          `json:"invoice_id"`
	InvoiceNumber string          `json:"invoice_number"`
	PaidAmount    decimal.Decimal `json:"paid_amount"`
}

// PaymentReceiptResponse recibo certificado.
type PaymentReceiptResponse struct {
	DocumentHeaderResponse
	Certification CertificationResponse       `json:"certification"`
	Status        string                      `json:"status"`
	PaymentMethod string                      `json:"payment_method"`
	Allocations   []PaymentAllocationResponse `json:"allocations"`
}

// CompanyConfigRequest body para PUT /billing/config.
type CompanyConfigRequest struct {
	NIF                      string `json:"nif" validate:"required"`
	Name                     string `json:"name" validate:"required,max=200"`
	BusinessName             string `json:"business_name,omitempty"`
	BuildingNumber           string `json:"building_number,omitempty"`
	StreetName               string `json:"street_name,omitempty"`
	AddressDetail            string `json:"address_detail" validate:"required"`
	City                     string `json:"city" validate:"required"`
	PostalCode               string `json:"postal_code,omitempty"`
	Province                 string `json:"province,omitempty"`
	Country                  string `json:"country,omitempty" validate:"omitempty,len=2"`
	TaxEntity                string `json:"tax_entity,omitempty"`
	CertificateNumber        string `json:"certificate_number,omitempty"`
	SoftwareValidationNumber string `json:"software_validation_number,omitempty"`
	ProductID                string `json:"product_id,omitempty"`
	ProductVersion           string `json:"product_version,omitempty"`
	Telephone                string `json:"telephone,omitempty"`
	Fax                      string `json:"fax,omitempty"`
	Email                    string `json:"email,omitempty" validate:"omitempty,email"`
	Website                  string `json:"website,omitempty"`
}

// CompanyConfigResponse configuración fiscal guardada.
type CompanyConfigResponse struct {
	CompanyConfigRequest
	UpdatedAt string `json:"updated_at"`
}

// CreateCustomerRequest body para POST /billing/customers.
type CreateCustomerRequest struct {
	Name       string `json:"name" validate:"required,max=200"`
	NIF        string `json:"nif,omitempty"`
	Address    string `json:"address,omitempty"`
	City       string `json:"city,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Province   string `json:"province,omitempty"`
	Country    string `json:"country,omitempty" validate:"omitempty,len=2"`
	Phone      string `json:"phone,omitempty"`
	Email      string `json:"email,omitempty" validate:"omitempty,email"`
	Website    string `json:"website,omitempty"`
}

// CustomerResponse cliente en respuestas.
type CustomerResponse struct {
	ID string `json:"id"`
	CreateCustomerRequest
}

// CreateProductRequest body para POST /billing/products.
type CreateProductRequest struct {
	Name      string `json:"name" validate:"required,max=200"`
	SKU       string `json:"sku" validate:"required,max=60"`
	IsService bool   `json:"is_service"`
}

// ProductResponse producto en respuestas.
type ProductResponse struct {
	ID string `json:"id"`
	CreateProductRequest
}
