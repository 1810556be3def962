package entity

import "time"

// CompanyConfig datos fiscales del emisor (uno por propietario). Alimenta la cabecera SAF-T,
// la QR y el PDF.
type CompanyConfig struct {
	OwnerID                  string
	NIF                      string
	Name                     string
	BusinessName             string
	BuildingNumber           string
	StreetName               string
	AddressDetail            string
	City                     string
	PostalCode               string
	Province                 string
	Country                  string
	TaxEntity                string // "Global" o identificador de establecimiento
	CertificateNumber        string // número de certificado del software emitido por la AGT
	SoftwareValidationNumber string
	ProductID                string // "Producto/Empresa"
	ProductVersion           string
	TaxAccountingBasis       string
	Telephone                string
	Fax                      string
	Email                    string
	Website                  string
	CreatedAt                time.Time
	UpdatedAt                time.Time
}
