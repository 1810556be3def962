package entity

import "time"

// Certification datos de certificación AGT de un documento fiscal.
// Se asigna una única vez, en la misma transacción que el número del documento.
type Certification struct {
	ATCUD             string
	HashControl       string // SHA-256 hex de la cadena canónica, encadenado con el documento anterior
	PreviousHash      string
	DigitalSignature  string // firma Base64 de la cadena canónica
	KeyVersion        string
	QRCodeData        string
	CertificationDate time.Time
	CertificateNumber string
}

// IsZero indica que el documento no ha sido certificado.
func (c *Certification) IsZero() bool {
	return c == nil || c.HashControl == ""
}
