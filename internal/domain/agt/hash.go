package agt

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ChainInput datos que entran en la cadena canónica de un documento certificado.
type ChainInput struct {
	PreviousHash      string // vacío para el primer documento de la serie
	DocumentNumber    string
	IssueDate         time.Time
	Total             decimal.Decimal
	CertificateNumber string
}

// CanonicalMessage cadena firmada y resumida, en orden estricto:
// hashAnterior;número;fecha(YYYY-MM-DD);total(2 decimales);certificado
func CanonicalMessage(in ChainInput) (string, error) {
	if strings.TrimSpace(in.DocumentNumber) == "" {
		return "", fmt.Errorf("agt: número de documento obligatorio para el hash")
	}
	if in.IssueDate.IsZero() {
		return "", fmt.Errorf("agt: fecha de emisión obligatoria para el hash")
	}
	return strings.Join([]string{
		in.PreviousHash,
		in.DocumentNumber,
		in.IssueDate.Format(time.DateOnly),
		FormatAmount(in.Total),
		in.CertificateNumber,
	}, ";"), nil
}

// ComputeHashControl SHA-256 hexadecimal de la cadena canónica.
func ComputeHashControl(in ChainInput) (string, error) {
	msg, err := CanonicalMessage(in)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256([]byte(msg))
	return hex.EncodeToString(sum[:]), nil
}

// ShortHash primeros 4 caracteres del hash (se imprimen en el documento y en la QR).
func ShortHash(hash string) string {
	if len(hash) < 4 {
		return hash
	}
	return hash[:4]
}
