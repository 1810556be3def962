package agt

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/scripttb/720CRM-sub000/internal/domain"
	"github.com/scripttb/720CRM-sub000/internal/domain/entity"
)

// numberPattern "<TIPO> <serie?><año>/<secuencia>". La serie es alfanumérica y no termina en dígito
// adyacente al año (ej. "FT A2026/000001").
var numberPattern = regexp.MustCompile(`^(PF|FT|NC|RG) ([A-Z]*)(\d{4})/(\d{6,})$`)

var seriesPattern = regexp.MustCompile(`^[A-Z]*$`)

// FormatDocumentNumber construye el número de documento: "FT 2026/000001" o "FT A2026/000001".
func FormatDocumentNumber(docType entity.DocumentType, series string, year int, seq int64) string {
	return fmt.Sprintf("%s %s%04d/%06d", docType, series, year, seq)
}

// ValidateSeries la serie es opcional y sólo admite letras mayúsculas.
func ValidateSeries(series string) error {
	if !seriesPattern.MatchString(series) {
		return fmt.Errorf("%w: serie %q inválida (sólo letras mayúsculas)", domain.ErrInvalidInput, series)
	}
	return nil
}

// ParsedNumber componentes de un número de documento.
type ParsedNumber struct {
	DocumentType entity.DocumentType
	Series       string
	Year         int
	Sequence     int64
}

// ParseDocumentNumber descompone un número generado por FormatDocumentNumber.
func ParseDocumentNumber(number string) (ParsedNumber, error) {
	m := numberPattern.FindStringSubmatch(number)
	if m == nil {
		return ParsedNumber{}, fmt.Errorf("%w: número de documento %q", domain.ErrInvalidInput, number)
	}
	year, _ := strconv.Atoi(m[3])
	seq, err := strconv.ParseInt(m[4], 10, 64)
	if err != nil {
		return ParsedNumber{}, fmt.Errorf("%w: secuencia de %q", domain.ErrInvalidInput, number)
	}
	return ParsedNumber{
		DocumentType: entity.DocumentType(m[1]),
		Series:       m[2],
		Year:         year,
		Sequence:     seq,
	}, nil
}

// FormatATCUD código único de documento: "<código de validación de la serie>-<secuencia>".
func FormatATCUD(seriesValidationCode string, seq int64) string {
	if seriesValidationCode == "" {
		seriesValidationCode = "0"
	}
	return fmt.Sprintf("%s-%d", seriesValidationCode, seq)
}
