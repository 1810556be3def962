package agt

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// NIF de persona colectiva: 10 dígitos. Persona singular: número de BI (9 dígitos + 2 letras + 3 dígitos).
var (
	companyNIFPattern    = regexp.MustCompile(`^\d{10}$`)
	individualNIFPattern = regexp.MustCompile(`^\d{9}[A-Z]{2}\d{3}$`)
)

// NormalizeNIF elimina espacios, puntos y guiones y pasa a mayúsculas.
// "541 7 00-2311" → "5417002311".
func NormalizeNIF(nif string) string {
	var b strings.Builder
	for _, r := range nif {
		if unicode.IsDigit(r) || unicode.IsLetter(r) {
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	return b.String()
}

// ValidateNIF valida el formato del NIF angoleño. Acepta el NIF genérico de consumidor final.
func ValidateNIF(nif string) error {
	n := NormalizeNIF(nif)
	if n == "" {
		return fmt.Errorf("agt: NIF vacío")
	}
	if n == ConsumerFinalNIF || companyNIFPattern.MatchString(n) || individualNIFPattern.MatchString(n) {
		return nil
	}
	return fmt.Errorf("agt: NIF %q con formato inválido", nif)
}

// CustomerTaxID devuelve el NIF normalizado o el genérico de consumidor final si está vacío.
func CustomerTaxID(nif string) string {
	n := NormalizeNIF(nif)
	if n == "" {
		return ConsumerFinalNIF
	}
	return n
}
