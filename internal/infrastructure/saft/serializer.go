package saft

import (
	"archive/zip"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/xml"
	"fmt"
	"regexp"
	"time"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
	"github.com/ucarion/c14n"

	"github.com/scripttb/720CRM-sub000/internal/domain"
	pkgagt "github.com/scripttb/720CRM-sub000/pkg/agt"
)

var amountPattern = regexp.MustCompile(`^-?\d+\.\d{2}$`)

// Marshal serializa el AuditFile con declaración UTF-8 y lo valida antes de devolverlo.
// Cualquier fallo devuelve ErrSerialization y ningún byte parcial.
func Marshal(f *AuditFile) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(f); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSerialization, err)
	}
	if err := enc.Flush(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSerialization, err)
	}
	buf.WriteByte('\n')
	data := buf.Bytes()
	if err := Validate(data); err != nil {
		return nil, err
	}
	return data, nil
}

// Validate vuelve a parsear el XML y comprueba la estructura y los totales de control.
func Validate(data []byte) error {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return fmt.Errorf("%w: XML mal formado: %v", domain.ErrSerialization, err)
	}
	root := doc.Root()
	if root == nil || root.Tag != "AuditFile" {
		return fmt.Errorf("%w: falta el elemento raíz AuditFile", domain.ErrSerialization)
	}
	if ns := root.SelectAttrValue("xmlns", ""); ns != pkgagt.SAFTNamespace {
		return fmt.Errorf("%w: namespace %q inesperado", domain.ErrSerialization, ns)
	}
	for _, path := range []string{"Header", "MasterFiles", "MasterFiles/TaxTable", "SourceDocuments/SalesInvoices", "SourceDocuments/Payments"} {
		if root.FindElement(path) == nil {
			return fmt.Errorf("%w: falta %s", domain.ErrSerialization, path)
		}
	}

	sales := root.FindElement("SourceDocuments/SalesInvoices")
	invoices := sales.SelectElements("Invoice")
	if err := checkCount(sales, len(invoices)); err != nil {
		return err
	}
	debit, credit := decimal.Zero, decimal.Zero
	for _, inv := range invoices {
		gross, err := amount(inv, "DocumentTotals/GrossTotal")
		if err != nil {
			return err
		}
		net, err := amount(inv, "DocumentTotals/NetTotal")
		if err != nil {
			return err
		}
		tax, err := amount(inv, "DocumentTotals/TaxPayable")
		if err != nil {
			return err
		}
		if !net.Add(tax).Equal(gross) {
			return fmt.Errorf("%w: %s NetTotal+TaxPayable=%s, GrossTotal=%s",
				domain.ErrSerialization, childText(inv, "InvoiceNo"), net.Add(tax).StringFixed(2), gross.StringFixed(2))
		}
		if childText(inv, "DocumentStatus/InvoiceStatus") == pkgagt.SAFTStatusCancelled {
			continue
		}
		switch childText(inv, "InvoiceType") {
		case pkgagt.DocTypeInvoice:
			debit = debit.Add(gross)
		case pkgagt.DocTypeCreditNote:
			credit = credit.Add(gross)
		}
	}
	if err := checkTotal(sales, "TotalDebit", debit); err != nil {
		return err
	}
	if err := checkTotal(sales, "TotalCredit", credit); err != nil {
		return err
	}

	payments := root.FindElement("SourceDocuments/Payments")
	list := payments.SelectElements("Payment")
	if err := checkCount(payments, len(list)); err != nil {
		return err
	}
	paid := decimal.Zero
	for _, p := range list {
		v, err := amount(p, "PaymentMethod/PaymentAmount")
		if err != nil {
			return err
		}
		paid = paid.Add(v)
	}
	return checkTotal(payments, "TotalCredit", paid)
}

func childText(e *etree.Element, path string) string {
	if c := e.FindElement(path); c != nil {
		return c.Text()
	}
	return ""
}

func amount(e *etree.Element, path string) (decimal.Decimal, error) {
	s := childText(e, path)
	if !amountPattern.MatchString(s) {
		return decimal.Zero, fmt.Errorf("%w: importe %s=%q sin 2 decimales", domain.ErrSerialization, path, s)
	}
	return decimal.RequireFromString(s), nil
}

func checkCount(section *etree.Element, n int) error {
	want := fmt.Sprintf("%d", n)
	if got := childText(section, "NumberOfEntries"); got != want {
		return fmt.Errorf("%w: %s NumberOfEntries=%s, documentos=%s", domain.ErrSerialization, section.Tag, got, want)
	}
	return nil
}

func checkTotal(section *etree.Element, field string, want decimal.Decimal) error {
	got, err := amount(section, field)
	if err != nil {
		return err
	}
	if !got.Equal(want.Round(2)) {
		return fmt.Errorf("%w: %s/%s=%s, suma de documentos=%s", domain.ErrSerialization, section.Tag, field, got, want.StringFixed(2))
	}
	return nil
}

// CanonicalDigest SHA-256 hexadecimal del XML canónico (C14N): no depende del orden de atributos
// ni de la forma de las etiquetas vacías.
func CanonicalDigest(data []byte) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(dropDeclaration(data)))
	dec.Entity = map[string]string{}
	canon, err := c14n.Canonicalize(dec)
	if err != nil {
		return "", fmt.Errorf("%w: canonicalizar: %v", domain.ErrSerialization, err)
	}
	sum := sha256.Sum256(canon)
	return hex.EncodeToString(sum[:]), nil
}

func dropDeclaration(data []byte) []byte {
	if bytes.HasPrefix(data, []byte("<?xml")) {
		if i := bytes.Index(data, []byte("?>")); i >= 0 {
			return bytes.TrimLeft(data[i+2:], "\r\n")
		}
	}
	return data
}

// FileName "SAFT_AO_<inicio>_<fin>.xml".
func FileName(start, end time.Time) string {
	return fmt.Sprintf("SAFT_AO_%s_%s.xml", day(start), day(end))
}

// Zip empaqueta el XML en un ZIP con una única entrada.
func Zip(xmlName string, data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	fw, err := zw.Create(xmlName)
	if err != nil {
		return nil, fmt.Errorf("zip: crear entrada %s: %w", xmlName, err)
	}
	if _, err := fw.Write(data); err != nil {
		return nil, fmt.Errorf("zip: escribir XML: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("zip: cerrar archivo: %w", err)
	}
	return buf.Bytes(), nil
}
