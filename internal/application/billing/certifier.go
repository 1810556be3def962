package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/scripttb/720CRM-sub000/internal/domain"
	"github.com/scripttb/720CRM-sub000/internal/domain/agt"
	"github.com/scripttb/720CRM-sub000/internal/domain/entity"
	pkgagt "github.com/scripttb/720CRM-sub000/pkg/agt"
	"github.com/scripttb/720CRM-sub000/pkg/logger"
)

// AGTConfig datos del software certificado usados al certificar documentos.
type AGTConfig struct {
	CertificateNumber    string // número de certificado del software (si la empresa no lo tiene configurado)
	SeriesValidationCode string // código de validación de la serie (prefijo del ATCUD)
	DefaultSeries        string
}

const certifyLockTTL = 2 * time.Minute

// Certifier genera la certificación AGT (hash encadenado, firma, ATCUD y QR) de un documento fiscal.
// Debe invocarse con los repos de la transacción que reservó el número del documento.
type Certifier struct {
	signer pkgagt.Signer
	guard  IdempotencyStore
	cfg    AGTConfig
	log    *logger.Logger
}

// NewCertifier construye el certificador. guard puede ser nil (sin protección entre instancias).
func NewCertifier(signer pkgagt.Signer, guard IdempotencyStore, cfg AGTConfig, log *logger.Logger) *Certifier {
	return &Certifier{signer: signer, guard: guard, cfg: cfg, log: log}
}

// CertifyInput documento a certificar. Header debe tener número, fecha y totales definitivos.
type CertifyInput struct {
	Header      *entity.DocumentHeader
	Cert        *entity.Certification
	Company     *entity.CompanyConfig
	CustomerNIF string
}

// Certify rellena in.Cert. Falla con ErrStateConflict si el documento ya estaba certificado.
func (c *Certifier) Certify(ctx context.Context, repos BillingRepos, in CertifyInput, now time.Time) error {
	h := in.Header
	if !h.DocumentType.IsFiscal() {
		return fmt.Errorf("%w: el tipo %s no se certifica", domain.ErrInvalidInput, h.DocumentType)
	}
	if !in.Cert.IsZero() {
		return fmt.Errorf("%w: el documento %s ya está certificado", domain.ErrStateConflict, h.ID)
	}
	if c.guard != nil {
		ok, err := c.guard.Acquire(ctx, "certify:"+h.ID, certifyLockTTL)
		if err != nil {
			return fmt.Errorf("certify: reservar documento: %w", err)
		}
		if !ok {
			return fmt.Errorf("%w: certificación en curso para %s", domain.ErrStateConflict, h.ID)
		}
	}

	certNumber := in.Company.CertificateNumber
	if certNumber == "" {
		certNumber = c.cfg.CertificateNumber
	}

	prev, err := repos.Sequences.LockLastHash(ctx, h.OwnerID, h.DocumentType, h.Series)
	if err != nil {
		return fmt.Errorf("certify: hash anterior: %w", err)
	}
	chain := agt.ChainInput{
		PreviousHash:      prev,
		DocumentNumber:    h.DocumentNumber,
		IssueDate:         h.IssueDate,
		Total:             h.TotalAmount,
		CertificateNumber: certNumber,
	}
	msg, err := agt.CanonicalMessage(chain)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	hash, err := agt.ComputeHashControl(chain)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	signature, err := c.signer.Sign([]byte(msg))
	if err != nil {
		return fmt.Errorf("certify: firmar: %w", err)
	}

	atcud := agt.FormatATCUD(c.cfg.SeriesValidationCode, h.Sequence)
	*in.Cert = entity.Certification{
		ATCUD:             atcud,
		HashControl:       hash,
		PreviousHash:      prev,
		DigitalSignature:  signature,
		KeyVersion:        c.signer.KeyVersion(),
		CertificationDate: now,
		CertificateNumber: certNumber,
		QRCodeData: agt.BuildQRData(agt.QRInput{
			IssuerNIF:      in.Company.NIF,
			CustomerNIF:    in.CustomerNIF,
			DocumentType:   string(h.DocumentType),
			DocumentNumber: h.DocumentNumber,
			IssueDate:      h.IssueDate,
			Total:          h.TotalAmount,
			TaxAmount:      h.TaxAmount,
			ATCUD:          atcud,
			HashControl:    hash,
		}),
	}

	if err := repos.Sequences.SaveLastHash(ctx, h.OwnerID, h.DocumentType, h.Series, hash, h.ID); err != nil {
		return fmt.Errorf("certify: guardar hash: %w", err)
	}
	c.log.Info().
		Str("document_id", h.ID).
		Str("number", h.DocumentNumber).
		Str("atcud", atcud).
		Msg("documento certificado")
	return nil
}

// allocateNumber reserva el siguiente número del tipo/serie/año de la fecha de emisión y lo asigna al header.
func allocateNumber(ctx context.Context, repos BillingRepos, h *entity.DocumentHeader) error {
	if err := agt.ValidateSeries(h.Series); err != nil {
		return err
	}
	year := h.IssueDate.Year()
	seq, err := repos.Sequences.Next(ctx, h.OwnerID, h.DocumentType, h.Series, year)
	if err != nil {
		return fmt.Errorf("numeración %s: %w", h.DocumentType, err)
	}
	h.Sequence = seq
	h.DocumentNumber = agt.FormatDocumentNumber(h.DocumentType, h.Series, year, seq)
	return nil
}
