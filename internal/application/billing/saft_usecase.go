package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/scripttb/720CRM-sub000/internal/application/dto"
	"github.com/scripttb/720CRM-sub000/internal/domain"
	"github.com/scripttb/720CRM-sub000/internal/domain/agt"
	"github.com/scripttb/720CRM-sub000/internal/infrastructure/saft"
	"github.com/scripttb/720CRM-sub000/pkg/logger"
)

// Formatos de exportación.
const (
	FormatXML = "xml"
	FormatZIP = "zip"
)

// SAFTUseCase genera el fichero SAF-T (AO) de un periodo a partir de un snapshot consistente.
type SAFTUseCase struct {
	txRunner BillingTxRunner
	software saft.Software
	archive  ArchiveStore
	metrics  Metrics
	log      *logger.Logger
	now      func() time.Time
}

// NewSAFTUseCase construye el caso de uso. archive y metrics pueden ser nil.
func NewSAFTUseCase(txRunner BillingTxRunner, software saft.Software, archive ArchiveStore, metrics Metrics, log *logger.Logger) *SAFTUseCase {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &SAFTUseCase{txRunner: txRunner, software: software, archive: archive, metrics: metrics, log: log, now: time.Now}
}

// WithClock reemplaza el reloj (tests).
func (uc *SAFTUseCase) WithClock(now func() time.Time) *SAFTUseCase {
	uc.now = now
	return uc
}

// ParsePeriod valida "YYYY-MM-DD" de inicio y fin (ambos obligatorios, inicio <= fin).
func ParsePeriod(start, end string) (time.Time, time.Time, error) {
	if start == "" || end == "" {
		return time.Time{}, time.Time{}, &agt.ValidationError{Field: "start_date,end_date", Message: "ambas fechas son obligatorias"}
	}
	s, err := time.Parse(time.DateOnly, start)
	if err != nil {
		return time.Time{}, time.Time{}, &agt.ValidationError{Field: "start_date", Message: fmt.Sprintf("fecha %q inválida", start)}
	}
	e, err := time.Parse(time.DateOnly, end)
	if err != nil {
		return time.Time{}, time.Time{}, &agt.ValidationError{Field: "end_date", Message: fmt.Sprintf("fecha %q inválida", end)}
	}
	if e.Before(s) {
		return time.Time{}, time.Time{}, &agt.ValidationError{Field: "end_date", Message: "la fecha final es anterior a la inicial"}
	}
	return s, e, nil
}

// Export genera el SAF-T de [start, end] (inclusive). format: "xml" (por defecto) o "zip".
// El digest siempre se calcula sobre el XML canónico.
func (uc *SAFTUseCase) Export(ctx context.Context, ownerID string, start, end time.Time, format string) (*dto.SAFTExportResult, error) {
	if format == "" {
		format = FormatXML
	}
	if format != FormatXML && format != FormatZIP {
		return nil, &agt.ValidationError{Field: "format", Message: fmt.Sprintf("formato %q no admitido", format)}
	}
	if end.Before(start) {
		return nil, &agt.ValidationError{Field: "end_date", Message: "la fecha final es anterior a la inicial"}
	}
	began := uc.now()

	in := saft.Input{Software: uc.software, Start: start, End: end, Now: began}
	err := uc.txRunner.RunReadOnly(ctx, func(repos BillingRepos) error {
		var err error
		if in.Company, err = repos.Companies.Get(ctx, ownerID); err != nil {
			return fmt.Errorf("saft: configuración: %w", err)
		}
		if in.Company == nil {
			return domain.ErrConfigurationMissing
		}
		if in.Customers, err = repos.Customers.ListByOwner(ctx, ownerID); err != nil {
			return fmt.Errorf("saft: clientes: %w", err)
		}
		if in.Products, err = repos.Products.ListByOwner(ctx, ownerID); err != nil {
			return fmt.Errorf("saft: productos: %w", err)
		}
		if in.Invoices, err = repos.Invoices.ListByPeriod(ctx, ownerID, start, end); err != nil {
			return fmt.Errorf("saft: facturas: %w", err)
		}
		if in.CreditNotes, err = repos.CreditNotes.ListByPeriod(ctx, ownerID, start, end); err != nil {
			return fmt.Errorf("saft: notas de crédito: %w", err)
		}
		if in.Receipts, err = repos.Receipts.ListByPeriod(ctx, ownerID, start, end); err != nil {
			return fmt.Errorf("saft: recibos: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	file, err := saft.Build(in)
	if err != nil {
		return nil, err
	}
	data, err := saft.Marshal(file)
	if err != nil {
		uc.log.Error().Err(err).Str("owner_id", ownerID).Msg("saft: serialización inválida")
		return nil, err
	}
	digest, err := saft.CanonicalDigest(data)
	if err != nil {
		return nil, err
	}

	entries := file.SourceDocuments.SalesInvoices.NumberOfEntries + file.SourceDocuments.Payments.NumberOfEntries
	res := &dto.SAFTExportResult{FileName: saft.FileName(start, end), Content: data, Digest: digest, Entries: entries}
	if format == FormatZIP {
		zipped, err := saft.Zip(res.FileName, data)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrSerialization, err)
		}
		res.FileName = res.FileName[:len(res.FileName)-len(".xml")] + ".zip"
		res.Content = zipped
	}

	uc.archiveCopy(ctx, ownerID, saft.FileName(start, end), data)
	uc.metrics.SAFTExported(uc.now().Sub(began), entries)
	uc.log.Info().
		Str("owner_id", ownerID).
		Str("file", res.FileName).
		Int("entries", entries).
		Str("digest", digest).
		Msg("saft exportado")
	return res, nil
}

// archiveCopy guarda el XML en el almacén configurado. Un fallo no invalida la exportación.
func (uc *SAFTUseCase) archiveCopy(ctx context.Context, ownerID, fileName string, data []byte) {
	if uc.archive == nil {
		return
	}
	key := fmt.Sprintf("saft/%s/%s_%s", ownerID, uc.now().UTC().Format("20060102T150405Z"), fileName)
	if err := uc.archive.Put(ctx, key, data, "application/xml"); err != nil {
		uc.log.Warn().Err(err).Str("key", key).Msg("saft: no se pudo archivar la exportación")
	}
}
