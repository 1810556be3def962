package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/scripttb/720CRM-sub000/internal/domain"
	"github.com/scripttb/720CRM-sub000/internal/domain/entity"
	"github.com/scripttb/720CRM-sub000/pkg/logger"
)

// DocumentUseCase casos de uso del ciclo de vida de documentos:
// proformas, facturas, notas de crédito y recibos.
type DocumentUseCase struct {
	txRunner      BillingTxRunner
	certifier     *Certifier
	metrics       Metrics
	defaultSeries string
	log           *logger.Logger
	now           func() time.Time
}

// NewDocumentUseCase construye el caso de uso. metrics puede ser nil.
func NewDocumentUseCase(txRunner BillingTxRunner, certifier *Certifier, metrics Metrics, defaultSeries string, log *logger.Logger) *DocumentUseCase {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &DocumentUseCase{
		txRunner:      txRunner,
		certifier:     certifier,
		metrics:       metrics,
		defaultSeries: defaultSeries,
		log:           log,
		now:           time.Now,
	}
}

// WithClock reemplaza el reloj (tests).
func (uc *DocumentUseCase) WithClock(now func() time.Time) *DocumentUseCase {
	uc.now = now
	return uc
}

func (uc *DocumentUseCase) series(s string) string {
	if s == "" {
		return uc.defaultSeries
	}
	return s
}

// loadParties emisor (configuración fiscal) y cliente del documento.
func loadParties(ctx context.Context, repos BillingRepos, ownerID, customerID string) (*entity.CompanyConfig, *entity.Customer, error) {
	company, err := repos.Companies.Get(ctx, ownerID)
	if err != nil {
		return nil, nil, fmt.Errorf("obtener configuración fiscal: %w", err)
	}
	if company == nil {
		return nil, nil, domain.ErrConfigurationMissing
	}
	customer, err := loadCustomer(ctx, repos, ownerID, customerID)
	if err != nil {
		return nil, nil, err
	}
	return company, customer, nil
}

func loadCustomer(ctx context.Context, repos BillingRepos, ownerID, customerID string) (*entity.Customer, error) {
	customer, err := repos.Customers.GetByID(ctx, ownerID, customerID)
	if err != nil {
		return nil, fmt.Errorf("obtener cliente: %w", err)
	}
	if customer == nil {
		return nil, notFound("cliente", customerID)
	}
	return customer, nil
}
