package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scripttb/720CRM-sub000/internal/domain/entity"
	"github.com/scripttb/720CRM-sub000/internal/infrastructure/metrics"
)

func TestRegistry_DocumentIssued(t *testing.T) {
	r := metrics.NewRegistry()
	r.DocumentIssued(entity.DocumentTypeInvoice)
	r.DocumentIssued(entity.DocumentTypeInvoice)
	r.DocumentIssued(entity.DocumentTypeCreditNote)

	n, err := testutil.GatherAndCount(r.Gatherer(), "billing_documents_issued_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n, "una serie por tipo")
}

func TestRegistry_Handler(t *testing.T) {
	r := metrics.NewRegistry()
	r.SAFTExported(1500*time.Millisecond, 12)
	r.ObserveHTTP(http.MethodGet, "/billing/saft/export", 200, 20*time.Millisecond)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(body), "billing_saft_exports_total 1")
	assert.Contains(t, string(body), `billing_http_requests_total{method="GET",route="/billing/saft/export",status="200"} 1`)
}
