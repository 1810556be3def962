package billing_test

import (
	"context"
	"encoding/base64"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scripttb/720CRM-sub000/internal/application/billing"
	"github.com/scripttb/720CRM-sub000/internal/application/dto"
	"github.com/scripttb/720CRM-sub000/internal/domain"
	"github.com/scripttb/720CRM-sub000/internal/domain/agt"
	"github.com/scripttb/720CRM-sub000/internal/domain/entity"
	"github.com/scripttb/720CRM-sub000/pkg/logger"
)

const testOwner = "owner-1"

type stubSigner struct{}

func (stubSigner) Sign(msg []byte) (string, error) {
	return base64.StdEncoding.EncodeToString(msg), nil
}

func (stubSigner) KeyVersion() string { return "test-1" }

type countingMetrics struct {
	issued map[entity.DocumentType]int
	saft   int
}

func (m *countingMetrics) DocumentIssued(t entity.DocumentType) {
	if m.issued == nil {
		m.issued = map[entity.DocumentType]int{}
	}
	m.issued[t]++
}

func (m *countingMetrics) SAFTExported(time.Duration, int) { m.saft++ }

type fixture struct {
	store    *memStore
	docs     *billing.DocumentUseCase
	master   *billing.MasterDataUseCase
	metrics  *countingMetrics
	customer string
	ctx      context.Context
}

var testNow = time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := newMemStore()
	metrics := &countingMetrics{}
	certifier := billing.NewCertifier(stubSigner{}, &memGuard{}, billing.AGTConfig{
		CertificateNumber:    "31.1/AGT20",
		SeriesValidationCode: "AAJFJMVNTN",
	}, logger.Nop())
	f := &fixture{
		store:   store,
		docs:    billing.NewDocumentUseCase(store, certifier, metrics, "", logger.Nop()).WithClock(func() time.Time { return testNow }),
		master:  billing.NewMasterDataUseCase(store),
		metrics: metrics,
		ctx:     context.Background(),
	}
	c, err := f.master.CreateCustomer(f.ctx, testOwner, dto.CreateCustomerRequest{Name: "Cliente Lda"})
	require.NoError(t, err)
	f.customer = c.ID
	return f
}

func (f *fixture) configure(t *testing.T) {
	t.Helper()
	_, err := f.master.SaveCompanyConfig(f.ctx, testOwner, dto.CompanyConfigRequest{
		NIF:           "5417002311",
		Name:          "Empresa Teste",
		AddressDetail: "Rua 1",
		City:          "Luanda",
	})
	require.NoError(t, err)
}

func rate(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func standardItem() dto.LineItemRequest {
	return dto.LineItemRequest{
		Description:        "Consultoria",
		Quantity:           decimal.NewFromInt(2),
		UnitPrice:          decimal.NewFromInt(1000),
		DiscountPercentage: decimal.NewFromInt(10),
		TaxRate:            rate(14),
	}
}

func exemptItem(amount int64) dto.LineItemRequest {
	return dto.LineItemRequest{
		Description:      "Servico isento",
		Quantity:         decimal.NewFromInt(1),
		UnitPrice:        decimal.NewFromInt(amount),
		TaxRate:          rate(0),
		TaxExemptionCode: "M00",
	}
}

func (f *fixture) issueInvoice(t *testing.T, items ...dto.LineItemRequest) *dto.InvoiceResponse {
	t.Helper()
	inv, err := f.docs.CreateInvoice(f.ctx, testOwner, dto.CreateInvoiceRequest{CustomerID: f.customer, Items: items})
	require.NoError(t, err)
	return inv
}

func TestCreateProforma_NotCertified(t *testing.T) {
	f := newFixture(t)

	p, err := f.docs.CreateProforma(f.ctx, testOwner, dto.CreateProformaRequest{
		CustomerID: f.customer,
		ValidUntil: "2026-04-15",
		Items:      []dto.LineItemRequest{standardItem()},
	})
	require.NoError(t, err)

	assert.Equal(t, "draft", p.Status)
	assert.Equal(t, "PF 2026/000001", p.DocumentNumber)
	assert.Equal(t, "2052.00", p.TotalAmount.StringFixed(2))
	assert.Equal(t, "2026-04-15", p.ValidUntil)
	assert.Zero(t, f.metrics.issued[entity.DocumentTypeProforma])
}

func TestCreateProforma_UnknownCustomer(t *testing.T) {
	f := newFixture(t)

	_, err := f.docs.CreateProforma(f.ctx, testOwner, dto.CreateProformaRequest{
		CustomerID: "missing",
		Items:      []dto.LineItemRequest{standardItem()},
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreateProforma_InvalidLines(t *testing.T) {
	f := newFixture(t)

	item := standardItem()
	item.Quantity = decimal.NewFromInt(-1)
	_, err := f.docs.CreateProforma(f.ctx, testOwner, dto.CreateProformaRequest{
		CustomerID: f.customer,
		Items:      []dto.LineItemRequest{item},
	})
	var verr *agt.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "items[0].quantity", verr.Field)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestProformaLifecycle_ConvertOnce(t *testing.T) {
	f := newFixture(t)
	f.configure(t)

	p, err := f.docs.CreateProforma(f.ctx, testOwner, dto.CreateProformaRequest{
		CustomerID: f.customer,
		Items:      []dto.LineItemRequest{standardItem(), exemptItem(500)},
	})
	require.NoError(t, err)

	_, err = f.docs.ConvertProforma(f.ctx, testOwner, p.ID, dto.ConvertProformaRequest{})
	assert.ErrorIs(t, err, domain.ErrStateConflict, "sólo se convierten proformas aceptadas")

	sent, err := f.docs.TransitionProforma(f.ctx, testOwner, p.ID, agt.ProformaActionSend)
	require.NoError(t, err)
	assert.Equal(t, "sent", sent.Status)
	accepted, err := f.docs.TransitionProforma(f.ctx, testOwner, p.ID, agt.ProformaActionAccept)
	require.NoError(t, err)
	assert.Equal(t, "accepted", accepted.Status)

	inv, err := f.docs.ConvertProforma(f.ctx, testOwner, p.ID, dto.ConvertProformaRequest{DueDate: "2026-04-14"})
	require.NoError(t, err)
	assert.Equal(t, "FT 2026/000001", inv.DocumentNumber)
	assert.Equal(t, p.ID, inv.ProformaID)
	assert.True(t, inv.TotalAmount.Equal(p.TotalAmount))
	assert.Len(t, inv.Items, 2)
	assert.Equal(t, "issued", inv.Status)
	assert.Equal(t, "pending", inv.PaymentStatus)
	assert.NotEmpty(t, inv.Certification.HashControl)
	assert.Equal(t, "AAJFJMVNTN-1", inv.Certification.ATCUD)

	converted, err := f.docs.GetProforma(f.ctx, testOwner, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "converted", converted.Status)
	assert.Equal(t, inv.ID, converted.ConvertedToInvoiceID)

	_, err = f.docs.ConvertProforma(f.ctx, testOwner, p.ID, dto.ConvertProformaRequest{})
	assert.ErrorIs(t, err, domain.ErrStateConflict)
	assert.Len(t, f.store.snapshot().invoices, 1, "la segunda conversión no crea factura")
}

func TestProformaTransition_Terminal(t *testing.T) {
	f := newFixture(t)

	p, err := f.docs.CreateProforma(f.ctx, testOwner, dto.CreateProformaRequest{
		CustomerID: f.customer,
		Items:      []dto.LineItemRequest{standardItem()},
	})
	require.NoError(t, err)

	_, err = f.docs.TransitionProforma(f.ctx, testOwner, p.ID, agt.ProformaActionReject)
	require.NoError(t, err)
	_, err = f.docs.TransitionProforma(f.ctx, testOwner, p.ID, agt.ProformaActionAccept)
	assert.ErrorIs(t, err, domain.ErrStateConflict)
	_, err = f.docs.TransitionProforma(f.ctx, testOwner, p.ID, agt.ProformaActionConvert)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCreateInvoice_CertifiedAndChained(t *testing.T) {
	f := newFixture(t)
	f.configure(t)

	first := f.issueInvoice(t, standardItem())
	second := f.issueInvoice(t, exemptItem(1000))

	assert.Equal(t, "1800.00", first.Subtotal.StringFixed(2))
	assert.Equal(t, "252.00", first.TaxAmount.StringFixed(2))
	assert.Equal(t, "2052.00", first.TotalAmount.StringFixed(2))
	assert.Equal(t, "FT 2026/000001", first.DocumentNumber)
	assert.Equal(t, "FT 2026/000002", second.DocumentNumber)

	assert.Empty(t, first.Certification.PreviousHash)
	assert.Equal(t, first.Certification.HashControl, second.Certification.PreviousHash)
	assert.Equal(t, "31.1/AGT20", first.Certification.CertificateNumber)
	assert.Equal(t,
		"5417002311|999999999|FT|FT 2026/000001|2026-03-15|2052.00|252.00|AAJFJMVNTN-1|"+first.Certification.HashControl[:4],
		first.Certification.QRCodeData)

	sig, err := base64.StdEncoding.DecodeString(first.Certification.DigitalSignature)
	require.NoError(t, err)
	assert.Equal(t, ";FT 2026/000001;2026-03-15;2052.00;31.1/AGT20", string(sig))
	assert.Equal(t, 2, f.metrics.issued[entity.DocumentTypeInvoice])
}

func TestCreateInvoice_MissingConfiguration(t *testing.T) {
	f := newFixture(t)

	_, err := f.docs.CreateInvoice(f.ctx, testOwner, dto.CreateInvoiceRequest{
		CustomerID: f.customer,
		Items:      []dto.LineItemRequest{standardItem()},
	})
	assert.ErrorIs(t, err, domain.ErrConfigurationMissing)

	s := f.store.snapshot()
	assert.Empty(t, s.invoices)
	assert.Empty(t, s.sequences, "sin rollback quedaría un número consumido")
}

func TestCancelInvoice(t *testing.T) {
	f := newFixture(t)
	f.configure(t)
	inv := f.issueInvoice(t, standardItem())

	_, err := f.docs.CancelInvoice(f.ctx, testOwner, inv.ID, dto.CancelInvoiceRequest{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	cancelled, err := f.docs.CancelInvoice(f.ctx, testOwner, inv.ID, dto.CancelInvoiceRequest{Reason: "Erro de faturação"})
	require.NoError(t, err)
	assert.Equal(t, "cancelled", cancelled.Status)
	assert.Equal(t, inv.Certification.HashControl, cancelled.Certification.HashControl, "la certificación no cambia")

	_, err = f.docs.CancelInvoice(f.ctx, testOwner, inv.ID, dto.CancelInvoiceRequest{Reason: "otra vez"})
	assert.ErrorIs(t, err, domain.ErrStateConflict)
}

func TestGetInvoice_OverdueDerived(t *testing.T) {
	f := newFixture(t)
	f.configure(t)

	inv, err := f.docs.CreateInvoice(f.ctx, testOwner, dto.CreateInvoiceRequest{
		CustomerID: f.customer,
		DueDate:    "2026-03-20",
		Items:      []dto.LineItemRequest{standardItem()},
	})
	require.NoError(t, err)
	assert.Equal(t, "issued", inv.Status)

	f.docs.WithClock(func() time.Time { return testNow.AddDate(0, 1, 0) })
	got, err := f.docs.GetInvoice(f.ctx, testOwner, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, "overdue", got.Status)

	_, err = f.docs.GetInvoice(f.ctx, "other-owner", inv.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreditNote_Rules(t *testing.T) {
	f := newFixture(t)
	f.configure(t)
	inv := f.issueInvoice(t, exemptItem(1000))

	_, err := f.docs.CreateCreditNote(f.ctx, testOwner, dto.CreateCreditNoteRequest{
		OriginalInvoiceID: inv.ID,
		Reason:            "  ",
		Items:             []dto.LineItemRequest{exemptItem(100)},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	cn, err := f.docs.CreateCreditNote(f.ctx, testOwner, dto.CreateCreditNoteRequest{
		OriginalInvoiceID: inv.ID,
		Reason:            "Devolução parcial",
		Items:             []dto.LineItemRequest{exemptItem(600)},
	})
	require.NoError(t, err)
	assert.Equal(t, "NC 2026/000001", cn.DocumentNumber)
	assert.Equal(t, inv.DocumentNumber, cn.OriginalInvoiceNumber)
	assert.Equal(t, f.customer, cn.CustomerID)
	assert.NotEmpty(t, cn.Certification.HashControl)
	assert.Empty(t, cn.Certification.PreviousHash, "cadena propia por tipo de documento")

	_, err = f.docs.CreateCreditNote(f.ctx, testOwner, dto.CreateCreditNoteRequest{
		OriginalInvoiceID: inv.ID,
		Reason:            "Excede",
		Items:             []dto.LineItemRequest{exemptItem(500)},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.docs.CreateCreditNote(f.ctx, testOwner, dto.CreateCreditNoteRequest{
		OriginalInvoiceID: "missing",
		Reason:            "x",
		Items:             []dto.LineItemRequest{exemptItem(1)},
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreditNote_CancelledInvoice(t *testing.T) {
	f := newFixture(t)
	f.configure(t)
	inv := f.issueInvoice(t, exemptItem(1000))
	_, err := f.docs.CancelInvoice(f.ctx, testOwner, inv.ID, dto.CancelInvoiceRequest{Reason: "Erro"})
	require.NoError(t, err)

	_, err = f.docs.CreateCreditNote(f.ctx, testOwner, dto.CreateCreditNoteRequest{
		OriginalInvoiceID: inv.ID,
		Reason:            "Devolução",
		Items:             []dto.LineItemRequest{exemptItem(100)},
	})
	assert.ErrorIs(t, err, domain.ErrStateConflict)
}

func TestPaymentReceipt_PartialFullAndOverpayment(t *testing.T) {
	f := newFixture(t)
	f.configure(t)
	inv := f.issueInvoice(t, exemptItem(5000))

	pay := func(amount int64) (*dto.PaymentReceiptResponse, error) {
		return f.docs.CreatePaymentReceipt(f.ctx, testOwner, dto.CreatePaymentReceiptRequest{
			CustomerID:    f.customer,
			PaymentMethod: "TB",
			Allocations:   []dto.PaymentAllocationRequest{{InvoiceID: inv.ID, PaidAmount: decimal.NewFromInt(amount)}},
		})
	}

	rc, err := pay(3000)
	require.NoError(t, err)
	assert.Equal(t, "RG 2026/000001", rc.DocumentNumber)
	assert.Equal(t, inv.DocumentNumber, rc.Allocations[0].InvoiceNumber)
	got, err := f.docs.GetInvoice(f.ctx, testOwner, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, "partial", got.PaymentStatus)
	assert.Equal(t, "issued", got.Status)
	assert.Equal(t, "2000.00", got.Balance.StringFixed(2))

	_, err = pay(2000)
	require.NoError(t, err)
	got, err = f.docs.GetInvoice(f.ctx, testOwner, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, "paid", got.PaymentStatus)
	assert.Equal(t, "paid", got.Status)
	assert.True(t, got.Balance.IsZero())

	before := f.store.snapshot()
	_, err = pay(1)
	assert.ErrorIs(t, err, domain.ErrOverpayment)
	after := f.store.snapshot()
	assert.Len(t, after.receipts, len(before.receipts))
	assert.Equal(t, before.invoices[inv.ID].Version, after.invoices[inv.ID].Version)

	_, err = f.docs.CancelInvoice(f.ctx, testOwner, inv.ID, dto.CancelInvoiceRequest{Reason: "x"})
	assert.ErrorIs(t, err, domain.ErrStateConflict, "una factura con cobros no se anula")
}

func TestPaymentReceipt_AtomicAcrossInvoices(t *testing.T) {
	f := newFixture(t)
	f.configure(t)
	a := f.issueInvoice(t, exemptItem(1000))
	b := f.issueInvoice(t, exemptItem(500))

	_, err := f.docs.CreatePaymentReceipt(f.ctx, testOwner, dto.CreatePaymentReceiptRequest{
		CustomerID:    f.customer,
		PaymentMethod: "NU",
		Allocations: []dto.PaymentAllocationRequest{
			{InvoiceID: a.ID, PaidAmount: decimal.NewFromInt(1000)},
			{InvoiceID: b.ID, PaidAmount: decimal.NewFromInt(600)},
		},
	})
	assert.ErrorIs(t, err, domain.ErrOverpayment)

	s := f.store.snapshot()
	assert.True(t, s.invoices[a.ID].PaidAmount.IsZero(), "el recibo se aborta completo")
	assert.True(t, s.invoices[b.ID].PaidAmount.IsZero())
	assert.Empty(t, s.receipts)
}

func TestPaymentReceipt_Validation(t *testing.T) {
	f := newFixture(t)
	f.configure(t)
	inv := f.issueInvoice(t, exemptItem(1000))

	tests := []struct {
		name string
		req  dto.CreatePaymentReceiptRequest
		want error
	}{
		{
			name: "mecanismo desconocido",
			req: dto.CreatePaymentReceiptRequest{CustomerID: f.customer, PaymentMethod: "XX",
				Allocations: []dto.PaymentAllocationRequest{{InvoiceID: inv.ID, PaidAmount: decimal.NewFromInt(1)}}},
			want: domain.ErrInvalidInput,
		},
		{
			name: "sin asignaciones",
			req:  dto.CreatePaymentReceiptRequest{CustomerID: f.customer, PaymentMethod: "NU"},
			want: domain.ErrInvalidInput,
		},
		{
			name: "importe cero",
			req: dto.CreatePaymentReceiptRequest{CustomerID: f.customer, PaymentMethod: "NU",
				Allocations: []dto.PaymentAllocationRequest{{InvoiceID: inv.ID, PaidAmount: decimal.Zero}}},
			want: domain.ErrInvalidInput,
		},
		{
			name: "factura repetida",
			req: dto.CreatePaymentReceiptRequest{CustomerID: f.customer, PaymentMethod: "NU",
				Allocations: []dto.PaymentAllocationRequest{
					{InvoiceID: inv.ID, PaidAmount: decimal.NewFromInt(1)},
					{InvoiceID: inv.ID, PaidAmount: decimal.NewFromInt(1)},
				}},
			want: domain.ErrInvalidInput,
		},
		{
			name: "factura inexistente",
			req: dto.CreatePaymentReceiptRequest{CustomerID: f.customer, PaymentMethod: "NU",
				Allocations: []dto.PaymentAllocationRequest{{InvoiceID: "missing", PaidAmount: decimal.NewFromInt(1)}}},
			want: domain.ErrNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.docs.CreatePaymentReceipt(f.ctx, testOwner, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestPaymentReceipt_OtherCustomer(t *testing.T) {
	f := newFixture(t)
	f.configure(t)
	inv := f.issueInvoice(t, exemptItem(1000))
	other, err := f.master.CreateCustomer(f.ctx, testOwner, dto.CreateCustomerRequest{Name: "Outro", NIF: "5000000000"})
	require.NoError(t, err)

	_, err = f.docs.CreatePaymentReceipt(f.ctx, testOwner, dto.CreatePaymentReceiptRequest{
		CustomerID:    other.ID,
		PaymentMethod: "NU",
		Allocations:   []dto.PaymentAllocationRequest{{InvoiceID: inv.ID, PaidAmount: decimal.NewFromInt(100)}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCertifier_RejectsCertifiedDocument(t *testing.T) {
	store := newMemStore()
	c := billing.NewCertifier(stubSigner{}, &memGuard{}, billing.AGTConfig{SeriesValidationCode: "0"}, logger.Nop())
	h := &entity.DocumentHeader{
		ID: "doc-1", OwnerID: testOwner, DocumentType: entity.DocumentTypeInvoice,
		Sequence: 1, DocumentNumber: "FT 2026/000001", IssueDate: testNow,
		TotalAmount: decimal.NewFromInt(100), TaxAmount: decimal.Zero,
	}
	cert := &entity.Certification{}
	company := &entity.CompanyConfig{NIF: "5417002311", CertificateNumber: "1/AGT"}

	err := store.RunBilling(context.Background(), func(repos billing.BillingRepos) error {
		if err := c.Certify(context.Background(), repos, billing.CertifyInput{Header: h, Cert: cert, Company: company}, testNow); err != nil {
			return err
		}
		return c.Certify(context.Background(), repos, billing.CertifyInput{Header: h, Cert: cert, Company: company}, testNow)
	})
	assert.ErrorIs(t, err, domain.ErrStateConflict)
	assert.Equal(t, "0-1", cert.ATCUD)

	proforma := &entity.DocumentHeader{ID: "pf-1", DocumentType: entity.DocumentTypeProforma}
	err = store.RunBilling(context.Background(), func(repos billing.BillingRepos) error {
		return c.Certify(context.Background(), repos, billing.CertifyInput{Header: proforma, Cert: &entity.Certification{}, Company: company}, testNow)
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCertifier_GuardBlocksConcurrentCertification(t *testing.T) {
	guard := &memGuard{}
	ok, err := guard.Acquire(context.Background(), "certify:doc-2", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	c := billing.NewCertifier(stubSigner{}, guard, billing.AGTConfig{}, logger.Nop())
	h := &entity.DocumentHeader{ID: "doc-2", OwnerID: testOwner, DocumentType: entity.DocumentTypeInvoice,
		Sequence: 1, DocumentNumber: "FT 2026/000001", IssueDate: testNow, TotalAmount: decimal.NewFromInt(1)}
	err = newMemStore().RunBilling(context.Background(), func(repos billing.BillingRepos) error {
		return c.Certify(context.Background(), repos, billing.CertifyInput{Header: h, Cert: &entity.Certification{}, Company: &entity.CompanyConfig{}}, testNow)
	})
	assert.ErrorIs(t, err, domain.ErrStateConflict)
}

func TestListInvoices_Pagination(t *testing.T) {
	f := newFixture(t)
	f.configure(t)
	var numbers []string
	for i := 0; i < 3; i++ {
		numbers = append(numbers, f.issueInvoice(t, standardItem()).DocumentNumber)
	}

	first, err := f.docs.ListInvoices(f.ctx, testOwner, dto.PageRequest{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first.Items, 2)
	assert.Equal(t, dto.PageResponse{Limit: 2, Offset: 0, Total: 3}, first.Page)
	assert.Equal(t, numbers[2], first.Items[0].DocumentNumber)
	assert.Empty(t, first.Items[0].Items)

	rest, err := f.docs.ListInvoices(f.ctx, testOwner, dto.PageRequest{Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Len(t, rest.Items, 1)
	assert.Equal(t, numbers[0], rest.Items[0].DocumentNumber)

	other, err := f.docs.ListInvoices(f.ctx, "otro-propietario", dto.PageRequest{})
	require.NoError(t, err)
	assert.Empty(t, other.Items)
	assert.Equal(t, 20, other.Page.Limit)
}
