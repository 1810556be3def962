package billing_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/scripttb/720CRM-sub000/internal/application/billing"
	"github.com/scripttb/720CRM-sub000/internal/domain"
	"github.com/scripttb/720CRM-sub000/internal/domain/entity"
)

// memStore persistencia en memoria con semántica transaccional: cada RunBilling trabaja
// sobre una copia y sólo la publica si fn no devuelve error.
type memStore struct {
	mu    sync.Mutex
	state *memState
}

type chainKey struct {
	owner  string
	typ    entity.DocumentType
	series string
}

type seqKey struct {
	chainKey
	year int
}

type memState struct {
	proformas   map[string]entity.Proforma
	invoices    map[string]entity.Invoice
	creditNotes map[string]entity.CreditNote
	receipts    map[string]entity.PaymentReceipt
	sequences   map[seqKey]int64
	hashes      map[chainKey]string
	companies   map[string]entity.CompanyConfig
	customers   map[string]entity.Customer
	products    map[string]entity.Product
	order       []string // orden de alta de documentos
}

func newMemStore() *memStore {
	return &memStore{state: &memState{
		proformas:   map[string]entity.Proforma{},
		invoices:    map[string]entity.Invoice{},
		creditNotes: map[string]entity.CreditNote{},
		receipts:    map[string]entity.PaymentReceipt{},
		sequences:   map[seqKey]int64{},
		hashes:      map[chainKey]string{},
		companies:   map[string]entity.CompanyConfig{},
		customers:   map[string]entity.Customer{},
		products:    map[string]entity.Product{},
	}}
}

func cloneLines(in []*entity.LineItem) []*entity.LineItem {
	out := make([]*entity.LineItem, 0, len(in))
	for _, l := range in {
		c := *l
		if l.TaxRate != nil {
			r := *l.TaxRate
			c.TaxRate = &r
		}
		out = append(out, &c)
	}
	return out
}

func (s *memState) clone() *memState {
	c := &memState{
		proformas:   map[string]entity.Proforma{},
		invoices:    map[string]entity.Invoice{},
		creditNotes: map[string]entity.CreditNote{},
		receipts:    map[string]entity.PaymentReceipt{},
		sequences:   map[seqKey]int64{},
		hashes:      map[chainKey]string{},
		companies:   map[string]entity.CompanyConfig{},
		customers:   map[string]entity.Customer{},
		products:    map[string]entity.Product{},
		order:       append([]string(nil), s.order...),
	}
	for k, v := range s.proformas {
		v.Lines = cloneLines(v.Lines)
		c.proformas[k] = v
	}
	for k, v := range s.invoices {
		v.Lines = cloneLines(v.Lines)
		c.invoices[k] = v
	}
	for k, v := range s.creditNotes {
		v.Lines = cloneLines(v.Lines)
		c.creditNotes[k] = v
	}
	for k, v := range s.receipts {
		v.Allocations = append([]entity.PaymentAllocation(nil), v.Allocations...)
		c.receipts[k] = v
	}
	for k, v := range s.sequences {
		c.sequences[k] = v
	}
	for k, v := range s.hashes {
		c.hashes[k] = v
	}
	for k, v := range s.companies {
		c.companies[k] = v
	}
	for k, v := range s.customers {
		c.customers[k] = v
	}
	for k, v := range s.products {
		c.products[k] = v
	}
	return c
}

func (m *memStore) repos(s *memState) billing.BillingRepos {
	r := &memRepos{s: s}
	return billing.BillingRepos{
		Proformas: r, Invoices: (*memInvoices)(r), CreditNotes: (*memCreditNotes)(r), Receipts: (*memReceipts)(r),
		Sequences: (*memSequences)(r), Companies: (*memCompanies)(r), Customers: (*memCustomers)(r), Products: (*memProducts)(r),
	}
}

func (m *memStore) RunBilling(ctx context.Context, fn func(repos billing.BillingRepos) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	work := m.state.clone()
	if err := fn(m.repos(work)); err != nil {
		return err
	}
	m.state = work
	return nil
}

func (m *memStore) RunReadOnly(ctx context.Context, fn func(repos billing.BillingRepos) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(m.repos(m.state.clone()))
}

// snapshot copia del estado confirmado (aserciones de tests).
func (m *memStore) snapshot() *memState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.clone()
}

type memRepos struct{ s *memState }

func inPeriod(t, start, end time.Time) bool {
	d := t.Format(time.DateOnly)
	return d >= start.Format(time.DateOnly) && d <= end.Format(time.DateOnly)
}

// Proformas

func (r *memRepos) Create(ctx context.Context, p *entity.Proforma) error {
	c := *p
	c.Lines = cloneLines(p.Lines)
	r.s.proformas[p.ID] = c
	return nil
}

func (r *memRepos) GetByID(ctx context.Context, ownerID, id string) (*entity.Proforma, error) {
	p, ok := r.s.proformas[id]
	if !ok || p.OwnerID != ownerID {
		return nil, nil
	}
	p.Lines = cloneLines(p.Lines)
	return &p, nil
}

func (r *memRepos) GetByIDForUpdate(ctx context.Context, ownerID, id string) (*entity.Proforma, error) {
	return r.GetByID(ctx, ownerID, id)
}

func (r *memRepos) UpdateStatus(ctx context.Context, id string, from, to entity.ProformaStatus, convertedTo string, at time.Time) error {
	p, ok := r.s.proformas[id]
	if !ok || p.Status != from {
		return fmt.Errorf("%w: proforma %s no está en estado %s", domain.ErrStateConflict, id, from)
	}
	p.Status, p.ModifiedAt = to, at
	if convertedTo != "" {
		p.ConvertedToInvoiceID = convertedTo
	}
	r.s.proformas[id] = p
	return nil
}

// Facturas

type memInvoices memRepos

func (r *memInvoices) Create(ctx context.Context, inv *entity.Invoice) error {
	if _, ok := r.s.invoices[inv.ID]; ok {
		return domain.ErrDuplicate
	}
	c := *inv
	c.Lines = cloneLines(inv.Lines)
	r.s.invoices[inv.ID] = c
	r.s.order = append(r.s.order, inv.ID)
	return nil
}

func (r *memInvoices) GetByID(ctx context.Context, ownerID, id string) (*entity.Invoice, error) {
	inv, ok := r.s.invoices[id]
	if !ok || inv.OwnerID != ownerID {
		return nil, nil
	}
	inv.Lines = cloneLines(inv.Lines)
	return &inv, nil
}

func (r *memInvoices) GetByIDForUpdate(ctx context.Context, ownerID, id string) (*entity.Invoice, error) {
	return r.GetByID(ctx, ownerID, id)
}

func (r *memInvoices) UpdatePayment(ctx context.Context, inv *entity.Invoice, expectedVersion int64) error {
	cur, ok := r.s.invoices[inv.ID]
	if !ok || cur.Version != expectedVersion {
		return fmt.Errorf("%w: versión de la factura %s", domain.ErrStateConflict, inv.ID)
	}
	cur.PaidAmount, cur.PaymentStatus, cur.Status = inv.PaidAmount, inv.PaymentStatus, inv.Status
	cur.Version++
	cur.ModifiedAt = inv.ModifiedAt
	r.s.invoices[inv.ID] = cur
	inv.Version = cur.Version
	return nil
}

func (r *memInvoices) Cancel(ctx context.Context, id, reason string, at time.Time) error {
	cur, ok := r.s.invoices[id]
	if !ok || cur.Status != entity.InvoiceStatusIssued {
		return fmt.Errorf("%w: factura %s", domain.ErrStateConflict, id)
	}
	cur.Status, cur.CancelReason, cur.ModifiedAt = entity.InvoiceStatusCancelled, reason, at
	cur.Version++
	r.s.invoices[id] = cur
	return nil
}

func (r *memInvoices) ListByPeriod(ctx context.Context, ownerID string, start, end time.Time) ([]*entity.Invoice, error) {
	var out []*entity.Invoice
	for _, id := range r.s.order {
		inv, ok := r.s.invoices[id]
		if ok && inv.OwnerID == ownerID && inPeriod(inv.IssueDate, start, end) {
			inv.Lines = cloneLines(inv.Lines)
			out = append(out, &inv)
		}
	}
	return out, nil
}

func (r *memInvoices) List(ctx context.Context, ownerID string, limit, offset int) ([]*entity.Invoice, int, error) {
	var all []*entity.Invoice
	for i := len(r.s.order) - 1; i >= 0; i-- {
		inv, ok := r.s.invoices[r.s.order[i]]
		if ok && inv.OwnerID == ownerID {
			inv.Lines = nil
			all = append(all, &inv)
		}
	}
	if offset >= len(all) {
		return nil, len(all), nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], len(all), nil
}

// Notas de crédito

type memCreditNotes memRepos

func (r *memCreditNotes) Create(ctx context.Context, cn *entity.CreditNote) error {
	c := *cn
	c.Lines = cloneLines(cn.Lines)
	r.s.creditNotes[cn.ID] = c
	r.s.order = append(r.s.order, cn.ID)
	return nil
}

func (r *memCreditNotes) GetByID(ctx context.Context, ownerID, id string) (*entity.CreditNote, error) {
	cn, ok := r.s.creditNotes[id]
	if !ok || cn.OwnerID != ownerID {
		return nil, nil
	}
	return &cn, nil
}

func (r *memCreditNotes) CreditedTotal(ctx context.Context, invoiceID string) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, cn := range r.s.creditNotes {
		if cn.OriginalInvoiceID == invoiceID {
			total = total.Add(cn.TotalAmount)
		}
	}
	return total, nil
}

func (r *memCreditNotes) ListByPeriod(ctx context.Context, ownerID string, start, end time.Time) ([]*entity.CreditNote, error) {
	var out []*entity.CreditNote
	for _, id := range r.s.order {
		cn, ok := r.s.creditNotes[id]
		if ok && cn.OwnerID == ownerID && inPeriod(cn.IssueDate, start, end) {
			out = append(out, &cn)
		}
	}
	return out, nil
}

// Recibos

type memReceipts memRepos

func (r *memReceipts) Create(ctx context.Context, rc *entity.PaymentReceipt) error {
	c := *rc
	c.Allocations = append([]entity.PaymentAllocation(nil), rc.Allocations...)
	r.s.receipts[rc.ID] = c
	r.s.order = append(r.s.order, rc.ID)
	return nil
}

func (r *memReceipts) GetByID(ctx context.Context, ownerID, id string) (*entity.PaymentReceipt, error) {
	rc, ok := r.s.receipts[id]
	if !ok || rc.OwnerID != ownerID {
		return nil, nil
	}
	return &rc, nil
}

func (r *memReceipts) ListByPeriod(ctx context.Context, ownerID string, start, end time.Time) ([]*entity.PaymentReceipt, error) {
	var out []*entity.PaymentReceipt
	for _, id := range r.s.order {
		rc, ok := r.s.receipts[id]
		if ok && rc.OwnerID == ownerID && inPeriod(rc.IssueDate, start, end) {
			out = append(out, &rc)
		}
	}
	return out, nil
}

// Numeración

type memSequences memRepos

func (r *memSequences) Next(ctx context.Context, ownerID string, docType entity.DocumentType, series string, year int) (int64, error) {
	k := seqKey{chainKey{ownerID, docType, series}, year}
	r.s.sequences[k]++
	return r.s.sequences[k], nil
}

func (r *memSequences) LockLastHash(ctx context.Context, ownerID string, docType entity.DocumentType, series string) (string, error) {
	return r.s.hashes[chainKey{ownerID, docType, series}], nil
}

func (r *memSequences) SaveLastHash(ctx context.Context, ownerID string, docType entity.DocumentType, series, hash, documentID string) error {
	r.s.hashes[chainKey{ownerID, docType, series}] = hash
	return nil
}

// Datos maestros

type memCompanies memRepos

func (r *memCompanies) Get(ctx context.Context, ownerID string) (*entity.CompanyConfig, error) {
	c, ok := r.s.companies[ownerID]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *memCompanies) Upsert(ctx context.Context, cfg *entity.CompanyConfig) error {
	r.s.companies[cfg.OwnerID] = *cfg
	return nil
}

type memCustomers memRepos

func (r *memCustomers) Create(ctx context.Context, c *entity.Customer) error {
	r.s.customers[c.ID] = *c
	return nil
}

func (r *memCustomers) GetByID(ctx context.Context, ownerID, id string) (*entity.Customer, error) {
	c, ok := r.s.customers[id]
	if !ok || c.OwnerID != ownerID {
		return nil, nil
	}
	return &c, nil
}

func (r *memCustomers) ListByOwner(ctx context.Context, ownerID string) ([]*entity.Customer, error) {
	var out []*entity.Customer
	for _, c := range r.s.customers {
		if c.OwnerID == ownerID {
			c := c
			out = append(out, &c)
		}
	}
	return out, nil
}

type memProducts memRepos

func (r *memProducts) Create(ctx context.Context, p *entity.Product) error {
	r.s.products[p.ID] = *p
	return nil
}

func (r *memProducts) GetByID(ctx context.Context, ownerID, id string) (*entity.Product, error) {
	p, ok := r.s.products[id]
	if !ok || p.OwnerID != ownerID {
		return nil, nil
	}
	return &p, nil
}

func (r *memProducts) ListByOwner(ctx context.Context, ownerID string) ([]*entity.Product, error) {
	var out []*entity.Product
	for _, p := range r.s.products {
		if p.OwnerID == ownerID {
			p := p
			out = append(out, &p)
		}
	}
	return out, nil
}

// memGuard IdempotencyStore en memoria para tests.
type memGuard struct {
	mu   sync.Mutex
	keys map[string]bool
}

func (g *memGuard) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.keys == nil {
		g.keys = map[string]bool{}
	}
	if g.keys[key] {
		return false, nil
	}
	g.keys[key] = true
	return true, nil
}

func (g *memGuard) Release(ctx context.Context, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.keys, key)
	return nil
}

// memArchive ArchiveStore en memoria.
type memArchive struct {
	objects map[string][]byte
}

func (a *memArchive) Put(ctx context.Context, key string, content []byte, contentType string) error {
	if a.objects == nil {
		a.objects = map[string][]byte{}
	}
	a.objects[key] = content
	return nil
}
