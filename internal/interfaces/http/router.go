package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/scripttb/720CRM-sub000/internal/application/billing"
	"github.com/scripttb/720CRM-sub000/internal/domain/agt"
	"github.com/scripttb/720CRM-sub000/pkg/jwt"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Documents   DocumentService
	PDFs        PDFService
	MasterData  MasterDataService
	SAFT        SAFTExporter
	SAFTLimiter *TenantLimiter
	Idempotency billing.IdempotencyStore // nil = sin Idempotency-Key
	JWTSecret   string
	JWTIssuer   string
}

// Router registra las rutas de la API de facturación.
func Router(app *fiber.App, deps RouterDeps) {
	// Todas las rutas requieren Bearer Token; el sub del token es el propietario de los documentos.
	api := app.Group("/billing", AuthMiddleware(deps.JWTSecret, deps.JWTIssuer))
	if deps.Idempotency != nil {
		api.Use(Idempotency(deps.Idempotency))
	}

	anyRole := RequireRole(jwt.RoleAdmin, jwt.RoleBilling, jwt.RoleViewer)
	issuer := RequireRole(jwt.RoleAdmin, jwt.RoleBilling)
	admin := RequireRole(jwt.RoleAdmin)

	docs := NewDocumentHandler(deps.Documents, deps.PDFs)

	proformas := api.Group("/proformas")
	proformas.Post("/", issuer, docs.CreateProforma)
	proformas.Get("/:id", anyRole, docs.GetProforma)
	proformas.Post("/:id/send", issuer, docs.TransitionProforma(agt.ProformaActionSend))
	proformas.Post("/:id/accept", issuer, docs.TransitionProforma(agt.ProformaActionAccept))
	proformas.Post("/:id/reject", issuer, docs.TransitionProforma(agt.ProformaActionReject))
	proformas.Post("/:id/convert", issuer, docs.ConvertProforma)

	invoices := api.Group("/invoices")
	invoices.Post("/", issuer, docs.CreateInvoice)
	invoices.Get("/", anyRole, docs.ListInvoices)
	invoices.Get("/:id", anyRole, docs.GetInvoice)
	invoices.Post("/:id/cancel", issuer, docs.CancelInvoice)
	invoices.Get("/:id/pdf", anyRole, docs.InvoicePDF)

	creditNotes := api.Group("/credit-notes")
	creditNotes.Post("/", issuer, docs.CreateCreditNote)
	creditNotes.Get("/:id", anyRole, docs.GetCreditNote)
	creditNotes.Get("/:id/pdf", anyRole, docs.CreditNotePDF)

	receipts := api.Group("/payment-receipts")
	receipts.Post("/", issuer, docs.CreatePaymentReceipt)
	receipts.Get("/:id", anyRole, docs.GetPaymentReceipt)

	master := NewMasterDataHandler(deps.MasterData)
	api.Put("/config", admin, master.SaveConfig)
	api.Post("/customers", issuer, master.CreateCustomer)
	api.Post("/products", issuer, master.CreateProduct)

	saftHandler := NewSAFTHandler(deps.SAFT, deps.SAFTLimiter)
	api.Get("/saft-export", issuer, saftHandler.Export)
}
