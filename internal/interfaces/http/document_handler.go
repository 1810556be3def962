package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/scripttb/720CRM-sub000/internal/application/dto"
	"github.com/scripttb/720CRM-sub000/internal/domain/agt"
)

// DocumentService operaciones de documentos que expone la API. Lo implementa *billing.DocumentUseCase.
type DocumentService interface {
	CreateProforma(ctx context.Context, ownerID string, in dto.CreateProformaRequest) (*dto.ProformaResponse, error)
	GetProforma(ctx context.Context, ownerID, id string) (*dto.ProformaResponse, error)
	TransitionProforma(ctx context.Context, ownerID, id string, action agt.ProformaAction) (*dto.ProformaResponse, error)
	ConvertProforma(ctx context.Context, ownerID, id string, in dto.ConvertProformaRequest) (*dto.InvoiceResponse, error)
	CreateInvoice(ctx context.Context, ownerID string, in dto.CreateInvoiceRequest) (*dto.InvoiceResponse, error)
	GetInvoice(ctx context.Context, ownerID, id string) (*dto.InvoiceResponse, error)
	ListInvoices(ctx context.Context, ownerID string, page dto.PageRequest) (*dto.InvoiceListResponse, error)
	CancelInvoice(ctx context.Context, ownerID, id string, in dto.CancelInvoiceRequest) (*dto.InvoiceResponse, error)
	CreateCreditNote(ctx context.Context, ownerID string, in dto.CreateCreditNoteRequest) (*dto.CreditNoteResponse, error)
	GetCreditNote(ctx context.Context, ownerID, id string) (*dto.CreditNoteResponse, error)
	CreatePaymentReceipt(ctx context.Context, ownerID string, in dto.CreatePaymentReceiptRequest) (*dto.PaymentReceiptResponse, error)
	GetPaymentReceipt(ctx context.Context, ownerID, id string) (*dto.PaymentReceiptResponse, error)
}

// PDFService representación impresa. Lo implementa *billing.PDFUseCase.
type PDFService interface {
	DownloadInvoicePDF(ctx context.Context, ownerID, invoiceID string) ([]byte, string, error)
	DownloadCreditNotePDF(ctx context.Context, ownerID, creditNoteID string) ([]byte, string, error)
}

// DocumentHandler proformas, facturas, notas de crédito y recibos (protegido).
type DocumentHandler struct {
	docs DocumentService
	pdfs PDFService
}

// NewDocumentHandler construye el handler.
func NewDocumentHandler(docs DocumentService, pdfs PDFService) *DocumentHandler {
	return &DocumentHandler{docs: docs, pdfs: pdfs}
}

// CreateProforma POST /billing/proformas
func (h *DocumentHandler) CreateProforma(c *fiber.Ctx) error {
	ownerID := GetOwnerID(c)
	if ownerID == "" {
		return unauthorized(c)
	}
	var in dto.CreateProformaRequest
	if ok, err := bindJSON(c, &in); !ok {
		return err
	}
	out, err := h.docs.CreateProforma(c.Context(), ownerID, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetProforma GET /billing/proformas/:id
func (h *DocumentHandler) GetProforma(c *fiber.Ctx) error {
	ownerID := GetOwnerID(c)
	if ownerID == "" {
		return unauthorized(c)
	}
	out, err := h.docs.GetProforma(c.Context(), ownerID, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// TransitionProforma POST /billing/proformas/:id/{send,accept,reject}
func (h *DocumentHandler) TransitionProforma(action agt.ProformaAction) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ownerID := GetOwnerID(c)
		if ownerID == "" {
			return unauthorized(c)
		}
		out, err := h.docs.TransitionProforma(c.Context(), ownerID, c.Params("id"), action)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(out)
	}
}

// ConvertProforma godoc
// @Summary      Convertir proforma aceptada en factura
// @Tags         proformas
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                      true   "ID de la proforma"
// @Param        body  body  dto.ConvertProformaRequest  false  "serie y vencimiento opcionales"
// @Success      201  {object}  dto.InvoiceResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /billing/proformas/{id}/convert [post]
func (h *DocumentHandler) ConvertProforma(c *fiber.Ctx) error {
	ownerID := GetOwnerID(c)
	if ownerID == "" {
		return unauthorized(c)
	}
	var in dto.ConvertProformaRequest
	if len(c.Body()) > 0 {
		if ok, err := bindJSON(c, &in); !ok {
			return err
		}
	}
	out, err := h.docs.ConvertProforma(c.Context(), ownerID, c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// CreateInvoice godoc
// @Summary      Emitir factura certificada
// @Tags         invoices
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header  string                    false  "clave de reintento"
// @Param        body             body    dto.CreateInvoiceRequest  true   "cliente y líneas (tax_rate obligatorio)"
// @Success      201  {object}  dto.InvoiceResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /billing/invoices [post]
func (h *DocumentHandler) CreateInvoice(c *fiber.Ctx) error {
	ownerID := GetOwnerID(c)
	if ownerID == "" {
		return unauthorized(c)
	}
	var in dto.CreateInvoiceRequest
	if ok, err := bindJSON(c, &in); !ok {
		return err
	}
	out, err := h.docs.CreateInvoice(c.Context(), ownerID, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetInvoice GET /billing/invoices/:id
func (h *DocumentHandler) GetInvoice(c *fiber.Ctx) error {
	ownerID := GetOwnerID(c)
	if ownerID == "" {
		return unauthorized(c)
	}
	out, err := h.docs.GetInvoice(c.Context(), ownerID, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// ListInvoices godoc
// @Summary      Listar facturas
// @Description  Más recientes primero, sin líneas. limit 1..100 (por defecto 20).
// @Tags         invoices
// @Security     Bearer
// @Produce      json
// @Param        limit   query  int  false  "Tamaño de página"
// @Param        offset  query  int  false  "Desplazamiento"
// @Success      200  {object}  dto.InvoiceListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /billing/invoices [get]
func (h *DocumentHandler) ListInvoices(c *fiber.Ctx) error {
	ownerID := GetOwnerID(c)
	if ownerID == "" {
		return unauthorized(c)
	}
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "parámetros inválidos"})
	}
	page.DefaultPage()
	if err := validate.Struct(&page); err != nil {
		return validationFailed(c, err)
	}
	out, err := h.docs.ListInvoices(c.Context(), ownerID, page)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// CancelInvoice POST /billing/invoices/:id/cancel
func (h *DocumentHandler) CancelInvoice(c *fiber.Ctx) error {
	ownerID := GetOwnerID(c)
	if ownerID == "" {
		return unauthorized(c)
	}
	var in dto.CancelInvoiceRequest
	if ok, err := bindJSON(c, &in); !ok {
		return err
	}
	out, err := h.docs.CancelInvoice(c.Context(), ownerID, c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// InvoicePDF GET /billing/invoices/:id/pdf
func (h *DocumentHandler) InvoicePDF(c *fiber.Ctx) error {
	return h.sendPDF(c, h.pdfs.DownloadInvoicePDF)
}

// CreditNotePDF GET /billing/credit-notes/:id/pdf
func (h *DocumentHandler) CreditNotePDF(c *fiber.Ctx) error {
	return h.sendPDF(c, h.pdfs.DownloadCreditNotePDF)
}

func (h *DocumentHandler) sendPDF(c *fiber.Ctx, download func(context.Context, string, string) ([]byte, string, error)) error {
	ownerID := GetOwnerID(c)
	if ownerID == "" {
		return unauthorized(c)
	}
	data, name, err := download(c.Context(), ownerID, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+name+`"`)
	return c.Send(data)
}

// CreateCreditNote POST /billing/credit-notes
func (h *DocumentHandler) CreateCreditNote(c *fiber.Ctx) error {
	ownerID := GetOwnerID(c)
	if ownerID == "" {
		return unauthorized(c)
	}
	var in dto.CreateCreditNoteRequest
	if ok, err := bindJSON(c, &in); !ok {
		return err
	}
	out, err := h.docs.CreateCreditNote(c.Context(), ownerID, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetCreditNote GET /billing/credit-notes/:id
func (h *DocumentHandler) GetCreditNote(c *fiber.Ctx) error {
	ownerID := GetOwnerID(c)
	if ownerID == "" {
		return unauthorized(c)
	}
	out, err := h.docs.GetCreditNote(c.Context(), ownerID, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// CreatePaymentReceipt godoc
// @Summary      Emitir recibo y aplicar pagos a facturas
// @Description  Todas las asignaciones se aplican o ninguna; un sobrepago responde 422.
// @Tags         payment-receipts
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreatePaymentReceiptRequest  true  "cliente, método y asignaciones"
// @Success      201  {object}  dto.PaymentReceiptResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /billing/payment-receipts [post]
func (h *DocumentHandler) CreatePaymentReceipt(c *fiber.Ctx) error {
	ownerID := GetOwnerID(c)
	if ownerID == "" {
		return unauthorized(c)
	}
	var in dto.CreatePaymentReceiptRequest
	if ok, err := bindJSON(c, &in); !ok {
		return err
	}
	out, err := h.docs.CreatePaymentReceipt(c.Context(), ownerID, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetPaymentReceipt GET /billing/payment-receipts/:id
func (h *DocumentHandler) GetPaymentReceipt(c *fiber.Ctx) error {
	ownerID := GetOwnerID(c)
	if ownerID == "" {
		return unauthorized(c)
	}
	out, err := h.docs.GetPaymentReceipt(c.Context(), ownerID, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
