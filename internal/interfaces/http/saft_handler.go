package http

import (
	"context"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/scripttb/720CRM-sub000/internal/application/billing"
	"github.com/scripttb/720CRM-sub000/internal/application/dto"
)

// SAFTExporter lo implementa *billing.SAFTUseCase.
type SAFTExporter interface {
	Export(ctx context.Context, ownerID string, start, end time.Time, format string) (*dto.SAFTExportResult, error)
}

// SAFTHandler exportación SAF-T (AO).
type SAFTHandler struct {
	uc      SAFTExporter
	limiter *TenantLimiter
}

// NewSAFTHandler construye el handler. limiter nil = sin límite.
func NewSAFTHandler(uc SAFTExporter, limiter *TenantLimiter) *SAFTHandler {
	if limiter == nil {
		limiter = NewTenantLimiter(0)
	}
	return &SAFTHandler{uc: uc, limiter: limiter}
}

// Export godoc
// @Summary      Exportar SAF-T (AO) 1.01_01
// @Description  user_id es opcional y, si viene, debe coincidir con el sub del token.
// @Tags         saft
// @Security     Bearer
// @Produce      application/xml
// @Param        start_date  query  string  true   "YYYY-MM-DD"
// @Param        end_date    query  string  true   "YYYY-MM-DD (inclusive)"
// @Param        user_id     query  string  false  "propietario"
// @Param        format      query  string  false  "xml (por defecto) o zip"
// @Success      200  {file}    file
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      429  {object}  dto.ErrorResponse
// @Router       /billing/saft-export [get]
func (h *SAFTHandler) Export(c *fiber.Ctx) error {
	ownerID := GetOwnerID(c)
	if ownerID == "" {
		return unauthorized(c)
	}
	var q dto.SAFTExportQuery
	if err := c.QueryParser(&q); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "parámetros inválidos"})
	}
	if q.UserID != "" && q.UserID != ownerID {
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "user_id no coincide con el token"})
	}
	if err := validate.Struct(&q); err != nil {
		return validationFailed(c, err)
	}
	start, end, err := billing.ParsePeriod(q.StartDate, q.EndDate)
	if err != nil {
		return writeError(c, err)
	}
	if !h.limiter.Allow(ownerID) {
		c.Set(fiber.HeaderRetryAfter, strconv.Itoa(h.limiter.RetryAfter()))
		return c.Status(fiber.StatusTooManyRequests).JSON(dto.ErrorResponse{Code: "RATE_LIMITED", Message: "demasiadas exportaciones, intente más tarde"})
	}

	res, err := h.uc.Export(c.Context(), ownerID, start, end, q.Format)
	if err != nil {
		return writeError(c, err)
	}

	contentType := "application/xml; charset=utf-8"
	if q.Format == billing.FormatZIP {
		contentType = "application/zip"
	}
	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+res.FileName+`"`)
	c.Set("X-SAFT-Digest", res.Digest)
	c.Set("X-SAFT-Entries", strconv.Itoa(res.Entries))
	return c.Send(res.Content)
}
