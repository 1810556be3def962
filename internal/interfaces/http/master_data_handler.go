package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/scripttb/720CRM-sub000/internal/application/dto"
)

// MasterDataService datos fiscales del emisor, clientes y productos. Lo implementa *billing.MasterDataUseCase.
type MasterDataService interface {
	SaveCompanyConfig(ctx context.Context, ownerID string, in dto.CompanyConfigRequest) (*dto.CompanyConfigResponse, error)
	CreateCustomer(ctx context.Context, ownerID string, in dto.CreateCustomerRequest) (*dto.CustomerResponse, error)
	CreateProduct(ctx context.Context, ownerID string, in dto.CreateProductRequest) (*dto.ProductResponse, error)
}

// MasterDataHandler maneja configuración, clientes y productos.
type MasterDataHandler struct {
	uc MasterDataService
}

// NewMasterDataHandler construye el handler.
func NewMasterDataHandler(uc MasterDataService) *MasterDataHandler {
	return &MasterDataHandler{uc: uc}
}

// SaveConfig PUT /billing/config
func (h *MasterDataHandler) SaveConfig(c *fiber.Ctx) error {
	ownerID := GetOwnerID(c)
	if ownerID == "" {
		return unauthorized(c)
	}
	var in dto.CompanyConfigRequest
	if ok, err := bindJSON(c, &in); !ok {
		return err
	}
	out, err := h.uc.SaveCompanyConfig(c.Context(), ownerID, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// CreateCustomer POST /billing/customers
func (h *MasterDataHandler) CreateCustomer(c *fiber.Ctx) error {
	ownerID := GetOwnerID(c)
	if ownerID == "" {
		return unauthorized(c)
	}
	var in dto.CreateCustomerRequest
	if ok, err := bindJSON(c, &in); !ok {
		return err
	}
	out, err := h.uc.CreateCustomer(c.Context(), ownerID, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// CreateProduct POST /billing/products
func (h *MasterDataHandler) CreateProduct(c *fiber.Ctx) error {
	ownerID := GetOwnerID(c)
	if ownerID == "" {
		return unauthorized(c)
	}
	var in dto.CreateProductRequest
	if ok, err := bindJSON(c, &in); !ok {
		return err
	}
	out, err := h.uc.CreateProduct(c.Context(), ownerID, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}
