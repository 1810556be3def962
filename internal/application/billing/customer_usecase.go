package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/scripttb/720CRM-sub000/internal/application/dto"
	"github.com/scripttb/720CRM-sub000/internal/domain/agt"
	"github.com/scripttb/720CRM-sub000/internal/domain/entity"
	pkgagt "github.com/scripttb/720CRM-sub000/pkg/agt"
)

// MasterDataUseCase datos maestros del propietario: configuración fiscal, clientes y productos.
type MasterDataUseCase struct {
	txRunner BillingTxRunner
	now      func() time.Time
}

// NewMasterDataUseCase construye el caso de uso.
func NewMasterDataUseCase(txRunner BillingTxRunner) *MasterDataUseCase {
	return &MasterDataUseCase{txRunner: txRunner, now: time.Now}
}

// SaveCompanyConfig crea o reemplaza la configuración fiscal del emisor.
func (uc *MasterDataUseCase) SaveCompanyConfig(ctx context.Context, ownerID string, in dto.CompanyConfigRequest) (*dto.CompanyConfigResponse, error) {
	if err := pkgagt.ValidateNIF(in.NIF); err != nil {
		return nil, &agt.ValidationError{Field: "nif", Message: err.Error()}
	}
	now := uc.now()
	cfg := &entity.CompanyConfig{
		OwnerID:                  ownerID,
		NIF:                      pkgagt.NormalizeNIF(in.NIF),
		Name:                     in.Name,
		BusinessName:             in.BusinessName,
		BuildingNumber:           in.BuildingNumber,
		StreetName:               in.StreetName,
		AddressDetail:            in.AddressDetail,
		City:                     in.City,
		PostalCode:               in.PostalCode,
		Province:                 in.Province,
		Country:                  in.Country,
		TaxEntity:                in.TaxEntity,
		CertificateNumber:        in.CertificateNumber,
		SoftwareValidationNumber: in.SoftwareValidationNumber,
		ProductID:                in.ProductID,
		ProductVersion:           in.ProductVersion,
		TaxAccountingBasis:       pkgagt.TaxAccountingBasisBilling,
		Telephone:                in.Telephone,
		Fax:                      in.Fax,
		Email:                    in.Email,
		Website:                  in.Website,
		CreatedAt:                now,
		UpdatedAt:                now,
	}
	if cfg.Country == "" {
		cfg.Country = pkgagt.TaxCountryRegion
	}
	if cfg.TaxEntity == "" {
		cfg.TaxEntity = "Global"
	}
	err := uc.txRunner.RunBilling(ctx, func(repos BillingRepos) error {
		return repos.Companies.Upsert(ctx, cfg)
	})
	if err != nil {
		return nil, err
	}
	out := &dto.CompanyConfigResponse{CompanyConfigRequest: in, UpdatedAt: now.Format(time.RFC3339)}
	out.NIF, out.Country, out.TaxEntity = cfg.NIF, cfg.Country, cfg.TaxEntity
	return out, nil
}

// CreateCustomer crea un cliente. NIF vacío = consumidor final.
func (uc *MasterDataUseCase) CreateCustomer(ctx context.Context, ownerID string, in dto.CreateCustomerRequest) (*dto.CustomerResponse, error) {
	if in.NIF != "" {
		if err := pkgagt.ValidateNIF(in.NIF); err != nil {
			return nil, &agt.ValidationError{Field: "nif", Message: err.Error()}
		}
	}
	now := uc.now()
	c := &entity.Customer{
		ID:         uuid.New().String(),
		OwnerID:    ownerID,
		Name:       in.Name,
		NIF:        pkgagt.NormalizeNIF(in.NIF),
		Address:    in.Address,
		City:       in.City,
		PostalCode: in.PostalCode,
		Province:   in.Province,
		Country:    in.Country,
		Phone:      in.Phone,
		Email:      in.Email,
		Website:    in.Website,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if c.Country == "" {
		c.Country = pkgagt.TaxCountryRegion
	}
	if err := uc.txRunner.RunBilling(ctx, func(repos BillingRepos) error {
		return repos.Customers.Create(ctx, c)
	}); err != nil {
		return nil, fmt.Errorf("crear cliente: %w", err)
	}
	in.NIF, in.Country = c.NIF, c.Country
	return &dto.CustomerResponse{ID: c.ID, CreateCustomerRequest: in}, nil
}

// CreateProduct crea un producto o servicio del catálogo.
func (uc *MasterDataUseCase) CreateProduct(ctx context.Context, ownerID string, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	now := uc.now()
	p := &entity.Product{
		ID:        uuid.New().String(),
		OwnerID:   ownerID,
		Name:      in.Name,
		SKU:       in.SKU,
		IsService: in.IsService,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.txRunner.RunBilling(ctx, func(repos BillingRepos) error {
		return repos.Products.Create(ctx, p)
	}); err != nil {
		return nil, fmt.Errorf("crear producto: %w", err)
	}
	return &dto.ProductResponse{ID: p.ID, CreateProductRequest: in}, nil
}
