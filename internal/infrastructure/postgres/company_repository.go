package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/scripttb/720CRM-sub000/internal/domain/entity"
	"github.com/scripttb/720CRM-sub000/internal/domain/repository"
)

// Asegura que CompanyConfigRepo implementa repository.CompanyConfigRepository.
var _ repository.CompanyConfigRepository = (*CompanyConfigRepo)(nil)

// CompanyConfigRepo configuración fiscal del emisor, una fila por propietario.
type CompanyConfigRepo struct {
	q Querier
}

// NewCompanyConfigRepository construye el adaptador de persistencia de la configuración fiscal.
func NewCompanyConfigRepository(q Querier) *CompanyConfigRepo {
	return &CompanyConfigRepo{q: q}
}

const companyColumns = `owner_id, nif, name, business_name, building_number, street_name, address_detail, city,
	postal_code, province, country, tax_entity, certificate_number, software_validation_number, product_id,
	product_version, tax_accounting_basis, telephone, fax, email, website, created_at, updated_at`

// Get devuelve (nil, nil) si el propietario no tiene configuración.
func (r *CompanyConfigRepo) Get(ctx context.Context, ownerID string) (*entity.CompanyConfig, error) {
	var c entity.CompanyConfig
	err := r.q.QueryRow(ctx, `SELECT `+companyColumns+` FROM company_configs WHERE owner_id = $1`, ownerID).Scan(
		&c.OwnerID, &c.NIF, &c.Name, &c.BusinessName, &c.BuildingNumber, &c.StreetName, &c.AddressDetail, &c.City,
		&c.PostalCode, &c.Province, &c.Country, &c.TaxEntity, &c.CertificateNumber, &c.SoftwareValidationNumber,
		&c.ProductID, &c.ProductVersion, &c.TaxAccountingBasis, &c.Telephone, &c.Fax, &c.Email, &c.Website,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get company config: %w", err)
	}
	return &c, nil
}

// Upsert crea o reemplaza la configuración; created_at se conserva.
func (r *CompanyConfigRepo) Upsert(ctx context.Context, c *entity.CompanyConfig) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO company_configs (`+companyColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)
		ON CONFLICT (owner_id) DO UPDATE SET
			nif = EXCLUDED.nif, name = EXCLUDED.name, business_name = EXCLUDED.business_name,
			building_number = EXCLUDED.building_number, street_name = EXCLUDED.street_name,
			address_detail = EXCLUDED.address_detail, city = EXCLUDED.city, postal_code = EXCLUDED.postal_code,
			province = EXCLUDED.province, country = EXCLUDED.country, tax_entity = EXCLUDED.tax_entity,
			certificate_number = EXCLUDED.certificate_number,
			software_validation_number = EXCLUDED.software_validation_number,
			product_id = EXCLUDED.product_id, product_version = EXCLUDED.product_version,
			tax_accounting_basis = EXCLUDED.tax_accounting_basis, telephone = EXCLUDED.telephone,
			fax = EXCLUDED.fax, email = EXCLUDED.email, website = EXCLUDED.website,
			updated_at = EXCLUDED.updated_at`,
		c.OwnerID, c.NIF, c.Name, c.BusinessName, c.BuildingNumber, c.StreetName, c.AddressDetail, c.City,
		c.PostalCode, c.Province, c.Country, c.TaxEntity, c.CertificateNumber, c.SoftwareValidationNumber,
		c.ProductID, c.ProductVersion, c.TaxAccountingBasis, c.Telephone, c.Fax, c.Email, c.Website,
		c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert company config: %w", err)
	}
	return nil
}
