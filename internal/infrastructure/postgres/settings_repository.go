package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/facturador-dian/internal/domain/entity"
	"github.com/jhoicas/facturador-dian/internal/domain/repository"
)

var _ repository.SettingsRepository = (*SettingsRepo)(nil)

// SettingsRepo fila única id=1.
type SettingsRepo struct {
	q Querier
}

func NewSettingsRepository(q Querier) *SettingsRepo {
	return &SettingsRepo{q: q}
}

// Get devuelve nil, nil si la fila aún no existe.
func (r *SettingsRepo) Get(ctx context.Context) (*entity.Settings, error) {
	query := `
		SELECT company_name, company_nit, company_dv, company_address, company_phone, company_email,
		       merchant_registration, type_document_identification_id, type_organization_id, type_regime_id,
		       type_liability_id, customer_municipality_id, seller_municipality_id, postal_zone_code,
		       api_url, api_token, software_id, software_pin, test_set_id, type_environment_id,
		       ds_software_id, ds_software_pin, ds_test_set_id, watch_folder, processed_folder, updated_at
		FROM settings WHERE id = 1`
	s := entity.Settings{ID: 1}
	err := r.q.QueryRow(ctx, query).Scan(
		&s.CompanyName, &s.CompanyNIT, &s.CompanyDV, &s.CompanyAddress, &s.CompanyPhone, &s.CompanyEmail,
		&s.MerchantRegistration, &s.TypeDocumentIdentificationID, &s.TypeOrganizationID, &s.TypeRegimeID,
		&s.TypeLiabilityID, &s.CustomerMunicipalityID, &s.SellerMunicipalityID, &s.PostalZoneCode,
		&s.APIURL, &s.APIToken, &s.SoftwareID, &s.SoftwarePIN, &s.TestSetID, &s.Environment,
		&s.SupportSoftwareID, &s.SupportSoftwarePIN, &s.SupportTestSetID, &s.WatchFolder, &s.ProcessedFolder, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get settings: %w", err)
	}
	return &s, nil
}

// Save upsert de la fila única.
func (r *SettingsRepo) Save(ctx context.Context, s *entity.Settings) error {
	s.ID = 1
	s.UpdatedAt = time.Now().UTC()
	query := `
		INSERT INTO settings (id, company_name, company_nit, company_dv, company_address, company_phone, company_email,
			merchant_registration, type_document_identification_id, type_organization_id, type_regime_id,
			type_liability_id, customer_municipality_id, seller_municipality_id, postal_zone_code,
			api_url, api_token, software_id, software_pin, test_set_id, type_environment_id,
			ds_software_id, ds_software_pin, ds_test_set_id, watch_folder, processed_folder, updated_at)
		VALUES (1, $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20,
			$21, $22, $23, $24, $25, $26)
		ON CONFLICT (id) DO UPDATE SET
			company_name = EXCLUDED.company_name,
			company_nit = EXCLUDED.company_nit,
			company_dv = EXCLUDED.company_dv,
			company_address = EXCLUDED.company_address,
			company_phone = EXCLUDED.company_phone,
			company_email = EXCLUDED.company_email,
			merchant_registration = EXCLUDED.merchant_registration,
			type_document_identification_id = EXCLUDED.type_document_identification_id,
			type_organization_id = EXCLUDED.type_organization_id,
			type_regime_id = EXCLUDED.type_regime_id,
			type_liability_id = EXCLUDED.type_liability_id,
			customer_municipality_id = EXCLUDED.customer_municipality_id,
			seller_municipality_id = EXCLUDED.seller_municipality_id,
			postal_zone_code = EXCLUDED.postal_zone_code,
			api_url = EXCLUDED.api_url,
			api_token = EXCLUDED.api_token,
			software_id = EXCLUDED.software_id,
			software_pin = EXCLUDED.software_pin,
			test_set_id = EXCLUDED.test_set_id,
			type_environment_id = EXCLUDED.type_environment_id,
			ds_software_id = EXCLUDED.ds_software_id,
			ds_software_pin = EXCLUDED.ds_software_pin,
			ds_test_set_id = EXCLUDED.ds_test_set_id,
			watch_folder = EXCLUDED.watch_folder,
			processed_folder = EXCLUDED.processed_folder,
			updated_at = EXCLUDED.updated_at`
	_, err := r.q.Exec(ctx, query,
		s.CompanyName, s.CompanyNIT, s.CompanyDV, s.CompanyAddress, s.CompanyPhone, s.CompanyEmail,
		s.MerchantRegistration, s.TypeDocumentIdentificationID, s.TypeOrganizationID, s.TypeRegimeID,
		s.TypeLiabilityID, s.CustomerMunicipalityID, s.SellerMunicipalityID, s.PostalZoneCode,
		s.APIURL, s.APIToken, s.SoftwareID, s.SoftwarePIN, s.TestSetID, s.Environment,
		s.SupportSoftwareID, s.SupportSoftwarePIN, s.SupportTestSetID, s.WatchFolder, s.ProcessedFolder, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}
