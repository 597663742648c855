package pgsql

import (
	"context"

	"github.com/SscSPs/onda_backoffice/internal/core/domain"
	"github.com/jackc/pgx/v5"
)

const registrationColumns = `registration_request_id, code, form_sequence, applicant_name, applicant_document, work_title,
	work_type, registration_number, certificate_file_ref, certificate_at, rejection_note, state, state_dates,
	created_at, created_by, last_updated_at, last_updated_by`

func scanRegistration(row pgx.Row) (domain.RegistrationRequest, error) {
	var r domain.RegistrationRequest
	err := row.Scan(&r.ID, &r.Code, &r.FormSequence, &r.ApplicantName, &r.ApplicantDocument, &r.WorkTitle,
		&r.WorkType, &r.RegistrationNumber, &r.CertificateFileRef, &r.CertificateAt, &r.RejectionNote, &r.State, &r.StateDates,
		&r.CreatedAt, &r.CreatedBy, &r.LastUpdatedAt, &r.LastUpdatedBy)
	return r, err
}

type registrationRequestRepository struct {
	BaseRepository
}

func (r registrationRequestRepository) FindByID(ctx context.Context, id string) (*domain.RegistrationRequest, error) {
	return queryOne(ctx, r.tx, scanRegistration, "registration request "+id,
		`SELECT `+registrationColumns+` FROM registration_requests WHERE registration_request_id = $1`, id)
}

func (r registrationRequestRepository) FindByIDForUpdate(ctx context.Context, id string) (*domain.RegistrationRequest, error) {
	return queryOne(ctx, r.tx, scanRegistration, "registration request "+id,
		`SELECT `+registrationColumns+` FROM registration_requests WHERE registration_request_id = $1`+forUpdate, id)
}

func (r registrationRequestRepository) Save(ctx context.Context, q domain.RegistrationRequest) error {
	const query = `
		INSERT INTO registration_requests (` + registrationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`
	_, err := r.tx.Exec(ctx, query, q.ID, q.Code, q.FormSequence, q.ApplicantName, q.ApplicantDocument, q.WorkTitle,
		q.WorkType, q.RegistrationNumber, q.CertificateFileRef, q.CertificateAt, q.RejectionNote, q.State, stateDates(q.Lifecycle),
		q.CreatedAt, q.CreatedBy, q.LastUpdatedAt, q.LastUpdatedBy)
	return mapWriteError(err, "registration request")
}

func (r registrationRequestRepository) Update(ctx context.Context, q domain.RegistrationRequest, from domain.State) error {
	const query = `
		UPDATE registration_requests
		SET applicant_name = $3, applicant_document = $4, work_title = $5, work_type = $6,
			registration_number = $7, certificate_file_ref = $8, certificate_at = $9, rejection_note = $10,
			state = $11, state_dates = $12, last_updated_at = $13, last_updated_by = $14
		WHERE registration_request_id = $1 AND state = $2`
	return execGuarded(ctx, r.tx, "registration request", q.ID, from, query, q.ID, from,
		q.ApplicantName, q.ApplicantDocument, q.WorkTitle, q.WorkType,
		q.RegistrationNumber, q.CertificateFileRef, q.CertificateAt, q.RejectionNote,
		q.State, stateDates(q.Lifecycle), q.LastUpdatedAt, q.LastUpdatedBy)
}

func (r registrationRequestRepository) Delete(ctx context.Context, id string) error {
	return execOne(ctx, r.tx, "registration request", id,
		`DELETE FROM registration_requests WHERE registration_request_id = $1`, id)
}

const companyRequestColumns = `company_request_id, code, form_sequence, request_type, company_id, company_name, tax_id,
	address, activity, registration_number, certificate_file_ref, signed_certificate_file_ref, return_note, delivered_at,
	state, state_dates, created_at, created_by, last_updated_at, last_updated_by`

func scanCompanyRequest(row pgx.Row) (domain.CompanyRequest, error) {
	var r domain.CompanyRequest
	err := row.Scan(&r.ID, &r.Code, &r.FormSequence, &r.RequestType, &r.CompanyID, &r.CompanyName, &r.TaxID,
		&r.Address, &r.Activity, &r.RegistrationNumber, &r.CertificateFileRef, &r.SignedCertificateFileRef, &r.ReturnNote, &r.DeliveredAt,
		&r.State, &r.StateDates, &r.CreatedAt, &r.CreatedBy, &r.LastUpdatedAt, &r.LastUpdatedBy)
	return r, err
}

type companyRequestRepository struct {
	BaseRepository
}

func (r companyRequestRepository) FindByID(ctx context.Context, id string) (*domain.CompanyRequest, error) {
	return queryOne(ctx, r.tx, scanCompanyRequest, "company request "+id,
		`SELECT `+companyRequestColumns+` FROM company_requests WHERE company_request_id = $1`, id)
}

func (r companyRequestRepository) FindByIDForUpdate(ctx context.Context, id string) (*domain.CompanyRequest, error) {
	return queryOne(ctx, r.tx, scanCompanyRequest, "company request "+id,
		`SELECT `+companyRequestColumns+` FROM company_requests WHERE company_request_id = $1`+forUpdate, id)
}

func (r companyRequestRepository) Save(ctx context.Context, q domain.CompanyRequest) error {
	const query = `
		INSERT INTO company_requests (` + companyRequestColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`
	_, err := r.tx.Exec(ctx, query, q.ID, q.Code, q.FormSequence, q.RequestType, q.CompanyID, q.CompanyName, q.TaxID,
		q.Address, q.Activity, q.RegistrationNumber, q.CertificateFileRef, q.SignedCertificateFileRef, q.ReturnNote, q.DeliveredAt,
		q.State, stateDates(q.Lifecycle), q.CreatedAt, q.CreatedBy, q.LastUpdatedAt, q.LastUpdatedBy)
	return mapWriteError(err, "company request")
}

func (r companyRequestRepository) Update(ctx context.Context, q domain.CompanyRequest, from domain.State) error {
	const query = `
		UPDATE company_requests
		SET company_id = $3, registration_number = $4, certificate_file_ref = $5, signed_certificate_file_ref = $6,
			return_note = $7, delivered_at = $8, state = $9, state_dates = $10, last_updated_at = $11, last_updated_by = $12
		WHERE company_request_id = $1 AND state = $2`
	return execGuarded(ctx, r.tx, "company request", q.ID, from, query, q.ID, from,
		q.CompanyID, q.RegistrationNumber, q.CertificateFileRef, q.SignedCertificateFileRef,
		q.ReturnNote, q.DeliveredAt, q.State, stateDates(q.Lifecycle), q.LastUpdatedAt, q.LastUpdatedBy)
}

const companyColumns = `company_id, name, tax_id, address, activity, registration_number, registered_at, expires_at,
	compliance_status, renewal_status, last_inspection_at, created_at, created_by, last_updated_at, last_updated_by`

func scanCompany(row pgx.Row) (domain.Company, error) {
	var c domain.Company
	err := row.Scan(&c.ID, &c.Name, &c.TaxID, &c.Address, &c.Activity, &c.RegistrationNumber, &c.RegisteredAt, &c.ExpiresAt,
		&c.ComplianceStatus, &c.RenewalStatus, &c.LastInspectionAt, &c.CreatedAt, &c.CreatedBy, &c.LastUpdatedAt, &c.LastUpdatedBy)
	return c, err
}

type companyRepository struct {
	BaseRepository
}

func (r companyRepository) FindByID(ctx context.Context, id string) (*domain.Company, error) {
	return queryOne(ctx, r.tx, scanCompany, "company "+id,
		`SELECT `+companyColumns+` FROM companies WHERE company_id = $1`, id)
}

func (r companyRepository) FindByIDForUpdate(ctx context.Context, id string) (*domain.Company, error) {
	return queryOne(ctx, r.tx, scanCompany, "company "+id,
		`SELECT `+companyColumns+` FROM companies WHERE company_id = $1`+forUpdate, id)
}

func (r companyRepository) Save(ctx context.Context, c domain.Company) error {
	const query = `
		INSERT INTO companies (` + companyColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	_, err := r.tx.Exec(ctx, query, c.ID, c.Name, c.TaxID, c.Address, c.Activity, c.RegistrationNumber, c.RegisteredAt, c.ExpiresAt,
		c.ComplianceStatus, c.RenewalStatus, c.LastInspectionAt, c.CreatedAt, c.CreatedBy, c.LastUpdatedAt, c.LastUpdatedBy)
	return mapWriteError(err, "company")
}

func (r companyRepository) Update(ctx context.Context, c domain.Company) error {
	const query = `
		UPDATE companies
		SET name = $2, tax_id = $3, address = $4, activity = $5, registration_number = $6, expires_at = $7,
			compliance_status = $8, renewal_status = $9, last_inspection_at = $10, last_updated_at = $11, last_updated_by = $12
		WHERE company_id = $1`
	return execOne(ctx, r.tx, "company", c.ID, query, c.ID, c.Name, c.TaxID, c.Address, c.Activity, c.RegistrationNumber, c.ExpiresAt,
		c.ComplianceStatus, c.RenewalStatus, c.LastInspectionAt, c.LastUpdatedAt, c.LastUpdatedBy)
}
