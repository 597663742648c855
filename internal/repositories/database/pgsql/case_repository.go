package pgsql

import (
	"context"

	"github.com/SscSPs/onda_backoffice/internal/core/domain"
	"github.com/jackc/pgx/v5"
	"github.com/samber/lo"
)

const inspectionColumns = `inspection_case_id, code, company_id, complaint_id, reason, inspector_id, assigned_at, assigned_by,
	correction_deadline, resolution, legal_case_id, state, state_dates, created_at, created_by, last_updated_at, last_updated_by`

func scanInspection(row pgx.Row) (domain.InspectionCase, error) {
	var c domain.InspectionCase
	err := row.Scan(&c.ID, &c.Code, &c.CompanyID, &c.ComplaintID, &c.Reason, &c.InspectorID, &c.AssignedAt, &c.AssignedBy,
		&c.CorrectionDeadline, &c.Resolution, &c.LegalCaseID, &c.State, &c.StateDates, &c.CreatedAt, &c.CreatedBy, &c.LastUpdatedAt, &c.LastUpdatedBy)
	return c, err
}

type inspectionCaseRepository struct {
	BaseRepository
}

func (r inspectionCaseRepository) FindByID(ctx context.Context, id string) (*domain.InspectionCase, error) {
	return queryOne(ctx, r.tx, scanInspection, "inspection case "+id,
		`SELECT `+inspectionColumns+` FROM inspection_cases WHERE inspection_case_id = $1`, id)
}

func (r inspectionCaseRepository) FindByIDForUpdate(ctx context.Context, id string) (*domain.InspectionCase, error) {
	return queryOne(ctx, r.tx, scanInspection, "inspection case "+id,
		`SELECT `+inspectionColumns+` FROM inspection_cases WHERE inspection_case_id = $1`+forUpdate, id)
}

func (r inspectionCaseRepository) ListByCompanyInStatesForUpdate(ctx context.Context, companyID string, states []domain.State) ([]domain.InspectionCase, error) {
	return queryAll(ctx, r.tx, scanInspection, "inspection cases",
		`SELECT `+inspectionColumns+` FROM inspection_cases
		WHERE company_id = $1 AND state = ANY($2)
		ORDER BY created_at, code`+forUpdate, companyID, lo.Map(states, func(s domain.State, _ int) string { return s.String() }))
}

func (r inspectionCaseRepository) Save(ctx context.Context, c domain.InspectionCase) error {
	const query = `
		INSERT INTO inspection_cases (` + inspectionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`
	_, err := r.tx.Exec(ctx, query, c.ID, c.Code, c.CompanyID, c.ComplaintID, c.Reason, c.InspectorID, c.AssignedAt, c.AssignedBy,
		c.CorrectionDeadline, c.Resolution, c.LegalCaseID, c.State, stateDates(c.Lifecycle), c.CreatedAt, c.CreatedBy, c.LastUpdatedAt, c.LastUpdatedBy)
	return mapWriteError(err, "inspection case")
}

func (r inspectionCaseRepository) Update(ctx context.Context, c domain.InspectionCase, from domain.State) error {
	const query = `
		UPDATE inspection_cases
		SET inspector_id = $3, assigned_at = $4, assigned_by = $5, correction_deadline = $6, resolution = $7,
			legal_case_id = $8, state = $9, state_dates = $10, last_updated_at = $11, last_updated_by = $12
		WHERE inspection_case_id = $1 AND state = $2`
	return execGuarded(ctx, r.tx, "inspection case", c.ID, from, query, c.ID, from,
		c.InspectorID, c.AssignedAt, c.AssignedBy, c.CorrectionDeadline, c.Resolution,
		c.LegalCaseID, c.State, stateDates(c.Lifecycle), c.LastUpdatedAt, c.LastUpdatedBy)
}

type actaRepository struct {
	BaseRepository
}

func (r actaRepository) Save(ctx context.Context, a domain.Acta) error {
	const query = `
		INSERT INTO actas (acta_id, case_id, acta_type, visit_number, findings, visit_date, inspector_id, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.tx.Exec(ctx, query, a.ID, a.CaseID, a.Type, a.VisitNumber, a.Findings, a.VisitDate, a.InspectorID, a.CreatedAt, a.CreatedBy)
	return mapWriteError(err, "acta")
}

func (r actaRepository) ListByCase(ctx context.Context, caseID string) ([]domain.Acta, error) {
	return queryAll(ctx, r.tx, func(row pgx.Row) (domain.Acta, error) {
		var a domain.Acta
		err := row.Scan(&a.ID, &a.CaseID, &a.Type, &a.VisitNumber, &a.Findings, &a.VisitDate, &a.InspectorID, &a.CreatedAt, &a.CreatedBy)
		return a, err
	}, "actas", `
		SELECT acta_id, case_id, acta_type, visit_number, findings, visit_date, inspector_id, created_at, created_by
		FROM actas WHERE case_id = $1
		ORDER BY visit_number`, caseID)
}

const legalCaseColumns = `legal_case_id, code, inspection_case_id, infraction_acta_id, company_id, notes, closing_notes,
	state, state_dates, created_at, created_by, last_updated_at, last_updated_by`

func scanLegalCase(row pgx.Row) (domain.LegalCase, error) {
	var c domain.LegalCase
	err := row.Scan(&c.ID, &c.Code, &c.InspectionCaseID, &c.InfractionActaID, &c.CompanyID, &c.Notes, &c.ClosingNotes,
		&c.State, &c.StateDates, &c.CreatedAt, &c.CreatedBy, &c.LastUpdatedAt, &c.LastUpdatedBy)
	return c, err
}

type legalCaseRepository struct {
	BaseRepository
}

func (r legalCaseRepository) FindByID(ctx context.Context, id string) (*domain.LegalCase, error) {
	return queryOne(ctx, r.tx, scanLegalCase, "legal case "+id,
		`SELECT `+legalCaseColumns+` FROM legal_cases WHERE legal_case_id = $1`, id)
}

func (r legalCaseRepository) FindByIDForUpdate(ctx context.Context, id string) (*domain.LegalCase, error) {
	return queryOne(ctx, r.tx, scanLegalCase, "legal case "+id,
		`SELECT `+legalCaseColumns+` FROM legal_cases WHERE legal_case_id = $1`+forUpdate, id)
}

func (r legalCaseRepository) Save(ctx context.Context, c domain.LegalCase) error {
	const query = `
		INSERT INTO legal_cases (` + legalCaseColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.tx.Exec(ctx, query, c.ID, c.Code, c.InspectionCaseID, c.InfractionActaID, c.CompanyID, c.Notes, c.ClosingNotes,
		c.State, stateDates(c.Lifecycle), c.CreatedAt, c.CreatedBy, c.LastUpdatedAt, c.LastUpdatedBy)
	return mapWriteError(err, "legal case")
}

func (r legalCaseRepository) Update(ctx context.Context, c domain.LegalCase, from domain.State) error {
	const query = `
		UPDATE legal_cases
		SET notes = $3, closing_notes = $4, state = $5, state_dates = $6, last_updated_at = $7, last_updated_by = $8
		WHERE legal_case_id = $1 AND state = $2`
	return execGuarded(ctx, r.tx, "legal case", c.ID, from, query, c.ID, from,
		c.Notes, c.ClosingNotes, c.State, stateDates(c.Lifecycle), c.LastUpdatedAt, c.LastUpdatedBy)
}

const complaintColumns = `complaint_id, code, company_id, complainant_name, complainant_document, description,
	inspection_case_id, state, state_dates, created_at, created_by, last_updated_at, last_updated_by`

func scanComplaint(row pgx.Row) (domain.Complaint, error) {
	var c domain.Complaint
	err := row.Scan(&c.ID, &c.Code, &c.CompanyID, &c.ComplainantName, &c.ComplainantDocument, &c.Description,
		&c.InspectionCaseID, &c.State, &c.StateDates, &c.CreatedAt, &c.CreatedBy, &c.LastUpdatedAt, &c.LastUpdatedBy)
	return c, err
}

type complaintRepository struct {
	BaseRepository
}

func (r complaintRepository) FindByID(ctx context.Context, id string) (*domain.Complaint, error) {
	return queryOne(ctx, r.tx, scanComplaint, "complaint "+id,
		`SELECT `+complaintColumns+` FROM complaints WHERE complaint_id = $1`, id)
}

func (r complaintRepository) FindByIDForUpdate(ctx context.Context, id string) (*domain.Complaint, error) {
	return queryOne(ctx, r.tx, scanComplaint, "complaint "+id,
		`SELECT `+complaintColumns+` FROM complaints WHERE complaint_id = $1`+forUpdate, id)
}

func (r complaintRepository) Save(ctx context.Context, c domain.Complaint) error {
	const query = `
		INSERT INTO complaints (` + complaintColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.tx.Exec(ctx, query, c.ID, c.Code, c.CompanyID, c.ComplainantName, c.ComplainantDocument, c.Description,
		c.InspectionCaseID, c.State, stateDates(c.Lifecycle), c.CreatedAt, c.CreatedBy, c.LastUpdatedAt, c.LastUpdatedBy)
	return mapWriteError(err, "complaint")
}

func (r complaintRepository) Update(ctx context.Context, c domain.Complaint, from domain.State) error {
	const query = `
		UPDATE complaints
		SET inspection_case_id = $3, state = $4, state_dates = $5, last_updated_at = $6, last_updated_by = $7
		WHERE complaint_id = $1 AND state = $2`
	return execGuarded(ctx, r.tx, "complaint", c.ID, from, query, c.ID, from,
		c.InspectionCaseID, c.State, stateDates(c.Lifecycle), c.LastUpdatedAt, c.LastUpdatedBy)
}

type transitionRepository struct {
	BaseRepository
}

// Append writes the transitions in order; seq keeps that order across the log.
func (r transitionRepository) Append(ctx context.Context, transitions ...domain.StateTransition) error {
	if len(transitions) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, t := range transitions {
		batch.Queue(`
			INSERT INTO state_transitions (transition_id, record_kind, record_id, from_state, to_state, occurred_at, actor, note)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			t.ID, t.Kind, t.RecordID, t.From, t.To, t.At, t.Actor, t.Note)
	}
	return mapWriteError(r.tx.SendBatch(ctx, batch).Close(), "state transition")
}

func (r transitionRepository) ListByRecord(ctx context.Context, kind domain.Kind, recordID string) ([]domain.StateTransition, error) {
	return queryAll(ctx, r.tx, func(row pgx.Row) (domain.StateTransition, error) {
		var t domain.StateTransition
		err := row.Scan(&t.ID, &t.Kind, &t.RecordID, &t.From, &t.To, &t.At, &t.Actor, &t.Note)
		return t, err
	}, "state transitions", `
		SELECT transition_id, record_kind, record_id, from_state, to_state, occurred_at, actor, note
		FROM state_transitions WHERE record_kind = $1 AND record_id = $2
		ORDER BY seq`, kind, recordID)
}
