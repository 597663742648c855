package repositories

import (
	"context"

	"github.com/SscSPs/onda_backoffice/internal/core/domain"
)

// RecordReader loads one record type by id.
type RecordReader[T any] interface {
	// FindByID returns apperrors.ErrNotFound when the record does not exist.
	FindByID(ctx context.Context, id string) (*T, error)

	// FindByIDForUpdate loads and row-locks the record until the transaction ends.
	FindByIDForUpdate(ctx context.Context, id string) (*T, error)
}

// LifecycleWriter persists records that move through a transition table.
type LifecycleWriter[T any] interface {
	// Save inserts a new record.
	Save(ctx context.Context, rec T) error

	// Update writes rec only if the stored state still equals from.
	// A record that moved in between yields apperrors.ErrStateConflict.
	Update(ctx context.Context, rec T, from domain.State) error
}

// LifecycleRepository combines the read and guarded write side of a lifecycle record.
type LifecycleRepository[T any] interface {
	RecordReader[T]
	LifecycleWriter[T]
}

// RegistrationRequestRepository stores copyright registration forms.
type RegistrationRequestRepository interface {
	LifecycleRepository[domain.RegistrationRequest]

	// Delete removes a request. Callers check it has no dependents.
	Delete(ctx context.Context, id string) error
}

// CompanyRequestRepository stores IRC registration requests.
type CompanyRequestRepository interface {
	LifecycleRepository[domain.CompanyRequest]
}

// InspectionCaseRepository stores inspection cases.
type InspectionCaseRepository interface {
	LifecycleRepository[domain.InspectionCase]

	// ListByCompanyInStatesForUpdate locks every case of the company currently in one of states.
	ListByCompanyInStatesForUpdate(ctx context.Context, companyID string, states []domain.State) ([]domain.InspectionCase, error)
}

// LegalCaseRepository stores legal referrals.
type LegalCaseRepository interface {
	LifecycleRepository[domain.LegalCase]
}

// ComplaintRepository stores complaints.
type ComplaintRepository interface {
	LifecycleRepository[domain.Complaint]
}

// CompanyRepository stores registered companies.
type CompanyRepository interface {
	RecordReader[domain.Company]

	Save(ctx context.Context, c domain.Company) error
	Update(ctx context.Context, c domain.Company) error
}

// ActaRepository stores visit reports. Actas are append-only.
type ActaRepository interface {
	Save(ctx context.Context, a domain.Acta) error
	ListByCase(ctx context.Context, caseID string) ([]domain.Acta, error)
}

// TransitionRepository is the append-only log of applied transitions.
type TransitionRepository interface {
	Append(ctx context.Context, transitions ...domain.StateTransition) error
	ListByRecord(ctx context.Context, kind domain.Kind, recordID string) ([]domain.StateTransition, error)
}

// CodeCounterRepository hands out per-scope counters for human-readable codes.
type CodeCounterRepository interface {
	// Next increments the counter of scope and returns the new value, starting at 1.
	Next(ctx context.Context, scope string) (int64, error)
}
