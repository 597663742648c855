package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/SscSPs/onda_backoffice/internal/apperrors"
	"github.com/SscSPs/onda_backoffice/internal/core/domain"
)

type counterRepo struct{ d *dataset }

func (r counterRepo) Next(_ context.Context, scope string) (int64, error) {
	r.d.counters[scope]++
	return r.d.counters[scope], nil
}

type sequenceRepo struct {
	*records[domain.FiscalSequence]
}

func (r sequenceRepo) Update(_ context.Context, seq domain.FiscalSequence) error {
	return r.put(seq)
}

func (r sequenceRepo) ListActiveForUpdate(_ context.Context, typeCode, series string) ([]domain.FiscalSequence, error) {
	return r.filter(func(s *domain.FiscalSequence) bool {
		return s.Active && s.TypeCode == typeCode && s.Series == series
	}), nil
}

func (r sequenceRepo) NextUsableForUpdate(_ context.Context, typeCode string, asOf time.Time) (*domain.FiscalSequence, error) {
	usable := r.filter(func(s *domain.FiscalSequence) bool {
		return s.TypeCode == typeCode && s.IsUsable(asOf)
	})
	if len(usable) == 0 {
		return nil, fmt.Errorf("usable fiscal sequence for %s: %w", typeCode, apperrors.ErrNotFound)
	}
	sort.SliceStable(usable, func(i, j int) bool {
		if usable[i].Cursor != usable[j].Cursor {
			return usable[i].Cursor < usable[j].Cursor
		}
		return usable[i].RangeStart < usable[j].RangeStart
	})
	return &usable[0], nil
}

type catalogRepo struct{ d *dataset }

func (r catalogRepo) FindByCode(_ context.Context, code string) (*domain.CatalogItem, error) {
	for _, it := range r.d.catalog {
		if it.Code == code {
			item := it
			return &item, nil
		}
	}
	return nil, fmt.Errorf("catalog item %s: %w", code, apperrors.ErrNotFound)
}

func (r catalogRepo) FindByIDs(_ context.Context, ids []string) (map[string]domain.CatalogItem, error) {
	out := make(map[string]domain.CatalogItem, len(ids))
	for _, id := range ids {
		if it, ok := r.d.catalog[id]; ok {
			out[id] = it
		}
	}
	return out, nil
}

type invoiceRepo struct {
	*records[domain.Invoice]
	d *dataset
}

func (r invoiceRepo) ListBySessionForUpdate(_ context.Context, sessionID string) ([]domain.Invoice, error) {
	return r.filter(func(i *domain.Invoice) bool {
		return i.CashSessionID != nil && *i.CashSessionID == sessionID
	}), nil
}

func (r invoiceRepo) ListByLink(_ context.Context, kind domain.Kind, recordID string) ([]domain.Invoice, error) {
	link := domain.RecordLink{Kind: kind, RecordID: recordID}
	return r.filter(func(i *domain.Invoice) bool {
		return slices.Contains(i.Links, link)
	}), nil
}

func (r invoiceRepo) UpdateMany(ctx context.Context, invoices []domain.Invoice, from domain.State) error {
	for _, inv := range invoices {
		if err := r.Update(ctx, inv, from); err != nil {
			return err
		}
	}
	return nil
}

func (r invoiceRepo) SavePayment(_ context.Context, p domain.Payment) error {
	r.d.payments = append(r.d.payments, p)
	return nil
}

func (r invoiceRepo) ListPayments(_ context.Context, invoiceID string) ([]domain.Payment, error) {
	var out []domain.Payment
	for _, p := range r.d.payments {
		if p.InvoiceID == invoiceID {
			out = append(out, p)
		}
	}
	return out, nil
}

type sessionRepo struct {
	*records[domain.CashSession]
	closures *records[domain.Closure]
}

// Save enforces one open session per operator like the partial unique index does.
func (r sessionRepo) Save(ctx context.Context, s domain.CashSession) error {
	if s.OperatorID != nil {
		if _, err := r.FindOpenByOperatorForUpdate(ctx, *s.OperatorID); err == nil {
			return fmt.Errorf("%w: operator %s already has an open cash session", apperrors.ErrConflict, *s.OperatorID)
		}
	}
	return r.records.Save(ctx, s)
}

func (r sessionRepo) FindOpenByOperatorForUpdate(_ context.Context, operatorID string) (*domain.CashSession, error) {
	open := r.filter(func(s *domain.CashSession) bool {
		return s.State == domain.CashSessionOpen && s.OperatorID != nil && *s.OperatorID == operatorID
	})
	if len(open) == 0 {
		return nil, fmt.Errorf("open cash session for %s: %w", operatorID, apperrors.ErrNotFound)
	}
	return &open[0], nil
}

func (r sessionRepo) SaveClosure(ctx context.Context, c domain.Closure) error {
	return r.closures.Save(ctx, c)
}

func (r sessionRepo) FindClosureByID(ctx context.Context, id string) (*domain.Closure, error) {
	return r.closures.FindByID(ctx, id)
}

func (r sessionRepo) FindClosureByIDForUpdate(ctx context.Context, id string) (*domain.Closure, error) {
	return r.closures.FindByIDForUpdate(ctx, id)
}

func (r sessionRepo) UpdateClosure(ctx context.Context, c domain.Closure, from domain.State) error {
	return r.closures.Update(ctx, c, from)
}

type registrationRepo struct {
	*records[domain.RegistrationRequest]
}

func (r registrationRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.rows[id]; !ok {
		return fmt.Errorf("registration request %s: %w", id, apperrors.ErrNotFound)
	}
	delete(r.rows, id)
	return nil
}

type companyRepo struct {
	*records[domain.Company]
}

func (r companyRepo) Update(_ context.Context, c domain.Company) error {
	return r.put(c)
}

type inspectionRepo struct {
	*records[domain.InspectionCase]
}

func (r inspectionRepo) ListByCompanyInStatesForUpdate(_ context.Context, companyID string, states []domain.State) ([]domain.InspectionCase, error) {
	return r.filter(func(c *domain.InspectionCase) bool {
		return c.CompanyID == companyID && slices.Contains(states, c.State)
	}), nil
}

type actaRepo struct{ d *dataset }

func (r actaRepo) Save(_ context.Context, a domain.Acta) error {
	for _, existing := range r.d.actas {
		if existing.ID == a.ID {
			return fmt.Errorf("acta %s: %w", a.ID, apperrors.ErrDuplicate)
		}
	}
	r.d.actas = append(r.d.actas, a)
	return nil
}

func (r actaRepo) ListByCase(_ context.Context, caseID string) ([]domain.Acta, error) {
	var out []domain.Acta
	for _, a := range r.d.actas {
		if a.CaseID == caseID {
			out = append(out, a)
		}
	}
	return out, nil
}

type transitionRepo struct{ d *dataset }

func (r transitionRepo) Append(_ context.Context, transitions ...domain.StateTransition) error {
	r.d.transitions = append(r.d.transitions, transitions...)
	return nil
}

func (r transitionRepo) ListByRecord(_ context.Context, kind domain.Kind, recordID string) ([]domain.StateTransition, error) {
	var out []domain.StateTransition
	for _, t := range r.d.transitions {
		if t.Kind == kind && t.RecordID == recordID {
			out = append(out, t)
		}
	}
	return out, nil
}
