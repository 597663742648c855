package statemachine

import (
	"strings"

	"github.com/SscSPs/onda_backoffice/internal/core/domain"
)

// when adapts a typed predicate. Records of another type never satisfy it.
func when[T domain.Record](reason string, f func(T, Context) bool) Precondition {
	return Precondition{
		Reason: reason,
		Holds: func(rec domain.Record, c Context) bool {
			t, ok := rec.(T)
			return ok && f(t, c)
		},
	}
}

func effect[T domain.Record](f func(T, Context)) func(domain.Record, Context) {
	return func(rec domain.Record, c Context) {
		if t, ok := rec.(T); ok {
			f(t, c)
		}
	}
}

var (
	noteRequired = Precondition{
		Reason: "a note is required",
		Holds:  func(_ domain.Record, c Context) bool { return strings.TrimSpace(c.Note) != "" },
	}
	invoicesPaid = Precondition{
		Reason: "the billing invoice has not been paid",
		Holds:  func(_ domain.Record, c Context) bool { return c.InvoicesPaid },
	}
	fileRefRequired = Precondition{
		Reason: "a certificate file reference is required",
		Holds:  func(_ domain.Record, c Context) bool { return strings.TrimSpace(c.FileRef) != "" },
	}
	spawnedRequired = Precondition{
		Reason: "the follow-up record was not created",
		Holds:  func(_ domain.Record, c Context) bool { return c.SpawnedID != "" },
	}
)

func hasActa(t domain.ActaType, visit int) func(domain.Record, Context) bool {
	return func(_ domain.Record, c Context) bool {
		_, ok := domain.FindActa(c.Actas, t, visit)
		return ok
	}
}

func hasAnyActa(t domain.ActaType) func(domain.Record, Context) bool {
	return func(_ domain.Record, c Context) bool {
		for _, a := range c.Actas {
			if a.Type == t {
				return true
			}
		}
		return false
	}
}

func strPtr(s string) *string {
	return &s
}

// RegistrationRequestTable is the copyright form pipeline.
func RegistrationRequestTable() Table {
	return Table{
		Kind:    domain.KindRegistrationRequest,
		Initial: domain.RegistrationPending,
		States: []domain.State{
			domain.RegistrationPending, domain.RegistrationPaid, domain.RegistrationUnderReview,
			domain.RegistrationReturned, domain.RegistrationRegistered, domain.RegistrationCertified,
			domain.RegistrationDelivered,
		},
		Terminal: []domain.State{domain.RegistrationDelivered},
		Edges: []Edge{
			{From: domain.RegistrationPending, To: domain.RegistrationPaid, Preconditions: []Precondition{invoicesPaid}},
			{From: domain.RegistrationPaid, To: domain.RegistrationUnderReview},
			{
				From: domain.RegistrationUnderReview, To: domain.RegistrationReturned,
				Preconditions: []Precondition{noteRequired},
				Effect: effect(func(r *domain.RegistrationRequest, c Context) {
					r.RejectionNote = strPtr(c.Note)
				}),
			},
			{
				From: domain.RegistrationReturned, To: domain.RegistrationUnderReview,
				Effect: effect(func(r *domain.RegistrationRequest, _ Context) {
					r.RejectionNote = nil
					r.CertificateFileRef = nil
					r.CertificateAt = nil
				}),
			},
			{
				From: domain.RegistrationUnderReview, To: domain.RegistrationRegistered,
				Preconditions: []Precondition{
					{Reason: "a registration number is required", Holds: func(_ domain.Record, c Context) bool { return c.RegistrationNumber != "" }},
				},
				Effect: effect(func(r *domain.RegistrationRequest, c Context) {
					r.RegistrationNumber = strPtr(c.RegistrationNumber)
				}),
			},
			{
				From: domain.RegistrationRegistered, To: domain.RegistrationCertified,
				Preconditions: []Precondition{fileRefRequired},
				Effect: effect(func(r *domain.RegistrationRequest, c Context) {
					at := c.At
					r.CertificateFileRef = strPtr(c.FileRef)
					r.CertificateAt = &at
				}),
			},
			{
				From: domain.RegistrationCertified, To: domain.RegistrationDelivered,
				Preconditions: []Precondition{
					when("no certificate is attached", func(r *domain.RegistrationRequest, _ Context) bool { return r.CertificateFileRef != nil }),
				},
			},
		},
	}
}

// CompanyRequestTable is the IRC registration pipeline.
func CompanyRequestTable() Table {
	return Table{
		Kind:    domain.KindCompanyRequest,
		Initial: domain.CompanyRequestPending,
		States: []domain.State{
			domain.CompanyRequestPending, domain.CompanyRequestValidated, domain.CompanyRequestPaid,
			domain.CompanyRequestAwaitingAaUCorrection, domain.CompanyRequestRecorded,
			domain.CompanyRequestPendingSignature, domain.CompanyRequestSigned, domain.CompanyRequestDelivered,
		},
		Terminal: []domain.State{domain.CompanyRequestDelivered},
		Edges: []Edge{
			{From: domain.CompanyRequestPending, To: domain.CompanyRequestValidated},
			{From: domain.CompanyRequestValidated, To: domain.CompanyRequestPaid, Preconditions: []Precondition{invoicesPaid}},
			{
				From: domain.CompanyRequestPaid, To: domain.CompanyRequestAwaitingAaUCorrection,
				Preconditions: []Precondition{noteRequired},
				Effect: effect(func(r *domain.CompanyRequest, c Context) {
					r.ReturnNote = strPtr(c.Note)
				}),
			},
			{
				From: domain.CompanyRequestAwaitingAaUCorrection, To: domain.CompanyRequestPaid,
				Effect: effect(func(r *domain.CompanyRequest, _ Context) {
					r.ReturnNote = nil
				}),
			},
			{
				From: domain.CompanyRequestPaid, To: domain.CompanyRequestRecorded,
				Preconditions: []Precondition{
					{Reason: "the company record is missing", Holds: func(_ domain.Record, c Context) bool { return c.CompanyID != "" }},
					{Reason: "a registration number is required", Holds: func(_ domain.Record, c Context) bool { return c.RegistrationNumber != "" }},
				},
				Effect: effect(func(r *domain.CompanyRequest, c Context) {
					r.CompanyID = strPtr(c.CompanyID)
					r.RegistrationNumber = strPtr(c.RegistrationNumber)
				}),
			},
			{
				From: domain.CompanyRequestRecorded, To: domain.CompanyRequestPendingSignature,
				Preconditions: []Precondition{fileRefRequired},
				Effect: effect(func(r *domain.CompanyRequest, c Context) {
					r.CertificateFileRef = strPtr(c.FileRef)
				}),
			},
			{
				From: domain.CompanyRequestPendingSignature, To: domain.CompanyRequestSigned,
				Preconditions: []Precondition{
					{Reason: "a signed certificate file reference is required", Holds: fileRefRequired.Holds},
				},
				Effect: effect(func(r *domain.CompanyRequest, c Context) {
					r.SignedCertificateFileRef = strPtr(c.FileRef)
				}),
			},
			{
				From: domain.CompanyRequestSigned, To: domain.CompanyRequestDelivered,
				Preconditions: []Precondition{
					when("no signed certificate is attached", func(r *domain.CompanyRequest, _ Context) bool { return r.SignedCertificateFileRef != nil }),
				},
				Effect: effect(func(r *domain.CompanyRequest, c Context) {
					at := c.At
					r.DeliveredAt = &at
				}),
			},
		},
	}
}

// InspectionCaseTable is the inspection pipeline. Any open case may be closed by a payment.
func InspectionCaseTable() Table {
	closeByPayment := func(from domain.State) Edge {
		return Edge{
			From: from, To: domain.InspectionClosedByPayment,
			Effect: effect(func(ic *domain.InspectionCase, _ Context) {
				ic.Resolve(domain.ResolutionResolvedByPayment)
			}),
		}
	}
	return Table{
		Kind:    domain.KindInspectionCase,
		Initial: domain.InspectionPendingAssignment,
		States: []domain.State{
			domain.InspectionPendingAssignment, domain.InspectionAssigned, domain.InspectionGracePeriod,
			domain.InspectionReferredToLegal, domain.InspectionClosed, domain.InspectionClosedByPayment,
		},
		Terminal: []domain.State{domain.InspectionClosed, domain.InspectionClosedByPayment},
		Edges: []Edge{
			{
				From: domain.InspectionPendingAssignment, To: domain.InspectionAssigned,
				Preconditions: []Precondition{
					{Reason: "an inspector is required", Holds: func(_ domain.Record, c Context) bool { return c.InspectorID != "" }},
				},
				Effect: effect(func(ic *domain.InspectionCase, c Context) {
					at := c.At
					ic.InspectorID = strPtr(c.InspectorID)
					ic.AssignedAt = &at
					ic.AssignedBy = strPtr(c.Actor)
				}),
			},
			{
				From: domain.InspectionAssigned, To: domain.InspectionClosed,
				Preconditions: []Precondition{
					{Reason: "a compliance acta for the first visit is required", Holds: hasActa(domain.ActaCompliance, 1)},
				},
				Effect: effect(func(ic *domain.InspectionCase, _ Context) {
					ic.Resolve(domain.ResolutionCorrectedOnFirstVisit)
				}),
			},
			{
				From: domain.InspectionAssigned, To: domain.InspectionGracePeriod,
				Preconditions: []Precondition{
					{Reason: "an infraction acta for the first visit is required", Holds: hasActa(domain.ActaInfraction, 1)},
					{Reason: "a correction deadline is required", Holds: func(_ domain.Record, c Context) bool { return c.Deadline != nil }},
				},
				Effect: effect(func(ic *domain.InspectionCase, c Context) {
					d := *c.Deadline
					ic.CorrectionDeadline = &d
				}),
			},
			{
				From: domain.InspectionGracePeriod, To: domain.InspectionClosed,
				Preconditions: []Precondition{
					{Reason: "a compliance acta for the second visit is required", Holds: hasActa(domain.ActaCompliance, 2)},
				},
				Effect: effect(func(ic *domain.InspectionCase, _ Context) {
					ic.Resolve(domain.ResolutionCorrectedOnSecondVisit)
				}),
			},
			{
				From: domain.InspectionGracePeriod, To: domain.InspectionReferredToLegal,
				Preconditions: []Precondition{
					{Reason: "an infraction acta is required", Holds: hasAnyActa(domain.ActaInfraction)},
					spawnedRequired,
				},
				Effect: effect(func(ic *domain.InspectionCase, c Context) {
					ic.LegalCaseID = strPtr(c.SpawnedID)
					ic.Resolve(domain.ResolutionReferredToLegal)
				}),
			},
			closeByPayment(domain.InspectionPendingAssignment),
			closeByPayment(domain.InspectionAssigned),
			closeByPayment(domain.InspectionGracePeriod),
			closeByPayment(domain.InspectionReferredToLegal),
		},
	}
}

// LegalCaseTable is the legal referral track.
func LegalCaseTable() Table {
	return Table{
		Kind:     domain.KindLegalCase,
		Initial:  domain.LegalReceived,
		States:   []domain.State{domain.LegalReceived, domain.LegalInAttention, domain.LegalClosed},
		Terminal: []domain.State{domain.LegalClosed},
		Edges: []Edge{
			{
				From: domain.LegalReceived, To: domain.LegalInAttention,
				Preconditions: []Precondition{noteRequired},
				Effect: effect(func(lc *domain.LegalCase, c Context) {
					lc.Notes = c.Note
				}),
			},
			{
				From: domain.LegalInAttention, To: domain.LegalClosed,
				Preconditions: []Precondition{{Reason: "closing notes are required", Holds: noteRequired.Holds}},
				Effect: effect(func(lc *domain.LegalCase, c Context) {
					lc.ClosingNotes = c.Note
				}),
			},
		},
	}
}

// ComplaintTable is the denunciation track.
func ComplaintTable() Table {
	assign := func(from domain.State) Edge {
		return Edge{
			From: from, To: domain.ComplaintAssigned,
			Preconditions: []Precondition{spawnedRequired},
			Effect: effect(func(cp *domain.Complaint, c Context) {
				cp.InspectionCaseID = strPtr(c.SpawnedID)
			}),
		}
	}
	return Table{
		Kind:    domain.KindComplaint,
		Initial: domain.ComplaintPendingPayment,
		States: []domain.State{
			domain.ComplaintPendingPayment, domain.ComplaintPaid, domain.ComplaintInPlanning, domain.ComplaintAssigned,
		},
		Terminal: []domain.State{domain.ComplaintAssigned},
		Edges: []Edge{
			{From: domain.ComplaintPendingPayment, To: domain.ComplaintPaid, Preconditions: []Precondition{invoicesPaid}},
			{From: domain.ComplaintPaid, To: domain.ComplaintInPlanning},
			assign(domain.ComplaintPaid),
			assign(domain.ComplaintInPlanning),
		},
	}
}

// InvoiceTable covers payment, cancellation and settlement by a closure.
func InvoiceTable() Table {
	return Table{
		Kind:     domain.KindInvoice,
		Initial:  domain.InvoiceOpen,
		States:   []domain.State{domain.InvoiceOpen, domain.InvoicePaid, domain.InvoiceCancelled, domain.InvoiceClosed},
		Terminal: []domain.State{domain.InvoiceCancelled, domain.InvoiceClosed},
		Edges: []Edge{
			{
				From: domain.InvoiceOpen, To: domain.InvoicePaid,
				Preconditions: []Precondition{
					when("payment method is missing", func(inv *domain.Invoice, _ Context) bool { return inv.PaymentMethod.IsValid() }),
				},
			},
			{
				From: domain.InvoiceOpen, To: domain.InvoiceCancelled,
				Preconditions: []Precondition{{Reason: "a cancellation reason is required", Holds: noteRequired.Holds}},
				Effect: effect(func(inv *domain.Invoice, c Context) {
					inv.CancelReason = c.Note
					inv.CashSessionID = nil
				}),
			},
			{
				From: domain.InvoicePaid, To: domain.InvoiceClosed,
				Preconditions: []Precondition{
					when("the invoice is not attached to a closure", func(inv *domain.Invoice, _ Context) bool { return inv.ClosureID != nil }),
				},
			},
		},
	}
}

// CashSessionTable has no reopen edge.
func CashSessionTable() Table {
	return Table{
		Kind:     domain.KindCashSession,
		Initial:  domain.CashSessionOpen,
		States:   []domain.State{domain.CashSessionOpen, domain.CashSessionClosed},
		Terminal: []domain.State{domain.CashSessionClosed},
		Edges:    []Edge{{From: domain.CashSessionOpen, To: domain.CashSessionClosed}},
	}
}

// ClosureTable mirrors the session it settles.
func ClosureTable() Table {
	return Table{
		Kind:     domain.KindClosure,
		Initial:  domain.ClosureOpen,
		States:   []domain.State{domain.ClosureOpen, domain.ClosureClosed},
		Terminal: []domain.State{domain.ClosureClosed},
		Edges:    []Edge{{From: domain.ClosureOpen, To: domain.ClosureClosed}},
	}
}

// Default builds the registry with every lifecycle of the back-office.
func Default() *Registry {
	r, err := NewRegistry(
		RegistrationRequestTable(),
		CompanyRequestTable(),
		InspectionCaseTable(),
		LegalCaseTable(),
		ComplaintTable(),
		InvoiceTable(),
		CashSessionTable(),
		ClosureTable(),
	)
	if err != nil {
		panic(err)
	}
	return r
}
