package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/SscSPs/onda_backoffice/internal/apperrors"
)

// FiscalSequence is a numeric range reserved with the tax authority for one document type.
// Cursor is the last issued unit; a fresh range has Cursor = RangeStart-1.
type FiscalSequence struct {
	ID         string    `json:"id"`
	TypeCode   string    `json:"typeCode"` // e.g. B01, B02
	Series     string    `json:"series"`
	RangeStart int64     `json:"rangeStart"`
	RangeEnd   int64     `json:"rangeEnd"`
	Cursor     int64     `json:"cursor"`
	Expiry     time.Time `json:"expiry"`
	Active     bool      `json:"active"`
	AuditFields
}

// FiscalReservation is one issued fiscal document number.
type FiscalReservation struct {
	Number      string `json:"number"`
	SequenceID  string `json:"sequenceID"`
	TypeCode    string `json:"typeCode"`
	Series      string `json:"series"`
	Value       int64  `json:"value"`
	Remaining   int64  `json:"remaining"`
	LowCapacity bool   `json:"lowCapacity"`
}

// NewFiscalSequence validates and creates an active sequence with nothing issued yet.
func NewFiscalSequence(id, typeCode, series string, rangeStart, rangeEnd int64, expiry time.Time, actor string, now time.Time) (FiscalSequence, error) {
	typeCode = strings.TrimSpace(typeCode)
	if typeCode == "" {
		return FiscalSequence{}, fmt.Errorf("%w: type code is required", apperrors.ErrValidation)
	}
	if rangeStart < 1 || rangeEnd < rangeStart {
		return FiscalSequence{}, fmt.Errorf("%w: invalid range [%d, %d]", apperrors.ErrValidation, rangeStart, rangeEnd)
	}
	if rangeEnd > 99999999 {
		return FiscalSequence{}, fmt.Errorf("%w: range end %d does not fit 8 digits", apperrors.ErrValidation, rangeEnd)
	}
	if !expiry.After(now) {
		return FiscalSequence{}, fmt.Errorf("%w: expiry must be in the future", apperrors.ErrValidation)
	}
	return FiscalSequence{
		ID:          id,
		TypeCode:    typeCode,
		Series:      strings.TrimSpace(series),
		RangeStart:  rangeStart,
		RangeEnd:    rangeEnd,
		Cursor:      rangeStart - 1,
		Expiry:      expiry,
		Active:      true,
		AuditFields: NewAuditFields(actor, now),
	}, nil
}

// Remaining returns how many units can still be issued.
func (s FiscalSequence) Remaining() int64 {
	return s.RangeEnd - s.Cursor
}

// IsUsable reports whether the sequence can issue a number at asOf.
func (s FiscalSequence) IsUsable(asOf time.Time) bool {
	return s.Active && !asOf.After(s.Expiry) && s.Cursor < s.RangeEnd
}

// Overlaps reports whether both sequences are active for the same type and series with intersecting ranges.
func (s FiscalSequence) Overlaps(o FiscalSequence) bool {
	if !s.Active || !o.Active || s.TypeCode != o.TypeCode || s.Series != o.Series {
		return false
	}
	return s.RangeStart <= o.RangeEnd && o.RangeStart <= s.RangeEnd
}

// Advance consumes one unit and returns it. The sequence deactivates itself once exhausted.
func (s *FiscalSequence) Advance() (int64, error) {
	if s.Cursor >= s.RangeEnd {
		return 0, fmt.Errorf("%w: sequence %s%s exhausted at %d", apperrors.ErrResourceExhausted, s.TypeCode, s.Series, s.Cursor)
	}
	s.Cursor++
	if s.Cursor == s.RangeEnd {
		s.Active = false
	}
	return s.Cursor, nil
}
