package domain

import (
	"fmt"
	"time"
)

// CodeSeries pairs the counter scope used to number a record with the formatter of its
// human-readable code. Formats are consumed by printed certificates and fiscal authorities.
type CodeSeries struct {
	Scope  string
	format string
}

// Format renders the code for the n-th record of the series.
func (c CodeSeries) Format(n int64) string {
	return fmt.Sprintf(c.format, n)
}

// CashSessionCodes numbers cash sessions per day: CAJA-YYYYMMDD-NNNN.
func CashSessionCodes(at time.Time) CodeSeries {
	day := at.Format("20060102")
	return CodeSeries{Scope: "CAJA-" + day, format: "CAJA-" + day + "-%04d"}
}

// InvoiceCodes numbers invoices per day: FAC-YYYYMMDD-NNNN.
func InvoiceCodes(at time.Time) CodeSeries {
	day := at.Format("20060102")
	return CodeSeries{Scope: "FAC-" + day, format: "FAC-" + day + "-%04d"}
}

// InspectionCaseCodes numbers inspection cases per year: CASO-INSP-YYYY-NNNN.
func InspectionCaseCodes(at time.Time) CodeSeries {
	year := at.Format("2006")
	return CodeSeries{Scope: "CASO-INSP-" + year, format: "CASO-INSP-" + year + "-%04d"}
}

// LegalCaseCodes numbers legal cases per year: CASO-LEG-YYYY-NNNN.
func LegalCaseCodes(at time.Time) CodeSeries {
	year := at.Format("2006")
	return CodeSeries{Scope: "CASO-LEG-" + year, format: "CASO-LEG-" + year + "-%04d"}
}

// ComplaintCodes numbers complaints per year: DEN-YYYY-NNNN.
func ComplaintCodes(at time.Time) CodeSeries {
	year := at.Format("2006")
	return CodeSeries{Scope: "DEN-" + year, format: "DEN-" + year + "-%04d"}
}

// RegistrationRequestCodes numbers copyright forms with a counter that never resets,
// so the form sequence can seed a unique registration number.
func RegistrationRequestCodes() CodeSeries {
	return CodeSeries{Scope: "SOL", format: "SOL-%08d"}
}

// CompanyRequestCodes numbers IRC forms with a counter that never resets.
func CompanyRequestCodes() CodeSeries {
	return CodeSeries{Scope: "IRC", format: "IRC-%08d"}
}

// RegistrationNumber derives the registration number from the originating form's sequence:
// NNNNNNNN/MM/YYYY, month and year taken from the registration date.
func RegistrationNumber(formSequence int64, at time.Time) string {
	return fmt.Sprintf("%08d/%02d/%04d", formSequence, int(at.Month()), at.Year())
}

// FiscalNumber formats a fiscal document number: TYPE + SERIES + 8-digit sequential.
func FiscalNumber(typeCode, series string, n int64) string {
	return fmt.Sprintf("%s%s%08d", typeCode, series, n)
}
