package dto

// CashPaymentClosesCaseRequest is posted by the payment subsystem when a renewal payment lands.
type CashPaymentClosesCaseRequest struct {
	CompanyID string `json:"companyId" binding:"required,uuid"`
}

// InvoiceMarksRequestPaidRequest is posted after an invoice has been paid.
type InvoiceMarksRequestPaidRequest struct {
	InvoiceID string `json:"invoiceId" binding:"required,uuid"`
}

// PropagationResponse lists the records moved by a propagation call.
type PropagationResponse struct {
	Updated []string `json:"updated"`
}
