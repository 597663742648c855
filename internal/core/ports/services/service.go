package services

// ServiceContainer holds instances of all the application services.
// It is the entry point handlers use to reach the core.
type ServiceContainer struct {
	Sequences SequenceSvcFacade
	Cash      CashSessionSvcFacade
	Invoices  InvoiceSvcFacade
	Workflow  CoordinatorFacade
}
