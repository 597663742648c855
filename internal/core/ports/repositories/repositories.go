package repositories

// RepositoryProvider holds the persistence dependencies needed by services.
type RepositoryProvider struct {
	UnitOfWork UnitOfWork
}
