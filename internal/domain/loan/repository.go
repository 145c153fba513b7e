package loan

import "context"

type Filter struct {
	CreatedBy string
	Category  string
	// OnlyHome restricts to showOnHome=true.
	OnlyHome bool
	// Limit <= 0 means unbounded.
	Limit int
}

type Repository interface {
	Create(ctx context.Context, l *Loan) error
	GetByID(ctx context.Context, id string) (*Loan, error)
	// GetByIDForUpdate locks the row where the store supports it.
	GetByIDForUpdate(ctx context.Context, id string) (*Loan, error)
	// List returns loans newest first.
	List(ctx context.Context, f Filter) ([]Loan, error)
	Save(ctx context.Context, l *Loan) error
	Delete(ctx context.Context, id string) error
}
