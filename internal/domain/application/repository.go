package application

import "context"

type Filter struct {
	Status    Status
	UserEmail string
}

type Repository interface {
	Create(ctx context.Context, a *Application) error
	GetByID(ctx context.Context, id string) (*Application, error)
	// GetByIDForUpdate locks the row where the store supports it.
	GetByIDForUpdate(ctx context.Context, id string) (*Application, error)
	// List returns applications newest first.
	List(ctx context.Context, f Filter) ([]Application, error)
	Save(ctx context.Context, a *Application) error
}
