package user

import "context"

type Repository interface {
	// Create fails with ErrEmailTaken when the email already exists.
	Create(ctx context.Context, u *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	Save(ctx context.Context, u *User) error
	// List returns every user, newest first.
	List(ctx context.Context) ([]User, error)
}
