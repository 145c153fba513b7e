package user

import (
	"context"
	"errors"
	"time"

	"loanlink-backend/internal/domain/uow"
	"loanlink-backend/internal/domain/user"
	"loanlink-backend/pkg/id"

	"go.uber.org/zap"
)

type Usecase struct {
	users          user.Repository
	tx             uow.UnitOfWork
	log            *zap.Logger
	bootstrapAdmin string
	now            func() time.Time
}

// NewUsecase wires the user registry. bootstrapAdmin, when set, is the one
// email that is created with the admin role.
func NewUsecase(users user.Repository, tx uow.UnitOfWork, log *zap.Logger, bootstrapAdmin string) *Usecase {
	if log == nil {
		log = zap.NewNop()
	}
	return &Usecase{
		users:          users,
		tx:             tx,
		log:            log.Named("user"),
		bootstrapAdmin: user.NormalizeEmail(bootstrapAdmin),
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// Upsert creates the caller's record on first contact and otherwise returns
// the stored one untouched. created reports which happened. The bootstrap
// admin is only granted to a verified email.
func (u *Usecase) Upsert(ctx context.Context, email string, verified bool, in UpsertInput) (out *user.User, created bool, err error) {
	email = user.NormalizeEmail(email)
	if email == "" {
		return nil, false, user.ErrNotFound
	}

	existing, err := u.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return existing, false, nil
	case !errors.Is(err, user.ErrNotFound):
		return nil, false, err
	}

	role := user.RoleUser
	switch {
	case u.bootstrapAdmin != "" && email == u.bootstrapAdmin:
		if !verified {
			u.log.Warn("bootstrap admin refused for unverified email", zap.String("email", email))
			return nil, false, user.ErrUnverified
		}
		role = user.RoleAdmin
	case user.Role(in.Role) == user.RoleAdmin:
		return nil, false, user.ErrAdminRequest
	case user.Role(in.Role) == user.RoleManager:
		role = user.RoleManager
	}

	now := u.now()
	rec := &user.User{
		ID:          id.NewID32(),
		Email:       email,
		DisplayName: in.DisplayName,
		PhotoURL:    in.PhotoURL,
		Role:        role,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := u.users.Create(ctx, rec); err != nil {
		// lost a race with a concurrent first login
		if errors.Is(err, user.ErrEmailTaken) {
			existing, getErr := u.users.GetByEmail(ctx, email)
			if getErr != nil {
				return nil, false, getErr
			}
			return existing, false, nil
		}
		return nil, false, err
	}

	u.log.Info("user registered", zap.String("email", email), zap.String("role", string(role)))
	return rec, true, nil
}

func (u *Usecase) GetRole(ctx context.Context, email string) (*RoleView, error) {
	rec, err := u.users.GetByEmail(ctx, user.NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	return &RoleView{Email: rec.Email, Role: string(rec.Role)}, nil
}

func (u *Usecase) List(ctx context.Context) ([]user.User, error) {
	return u.users.List(ctx)
}

func (u *Usecase) SetRole(ctx context.Context, actor, email string, in SetRoleInput) (*user.User, error) {
	role := user.Role(in.Role)
	if !role.Valid() {
		return nil, user.ErrInvalidRole
	}

	var out *user.User
	err := u.tx.WithinTx(ctx, func(r uow.Repos) error {
		rec, err := r.Users.GetByEmail(ctx, user.NormalizeEmail(email))
		if err != nil {
			return err
		}
		prev := rec.Role
		rec.Role = role
		rec.UpdatedAt = u.now()
		if err := r.Users.Save(ctx, rec); err != nil {
			return err
		}
		u.log.Info("role changed",
			zap.String("email", rec.Email),
			zap.String("from", string(prev)),
			zap.String("to", string(role)),
			zap.String("by", actor),
		)
		out = rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (u *Usecase) Suspend(ctx context.Context, actor, email string, in SuspendInput) (*user.User, error) {
	suspended := in.Suspended != nil && *in.Suspended

	var out *user.User
	err := u.tx.WithinTx(ctx, func(r uow.Repos) error {
		rec, err := r.Users.GetByEmail(ctx, user.NormalizeEmail(email))
		if err != nil {
			return err
		}
		if err := rec.Suspend(suspended, in.Reason); err != nil {
			return err
		}
		rec.UpdatedAt = u.now()
		if err := r.Users.Save(ctx, rec); err != nil {
			return err
		}
		u.log.Info("suspension updated",
			zap.String("email", rec.Email),
			zap.Bool("suspended", suspended),
			zap.String("by", actor),
		)
		out = rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
