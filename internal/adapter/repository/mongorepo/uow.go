package mongorepo

import (
	"context"

	"loanlink-backend/internal/domain/application"
	"loanlink-backend/internal/domain/loan"
	"loanlink-backend/internal/domain/uow"

	"go.mongodb.org/mongo-driver/bson/bsoncodec"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoUoW runs fn against the plain repositories. Transitions touch one
// document each, so no multi-document transaction is opened; a standalone
// server (no replica set) keeps working.
type MongoUoW struct{ repos uow.Repos }

func Repos(db *mongo.Database, reg *bsoncodec.Registry) uow.Repos {
	return uow.Repos{
		Users:        NewUserRepository(db, reg),
		Loans:        NewLoanRepository(db, reg),
		Applications: NewApplicationRepository(db, reg),
	}
}

func NewMongoUoW(repos uow.Repos) *MongoUoW { return &MongoUoW{repos: repos} }

func (u *MongoUoW) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	return fn(u.repos)
}

func (u *MongoUoW) WithinLoanTx(ctx context.Context, loanID string, fn func(r uow.Repos, l *loan.Loan) error) error {
	l, err := u.repos.Loans.GetByIDForUpdate(ctx, loanID)
	if err != nil {
		return err
	}
	return fn(u.repos, l)
}

func (u *MongoUoW) WithinApplicationTx(ctx context.Context, applicationID string, fn func(r uow.Repos, a *application.Application) error) error {
	a, err := u.repos.Applications.GetByIDForUpdate(ctx, applicationID)
	if err != nil {
		return err
	}
	return fn(u.repos, a)
}
