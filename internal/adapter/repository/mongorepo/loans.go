package mongorepo

import (
	"context"
	"errors"

	"loanlink-backend/internal/domain/loan"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsoncodec"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type LoanRepository struct{ coll *mongo.Collection }

func NewLoanRepository(db *mongo.Database, reg *bsoncodec.Registry) *LoanRepository {
	return &LoanRepository{coll: collection(db, loansCollection, reg)}
}

func (r *LoanRepository) Create(ctx context.Context, l *loan.Loan) error {
	stamp(&l.CreatedAt, &l.UpdatedAt)
	_, err := r.coll.InsertOne(ctx, l)
	return err
}

func (r *LoanRepository) GetByID(ctx context.Context, id string) (*loan.Loan, error) {
	var out loan.Loan
	err := r.coll.FindOne(ctx, byIDOrCode("loan_id", id)).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, loan.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetByIDForUpdate is a plain read: documents are replaced whole, last write wins.
func (r *LoanRepository) GetByIDForUpdate(ctx context.Context, id string) (*loan.Loan, error) {
	return r.GetByID(ctx, id)
}

func (r *LoanRepository) List(ctx context.Context, f loan.Filter) ([]loan.Loan, error) {
	filter := bson.M{}
	if f.CreatedBy != "" {
		filter["created_by"] = f.CreatedBy
	}
	if f.Category != "" {
		filter["category"] = f.Category
	}
	if f.OnlyHome {
		filter["show_on_home"] = true
	}
	opts := options.Find().SetSort(newestFirst)
	if f.Limit > 0 {
		opts.SetLimit(int64(f.Limit))
	}

	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	out := []loan.Loan{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *LoanRepository) Save(ctx context.Context, l *loan.Loan) error {
	stamp(&l.CreatedAt, &l.UpdatedAt)
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": l.ID}, l)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return loan.ErrNotFound
	}
	return nil
}

func (r *LoanRepository) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, byIDOrCode("loan_id", id))
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return loan.ErrNotFound
	}
	return nil
}
