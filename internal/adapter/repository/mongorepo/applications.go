package mongorepo

import (
	"context"
	"errors"

	"loanlink-backend/internal/domain/application"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsoncodec"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ApplicationRepository struct{ coll *mongo.Collection }

func NewApplicationRepository(db *mongo.Database, reg *bsoncodec.Registry) *ApplicationRepository {
	return &ApplicationRepository{coll: collection(db, applicationsCollection, reg)}
}

func (r *ApplicationRepository) Create(ctx context.Context, a *application.Application) error {
	stamp(&a.CreatedAt, &a.UpdatedAt)
	_, err := r.coll.InsertOne(ctx, a)
	return err
}

func (r *ApplicationRepository) GetByID(ctx context.Context, id string) (*application.Application, error) {
	var out application.Application
	err := r.coll.FindOne(ctx, byIDOrCode("application_id", id)).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, application.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *ApplicationRepository) GetByIDForUpdate(ctx context.Context, id string) (*application.Application, error) {
	return r.GetByID(ctx, id)
}

func (r *ApplicationRepository) List(ctx context.Context, f application.Filter) ([]application.Application, error) {
	filter := bson.M{}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.UserEmail != "" {
		filter["user_email"] = f.UserEmail
	}

	cur, err := r.coll.Find(ctx, filter, options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, err
	}
	out := []application.Application{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *ApplicationRepository) Save(ctx context.Context, a *application.Application) error {
	stamp(&a.CreatedAt, &a.UpdatedAt)
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": a.ID}, a)
	if mongo.IsDuplicateKeyError(err) && a.Payment.TransactionID != "" {
		return application.ErrTxReused
	}
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return application.ErrNotFound
	}
	return nil
}
