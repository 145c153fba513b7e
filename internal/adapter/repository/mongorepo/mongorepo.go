package mongorepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsoncodec"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	usersCollection        = "users"
	loansCollection        = "loans"
	applicationsCollection = "loan_applications"
)

var newestFirst = bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}

func collection(db *mongo.Database, name string, reg *bsoncodec.Registry) *mongo.Collection {
	if reg == nil {
		return db.Collection(name)
	}
	return db.Collection(name, options.Collection().SetRegistry(reg))
}

// byIDOrCode matches the record id or the display code stored under codeField.
func byIDOrCode(codeField, id string) bson.M {
	return bson.M{"$or": bson.A{bson.M{"_id": id}, bson.M{codeField: id}}}
}

func stamp(created, updated *time.Time) {
	now := time.Now().UTC()
	if created.IsZero() {
		*created = now
	}
	*updated = now
}

// EnsureIndexes creates the unique and lookup indexes the repositories rely on.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	specs := map[string][]mongo.IndexModel{
		usersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetName("ux_users_email")},
		},
		loansCollection: {
			{Keys: bson.D{{Key: "loan_id", Value: 1}}, Options: options.Index().SetUnique(true).SetName("ux_loans_loan_id")},
			{Keys: bson.D{{Key: "show_on_home", Value: 1}, {Key: "created_at", Value: -1}}, Options: options.Index().SetName("idx_loans_home")},
			{Keys: bson.D{{Key: "created_by", Value: 1}}, Options: options.Index().SetName("idx_loans_created_by")},
			{Keys: bson.D{{Key: "category", Value: 1}}, Options: options.Index().SetName("idx_loans_category")},
		},
		applicationsCollection: {
			{Keys: bson.D{{Key: "application_id", Value: 1}}, Options: options.Index().SetUnique(true).SetName("ux_applications_application_id")},
			{Keys: bson.D{{Key: "user_email", Value: 1}}, Options: options.Index().SetName("idx_applications_user")},
			{Keys: bson.D{{Key: "status", Value: 1}}, Options: options.Index().SetName("idx_applications_status")},
			{
				Keys: bson.D{{Key: "payment.transaction_id", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("ux_applications_payment_tx").
					SetPartialFilterExpression(bson.D{{Key: "payment.transaction_id", Value: bson.D{{Key: "$gt", Value: ""}}}}),
			},
		},
	}
	for name, models := range specs {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", name, err)
		}
	}
	return nil
}
