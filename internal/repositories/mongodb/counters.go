package mongodb

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// nextSequence reserves n consecutive ids of the named sequence and returns the
// last one.
func nextSequence(ctx context.Context, db *mongo.Database, name string, n int64) (int64, error) {
	var out struct {
		Seq int64 `bson:"seq"`
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	err := db.Collection(colCounters).
		FindOneAndUpdate(ctx, bson.M{"_id": name}, bson.M{"$inc": bson.M{"seq": n}}, opts).
		Decode(&out)
	if err != nil {
		return 0, errors.Wrapf(err, "next %s sequence", name)
	}
	return out.Seq, nil
}
