package mongodb

import (
	"context"
	"sort"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the indexes the queries and the one-payment-per-order
// rule rely on. Creating an existing index is a no-op.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	specs := map[string][]mongo.IndexModel{
		colTickets: {
			{Keys: bson.D{{Key: "roundId", Value: 1}, {Key: "status", Value: 1}, {Key: "_id", Value: 1}}},
		},
		colOrders: {
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "expireAt", Value: 1}}},
			{Keys: bson.D{{Key: "items.ticketId", Value: 1}}},
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		colPayments: {
			{Keys: bson.D{{Key: "orderId", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
	}
	for col, idx := range specs {
		if _, err := db.Collection(col).Indexes().CreateMany(ctx, idx); err != nil {
			return errors.Wrapf(err, "create %s indexes", col)
		}
	}
	return nil
}

func sortIDs(ids []int64) []int64 {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
