package mongodb

import (
	"context"
	"time"

	"github.com/ArowuTest/lottery-ticketing-backend/internal/models"
	"github.com/ArowuTest/lottery-ticketing-backend/internal/repositories"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Compile-time check to ensure OrderRepository implements the interface
var _ repositories.OrderRepository = (*OrderRepository)(nil)

// OrderRepository handles MongoDB operations for Order
type OrderRepository struct {
	collection *mongo.Collection
	payments   *mongo.Collection
}

// NewOrderRepository creates a new OrderRepository
func NewOrderRepository(db *mongo.Database) *OrderRepository {
	return &OrderRepository{
		collection: db.Collection(colOrders),
		payments:   db.Collection(colPayments),
	}
}

// FindByID returns the order with its items and payment
func (r *OrderRepository) FindByID(ctx context.Context, id string) (*models.OrderDetail, error) {
	var doc orderDoc
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repositories.ErrNotFound
		}
		return nil, errors.Wrap(err, "find order")
	}
	order, err := doc.model()
	if err != nil {
		return nil, err
	}
	items, err := doc.items()
	if err != nil {
		return nil, err
	}
	detail := &models.OrderDetail{Order: order, Items: items}

	payment, err := findPayment(ctx, r.payments, id)
	switch {
	case err == nil:
		detail.Payment = payment
	case !errors.Is(err, repositories.ErrNotFound):
		return nil, err
	}
	return detail, nil
}

// FindByUser returns the user's orders, newest first
func (r *OrderRepository) FindByUser(ctx context.Context, userID string, limit int) ([]*models.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return r.find(ctx, bson.M{"userId": userID}, opts)
}

// FindExpired returns pending orders past their expiry, oldest first
func (r *OrderRepository) FindExpired(ctx context.Context, now time.Time, limit int) ([]*models.Order, error) {
	return r.find(ctx, bson.M{
		"status":   string(models.OrderStatusPending),
		"expireAt": bson.M{"$lt": now},
	}, byExpiry(limit))
}

// FindExpiring returns pending orders expiring within the window, soonest first
func (r *OrderRepository) FindExpiring(ctx context.Context, now time.Time, within time.Duration, limit int) ([]*models.Order, error) {
	return r.find(ctx, bson.M{
		"status":   string(models.OrderStatusPending),
		"expireAt": bson.M{"$gte": now, "$lt": now.Add(within)},
	}, byExpiry(limit))
}

// FindPaidOwner returns the owner of the paid order holding the ticket
func (r *OrderRepository) FindPaidOwner(ctx context.Context, ticketID int64) (string, bool, error) {
	var doc struct {
		UserID string `bson:"userId"`
	}
	opts := options.FindOne().SetProjection(bson.M{"userId": 1})
	err := r.collection.FindOne(ctx, bson.M{
		"status":         string(models.OrderStatusPaid),
		"items.ticketId": ticketID,
	}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", false, nil
		}
		return "", false, errors.Wrap(err, "find paid owner")
	}
	return doc.UserID, true, nil
}

func (r *OrderRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*models.Order, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, errors.Wrap(err, "find orders")
	}
	defer cursor.Close(ctx)

	var docs []orderDoc
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "decode orders")
	}
	orders := make([]*models.Order, 0, len(docs))
	for _, d := range docs {
		o, err := d.model()
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, nil
}

func byExpiry(limit int) *options.FindOptions {
	opts := options.Find().SetSort(bson.D{{Key: "expireAt", Value: 1}, {Key: "_id", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return opts
}
