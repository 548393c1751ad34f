package mongodb

import (
	"context"

	"github.com/ArowuTest/lottery-ticketing-backend/internal/models"
	"github.com/ArowuTest/lottery-ticketing-backend/internal/repositories"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Compile-time check to ensure TicketRepository implements the interface
var _ repositories.TicketRepository = (*TicketRepository)(nil)

// TicketRepository handles MongoDB operations for Ticket
type TicketRepository struct {
	db         *mongo.Database
	collection *mongo.Collection
}

// NewTicketRepository creates a new TicketRepository
func NewTicketRepository(db *mongo.Database) *TicketRepository {
	return &TicketRepository{
		db:         db,
		collection: db.Collection(colTickets),
	}
}

// CreateMany inserts tickets with a block of consecutive ids
func (r *TicketRepository) CreateMany(ctx context.Context, tickets []*models.Ticket) error {
	if len(tickets) == 0 {
		return nil
	}
	last, err := nextSequence(ctx, r.db, colTickets, int64(len(tickets)))
	if err != nil {
		return err
	}
	first := last - int64(len(tickets)) + 1
	docs := make([]interface{}, 0, len(tickets))
	for i, t := range tickets {
		t.ID = first + int64(i)
		docs = append(docs, newTicketDoc(t))
	}
	if _, err := r.collection.InsertMany(ctx, docs); err != nil {
		return errors.Wrap(err, "insert tickets")
	}
	return nil
}

// FindByID finds a ticket by ID
func (r *TicketRepository) FindByID(ctx context.Context, id int64) (*models.Ticket, error) {
	var doc ticketDoc
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repositories.ErrNotFound
		}
		return nil, errors.Wrap(err, "find ticket")
	}
	return doc.model()
}

// List pages through tickets by ascending id
func (r *TicketRepository) List(ctx context.Context, f repositories.TicketFilter) ([]*models.Ticket, error) {
	filter := bson.M{"roundId": f.RoundID, "_id": bson.M{"$gt": f.AfterID}}
	if f.Status != "" {
		filter["status"] = string(f.Status)
	}
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	if f.Limit > 0 {
		opts.SetLimit(int64(f.Limit))
	}
	return findTickets(ctx, r.collection, filter, opts)
}

// DeleteAvailable deletes a ticket only while it is AVAILABLE and no order item
// references it. The ticket is locked first, so a concurrent checkout of it hits
// a write conflict.
func (r *TicketRepository) DeleteAvailable(ctx context.Context, id int64) (bool, error) {
	out, err := transact(ctx, r.db.Client(), func(sc mongo.SessionContext) (interface{}, error) {
		res, err := r.collection.UpdateOne(sc,
			bson.M{"_id": id, "status": string(models.TicketStatusAvailable)},
			bson.M{"$set": bson.M{"lockToken": primitive.NewObjectID()}})
		if err != nil {
			return false, errors.Wrap(err, "lock ticket")
		}
		if res.MatchedCount == 0 {
			return false, nil
		}
		n, err := r.db.Collection(colOrders).CountDocuments(sc, bson.M{"items.ticketId": id}, options.Count().SetLimit(1))
		if err != nil {
			return false, errors.Wrap(err, "count order items")
		}
		if n > 0 {
			return false, nil
		}
		if _, err := r.collection.DeleteOne(sc, bson.M{"_id": id}); err != nil {
			return false, errors.Wrap(err, "delete ticket")
		}
		return true, nil
	})
	if err != nil {
		return false, err
	}
	if deleted, _ := out.(bool); deleted {
		return true, nil
	}
	if _, err := r.FindByID(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}

// SavePrize overwrites the prize fields of a ticket
func (r *TicketRepository) SavePrize(ctx context.Context, id int64, res models.PrizeResult) error {
	tiers := res.Tiers
	if tiers == nil {
		tiers = []string{}
	}
	out, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"prizeAmount":    toDecimal128(res.Amount),
		"prizeTier":      tiers,
		"prizeCheckedAt": res.CheckedAt,
		"updatedAt":      res.CheckedAt,
	}})
	if err != nil {
		return errors.Wrap(err, "save prize")
	}
	if out.MatchedCount == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

func findTickets(ctx context.Context, col *mongo.Collection, filter interface{}, opts *options.FindOptions) ([]*models.Ticket, error) {
	cursor, err := col.Find(ctx, filter, opts)
	if err != nil {
		return nil, errors.Wrap(err, "find tickets")
	}
	defer cursor.Close(ctx)

	var docs []ticketDoc
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "decode tickets")
	}
	tickets := make([]*models.Ticket, 0, len(docs))
	for _, d := range docs {
		t, err := d.model()
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}
	return tickets, nil
}
