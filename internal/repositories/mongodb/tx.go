package mongodb

import (
	"context"
	"time"

	"github.com/ArowuTest/lottery-ticketing-backend/internal/models"
	"github.com/ArowuTest/lottery-ticketing-backend/internal/repositories"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

var (
	_ repositories.TxManager = (*TxManager)(nil)
	_ repositories.Tx        = (*tx)(nil)
)

// TxManager runs multi-document transactions. Documents are locked by writing a
// fresh lockToken, so a concurrent writer hits a write conflict and the driver
// retries its whole transaction.
type TxManager struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewTxManager creates a new TxManager
func NewTxManager(client *mongo.Client, db *mongo.Database) *TxManager {
	return &TxManager{client: client, db: db}
}

// WithinTx runs fn inside a snapshot transaction with majority write concern.
// fn may be invoked more than once.
func (m *TxManager) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repositories.Tx) error) error {
	_, err := transact(ctx, m.client, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc, &tx{db: m.db})
	})
	return err
}

func transact(ctx context.Context, client *mongo.Client, fn func(sc mongo.SessionContext) (interface{}, error)) (interface{}, error) {
	session, err := client.StartSession()
	if err != nil {
		return nil, errors.Wrap(err, "start session")
	}
	defer session.EndSession(ctx)

	opts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())
	return session.WithTransaction(ctx, fn, opts)
}

type tx struct {
	db *mongo.Database
}

func (t *tx) tickets() *mongo.Collection  { return t.db.Collection(colTickets) }
func (t *tx) orders() *mongo.Collection   { return t.db.Collection(colOrders) }
func (t *tx) payments() *mongo.Collection { return t.db.Collection(colPayments) }

func (t *tx) LockTickets(ctx context.Context, ids []int64) ([]*models.Ticket, error) {
	if len(ids) == 0 {
		return []*models.Ticket{}, nil
	}
	filter := bson.M{"_id": bson.M{"$in": ids}}
	if _, err := t.tickets().UpdateMany(ctx, filter, bson.M{"$set": bson.M{"lockToken": primitive.NewObjectID()}}); err != nil {
		return nil, errors.Wrap(err, "lock tickets")
	}
	return findTickets(ctx, t.tickets(), filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
}

func (t *tx) SetTicketStatus(ctx context.Context, ids []int64, from, to models.TicketStatus, at time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := t.tickets().UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": ids}, "status": string(from)},
		bson.M{"$set": bson.M{"status": string(to), "updatedAt": at}},
	)
	if err != nil {
		return 0, errors.Wrap(err, "set ticket status")
	}
	return res.MatchedCount, nil
}

func (t *tx) FindRounds(ctx context.Context, ids []int64) (map[int64]*models.Round, error) {
	out := make(map[int64]*models.Round, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cursor, err := t.db.Collection(colRounds).Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, errors.Wrap(err, "find rounds")
	}
	defer cursor.Close(ctx)

	var docs []roundDoc
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "decode rounds")
	}
	for _, d := range docs {
		out[d.ID] = d.model()
	}
	return out, nil
}

func (t *tx) InsertOrder(ctx context.Context, order *models.Order, items []models.OrderItem) error {
	if _, err := t.orders().InsertOne(ctx, newOrderDoc(order, items)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repositories.ErrDuplicate
		}
		return errors.Wrap(err, "insert order")
	}
	return nil
}

func (t *tx) LockOrder(ctx context.Context, id string) (*models.Order, error) {
	var doc orderDoc
	err := t.orders().FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"lockToken": primitive.NewObjectID()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repositories.ErrNotFound
		}
		return nil, errors.Wrap(err, "lock order")
	}
	return doc.model()
}

func (t *tx) SetOrderStatus(ctx context.Context, id string, from, to models.OrderStatus, at time.Time) (bool, error) {
	set := bson.M{"status": string(to), "updatedAt": at}
	if to == models.OrderStatusPaid {
		set["paidAt"] = at
	}
	res, err := t.orders().UpdateOne(ctx, bson.M{"_id": id, "status": string(from)}, bson.M{"$set": set})
	if err != nil {
		return false, errors.Wrap(err, "set order status")
	}
	if res.MatchedCount > 0 {
		return true, nil
	}
	n, err := t.orders().CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return false, errors.Wrap(err, "count order")
	}
	if n == 0 {
		return false, repositories.ErrNotFound
	}
	return false, nil
}

func (t *tx) OrderTicketIDs(ctx context.Context, orderID string) ([]int64, error) {
	var doc orderDoc
	opts := options.FindOne().SetProjection(bson.M{"items": 1})
	if err := t.orders().FindOne(ctx, bson.M{"_id": orderID}, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return []int64{}, nil
		}
		return nil, errors.Wrap(err, "find order items")
	}
	ids := make([]int64, 0, len(doc.Items))
	for _, it := range doc.Items {
		ids = append(ids, it.TicketID)
	}
	return sortIDs(ids), nil
}

func (t *tx) InsertPayment(ctx context.Context, p *models.Payment) error {
	doc := paymentDoc{
		ID:        p.ID,
		OrderID:   p.OrderID,
		Amount:    toDecimal128(p.Amount),
		Method:    p.Method,
		Status:    p.Status,
		Reference: p.Reference,
		PaidAt:    p.PaidAt,
		CreatedAt: p.CreatedAt,
	}
	if _, err := t.payments().InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repositories.ErrDuplicate
		}
		return errors.Wrap(err, "insert payment")
	}
	return nil
}
