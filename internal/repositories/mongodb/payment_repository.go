package mongodb

import (
	"context"

	"github.com/ArowuTest/lottery-ticketing-backend/internal/models"
	"github.com/ArowuTest/lottery-ticketing-backend/internal/repositories"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Compile-time check to ensure PaymentRepository implements the interface
var _ repositories.PaymentRepository = (*PaymentRepository)(nil)

// PaymentRepository handles MongoDB operations for Payment
type PaymentRepository struct {
	collection *mongo.Collection
}

// NewPaymentRepository creates a new PaymentRepository
func NewPaymentRepository(db *mongo.Database) *PaymentRepository {
	return &PaymentRepository{collection: db.Collection(colPayments)}
}

// FindByOrderID returns the payment recorded for an order
func (r *PaymentRepository) FindByOrderID(ctx context.Context, orderID string) (*models.Payment, error) {
	return findPayment(ctx, r.collection, orderID)
}

func findPayment(ctx context.Context, col *mongo.Collection, orderID string) (*models.Payment, error) {
	var doc paymentDoc
	err := col.FindOne(ctx, bson.M{"orderId": orderID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repositories.ErrNotFound
		}
		return nil, errors.Wrap(err, "find payment")
	}
	return doc.model()
}
