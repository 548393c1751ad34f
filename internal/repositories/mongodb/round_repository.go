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

// Compile-time check to ensure RoundRepository implements the interface
var _ repositories.RoundRepository = (*RoundRepository)(nil)

// RoundRepository handles MongoDB operations for Round
type RoundRepository struct {
	db         *mongo.Database
	collection *mongo.Collection
}

// NewRoundRepository creates a new RoundRepository
func NewRoundRepository(db *mongo.Database) *RoundRepository {
	return &RoundRepository{
		db:         db,
		collection: db.Collection(colRounds),
	}
}

// Create inserts a new round with the next round id
func (r *RoundRepository) Create(ctx context.Context, round *models.Round) error {
	id, err := nextSequence(ctx, r.db, colRounds, 1)
	if err != nil {
		return err
	}
	round.ID = id
	if _, err := r.collection.InsertOne(ctx, newRoundDoc(round)); err != nil {
		return errors.Wrap(err, "insert round")
	}
	return nil
}

// FindByID finds a round by ID
func (r *RoundRepository) FindByID(ctx context.Context, id int64) (*models.Round, error) {
	var doc roundDoc
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repositories.ErrNotFound
		}
		return nil, errors.Wrap(err, "find round")
	}
	return doc.model(), nil
}

// FindAll retrieves all rounds ordered by id
func (r *RoundRepository) FindAll(ctx context.Context) ([]*models.Round, error) {
	cursor, err := r.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, errors.Wrap(err, "find rounds")
	}
	defer cursor.Close(ctx)

	var docs []roundDoc
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "decode rounds")
	}
	rounds := make([]*models.Round, 0, len(docs))
	for _, d := range docs {
		rounds = append(rounds, d.model())
	}
	return rounds, nil
}

// UpdateStatus moves a round between statuses
func (r *RoundRepository) UpdateStatus(ctx context.Context, id int64, from, to models.RoundStatus, at time.Time) (bool, error) {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "status": string(from)},
		bson.M{"$set": bson.M{"status": string(to), "updatedAt": at}},
	)
	if err != nil {
		return false, errors.Wrap(err, "update round status")
	}
	return r.matched(ctx, id, res.MatchedCount)
}

// MarkDrawn stores the winning numbers unless the round is already drawn
func (r *RoundRepository) MarkDrawn(ctx context.Context, id int64, wn models.WinningNumberSet, at time.Time) (bool, error) {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "status": bson.M{"$ne": string(models.RoundStatusDrawn)}},
		bson.M{"$set": bson.M{
			"status":         string(models.RoundStatusDrawn),
			"winningNumbers": wn,
			"drawnAt":        at,
			"updatedAt":      at,
		}},
	)
	if err != nil {
		return false, errors.Wrap(err, "mark round drawn")
	}
	return r.matched(ctx, id, res.MatchedCount)
}

// matched turns a zero match count into ErrNotFound when the round is missing.
func (r *RoundRepository) matched(ctx context.Context, id int64, n int64) (bool, error) {
	if n > 0 {
		return true, nil
	}
	count, err := r.collection.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return false, errors.Wrap(err, "count round")
	}
	if count == 0 {
		return false, repositories.ErrNotFound
	}
	return false, nil
}
