package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/meatdesk/internal/domain/models"
)

// ErrNotFound is returned when a requested document does not exist.
var ErrNotFound = errors.New("document not found")

// Collection names read into a snapshot or written by the insight host.
const (
	StockItemsCollection    = "stock_items"
	BatchesCollection       = "batches"
	SalesCollection         = "sales"
	ClientsCollection       = "clients"
	TransactionsCollection  = "transactions"
	PayablesCollection      = "payables"
	OrdersCollection        = "scheduled_orders"
	DailyReportsCollection  = "daily_reports"
	BriefingStateCollection = "briefing_state"
)

// Repository defines the storage operations of the insight host.
type Repository interface {
	LoadSnapshot(ctx context.Context) (models.Snapshot, error)
	SaveDailyReport(ctx context.Context, report models.DailyReport) error
	GetBriefingState(ctx context.Context, recipient string) (models.BriefingState, error)
	SaveBriefingState(ctx context.Context, state models.BriefingState) error
}

// MongoDBRepository implements the Repository interface for MongoDB.
type MongoDBRepository struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewMongoDBRepository creates a new MongoDB repository.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string) (*MongoDBRepository, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &MongoDBRepository{
		client: client,
		db:     client.Database(dbName),
	}, nil
}

// LoadSnapshot reads every collection the engines consume.
func (r *MongoDBRepository) LoadSnapshot(ctx context.Context) (models.Snapshot, error) {
	var snap models.Snapshot

	loads := []struct {
		collection string
		into       any
	}{
		{StockItemsCollection, &snap.StockItems},
		{BatchesCollection, &snap.Batches},
		{SalesCollection, &snap.Sales},
		{ClientsCollection, &snap.Clients},
		{TransactionsCollection, &snap.Transactions},
		{PayablesCollection, &snap.Payables},
		{OrdersCollection, &snap.Orders},
	}

	for _, l := range loads {
		if err := r.findAll(ctx, l.collection, l.into); err != nil {
			return models.Snapshot{}, err
		}
	}
	return snap, nil
}

func (r *MongoDBRepository) findAll(ctx context.Context, collection string, into any) error {
	cursor, err := r.db.Collection(collection).Find(ctx, bson.D{})
	if err != nil {
		return fmt.Errorf("failed to query %s: %w", collection, err)
	}
	if err := cursor.All(ctx, into); err != nil {
		return fmt.Errorf("failed to decode %s: %w", collection, err)
	}
	return nil
}

// SaveDailyReport stores the insight report of a day, replacing any earlier run of the same day.
func (r *MongoDBRepository) SaveDailyReport(ctx context.Context, report models.DailyReport) error {
	collection := r.db.Collection(DailyReportsCollection)
	_, err := collection.ReplaceOne(ctx, bson.M{"date": report.Date}, report, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to save daily report: %w", err)
	}
	return nil
}

// GetBriefingState returns the briefing record of a recipient, or ErrNotFound.
func (r *MongoDBRepository) GetBriefingState(ctx context.Context, recipient string) (models.BriefingState, error) {
	var state models.BriefingState
	err := r.db.Collection(BriefingStateCollection).FindOne(ctx, bson.M{"_id": recipient}).Decode(&state)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.BriefingState{}, ErrNotFound
	}
	if err != nil {
		return models.BriefingState{}, fmt.Errorf("failed to load briefing state: %w", err)
	}
	return state, nil
}

// SaveBriefingState upserts the briefing record of a recipient.
func (r *MongoDBRepository) SaveBriefingState(ctx context.Context, state models.BriefingState) error {
	if state.UpdatedAt.IsZero() {
		state.UpdatedAt = time.Now()
	}
	_, err := r.db.Collection(BriefingStateCollection).ReplaceOne(ctx, bson.M{"_id": state.Recipient}, state, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to save briefing state: %w", err)
	}
	return nil
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
