package services

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"stockdata-backend/models"
)

// Mongo database/collection names
const (
	MongoDBName             = "stockdata"
	MongoSnapshotCollection = "realtime_snapshots"

	mongoOpTimeout = 5 * time.Second
)

// realtimeSnapshotDoc is the stored shape of the latest summary per ticker
type realtimeSnapshotDoc struct {
	Ticker     string    `bson:"_id"`
	StockName  string    `bson:"stock_name"`
	Price      int       `bson:"price"`
	Rate       float64   `bson:"rate"`
	Volume     int64     `bson:"volume"`
	AskPrices  []int     `bson:"ask_prices"`
	BidPrices  []int     `bson:"bid_prices"`
	AskVolumes []int64   `bson:"ask_volumes"`
	BidVolumes []int64   `bson:"bid_volumes"`
	Timestamp  int64     `bson:"timestamp"`
	UpdatedAt  time.Time `bson:"updated_at"`
}

// SnapshotStore keeps the latest realtime summary per ticker in MongoDB so a
// freshly opened detail view has a quote before the first live event arrives.
// Disabled (no-op) when MONGODB_URI is not configured.
type SnapshotStore struct {
	client  *mongo.Client
	coll    *mongo.Collection
	enabled bool
}

// NewSnapshotStore connects to MongoDB when MONGODB_URI is set, otherwise
// returns a disabled store.
func NewSnapshotStore() (*SnapshotStore, error) {
	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		log.Println("MONGODB_URI not set, realtime snapshot store disabled")
		return &SnapshotStore{enabled: false}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("MongoDB ping failed: %w", err)
	}

	log.Println("Realtime snapshot store connected to MongoDB")
	return &SnapshotStore{
		client:  client,
		coll:    client.Database(MongoDBName).Collection(MongoSnapshotCollection),
		enabled: true,
	}, nil
}

// Enabled reports whether the store is backed by a live connection
func (s *SnapshotStore) Enabled() bool {
	return s != nil && s.enabled
}

// Close disconnects from MongoDB
func (s *SnapshotStore) Close() error {
	if !s.Enabled() {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), mongoOpTimeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// SaveSummary upserts the latest summary for a ticker
func (s *SnapshotStore) SaveSummary(summary models.RealtimeSummary) error {
	if !s.Enabled() {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), mongoOpTimeout)
	defer cancel()

	doc := realtimeSnapshotDoc{
		Ticker:     summary.Ticker,
		StockName:  summary.StockName,
		Price:      summary.Price,
		Rate:       summary.Rate,
		Volume:     summary.Volume,
		AskPrices:  summary.AskPrices,
		BidPrices:  summary.BidPrices,
		AskVolumes: summary.AskVolumes,
		BidVolumes: summary.BidVolumes,
		Timestamp:  summary.Timestamp,
		UpdatedAt:  time.Now(),
	}

	_, err := s.coll.ReplaceOne(ctx,
		bson.M{"_id": summary.Ticker},
		doc,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to save snapshot for %s: %w", summary.Ticker, err)
	}
	return nil
}

// GetSummary returns the latest stored summary for a ticker, or nil when the
// store is disabled or has no entry.
func (s *SnapshotStore) GetSummary(ticker string) (*models.RealtimeSummary, error) {
	if !s.Enabled() {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), mongoOpTimeout)
	defer cancel()

	var doc realtimeSnapshotDoc
	err := s.coll.FindOne(ctx, bson.M{"_id": ticker}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot for %s: %w", ticker, err)
	}

	return &models.RealtimeSummary{
		Ticker:     doc.Ticker,
		StockName:  doc.StockName,
		Price:      doc.Price,
		Rate:       doc.Rate,
		Volume:     doc.Volume,
		AskPrices:  doc.AskPrices,
		BidPrices:  doc.BidPrices,
		AskVolumes: doc.AskVolumes,
		BidVolumes: doc.BidVolumes,
		Timestamp:  doc.Timestamp,
	}, nil
}
