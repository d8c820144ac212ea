// internal/output/mongodb.go
package output

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/grantio/grantscraper/internal/config"
	"github.com/grantio/grantscraper/pkg/types"
)

// MongoSink upserts grants into a collection keyed by grant ID.
type MongoSink struct {
	client     *mongo.Client
	collection *mongo.Collection
}

func NewMongoSink(cfg config.MongoDBConfig) (*MongoSink, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("mongodb URI is required")
	}
	if cfg.Database == "" {
		return nil, fmt.Errorf("mongodb database name is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	collection := cfg.Collection
	if collection == "" {
		collection = "grants"
	}

	return &MongoSink{
		client:     client,
		collection: client.Database(cfg.Database).Collection(collection),
	}, nil
}

func (s *MongoSink) Write(ctx context.Context, grants []types.Grant) error {
	if len(grants) == 0 {
		return nil
	}

	models := make([]mongo.WriteModel, 0, len(grants))
	for i := range grants {
		g := &grants[i]
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": g.ID}).
			SetReplacement(mongoDoc(g)).
			SetUpsert(true))
	}

	_, err := s.collection.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return fmt.Errorf("failed to bulk write grants: %w", err)
	}
	return nil
}

func mongoDoc(g *types.Grant) bson.M {
	doc := bson.M{
		"_id":         g.ID,
		"title":       g.Title,
		"description": g.Description,
		"provider":    g.Provider,
		"type":        string(g.Type),
		"status":      string(g.Status),
		"url":         g.URL,
		"funding":     g.Funding,
		"regions":     g.Regions,
		"categories":  g.Categories,
		"eligibility": g.Eligibility,
		"documents":   g.Documents,
		"source_refs": g.SourceRefs,
		"notes":       g.Notes,
		"scraped_at":  g.ScrapedAt,
	}
	if g.HasDeadline() {
		doc["deadline"] = *g.Deadline
	}
	if g.OpenedAt != nil {
		doc["opened_at"] = *g.OpenedAt
	}
	return doc
}

func (s *MongoSink) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
