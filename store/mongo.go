package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"

	"erc7677-proxy/models"
)

// RecordsCollection 审计记录所在的集合
const RecordsCollection = "sponsorship_records"

// MongoStore 每条记录写入一个文档
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

func NewMongoStore(client *mongo.Client, database string) *MongoStore {
	return &MongoStore{
		client: client,
		coll:   client.Database(database).Collection(RecordsCollection),
	}
}

func (s *MongoStore) Record(ctx context.Context, rec models.SponsorshipRecord) error {
	rec.CreatedAt = rec.CreatedAt.UTC()
	if _, err := s.coll.InsertOne(ctx, rec); err != nil {
		return fmt.Errorf("failed to insert sponsorship record: %w", err)
	}
	return nil
}

func (s *MongoStore) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(context.Background())
}
