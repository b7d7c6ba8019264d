package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// checkpointTTL is how long a paused game's checkpoint is retained before
// MongoDB's TTL index reaps it.
const checkpointTTL = 7 * 24 * time.Hour

// MongoStore is the production CheckpointStore, backed by two collections:
// checkpoints (TTL-indexed on updatedAt) and leaderboard (sorted by score).
type MongoStore struct {
	checkpoints *mongo.Collection
	leaderboard *mongo.Collection
}

// NewMongoStore connects to uri, verifies the connection, and ensures the
// TTL index on checkpoints.updatedAt exists.
func NewMongoStore(ctx context.Context, uri string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("store: connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		return nil, fmt.Errorf("store: ping: %w", err)
	}

	db := client.Database("dungeon_crawler")
	checkpoints := db.Collection("checkpoints")
	leaderboard := db.Collection("leaderboard")

	indexCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	_, err = checkpoints.Indexes().CreateOne(indexCtx, mongo.IndexModel{
		Keys:    bson.D{{Key: "updatedAt", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(int32(checkpointTTL.Seconds())),
	})
	if err != nil {
		return nil, fmt.Errorf("store: create ttl index: %w", err)
	}

	return &MongoStore{checkpoints: checkpoints, leaderboard: leaderboard}, nil
}

func (s *MongoStore) SaveGame(ctx context.Context, rec CheckpointRecord) error {
	rec.UpdatedAt = time.Now()
	opts := options.Replace().SetUpsert(true)
	_, err := s.checkpoints.ReplaceOne(ctx, bson.M{"_id": rec.GameID}, rec, opts)
	if err != nil {
		return fmt.Errorf("store: save game %s: %w", rec.GameID, err)
	}
	return nil
}

func (s *MongoStore) LoadGame(ctx context.Context, gameID string) (CheckpointRecord, error) {
	var rec CheckpointRecord
	err := s.checkpoints.FindOne(ctx, bson.M{"_id": gameID}).Decode(&rec)
	if err == mongo.ErrNoDocuments {
		return CheckpointRecord{}, ErrNotFound
	}
	if err != nil {
		return CheckpointRecord{}, fmt.Errorf("store: load game %s: %w", gameID, err)
	}
	return rec, nil
}

func (s *MongoStore) DeleteGame(ctx context.Context, gameID string) error {
	_, err := s.checkpoints.DeleteOne(ctx, bson.M{"_id": gameID})
	if err != nil {
		return fmt.Errorf("store: delete game %s: %w", gameID, err)
	}
	return nil
}

func (s *MongoStore) InsertLeaderboardRow(ctx context.Context, row LeaderboardRow) error {
	row.AchievedAt = time.Now()
	_, err := s.leaderboard.InsertOne(ctx, row)
	if err != nil {
		return fmt.Errorf("store: insert leaderboard row: %w", err)
	}
	return nil
}

func (s *MongoStore) TopScores(ctx context.Context, limit int) ([]LeaderboardRow, error) {
	opts := options.Find().SetSort(bson.D{{Key: "score", Value: -1}}).SetLimit(int64(limit))
	cur, err := s.leaderboard.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("store: top scores: %w", err)
	}
	defer cur.Close(ctx)

	var rows []LeaderboardRow
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("store: decode top scores: %w", err)
	}
	return rows, nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.checkpoints.Database().Client().Ping(ctx, nil)
}
