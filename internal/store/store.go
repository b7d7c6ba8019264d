// Package store persists checkpointed runs and the all-time leaderboard.
// CheckpointStore is the seam between the session manager and whatever
// database backs it; production wires it to MongoDB, tests and local dev
// can use the in-memory implementation instead.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/alexswiontek/dungeon-crawler/internal/state"
)

// ErrNotFound is returned by LoadGame when no checkpoint exists for an id.
var ErrNotFound = errors.New("store: checkpoint not found")

// CheckpointRecord is the persisted form of a run that is still active.
// A run that ends in death or victory has its record deleted.
type CheckpointRecord struct {
	GameID     string          `bson:"_id" json:"gameId"`
	PlayerName string          `bson:"playerName" json:"playerName"`
	State      *state.GameState `bson:"state" json:"state"`
	UpdatedAt  time.Time       `bson:"updatedAt" json:"updatedAt"`
}

// LeaderboardRow is one entry in the all-time top-scores table.
type LeaderboardRow struct {
	PlayerName string    `bson:"playerName" json:"playerName"`
	Score      int       `bson:"score" json:"score"`
	Floor      int       `bson:"floor" json:"floor"`
	AchievedAt time.Time `bson:"achievedAt" json:"achievedAt"`
}

// CheckpointStore is everything the session manager needs from
// persistence. Implementations must be safe for concurrent use.
type CheckpointStore interface {
	SaveGame(ctx context.Context, rec CheckpointRecord) error
	LoadGame(ctx context.Context, gameID string) (CheckpointRecord, error)
	DeleteGame(ctx context.Context, gameID string) error
	InsertLeaderboardRow(ctx context.Context, row LeaderboardRow) error
	TopScores(ctx context.Context, limit int) ([]LeaderboardRow, error)
	Ping(ctx context.Context) error
}
