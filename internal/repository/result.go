package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/bingo-backend/internal/entity"
)

const (
	leaderboardKey = "bingo:leaderboard"
	resultsKey     = "bingo:results"
)

type ResultRepository interface {
	Record(ctx context.Context, result entity.GameResult) error
	Leaderboard(ctx context.Context, limit int) ([]entity.LeaderboardEntry, error)
	Recent(ctx context.Context, limit int) ([]entity.GameResult, error)
}

type dbResult struct {
	client *redis.Client
	keep   int64
}

// NewResultRepository keeps at most keep results in the history list.
func NewResultRepository(client *redis.Client, keep int) ResultRepository {
	return &dbResult{
		client: client,
		keep:   int64(keep),
	}
}

func (that *dbResult) Record(ctx context.Context, result entity.GameResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("could not marshal result: %w", err)
	}

	_, err = that.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if result.Ranked() {
			pipe.ZIncrBy(ctx, leaderboardKey, 1, result.WinnerName)
		}

		pipe.LPush(ctx, resultsKey, resultJSON)

		if that.keep > 0 {
			pipe.LTrim(ctx, resultsKey, 0, that.keep-1)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to record result for room %s: %w", result.RoomID, err)
	}

	return nil
}

func (that *dbResult) Leaderboard(ctx context.Context, limit int) ([]entity.LeaderboardEntry, error) {
	if limit <= 0 {
		return []entity.LeaderboardEntry{}, nil
	}

	scores, err := that.client.ZRevRangeWithScores(ctx, leaderboardKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read leaderboard: %w", err)
	}

	entries := make([]entity.LeaderboardEntry, 0, len(scores))
	for _, score := range scores {
		name, ok := score.Member.(string)
		if !ok {
			continue
		}

		entries = append(entries, entity.LeaderboardEntry{
			PlayerName: name,
			Wins:       int64(score.Score),
		})
	}

	return entries, nil
}

func (that *dbResult) Recent(ctx context.Context, limit int) ([]entity.GameResult, error) {
	if limit <= 0 {
		return []entity.GameResult{}, nil
	}

	raw, err := that.client.LRange(ctx, resultsKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read results: %w", err)
	}

	results := make([]entity.GameResult, 0, len(raw))
	for _, item := range raw {
		var result entity.GameResult
		if err = json.Unmarshal([]byte(item), &result); err != nil {
			return nil, fmt.Errorf("failed to unmarshal result: %w", err)
		}

		results = append(results, result)
	}

	return results, nil
}

type nopResult struct{}

// NewNopResultRepository discards results; used when redis is disabled.
func NewNopResultRepository() ResultRepository {
	return nopResult{}
}

func (nopResult) Record(context.Context, entity.GameResult) error { return nil }

func (nopResult) Leaderboard(context.Context, int) ([]entity.LeaderboardEntry, error) {
	return []entity.LeaderboardEntry{}, nil
}

func (nopResult) Recent(context.Context, int) ([]entity.GameResult, error) {
	return []entity.GameResult{}, nil
}
