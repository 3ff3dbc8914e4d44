package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"TuniCast/internal/domain/repository"
)

// RedisSentimentSource reads the latest per-symbol sentiment score written
// by the external sentiment job. A missing or stale key reads as "no
// score"; callers fall back to neutral.
type RedisSentimentSource struct {
	client    *redis.Client
	keyPrefix string
	maxAge    time.Duration
}

func NewRedisSentimentSource(client *redis.Client, keyPrefix string, maxAge time.Duration) repository.SentimentSource {
	if keyPrefix == "" {
		keyPrefix = "sentiment:"
	}
	return &RedisSentimentSource{client: client, keyPrefix: keyPrefix, maxAge: maxAge}
}

// sentimentRecord is the payload the sentiment job writes per symbol.
type sentimentRecord struct {
	Score     float64   `json:"score"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *RedisSentimentSource) Latest(ctx context.Context, symbol string) (float64, bool, error) {
	key := s.keyPrefix + strings.ToUpper(strings.TrimSpace(symbol))
	raw, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("get sentiment %s: %w", key, err)
	}

	var rec sentimentRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return 0, false, fmt.Errorf("decode sentiment %s: %w", key, err)
	}
	if rec.Score < -1 || rec.Score > 1 {
		return 0, false, fmt.Errorf("sentiment %s out of range: %v", key, rec.Score)
	}
	if s.maxAge > 0 && !rec.UpdatedAt.IsZero() && time.Since(rec.UpdatedAt) > s.maxAge {
		return 0, false, nil
	}
	return rec.Score, true, nil
}
