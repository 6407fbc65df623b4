package database

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// markScript appends an ID and trims the list in one round trip.
var markScript = redis.NewScript(`
local n = redis.call('RPUSH', KEYS[1], ARGV[1])
if n > tonumber(ARGV[2]) then
	redis.call('LTRIM', KEYS[1], -tonumber(ARGV[3]), -1)
end
return n
`)

// ProcessedRedis is a models.ProcessedSet kept in a Redis list, shared by every
// notifier replica pointing at the same key.
type ProcessedRedis struct {
	client *redis.Client
	key    string
}

// NewProcessedRedis uses key on client.
func NewProcessedRedis(client *redis.Client, key string) *ProcessedRedis {
	return &ProcessedRedis{client: client, key: key}
}

// HasProcessed reports whether postID is in the list.
func (p *ProcessedRedis) HasProcessed(ctx context.Context, postID int64) (bool, error) {
	_, err := p.client.LPos(ctx, p.key, strconv.FormatInt(postID, 10), redis.LPosArgs{}).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lpos processed: %w", err)
	}
	return true, nil
}

// MarkProcessed appends postID with the same ceiling/keep rule as the file store.
func (p *ProcessedRedis) MarkProcessed(ctx context.Context, postID int64) error {
	err := markScript.Run(ctx, p.client, []string{p.key},
		strconv.FormatInt(postID, 10), ProcessedCeiling, ProcessedKeep).Err()
	if err != nil {
		return fmt.Errorf("mark processed: %w", err)
	}
	return nil
}

// IDs returns the stored IDs, oldest first.
func (p *ProcessedRedis) IDs(ctx context.Context) ([]int64, error) {
	vals, err := p.client.LRange(ctx, p.key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("lrange processed: %w", err)
	}
	ids := make([]int64, 0, len(vals))
	for _, v := range vals {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("corrupt processed entry %q: %w", v, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Close closes the Redis client.
func (p *ProcessedRedis) Close() error {
	return p.client.Close()
}
