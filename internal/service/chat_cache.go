package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Aswin-K-22/fitness-platform-fithub--sub002/internal/dto"
)

// LastMessageCache keeps the newest message of each conversation in Redis so
// the summary path can skip the database for hot conversations. Misses and
// Redis failures fall through to the repository; the cache is never
// authoritative. A nil client disables it.
type LastMessageCache struct {
	redis  *redis.Client
	prefix string
	ttl    time.Duration
	logger zerolog.Logger
}

// NewLastMessageCache creates a cache with the given key prefix and TTL.
func NewLastMessageCache(client *redis.Client, prefix string, ttl time.Duration, logger zerolog.Logger) *LastMessageCache {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &LastMessageCache{
		redis:  client,
		prefix: prefix,
		ttl:    ttl,
		logger: logger.With().Str("component", "last_message_cache").Logger(),
	}
}

func (c *LastMessageCache) key(conversationID uint) string {
	return fmt.Sprintf("%s:%d", c.prefix, conversationID)
}

// Store caches the message as its conversation's latest.
func (c *LastMessageCache) Store(ctx context.Context, message dto.MessageResponse) {
	if c == nil || c.redis == nil || c.prefix == "" {
		return
	}

	payload, err := json.Marshal(message)
	if err != nil {
		c.logger.Warn().Err(err).Msg("failed to marshal message for cache")
		return
	}

	if err := c.redis.Set(ctx, c.key(message.ConversationID), payload, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Msg("failed to cache last message")
	}
}

// FetchMany resolves cached last messages for all conversations in one MGET.
// Absent or unparsable entries are simply missing from the result.
func (c *LastMessageCache) FetchMany(ctx context.Context, conversationIDs []uint) map[uint]dto.MessageResponse {
	result := make(map[uint]dto.MessageResponse)
	if c == nil || c.redis == nil || c.prefix == "" || len(conversationIDs) == 0 {
		return result
	}

	keys := make([]string, 0, len(conversationIDs))
	for _, id := range conversationIDs {
		keys = append(keys, c.key(id))
	}

	values, err := c.redis.MGet(ctx, keys...).Result()
	if err != nil {
		c.logger.Warn().Err(err).Msg("failed to read last message cache")
		return result
	}

	for i, value := range values {
		raw, ok := value.(string)
		if !ok {
			continue
		}
		var message dto.MessageResponse
		if err := json.Unmarshal([]byte(raw), &message); err != nil {
			c.logger.Warn().Err(err).Msg("failed to unmarshal cached message")
			continue
		}
		result[conversationIDs[i]] = message
	}

	return result
}
