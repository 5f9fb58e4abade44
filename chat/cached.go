package chat

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strconv"
	"time"

	"github.com/plasma-umass/llm-utils/cache"
	"github.com/plasma-umass/llm-utils/llm"
	"github.com/plasma-umass/llm-utils/logger"
)

// CachedAPI serves repeated conversations from a cache.Store.
type CachedAPI struct {
	ChatAPI
	store cache.Store
	ttl   time.Duration
	log   *logger.Logger
}

// Cached wraps api so that identical (provider, n, conversation) requests
// are answered from store. ttl <= 0 keeps entries until evicted.
func Cached(api ChatAPI, store cache.Store, ttl time.Duration) *CachedAPI {
	return &CachedAPI{
		ChatAPI: api,
		store:   store,
		ttl:     ttl,
		log:     logger.GetGlobalLogger().WithComponent("chat-cache"),
	}
}

// SendMessage returns the cached replies for the conversation when present.
// Cache failures are logged and fall through to the provider.
func (c *CachedAPI) SendMessage(ctx context.Context, conversation []llm.Message, n int) ([]string, error) {
	key, err := cacheKey(c.Name(), n, conversation)
	if err != nil {
		return c.ChatAPI.SendMessage(ctx, conversation, n)
	}
	log := c.log.WithContext(ctx)

	var replies []string
	hit, err := c.store.Get(ctx, key, &replies)
	if err != nil {
		log.Warn("cache lookup failed", logger.Fields(logger.FieldError, err.Error()))
	}
	if hit {
		log.Debug("cache hit", logger.Fields("key", key))
		return replies, nil
	}

	replies, err = c.ChatAPI.SendMessage(ctx, conversation, n)
	if err != nil {
		return nil, err
	}
	if err := c.store.Set(ctx, key, replies, c.ttl); err != nil {
		log.Warn("cache store failed", logger.Fields(logger.FieldError, err.Error()))
	}
	return replies, nil
}

// Unwrap returns the wrapped ChatAPI.
func (c *CachedAPI) Unwrap() ChatAPI { return c.ChatAPI }

func cacheKey(provider string, n int, conversation []llm.Message) (string, error) {
	body, err := json.Marshal(conversation)
	if err != nil {
		return "", err
	}
	h := sha256.New()
	h.Write([]byte(provider))
	h.Write([]byte{0})
	h.Write([]byte(strconv.Itoa(n)))
	h.Write([]byte{0})
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil)), nil
}
