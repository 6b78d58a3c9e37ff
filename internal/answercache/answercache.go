package answercache

import (
	"context"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/stores/redis"

	"finamqa/internal/cache"
	"finamqa/pkg/bench"
	"finamqa/pkg/llm"
)

// cachedAnswer is the msgpack payload stored per question.
type cachedAnswer struct {
	Method string `msgpack:"m"`
	Path   string `msgpack:"p"`
}

// Cache stores parsed answers in Redis keyed by question digest. All
// failures degrade to cache misses so a flaky Redis never fails a run.
type Cache struct {
	rds   *redis.Redis
	model string
	ttl   time.Duration
}

// New builds an answer cache scoped to the given model.
func New(rds *redis.Redis, model string, ttl time.Duration) *Cache {
	return &Cache{rds: rds, model: model, ttl: ttl}
}

var _ bench.AnswerCache = (*Cache)(nil)

// Get looks up a previously stored answer for the question.
func (c *Cache) Get(ctx context.Context, question string) (bench.ParsedAnswer, bool) {
	key := cache.AnswerKey(c.model, llm.DigestString(question))
	raw, err := c.rds.GetCtx(ctx, key)
	if err != nil || raw == "" {
		return bench.ParsedAnswer{}, false
	}
	var stored cachedAnswer
	if err := msgpack.Unmarshal([]byte(raw), &stored); err != nil {
		logx.Errorw("answer cache payload corrupt, treating as miss",
			logx.Field("key", key),
			logx.Field("error", err.Error()),
		)
		return bench.ParsedAnswer{}, false
	}
	return bench.ParsedAnswer{Method: stored.Method, Path: stored.Path}, true
}

// Set stores a parsed answer with the configured TTL.
func (c *Cache) Set(ctx context.Context, question string, ans bench.ParsedAnswer) {
	data, err := msgpack.Marshal(cachedAnswer{Method: ans.Method, Path: ans.Path})
	if err != nil {
		return
	}
	key := cache.AnswerKey(c.model, llm.DigestString(question))
	seconds := int(c.ttl / time.Second)
	if seconds <= 0 {
		return
	}
	if err := c.rds.SetexCtx(ctx, key, string(data), seconds); err != nil {
		logx.Errorw("answer cache write failed",
			logx.Field("key", key),
			logx.Field("error", err.Error()),
		)
	}
}
