package seencache

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/go-redis/redis/v8"
)

const (
	// Redis only has string type, there is no boolean or int, so we use "1" to represent true
	redisTrue = "1"

	keyDelimiter = "__"
)

var ctx = context.Background()

// SeenCache is an optional redis-backed cache of already-persisted article
// ids, fronting the id-dedup database query on the backfill path. It is never
// authoritative: a miss always falls through to the database, so a cold or
// flushed cache can only cost extra queries, never correctness.
type SeenCache struct {
	inner *redis.Client
}

// NewFromEnv connects using REDIS_HOST/REDIS_PORT/REDIS_PASSWD. Returns
// (nil, nil) when REDIS_HOST is unset, which callers treat as "cache
// disabled".
func NewFromEnv() (*SeenCache, error) {
	if os.Getenv("REDIS_HOST") == "" {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", os.Getenv("REDIS_HOST"), os.Getenv("REDIS_PORT")),
		Password: os.Getenv("REDIS_PASSWD"),
		DB:       0, // use default DB
	})
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, err
	}
	return &SeenCache{inner: client}, nil
}

func ArticleKey(threadId string, articleId string) string {
	return threadId + keyDelimiter + articleId
}

func ValidateId(id string) bool {
	return !strings.Contains(id, keyDelimiter)
}

// FilterSeen partitions articleIds into those the cache knows are stored and
// those it cannot vouch for.
func (c *SeenCache) FilterSeen(threadId string, articleIds []string) (seen []string, unknown []string, err error) {
	if len(articleIds) == 0 {
		return nil, nil, nil
	}

	keys := make([]string, 0, len(articleIds))
	for _, id := range articleIds {
		keys = append(keys, ArticleKey(threadId, id))
	}
	res, err := c.inner.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, articleIds, err
	}

	for i, v := range res {
		if v == redisTrue {
			seen = append(seen, articleIds[i])
			continue
		}
		unknown = append(unknown, articleIds[i])
	}
	return seen, unknown, nil
}

// MarkSeen records freshly persisted article ids.
func (c *SeenCache) MarkSeen(threadId string, articleIds []string) error {
	if len(articleIds) == 0 {
		return nil
	}
	keyValues := make([]interface{}, 0, 2*len(articleIds))
	for _, id := range articleIds {
		keyValues = append(keyValues, ArticleKey(threadId, id))
		keyValues = append(keyValues, redisTrue)
	}
	return c.inner.MSetNX(ctx, keyValues...).Err()
}
