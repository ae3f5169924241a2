package application

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/linkcircle/internal/domain/entity"
	"github.com/oksasatya/linkcircle/pkg/helpers"
)

// ProfileCache caches public profile lookups by username in Redis.
// A nil *ProfileCache or one without a client is a no-op.
type ProfileCache struct {
	Redis  *redis.Client
	TTL    time.Duration
	Logger *logrus.Logger
}

func NewProfileCache(rdb *redis.Client, ttl time.Duration, logger *logrus.Logger) *ProfileCache {
	return &ProfileCache{Redis: rdb, TTL: ttl, Logger: logger}
}

func profileKey(username string) string {
	return "profile:username:" + username
}

func (c *ProfileCache) enabled() bool { return c != nil && c.Redis != nil && c.TTL > 0 }

func (c *ProfileCache) Get(ctx context.Context, username string) (*entity.User, bool) {
	if !c.enabled() {
		return nil, false
	}
	var u entity.User
	ok, err := helpers.RedisGetJSON(ctx, c.Redis, profileKey(username), &u)
	if err != nil {
		c.warn(err, username, "profile cache read failed")
		return nil, false
	}
	if !ok {
		return nil, false
	}
	return &u, true
}

func (c *ProfileCache) Set(ctx context.Context, u *entity.User) {
	if !c.enabled() || u == nil {
		return
	}
	if err := helpers.RedisSetJSON(ctx, c.Redis, profileKey(u.Username), u, c.TTL); err != nil {
		c.warn(err, u.Username, "profile cache write failed")
	}
}

func (c *ProfileCache) Invalidate(ctx context.Context, usernames ...string) {
	if !c.enabled() {
		return
	}
	keys := make([]string, 0, len(usernames))
	for _, name := range usernames {
		if name != "" {
			keys = append(keys, profileKey(name))
		}
	}
	if len(keys) == 0 {
		return
	}
	if err := c.Redis.Del(ctx, keys...).Err(); err != nil {
		c.warn(err, "", "profile cache invalidation failed")
	}
}

func (c *ProfileCache) warn(err error, username, msg string) {
	if c.Logger == nil {
		return
	}
	c.Logger.WithError(err).WithField("username", username).Warn(msg)
}
