package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	goredis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/interactive-solutions/go-communication-hub"
	"github.com/interactive-solutions/go-communication-hub/metrics"
)

const keyPrefix = "communication:preferences:"

type CacheOption func(c *cachedPreferenceRepository)

func SetTTL(ttl time.Duration) CacheOption {
	return func(c *cachedPreferenceRepository) {
		c.ttl = ttl
	}
}

func SetLogger(logger logrus.FieldLogger) CacheOption {
	return func(c *cachedPreferenceRepository) {
		c.logger = logger
	}
}

// NewCachedPreferenceRepository wraps next with a read-through redis cache.
// Cache failures are logged and fall through to next.
func NewCachedPreferenceRepository(client goredis.UniversalClient, next communication.PreferenceRepository, options ...CacheOption) communication.PreferenceRepository {
	c := &cachedPreferenceRepository{
		client: client,
		next:   next,
		ttl:    10 * time.Minute,
		logger: logrus.New(),
	}

	for _, option := range options {
		option(c)
	}

	return c
}

type cachedPreferenceRepository struct {
	client goredis.UniversalClient
	next   communication.PreferenceRepository

	ttl    time.Duration
	logger logrus.FieldLogger
}

func key(userId string) string {
	return keyPrefix + userId
}

func (c *cachedPreferenceRepository) Get(ctx context.Context, userId string) (communication.NotificationPreferences, error) {
	var prefs communication.NotificationPreferences

	data, err := c.client.Get(ctx, key(userId)).Bytes()
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &prefs); err == nil {
			metrics.PreferenceCacheLookups.WithLabelValues("hit").Inc()
			return prefs, nil
		}

		c.logger.WithField("userId", userId).Warn("discarding undecodable cached preferences")

	case err != goredis.Nil:
		c.logger.WithField("userId", userId).WithError(err).Warn("preference cache lookup failed")
	}

	metrics.PreferenceCacheLookups.WithLabelValues("miss").Inc()

	prefs, err = c.next.Get(ctx, userId)
	if err != nil {
		return prefs, err
	}

	data, err = json.Marshal(prefs)
	if err != nil {
		return prefs, errors.Wrap(err, "Failed to encode preferences for cache")
	}

	if err := c.client.Set(ctx, key(userId), data, c.ttl).Err(); err != nil {
		c.logger.WithField("userId", userId).WithError(err).Warn("failed to cache preferences")
	}

	return prefs, nil
}

func (c *cachedPreferenceRepository) Save(ctx context.Context, prefs *communication.NotificationPreferences) error {
	if err := c.next.Save(ctx, prefs); err != nil {
		return err
	}

	if err := c.client.Del(ctx, key(prefs.UserId)).Err(); err != nil {
		return errors.Wrapf(err, "Failed to invalidate cached preferences for %s", prefs.UserId)
	}

	return nil
}
