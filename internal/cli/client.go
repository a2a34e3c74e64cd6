package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/opcall-go/opcall/pkg/cache"
	"github.com/opcall-go/opcall/pkg/descriptor"
	"github.com/opcall-go/opcall/pkg/invoke"
	"github.com/opcall-go/opcall/pkg/logging"
	"github.com/opcall-go/opcall/pkg/throttle"
	"github.com/opcall-go/opcall/pkg/transport"
)

// buildClient assembles the transport decorator chain and the client.
// Redis is optional; without it the chain is HTTP plus retry only.
// The returned cleanup closes the redis connection.
func buildClient(cfg *Config, set *descriptor.Set) (*invoke.Client, func(), error) {
	var t transport.Transport = transport.NewHTTPTransport(nil)
	t = transport.NewRetryTransport(t)

	cleanup := func() {}
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr: cfg.Redis.Addr,
			DB:   cfg.Redis.DB,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			rdb.Close()
			return nil, nil, fmt.Errorf("connecting to redis at %s: %w", cfg.Redis.Addr, err)
		}

		t = transport.NewCachingTransport(t, cache.NewManager(rdb))
		t = transport.NewThrottleTransport(t, throttle.NewTracker(rdb, logging.NewLogger("throttle")))
		cleanup = func() { rdb.Close() }
	}

	clientCfg := invoke.DefaultConfig(cfg.BaseURL, t, set)
	clientCfg.Paging.MaxPages = cfg.Paging.MaxPages
	if cfg.Polling.Interval > 0 {
		clientCfg.Polling.Interval = cfg.Polling.Interval
	}

	client, err := invoke.New(clientCfg)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return client, cleanup, nil
}
