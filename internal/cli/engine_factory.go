package cli

import (
	"fmt"
	"log/slog"

	"github.com/aretw0/concord"
	redisstore "github.com/aretw0/concord/pkg/adapters/redis"
	"github.com/aretw0/concord/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// NewEngine builds a negotiation engine from the configuration. The
// returned cleanup releases backend resources and must be called when
// the command finishes.
func NewEngine(cfg *Config, logger *slog.Logger, hooks domain.LifecycleHooks) (*concord.Engine, func(), error) {
	opts := []concord.Option{
		concord.WithLogger(logger),
		concord.WithLifecycleHooks(hooks),
	}
	if cfg.Budgets.Goal > 0 {
		opts = append(opts, concord.WithGoalBudget(cfg.Budgets.Goal))
	}
	if cfg.Budgets.Schema > 0 {
		opts = append(opts, concord.WithSchemaBudget(cfg.Budgets.Schema))
	}
	if cfg.Budgets.Review > 0 {
		opts = append(opts, concord.WithReviewBudget(cfg.Budgets.Review))
	}

	cleanup := func() {}
	switch cfg.Store {
	case "redis":
		ttl, err := cfg.SessionTTL()
		if err != nil {
			return nil, nil, err
		}
		client := backend.NewClient(&backend.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		store := redisstore.NewFromClient(client, redisstore.WithTTL(ttl))
		opts = append(opts,
			concord.WithStore(store),
			concord.WithLocker(redisstore.NewLocker(client, "concord:")),
		)
		cleanup = func() {
			if err := store.Close(); err != nil {
				logger.Warn("closing redis store", "error", err)
			}
		}
	case "memory":
		// Engine default.
	default:
		return nil, nil, fmt.Errorf("unknown store %q", cfg.Store)
	}

	return concord.New(opts...), cleanup, nil
}
