package redis

import (
	"context"
	"fmt"

	"github.com/Badsnus/qrstudio/internal/adapters/database/redis/designs"
	"github.com/redis/go-redis/v9"
)

type Client struct {
	Designs *designs.Storage
}

type Options struct {
	Host     string
	Port     int
	Password string
	DB       int
	// Key is the single key the library is stored under.
	Key string
}

func New(ctx context.Context, opts Options) (*Client, error) {
	designStorage := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", opts.Host, opts.Port),
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := designStorage.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping design storage: %w", err)
	}

	return &Client{
		Designs: designs.NewStorage(designStorage, opts.Key),
	}, nil
}
