package designs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Badsnus/qrstudio/internal/domain/common/errorz"
	"github.com/Badsnus/qrstudio/internal/domain/entity"
	"github.com/redis/go-redis/v9"
)

const DefaultKey = "qr-studio-library"

// maxRetries bounds optimistic-lock retries of one write.
const maxRetries = 5

// Storage keeps the whole library as one JSON array under a fixed key.
type Storage struct {
	redis *redis.Client
	key   string
}

func NewStorage(client *redis.Client, key string) *Storage {
	if key == "" {
		key = DefaultKey
	}
	return &Storage{
		redis: client,
		key:   key,
	}
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (s *Storage) load(ctx context.Context, cmd getter) ([]entity.Design, error) {
	data, err := cmd.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var designs []entity.Design
	if err = json.Unmarshal(data, &designs); err != nil {
		return nil, fmt.Errorf("%w: %v", errorz.ErrMalformedLibrary, err)
	}
	return designs, nil
}

// mutate runs fn over the stored array and writes the result back, retrying
// when another writer touched the key in between.
func (s *Storage) mutate(ctx context.Context, fn func([]entity.Design) ([]entity.Design, error)) error {
	txf := func(tx *redis.Tx) error {
		designs, err := s.load(ctx, tx)
		if err != nil {
			return err
		}
		designs, err = fn(designs)
		if err != nil {
			return err
		}
		data, err := json.Marshal(designs)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, s.key, data, 0)
			return nil
		})
		return err
	}

	for i := 0; i < maxRetries; i++ {
		err := s.redis.Watch(ctx, txf, s.key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("failed to write library: %w", redis.TxFailedErr)
}

func (s *Storage) Create(ctx context.Context, design *entity.Design) (*entity.Design, error) {
	err := s.mutate(ctx, func(designs []entity.Design) ([]entity.Design, error) {
		return append(designs, *design), nil
	})
	return design, err
}

func (s *Storage) Get(ctx context.Context, id string) (*entity.Design, error) {
	designs, err := s.load(ctx, s.redis)
	if err != nil {
		return nil, err
	}
	for i := range designs {
		if designs[i].ID == id {
			return &designs[i], nil
		}
	}
	return nil, errorz.ErrDesignNotFound
}

func (s *Storage) GetAll(ctx context.Context) ([]entity.Design, error) {
	return s.load(ctx, s.redis)
}

func (s *Storage) Update(ctx context.Context, design *entity.Design) (*entity.Design, error) {
	err := s.mutate(ctx, func(designs []entity.Design) ([]entity.Design, error) {
		for i := range designs {
			if designs[i].ID == design.ID {
				designs[i] = *design
				return designs, nil
			}
		}
		return nil, errorz.ErrDesignNotFound
	})
	if err != nil {
		return nil, err
	}
	return design, nil
}

func (s *Storage) Delete(ctx context.Context, id string) error {
	return s.mutate(ctx, func(designs []entity.Design) ([]entity.Design, error) {
		for i := range designs {
			if designs[i].ID == id {
				return append(designs[:i], designs[i+1:]...), nil
			}
		}
		return nil, errorz.ErrDesignNotFound
	})
}

func (s *Storage) ReplaceAll(ctx context.Context, designs []entity.Design) error {
	return s.mutate(ctx, func([]entity.Design) ([]entity.Design, error) {
		if designs == nil {
			return []entity.Design{}, nil
		}
		return designs, nil
	})
}
