package memory

import (
	"context"
	"sync"

	"github.com/riskibarqy/bracket-pool/internal/domain/pool"
)

type PoolRepository struct {
	mu    sync.RWMutex
	items map[string]pool.Pool
}

func NewPoolRepository(pools []pool.Pool) *PoolRepository {
	items := make(map[string]pool.Pool, len(pools))
	for _, item := range pools {
		items[item.ID] = item
	}

	return &PoolRepository{items: items}
}

func (r *PoolRepository) GetByID(_ context.Context, poolID string) (pool.Pool, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[poolID]
	return item, ok, nil
}
