package pool

import "context"

// Repository describes pool persistence needs from use cases.
type Repository interface {
	GetByID(ctx context.Context, poolID string) (Pool, bool, error)
}
