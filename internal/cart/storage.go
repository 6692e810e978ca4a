package cart

import (
	"context"
	"errors"

	"github.com/yoogoworkspace/boot-snap-shopper/internal/domain"
)

// Storage is the durable key/value backing store for serialized carts.
// Consumers define this interface, not the redis implementation.
type Storage interface {
	Load(ctx context.Context, key string) (*domain.Cart, error)
	Save(ctx context.Context, key string, cart *domain.Cart) error
	Delete(ctx context.Context, key string) error
}

var ErrCartNotFound = errors.New("cart not found")
