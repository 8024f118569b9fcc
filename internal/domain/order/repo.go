package order

import (
	"context"

	"github.com/google/uuid"
)

// TelegramRepository stores ingested telegrams. Re-submitting the same
// order number and version appends a new row; the store never overwrites.
type TelegramRepository interface {
	Create(ctx context.Context, t *Telegram) error
	GetByID(ctx context.Context, id uuid.UUID) (*Telegram, error)
	List(ctx context.Context, limit, offset int) ([]*Telegram, int, error)
	FindByOrderKey(ctx context.Context, orderNumber, version string, limit, offset int) ([]*Telegram, int, error)
}
