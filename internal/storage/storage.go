package storage

import (
	"context"
	"errors"
	"time"
)

var (
	ErrInvalidBlock  = errors.New("invalid study block")
	ErrBlockOverlap  = errors.New("study block overlaps an existing one")
	ErrNotFoundBlock = errors.New("study block not found")
)

type Storage interface {
	Connect(ctx context.Context) error
	Close(ctx context.Context) error
	ListBlocks(ctx context.Context, ownerID string) ([]Block, error)
	AddBlock(ctx context.Context, b *Block) error
	UpdateBlock(ctx context.Context, ownerID string, id string, b Block) (Block, error)
	RemoveBlock(ctx context.Context, ownerID string, id string) error
	ClaimDueBlocks(ctx context.Context, from time.Time, to time.Time) ([]Block, error)
}
