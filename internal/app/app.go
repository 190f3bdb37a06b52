package app

import (
	"context"

	"github.com/quiethours/scheduler/internal/storage"
)

type App struct {
	Storage storage.Storage
}

func New(storage storage.Storage) *App {
	return &App{Storage: storage}
}

func (a *App) ListBlocks(ctx context.Context, ownerID string) ([]storage.Block, error) {
	return a.Storage.ListBlocks(ctx, ownerID)
}

func (a *App) CreateBlock(ctx context.Context, b storage.Block) (storage.Block, error) {
	if err := a.Storage.AddBlock(ctx, &b); err != nil {
		return storage.Block{}, err
	}
	return b, nil
}

func (a *App) UpdateBlock(ctx context.Context, ownerID string, id string, b storage.Block) (storage.Block, error) {
	return a.Storage.UpdateBlock(ctx, ownerID, id, b)
}

func (a *App) RemoveBlock(ctx context.Context, ownerID string, id string) error {
	return a.Storage.RemoveBlock(ctx, ownerID, id)
}
