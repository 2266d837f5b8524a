package repository

import (
	"context"
	"errors"

	"farmsight/entities"
)

var (
	ErrNotFound  = errors.New("crop record not found")
	ErrInvalidID = errors.New("invalid crop record id")
)

type ListFilter struct {
	Skip  int
	Limit int
	Tag   string
}

// CropRepository is plain key/value CRUD over one collection.
type CropRepository interface {
	Create(ctx context.Context, c *entities.CropRecord) error
	Update(ctx context.Context, c *entities.CropRecord) error
	FindByID(ctx context.Context, id string) (*entities.CropRecord, error)
	FindByName(ctx context.Context, name string) (*entities.CropRecord, error)
	List(ctx context.Context, f ListFilter) ([]entities.CropRecord, error)
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}
