// Package store provides persistence for the agent's accepted configuration.
package store

import (
	"context"
	"time"

	"board-tracker/internal/models"
)

// ControllerStore keeps the last Controller the agent accepted.
type ControllerStore interface {
	// SaveController replaces the stored Controller.
	SaveController(ctx context.Context, c models.Controller) error
	// LoadController returns the stored Controller, or a wrapped
	// errors.ErrDataNotFound when nothing was saved yet.
	LoadController(ctx context.Context) (*StoredController, error)
	// DeleteController forgets the stored Controller.
	DeleteController(ctx context.Context) error

	Close() error
}

// StoredController is a persisted Controller with its save time.
type StoredController struct {
	Controller models.Controller
	UpdatedAt  time.Time
}
