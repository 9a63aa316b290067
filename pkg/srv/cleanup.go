package srv

import (
	"context"
	"fmt"

	"github.com/sandevgo/brotherbot/pkg/log"
)

// cleanupService runs a single func at shutdown.
type cleanupService struct {
	name    string
	cleanup func(ctx context.Context) error
}

func (c *cleanupService) Start(ctx context.Context) error {
	return nil
}

func (c *cleanupService) Shutdown(ctx context.Context) error {
	if c.cleanup == nil {
		return nil
	}
	log.FromCtx(ctx).Debug().Str("cleanup", c.name).Msg("running cleanup")
	if err := c.cleanup(ctx); err != nil {
		return fmt.Errorf("%s: %w", c.name, err)
	}
	return nil
}

func NewCleanup(name string, fn func(ctx context.Context) error) Service {
	return &cleanupService{name: name, cleanup: fn}
}

// NewCloser wraps a Close-style func.
func NewCloser(name string, fn func() error) Service {
	return NewCleanup(name, func(context.Context) error { return fn() })
}
