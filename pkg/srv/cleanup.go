package srv

import "context"

// cleanupService runs a single function on shutdown.
type cleanupService struct {
	name    string
	cleanup func(ctx context.Context) error
}

func (c *cleanupService) Start(ctx context.Context) error {
	return nil
}

func (c *cleanupService) Shutdown(ctx context.Context) error {
	if c.cleanup != nil {
		return c.cleanup(ctx)
	}
	return nil
}

func (c *cleanupService) String() string {
	return c.name
}

func NewCleanup(name string, fn func(ctx context.Context) error) Service {
	return &cleanupService{name: name, cleanup: fn}
}
