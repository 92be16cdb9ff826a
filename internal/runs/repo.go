package runs

import "context"

// Repo defines persistence operations for runs.
type Repo interface {
	Create(ctx context.Context, run Run) error
	Complete(ctx context.Context, run Run) error
	GetByID(ctx context.Context, id string) (Run, error)
	List(ctx context.Context, limit, offset int) ([]Run, error)
}
