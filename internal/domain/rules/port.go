package rules

import "context"

// Repository port for durable rule storage. ReplaceAll must be atomic: either
// the whole new set is stored or the old one remains.
type Repository interface {
	List(ctx context.Context) ([]Rule, error)
	ReplaceAll(ctx context.Context, rr []Rule) error
}
