package services

import "context"

// Service is the unit every use case is exposed as, decorators wrap it.
type Service[T any, S any] interface {
	Run(ctx context.Context, input T) (S, error)
}
