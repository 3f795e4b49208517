package scheduler

import (
	"errors"
	"fmt"

	"availability-service/internal/store"
)

// Failure kinds surfaced by plan operations. All are recoverable; the
// caller redisplays the form or retries.
var (
	ErrUnauthorized       = errors.New("no resolved owner identity")
	ErrInvalidPlanData    = errors.New("invalid plan data")
	ErrPastDateTime       = errors.New("plan start is in the past")
	ErrOverlappingPlan    = errors.New("plan overlaps an existing plan")
	ErrPlanNotFound       = errors.New("plan not found")
	ErrNetworkUnavailable = errors.New("network unavailable")
	ErrDatabaseOperation  = errors.New("database operation failed")
)

// mapStoreErr is the single place store failures become plan failure
// kinds; raw store errors never reach the caller.
func mapStoreErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return ErrPlanNotFound
	case errors.Is(err, store.ErrUnavailable):
		return fmt.Errorf("%w: %v", ErrNetworkUnavailable, err)
	default:
		return fmt.Errorf("%w: %v", ErrDatabaseOperation, err)
	}
}
