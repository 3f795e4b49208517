package social

import (
	"errors"
	"fmt"

	"availability-service/internal/store"
)

// Failure kinds surfaced by relationship operations.
var (
	ErrUnauthorized           = errors.New("no resolved owner identity")
	ErrCannotAddSelf          = errors.New("cannot send a friend request to yourself")
	ErrUserNotFound           = errors.New("user not found")
	ErrRequestNotFound        = errors.New("friend request not found")
	ErrRequestForbidden       = errors.New("friend request not addressed to this user")
	ErrRequestAlreadySent     = errors.New("friend request already sent")
	ErrRequestAlreadyAccepted = errors.New("friend request already accepted")
	ErrInvalidDecision        = errors.New("invalid request decision")
	ErrNetworkUnavailable     = errors.New("network unavailable")
	ErrDatabaseOperation      = errors.New("database operation failed")
)

var domainErrs = []error{
	ErrUnauthorized,
	ErrCannotAddSelf,
	ErrUserNotFound,
	ErrRequestNotFound,
	ErrRequestForbidden,
	ErrRequestAlreadySent,
	ErrRequestAlreadyAccepted,
	ErrInvalidDecision,
}

// mapStoreErr translates store failures once, at the boundary of each
// operation. Domain errors raised inside a transaction body pass
// through untouched.
func mapStoreErr(err error) error {
	switch {
	case err == nil:
		return nil
	case isDomainErr(err):
		return err
	case errors.Is(err, store.ErrUnavailable):
		return fmt.Errorf("%w: %v", ErrNetworkUnavailable, err)
	default:
		return fmt.Errorf("%w: %v", ErrDatabaseOperation, err)
	}
}

func isDomainErr(err error) bool {
	for _, domain := range domainErrs {
		if errors.Is(err, domain) {
			return true
		}
	}
	return false
}
