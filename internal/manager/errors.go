package manager

import (
	"context"
	"errors"
	"fmt"

	"draftvault/internal/domain"
	"draftvault/internal/object"
)

// remoteErr classifies a failure from the cloud layer. Domain sentinels,
// object-store not-found and context cancellation pass through; anything
// else (network, HTTP, quota) is wrapped as ErrRemoteUnavailable.
func remoteErr(op string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, domain.ErrUnauthenticated),
		errors.Is(err, domain.ErrConflict),
		errors.Is(err, object.ErrNotFound),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %v: %w", op, err, domain.ErrRemoteUnavailable)
}
