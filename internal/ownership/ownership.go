// Package ownership holds the authorization guard: a pure comparison of the
// resource owner against the requester. No state, no I/O.
package ownership

import (
	"fmt"

	"github.com/nortbank/backoffice/internal/apperrors"
)

// Verify returns nil only when requesterID byte-for-byte equals ownerID.
// Both ids must be supplied, an empty one is a caller contract violation
// and reported as apperrors.ErrOwnerRequired rather than Unauthorized.
func Verify(ownerID string, requesterID string, resource string) error {
	if ownerID == "" || requesterID == "" {
		return fmt.Errorf("ownership check on %s: %w", resource, apperrors.ErrOwnerRequired)
	}

	if ownerID != requesterID {
		return fmt.Errorf("access to %s: %w", resource, apperrors.ErrUnauthorized)
	}

	return nil
}
