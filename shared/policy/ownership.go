// Package policy holds the per-user access rule applied to owned resources.
package policy

import (
	"fmt"

	"github.com/eaglebank/ledger/shared/errs"
)

// Owned is any per-user resource carrying an owner id.
type Owned interface {
	OwnerID() int64
}

// Authorize fails with errs.ErrForbidden when the principal does not own r.
// Callers check existence first, so a nil resource is a programming error.
func Authorize(r Owned, principal int64) error {
	if r.OwnerID() != principal {
		return fmt.Errorf("%w: owned by another user", errs.ErrForbidden)
	}
	return nil
}
