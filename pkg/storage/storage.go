package storage

import (
	"context"

	"github.com/tcfw/didkms/pkg/did"
)

// Store is the persistence contract for identifier aggregates. Reads are
// authorized against the caller and always return a fresh copy; writes use
// the aggregate's Version for optimistic concurrency.
type Store interface {
	did.IdentityStore
	did.Resolver

	// Create stores a newly provisioned identifier
	Create(ctx context.Context, id *did.Identifier) error

	// History lists the committed document snapshots, oldest first
	History(ctx context.Context, id string, caller did.Principal) ([]Snapshot, error)

	Stop() error
}

// Authorize applies the single-owner policy every store enforces on reads
func Authorize(ident *did.Identifier, caller did.Principal) error {
	if !ident.ManagedBy(caller) {
		return ErrForbidden
	}
	return nil
}

// CheckVersion reports a conflict unless the stored version matches the
// one the aggregate was read at. A zero stored version means absent.
func CheckVersion(stored uint64, ident *did.Identifier) error {
	if stored != ident.Version {
		return ErrConflict
	}
	return nil
}
