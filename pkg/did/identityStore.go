package did

import "context"

// Principal is the authenticated caller acting on an identifier
type Principal string

// IdentityStore loads and persists whole Identifier aggregates. Each Read
// returns a freshly decoded aggregate owned by the caller.
type IdentityStore interface {
	// Read fails with a not found or forbidden error when the identifier
	// does not exist or caller may not act on it
	Read(ctx context.Context, id string, caller Principal) (*Identifier, error)

	// AddOrUpdate replaces the stored aggregate if it has not changed since
	// it was read, otherwise it fails with a conflict
	AddOrUpdate(ctx context.Context, id *Identifier) error
}
