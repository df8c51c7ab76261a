package did

import (
	"context"

	"github.com/tcfw/didkms/pkg/did/w3cdid"
)

// Resolver allows for a DID to be resolved agnostically any given source
type Resolver interface {
	Resolve(ctx context.Context, did w3cdid.URL) (*w3cdid.Document, error)
}
