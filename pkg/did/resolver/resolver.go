package resolver

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/tcfw/didkms/pkg/did"
	"github.com/tcfw/didkms/pkg/did/w3cdid"
)

var (
	ErrUnknownMethod = errors.New("unknown did method")
	ErrInvalidDID    = errors.New("invalid did")

	_ did.Resolver = (*Resolver)(nil)
)

// Resolver resolves a DID through the backend registered for its method
type Resolver struct {
	mu      sync.RWMutex
	methods map[string]did.Resolver
}

func New() *Resolver {
	return &Resolver{methods: map[string]did.Resolver{}}
}

// Register routes method to backend, replacing any earlier registration
func (r *Resolver) Register(method string, backend did.Resolver) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.methods[method] = backend
}

func (r *Resolver) Resolve(ctx context.Context, u w3cdid.URL) (*w3cdid.Document, error) {
	if !u.Valid() {
		return nil, ErrInvalidDID
	}

	r.mu.RLock()
	backend, ok := r.methods[u.Method()]
	r.mu.RUnlock()

	if !ok {
		return nil, ErrUnknownMethod
	}

	return backend.Resolve(ctx, u)
}
