package storage

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/pkg/errors"

	"github.com/tcfw/didkms/pkg/did"
	"github.com/tcfw/didkms/pkg/did/w3cdid"
	"github.com/tcfw/didkms/pkg/storage"
)

var (
	_ storage.Store = (*CachedStore)(nil)
)

// CachedStore keeps resolved documents for ttl. Writes bump a per document
// generation before and after reaching the store, and a resolve only fills
// the cache if no write started while it was reading.
type CachedStore struct {
	storage.Store

	c *gocache.Cache

	mu   sync.Mutex
	gens map[string]uint64
}

func NewCachedStore(s storage.Store, ttl time.Duration) *CachedStore {
	return &CachedStore{
		Store: s,
		c:     gocache.New(ttl, time.Minute),
		gens:  map[string]uint64{},
	}
}

func cacheKey(u w3cdid.URL) string {
	return string(w3cdid.NewURL(u.Method(), u.Id()))
}

func (s *CachedStore) generation(k string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.gens[k]
}

// invalidate drops the cached document and fences off resolves already in
// flight
func (s *CachedStore) invalidate(k string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gens[k]++
	s.c.Delete(k)
}

func (s *CachedStore) fill(k string, gen uint64, b []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.gens[k] != gen {
		return
	}
	s.c.SetDefault(k, b)
}

func (s *CachedStore) Resolve(ctx context.Context, u w3cdid.URL) (*w3cdid.Document, error) {
	k := cacheKey(u)

	if v, ok := s.c.Get(k); ok {
		if b, ok := v.([]byte); ok {
			doc := &w3cdid.Document{}
			if err := json.Unmarshal(b, doc); err == nil {
				return doc, nil
			}
		}
		s.c.Delete(k)
	}

	gen := s.generation(k)

	doc, err := s.Store.Resolve(ctx, u)
	if err != nil {
		return nil, err
	}

	b, err := json.Marshal(doc)
	if err != nil {
		return nil, errors.Wrap(err, "marshalling document")
	}
	s.fill(k, gen, b)

	return doc, nil
}

func (s *CachedStore) Create(ctx context.Context, ident *did.Identifier) error {
	k := ident.DocumentID()

	s.invalidate(k)
	defer s.invalidate(k)

	return s.Store.Create(ctx, ident)
}

func (s *CachedStore) AddOrUpdate(ctx context.Context, ident *did.Identifier) error {
	k := ident.DocumentID()

	s.invalidate(k)
	defer s.invalidate(k)

	return s.Store.AddOrUpdate(ctx, ident)
}

func (s *CachedStore) Stop() error {
	s.c.Flush()
	return s.Store.Stop()
}
