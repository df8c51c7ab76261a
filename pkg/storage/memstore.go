package storage

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/tcfw/didkms/pkg/did"
	"github.com/tcfw/didkms/pkg/did/w3cdid"
)

var (
	_ Store = (*MemStore)(nil)
)

type historyEntry struct {
	version uint64
	cid     string
}

// MemStore keeps encoded aggregates in memory. Document snapshots are
// content addressed so identical documents share an object.
type MemStore struct {
	mu sync.RWMutex

	objects map[string][]byte
	dids    map[string][]byte
	history map[string][]historyEntry
}

func NewMemStore() *MemStore {
	return &MemStore{
		objects: make(map[string][]byte),
		dids:    make(map[string][]byte),
		history: make(map[string][]historyEntry),
	}
}

func (m *MemStore) Create(ctx context.Context, ident *did.Identifier) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.dids[ident.ID]; ok {
		return errors.Wrap(ErrAlreadyExists, ident.ID)
	}
	if ident.Version != 0 {
		return errors.Wrapf(ErrConflict, "new identifier %s already carries version %d", ident.ID, ident.Version)
	}

	return m.put(ident, nil)
}

func (m *MemStore) Read(ctx context.Context, id string, caller did.Principal) (*did.Identifier, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	b, ok := m.dids[id]
	if !ok {
		m.mu.RUnlock()
		return nil, errors.Wrap(ErrNotFound, id)
	}
	ident, err := Decode(b)
	m.mu.RUnlock()
	if err != nil {
		return nil, err
	}

	if err := Authorize(ident, caller); err != nil {
		ident.Wipe()
		return nil, err
	}

	return ident, nil
}

func (m *MemStore) AddOrUpdate(ctx context.Context, ident *did.Identifier) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var stored uint64
	old, ok := m.dids[ident.ID]
	if ok {
		v, err := StoredVersion(old)
		if err != nil {
			return err
		}
		stored = v
	}

	if err := CheckVersion(stored, ident); err != nil {
		return errors.Wrapf(err, "%s at version %d, stored %d", ident.ID, ident.Version, stored)
	}

	return m.put(ident, old)
}

// put assumes m.mu is held
func (m *MemStore) put(ident *did.Identifier, old []byte) error {
	prev, err := Prepare(ident)
	if err != nil {
		return err
	}

	b, err := Encode(ident)
	if err != nil {
		ident.Version = prev
		return err
	}

	snap, doc, err := SnapshotOf(ident)
	if err != nil {
		ident.Version = prev
		Wipe(b)
		return err
	}

	m.objects[snap.CID] = doc
	m.history[ident.ID] = append(m.history[ident.ID], historyEntry{snap.Version, snap.CID})
	m.dids[ident.ID] = b

	if old != nil {
		Wipe(old)
	}

	return nil
}

// Resolve returns the latest committed document. No authorization is
// applied since documents are public.
func (m *MemStore) Resolve(ctx context.Context, u w3cdid.URL) (*w3cdid.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	h := m.history[u.Id()]
	if len(h) == 0 {
		return nil, errors.Wrap(ErrNotFound, string(u))
	}

	last := h[len(h)-1]
	snap, err := DecodeSnapshot(last.version, last.cid, m.objects[last.cid])
	if err != nil {
		return nil, err
	}

	if snap.Document.ID != string(w3cdid.NewURL(u.Method(), u.Id())) {
		return nil, errors.Wrap(ErrNotFound, string(u))
	}

	return snap.Document, nil
}

func (m *MemStore) History(ctx context.Context, id string, caller did.Principal) ([]Snapshot, error) {
	ident, err := m.Read(ctx, id, caller)
	if err != nil {
		return nil, err
	}
	ident.Wipe()

	m.mu.RLock()
	defer m.mu.RUnlock()

	h := m.history[id]
	snaps := make([]Snapshot, 0, len(h))
	for _, e := range h {
		s, err := DecodeSnapshot(e.version, e.cid, m.objects[e.cid])
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, s)
	}

	return snaps, nil
}

func (m *MemStore) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, b := range m.dids {
		Wipe(b)
		delete(m.dids, id)
	}

	return nil
}
