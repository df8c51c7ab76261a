package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/tcfw/didkms/internal/utils/logging"
	"github.com/tcfw/didkms/pkg/did"
	"github.com/tcfw/didkms/pkg/did/w3cdid"
	"github.com/tcfw/didkms/pkg/storage"
)

var (
	_ storage.Store = (*PebbleStore)(nil)
)

const (
	cacheSize = 1 << 20 * 100

	tableSep           byte = ':'
	tableSepUpperBound      = tableSep + 1

	versionWidth = 20
)

type metadataKeyType byte

const (
	identTPrefix metadataKeyType = iota + 1
	historyTPrefix
	objectTPrefix
)

// PebbleStore persists identifier aggregates in a pebble database. Each
// committed version also appends a history entry pointing at a content
// addressed copy of the public document.
type PebbleStore struct {
	mu sync.Mutex

	db  *pebble.DB
	ids *storage.IDFilter
	log *logrus.Entry
}

func NewPebbleStore(repo string) (*PebbleStore, error) {
	if err := os.MkdirAll(repo, 0700); err != nil {
		return nil, errors.Wrap(err, "creating repo dir")
	}

	db, err := metadataStore(repo)
	if err != nil {
		return nil, errors.Wrap(err, "opening metadata store")
	}

	s := &PebbleStore{
		db:  db,
		log: logging.Entry().WithField("store", "pebble"),
	}

	if err := s.loadFilter(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

func metadataStore(repo string) (*pebble.DB, error) {
	c := pebble.NewCache(cacheSize)
	tc := pebble.NewTableCache(c, 16, 100)
	defer tc.Unref()
	defer c.Unref()

	return pebble.Open(repo, &pebble.Options{Cache: c, TableCache: tc})
}

// loadFilter seeds the id filter with every stored identifier
func (s *PebbleStore) loadFilter() error {
	ids := []string{}

	iter := s.db.NewIter(prefixBounds(identTPrefix))
	for iter.First(); iter.Valid(); iter.Next() {
		ids = append(ids, string(iter.Key()[1:]))
	}
	if err := iter.Close(); err != nil {
		return errors.Wrap(err, "scanning identifiers")
	}

	s.ids = storage.NewIDFilter(uint(len(ids)) * 2)
	for _, id := range ids {
		s.ids.Add(id)
	}

	s.log.WithField("count", len(ids)).Debug("loaded identifier filter")

	return nil
}

func (s *PebbleStore) metadataGet(key []byte) ([]byte, io.Closer, error) {
	return s.db.Get(key)
}

// get copies the value out so it outlives the pebble buffer
func (s *PebbleStore) get(key []byte) ([]byte, error) {
	v, done, err := s.metadataGet(key)
	if err != nil {
		return nil, err
	}
	defer done.Close()

	return append([]byte(nil), v...), nil
}

func (s *PebbleStore) Create(ctx context.Context, ident *did.Identifier) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, done, err := s.metadataGet(typedKey(identTPrefix, ident.ID))
	if err == nil {
		done.Close()
		return errors.Wrap(storage.ErrAlreadyExists, ident.ID)
	}
	if err != pebble.ErrNotFound {
		return errors.Wrap(err, "looking up identifier")
	}

	if ident.Version != 0 {
		return errors.Wrapf(storage.ErrConflict, "new identifier %s already carries version %d", ident.ID, ident.Version)
	}

	if err := s.put(ident); err != nil {
		return err
	}

	s.ids.Add(ident.ID)

	return nil
}

func (s *PebbleStore) Read(ctx context.Context, id string, caller did.Principal) (*did.Identifier, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if !s.ids.MayContain(id) {
		return nil, errors.Wrap(storage.ErrNotFound, id)
	}

	b, err := s.get(typedKey(identTPrefix, id))
	if err != nil {
		if err == pebble.ErrNotFound {
			return nil, errors.Wrap(storage.ErrNotFound, id)
		}
		return nil, errors.Wrap(err, "getting identifier")
	}
	defer storage.Wipe(b)

	ident, err := storage.Decode(b)
	if err != nil {
		return nil, err
	}

	if err := storage.Authorize(ident, caller); err != nil {
		ident.Wipe()
		return nil, err
	}

	return ident, nil
}

func (s *PebbleStore) AddOrUpdate(ctx context.Context, ident *did.Identifier) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var stored uint64
	old, err := s.get(typedKey(identTPrefix, ident.ID))
	switch err {
	case nil:
		v, err := storage.StoredVersion(old)
		storage.Wipe(old)
		if err != nil {
			return err
		}
		stored = v
	case pebble.ErrNotFound:
	default:
		return errors.Wrap(err, "getting identifier")
	}

	if err := storage.CheckVersion(stored, ident); err != nil {
		return errors.Wrapf(err, "%s at version %d, stored %d", ident.ID, ident.Version, stored)
	}

	if err := s.put(ident); err != nil {
		return err
	}

	s.ids.Add(ident.ID)

	return nil
}

// put writes the aggregate, its history entry and the document object in a
// single synced batch. Assumes s.mu is held.
func (s *PebbleStore) put(ident *did.Identifier) error {
	prev, err := storage.Prepare(ident)
	if err != nil {
		return err
	}

	b, err := storage.Encode(ident)
	if err != nil {
		ident.Version = prev
		return err
	}
	defer storage.Wipe(b)

	snap, doc, err := storage.SnapshotOf(ident)
	if err != nil {
		ident.Version = prev
		return err
	}

	batch := s.db.NewBatch()
	defer batch.Close()

	if err := batch.Set(typedKey(identTPrefix, ident.ID), b, nil); err != nil {
		ident.Version = prev
		return errors.Wrap(err, "setting identifier")
	}
	if err := batch.Set(historyKey(ident.ID, snap.Version), []byte(snap.CID), nil); err != nil {
		ident.Version = prev
		return errors.Wrap(err, "appending to identifier history")
	}
	if err := batch.Set(typedKey(objectTPrefix, snap.CID), doc, nil); err != nil {
		ident.Version = prev
		return errors.Wrap(err, "storing document")
	}

	if err := batch.Commit(&pebble.WriteOptions{Sync: true}); err != nil {
		ident.Version = prev
		return errors.Wrap(err, "committing identifier")
	}

	s.log.WithFields(logging.Fields{"id": ident.ID, "version": ident.Version, "cid": snap.CID}).Debug("stored identifier")

	return nil
}

// Resolve returns the latest committed document. Documents are public so
// no caller is checked.
func (s *PebbleStore) Resolve(ctx context.Context, u w3cdid.URL) (*w3cdid.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	id := u.Id()
	if !s.ids.MayContain(id) {
		return nil, errors.Wrap(storage.ErrNotFound, string(u))
	}

	snaps, err := s.snapshots(id, true)
	if err != nil {
		return nil, err
	}
	if len(snaps) == 0 {
		return nil, errors.Wrap(storage.ErrNotFound, string(u))
	}

	doc := snaps[0].Document
	if doc.ID != string(w3cdid.NewURL(u.Method(), id)) {
		return nil, errors.Wrap(storage.ErrNotFound, string(u))
	}

	return doc, nil
}

func (s *PebbleStore) History(ctx context.Context, id string, caller did.Principal) ([]storage.Snapshot, error) {
	ident, err := s.Read(ctx, id, caller)
	if err != nil {
		return nil, err
	}
	ident.Wipe()

	return s.snapshots(id, false)
}

// snapshots walks the history entries of id in version order, or only the
// newest one if latest is set
func (s *PebbleStore) snapshots(id string, latest bool) ([]storage.Snapshot, error) {
	prefix := append(typedKey(historyTPrefix, id), tableSep)
	upper := append(typedKey(historyTPrefix, id), tableSepUpperBound)

	iter := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: upper,
	})
	defer iter.Close()

	type entry struct {
		version uint64
		cid     string
	}
	entries := []entry{}

	valid, next := iter.First(), iter.Next
	if latest {
		valid, next = iter.Last(), iter.Prev
	}

	for ; valid; valid = next() {
		suffix := iter.Key()[len(prefix):]
		if len(suffix) != versionWidth {
			// belongs to a longer id sharing this prefix
			continue
		}

		v, err := strconv.ParseUint(string(suffix), 10, 64)
		if err != nil {
			return nil, errors.Wrap(err, "parsing history version")
		}
		entries = append(entries, entry{v, string(iter.Value())})

		if latest {
			break
		}
	}

	snaps := make([]storage.Snapshot, 0, len(entries))
	for _, e := range entries {
		doc, err := s.get(typedKey(objectTPrefix, e.cid))
		if err != nil {
			return nil, errors.Wrapf(err, "getting document %s", e.cid)
		}

		snap, err := storage.DecodeSnapshot(e.version, e.cid, doc)
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, snap)
	}

	return snaps, nil
}

func (s *PebbleStore) Stop() error {
	return s.db.Close()
}

func prefixBounds(kType metadataKeyType) *pebble.IterOptions {
	return &pebble.IterOptions{
		LowerBound: []byte{byte(kType)},
		UpperBound: []byte{byte(kType) + 1},
	}
}

func historyKey(id string, version uint64) []byte {
	return typedKey(historyTPrefix, id, fmt.Sprintf("%0*d", versionWidth, version))
}

func typedKey(kType metadataKeyType, parts ...string) []byte {
	n := 1
	for _, p := range parts {
		n += len(p) + 1 //add sep as well
	}

	k := make([]byte, 0, n)
	k = append(k, byte(kType))
	for _, p := range parts {
		k = append(k, []byte(p)...)
		k = append(k, tableSep)
	}

	if len(parts) == 0 {
		return k
	}

	return k[:len(k)-1]
}
