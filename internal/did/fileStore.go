package did

import (
	"context"
	"encoding/base64"
	"io/ioutil"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
	"github.com/tcfw/didkms/pkg/did"
	"github.com/tcfw/didkms/pkg/did/w3cdid"
	"github.com/tcfw/didkms/pkg/storage"
	"golang.org/x/sys/unix"
	"gopkg.in/yaml.v3"
)

type IdentityFile struct {
	Ids []IdentityFileEntry `yaml:"ids"`
}

type IdentityFileEntry struct {
	ID      string                `yaml:"id"`
	Data    string                `yaml:"data"`
	History []IdentityFileHistory `yaml:"history"`
}

type IdentityFileHistory struct {
	Version  uint64 `yaml:"version"`
	CID      string `yaml:"cid"`
	Document string `yaml:"document"`
}

var _ storage.Store = (*FileStore)(nil)

// FileStore keeps identifiers in a single yaml file, rewritten on every
// change. Aggregates are stored as base64 encoded records. Each operation
// re-reads the file under an flock on a sibling .lock file so several
// processes can share one path.
type FileStore struct {
	path string
	ids  IdentityFile
	idx  map[string]int

	mu sync.Mutex
}

func NewFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, errors.Wrap(err, "creating identity file dir")
	}

	f := &FileStore{path: path}

	err := f.locked(false, func() error { return nil })
	if err != nil {
		return nil, err
	}

	return f, nil
}

// locked runs fn holding fs.mu and the file lock, after loading the
// current file contents. Writers take the lock exclusively.
func (fs *FileStore) locked(exclusive bool, fn func() error) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	lf, err := os.OpenFile(fs.path+".lock", os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return errors.Wrap(err, "opening identity lock file")
	}
	defer lf.Close()

	how := unix.LOCK_SH
	if exclusive {
		how = unix.LOCK_EX
	}
	if err := unix.Flock(int(lf.Fd()), how); err != nil {
		return errors.Wrap(err, "locking identity file")
	}
	defer unix.Flock(int(lf.Fd()), unix.LOCK_UN)

	if err := fs.read(); err != nil {
		return err
	}

	return fn()
}

func (fs *FileStore) read() error {
	//assumes locked fs.mu and file lock

	d, err := ioutil.ReadFile(fs.path)
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "reading identity file")
	}

	ids := IdentityFile{}
	if err := yaml.Unmarshal(d, &ids); err != nil {
		return errors.Wrap(err, "unmarshalling identity data")
	}
	fs.ids = ids

	return fs.buildIdx()
}

func (fs *FileStore) buildIdx() error {
	//assumes locked fs.mu

	fs.idx = make(map[string]int, len(fs.ids.Ids))

	for i, e := range fs.ids.Ids {
		if _, ok := fs.idx[e.ID]; ok {
			return errors.Errorf("identifier %s listed twice", e.ID)
		}
		fs.idx[e.ID] = i
	}

	return nil
}

func (fs *FileStore) write() error {
	//assumes exclusive file lock

	d, err := yaml.Marshal(&fs.ids)
	if err != nil {
		return errors.Wrap(err, "marshalling identity data")
	}

	tmp := fs.path + ".tmp"
	if err := ioutil.WriteFile(tmp, d, 0600); err != nil {
		return errors.Wrap(err, "writing identity file")
	}

	return errors.Wrap(os.Rename(tmp, fs.path), "replacing identity file")
}

func (fs *FileStore) decode(e IdentityFileEntry) (*did.Identifier, error) {
	raw, err := base64.StdEncoding.DecodeString(e.Data)
	if err != nil {
		return nil, errors.Wrap(err, "decoding b64 identity data")
	}
	defer storage.Wipe(raw)

	return storage.Decode(raw)
}

func (fs *FileStore) Create(ctx context.Context, ident *did.Identifier) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return fs.locked(true, func() error {
		if _, ok := fs.idx[ident.ID]; ok {
			return errors.Wrap(storage.ErrAlreadyExists, ident.ID)
		}
		if ident.Version != 0 {
			return errors.Wrapf(storage.ErrConflict, "new identifier %s already carries version %d", ident.ID, ident.Version)
		}

		return fs.put(ident)
	})
}

func (fs *FileStore) Read(ctx context.Context, id string, caller did.Principal) (*did.Identifier, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var ident *did.Identifier
	err := fs.locked(false, func() error {
		i, ok := fs.idx[id]
		if !ok {
			return errors.Wrap(storage.ErrNotFound, id)
		}

		var err error
		ident, err = fs.decode(fs.ids.Ids[i])
		return err
	})
	if err != nil {
		return nil, err
	}

	if err := storage.Authorize(ident, caller); err != nil {
		ident.Wipe()
		return nil, err
	}

	return ident, nil
}

func (fs *FileStore) AddOrUpdate(ctx context.Context, ident *did.Identifier) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return fs.locked(true, func() error {
		var stored uint64
		if i, ok := fs.idx[ident.ID]; ok {
			raw, err := base64.StdEncoding.DecodeString(fs.ids.Ids[i].Data)
			if err != nil {
				return errors.Wrap(err, "decoding b64 identity data")
			}
			stored, err = storage.StoredVersion(raw)
			storage.Wipe(raw)
			if err != nil {
				return err
			}
		}

		if err := storage.CheckVersion(stored, ident); err != nil {
			return errors.Wrapf(err, "%s at version %d, stored %d", ident.ID, ident.Version, stored)
		}

		return fs.put(ident)
	})
}

// put assumes the exclusive file lock is held
func (fs *FileStore) put(ident *did.Identifier) error {
	prev, err := storage.Prepare(ident)
	if err != nil {
		return err
	}

	b, err := storage.Encode(ident)
	if err != nil {
		ident.Version = prev
		return err
	}
	data := base64.StdEncoding.EncodeToString(b)
	storage.Wipe(b)

	snap, doc, err := storage.SnapshotOf(ident)
	if err != nil {
		ident.Version = prev
		return err
	}

	h := IdentityFileHistory{Version: snap.Version, CID: snap.CID, Document: string(doc)}

	i, ok := fs.idx[ident.ID]
	if !ok {
		fs.ids.Ids = append(fs.ids.Ids, IdentityFileEntry{ID: ident.ID})
		i = len(fs.ids.Ids) - 1
	}
	before := fs.ids.Ids[i]

	e := before
	e.Data = data
	e.History = append(append([]IdentityFileHistory(nil), before.History...), h)
	fs.ids.Ids[i] = e

	if err := fs.write(); err != nil {
		ident.Version = prev
		if ok {
			fs.ids.Ids[i] = before
		} else {
			fs.ids.Ids = fs.ids.Ids[:i]
		}
		return err
	}

	fs.idx[ident.ID] = i

	return nil
}

// Resolve returns the latest committed document
func (fs *FileStore) Resolve(ctx context.Context, u w3cdid.URL) (*w3cdid.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var snap storage.Snapshot
	err := fs.locked(false, func() error {
		i, ok := fs.idx[u.Id()]
		if !ok || len(fs.ids.Ids[i].History) == 0 {
			return errors.Wrap(storage.ErrNotFound, string(u))
		}

		h := fs.ids.Ids[i].History
		last := h[len(h)-1]

		var err error
		snap, err = storage.DecodeSnapshot(last.Version, last.CID, []byte(last.Document))
		return err
	})
	if err != nil {
		return nil, err
	}

	if snap.Document.ID != string(w3cdid.NewURL(u.Method(), u.Id())) {
		return nil, errors.Wrap(storage.ErrNotFound, string(u))
	}

	return snap.Document, nil
}

func (fs *FileStore) History(ctx context.Context, id string, caller did.Principal) ([]storage.Snapshot, error) {
	ident, err := fs.Read(ctx, id, caller)
	if err != nil {
		return nil, err
	}
	ident.Wipe()

	var snaps []storage.Snapshot
	err = fs.locked(false, func() error {
		i, ok := fs.idx[id]
		if !ok {
			return errors.Wrap(storage.ErrNotFound, id)
		}

		h := fs.ids.Ids[i].History
		snaps = make([]storage.Snapshot, 0, len(h))
		for _, e := range h {
			s, err := storage.DecodeSnapshot(e.Version, e.CID, []byte(e.Document))
			if err != nil {
				return err
			}
			snaps = append(snaps, s)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return snaps, nil
}

func (fs *FileStore) Stop() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	fs.ids = IdentityFile{}
	fs.idx = map[string]int{}

	return nil
}
