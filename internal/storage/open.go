package storage

import (
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/tcfw/didkms/internal/did"
	"github.com/tcfw/didkms/pkg/storage"
)

const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverPebble = "pebble"

	fileStoreName = "identities.yaml"
)

// Open builds the configured store. A positive cacheTTL puts a document
// cache in front of it.
func Open(driver, path string, cacheTTL time.Duration) (storage.Store, error) {
	var s storage.Store
	var err error

	switch driver {
	case DriverMemory:
		s = storage.NewMemStore()
	case DriverFile:
		s, err = did.NewFileStore(filepath.Join(path, fileStoreName))
	case DriverPebble:
		s, err = NewPebbleStore(path)
	default:
		return nil, errors.Errorf("unknown storage driver %q", driver)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s store", driver)
	}

	if cacheTTL > 0 {
		s = NewCachedStore(s, cacheTTL)
	}

	return s, nil
}
