package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tcfw/didkms/internal/did"
	"github.com/tcfw/didkms/pkg/storage"
)

func TestOpen(t *testing.T) {
	s, err := Open(DriverMemory, "", 0)
	require.NoError(t, err)
	assert.IsType(t, &storage.MemStore{}, s)

	s, err = Open(DriverFile, t.TempDir(), 0)
	require.NoError(t, err)
	assert.IsType(t, &did.FileStore{}, s)

	s, err = Open(DriverPebble, t.TempDir(), time.Minute)
	require.NoError(t, err)
	if assert.IsType(t, &CachedStore{}, s) {
		assert.IsType(t, &PebbleStore{}, s.(*CachedStore).Store)
	}
	assert.NoError(t, s.Stop())

	_, err = Open("etcd", "", 0)
	assert.Error(t, err)
}
