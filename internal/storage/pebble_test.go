package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tcfw/didkms/pkg/did"
	"github.com/tcfw/didkms/pkg/did/w3cdid"
	"github.com/tcfw/didkms/pkg/keys"
	"github.com/tcfw/didkms/pkg/rotation"
	"github.com/tcfw/didkms/pkg/storage"
)

func testIdentifier(t *testing.T, id string) *did.Identifier {
	ident, err := did.NewIdentifier("example", id, "owner")
	require.NoError(t, err)

	g, err := keys.NewGenerator()
	require.NoError(t, err)

	kp, err := g.CreateKey(keys.EdDSA, keys.Signing, 0, keys.Ed25519)
	require.NoError(t, err)

	require.NoError(t, ident.Enroll(kp, time.Now()))

	return ident
}

func newPebbleStore(t *testing.T) (*PebbleStore, string) {
	dir := t.TempDir()

	s, err := NewPebbleStore(dir)
	require.NoError(t, err)

	return s, dir
}

func TestTypedKey(t *testing.T) {
	assert.Equal(t, []byte{byte(identTPrefix), 'a', 'b'}, typedKey(identTPrefix, "ab"))
	assert.Equal(t, []byte{byte(historyTPrefix), 'a', ':', 'b'}, typedKey(historyTPrefix, "a", "b"))
	assert.Equal(t, []byte{byte(objectTPrefix)}, typedKey(objectTPrefix))
	assert.Len(t, historyKey("a", 7), 1+1+1+versionWidth)
}

func TestPebbleCreateRead(t *testing.T) {
	ctx := context.Background()
	s, _ := newPebbleStore(t)
	defer s.Stop()

	ident := testIdentifier(t, "123")
	require.NoError(t, s.Create(ctx, ident))
	assert.Equal(t, uint64(1), ident.Version)

	read, err := s.Read(ctx, "123", "owner")
	require.NoError(t, err)

	assert.Equal(t, ident.Version, read.Version)
	assert.Equal(t, ident.Document.ID, read.Document.ID)
	assert.Len(t, read.Keys, 1)
	assert.True(t, read.Keys[0].HasPrivateKey())
	assert.NotSame(t, ident.Keys[0], read.Keys[0])
	assert.NoError(t, read.Validate())

	assert.ErrorIs(t, s.Create(ctx, testIdentifier(t, "123")), storage.ErrAlreadyExists)

	_, err = s.Read(ctx, "456", "owner")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = s.Read(ctx, "123", "mallory")
	assert.ErrorIs(t, err, storage.ErrForbidden)
}

func TestPebbleOptimisticConcurrency(t *testing.T) {
	ctx := context.Background()
	s, _ := newPebbleStore(t)
	defer s.Stop()

	require.NoError(t, s.Create(ctx, testIdentifier(t, "123")))

	a, err := s.Read(ctx, "123", "owner")
	require.NoError(t, err)
	b, err := s.Read(ctx, "123", "owner")
	require.NoError(t, err)

	assert.NoError(t, s.AddOrUpdate(ctx, a))
	assert.Equal(t, uint64(2), a.Version)

	assert.ErrorIs(t, s.AddOrUpdate(ctx, b), storage.ErrConflict)
	assert.Equal(t, uint64(1), b.Version)
}

func TestPebbleReopen(t *testing.T) {
	ctx := context.Background()
	s, dir := newPebbleStore(t)

	require.NoError(t, s.Create(ctx, testIdentifier(t, "123")))
	require.NoError(t, s.Stop())

	s, err := NewPebbleStore(dir)
	require.NoError(t, err)
	defer s.Stop()

	assert.True(t, s.ids.MayContain("123"))

	read, err := s.Read(ctx, "123", "owner")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), read.Version)
}

func TestPebbleRotateHistory(t *testing.T) {
	ctx := context.Background()
	s, _ := newPebbleStore(t)
	defer s.Stop()

	require.NoError(t, s.Create(ctx, testIdentifier(t, "123")))
	// an id extending the first one must not leak into its history
	require.NoError(t, s.Create(ctx, testIdentifier(t, "123:sub")))

	r, err := rotation.NewRotator(s)
	require.NoError(t, err)

	var last *w3cdid.Document
	for i := 0; i < 3; i++ {
		last, err = r.Rotate(ctx, rotation.Request{Identifier: "123", Use: keys.Signing, Caller: "owner"})
		require.NoError(t, err)
	}

	snaps, err := s.History(ctx, "123", "owner")
	require.NoError(t, err)
	require.Len(t, snaps, 4)
	for i, snap := range snaps {
		assert.Equal(t, uint64(i+1), snap.Version)
		assert.Len(t, snap.Document.VerificationMethod, i+1)

		c, err := storage.SnapshotID(mustJSON(t, snap.Document))
		require.NoError(t, err)
		assert.Equal(t, c.String(), snap.CID)
	}

	doc, err := s.Resolve(ctx, w3cdid.URL("did:example:123"))
	require.NoError(t, err)
	assert.Equal(t, last.VerificationMethod, doc.VerificationMethod)

	_, err = s.Resolve(ctx, w3cdid.URL("did:other:123"))
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = s.Resolve(ctx, w3cdid.URL("did:example:999"))
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = s.History(ctx, "123", "mallory")
	assert.ErrorIs(t, err, storage.ErrForbidden)

	sub, err := s.History(ctx, "123:sub", "owner")
	require.NoError(t, err)
	assert.Len(t, sub, 1)
}
