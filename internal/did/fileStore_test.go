package did

import (
	"context"
	"io/ioutil"
	"path/filepath"
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

	sig, err := g.CreateKey(keys.ECDSA, keys.Signing, 0, keys.Secp256k1)
	require.NoError(t, err)
	agr, err := g.CreateKey(keys.EdDSA, keys.KeyAgreement, 0, keys.X25519)
	require.NoError(t, err)

	require.NoError(t, ident.Enroll(sig, time.Now()))
	require.NoError(t, ident.Enroll(agr, time.Now()))

	return ident
}

func TestNewFileStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "identity.yaml")

	f, err := NewFileStore(path)
	require.NoError(t, err)

	ident := testIdentifier(t, "123")
	require.NoError(t, f.Create(ctx, ident))
	assert.ErrorIs(t, f.Create(ctx, testIdentifier(t, "123")), storage.ErrAlreadyExists)

	raw, err := ioutil.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "history:")

	// a fresh store sees what the first one wrote
	f2, err := NewFileStore(path)
	require.NoError(t, err)

	read, err := f2.Read(ctx, "123", "owner")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), read.Version)
	assert.Len(t, read.Keys, 2)
	assert.NoError(t, read.Validate())

	_, err = f2.Read(ctx, "123", "mallory")
	assert.ErrorIs(t, err, storage.ErrForbidden)

	_, err = f2.Read(ctx, "456", "owner")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestFileStoreRotate(t *testing.T) {
	ctx := context.Background()

	f, err := NewFileStore(filepath.Join(t.TempDir(), "identity.yaml"))
	require.NoError(t, err)
	require.NoError(t, f.Create(ctx, testIdentifier(t, "123")))

	r, err := rotation.NewRotator(f)
	require.NoError(t, err)

	doc, err := r.Rotate(ctx, rotation.Request{Identifier: "123", Use: keys.KeyAgreement, Caller: "owner"})
	require.NoError(t, err)
	assert.Len(t, doc.KeyAgreement, 2)

	resolved, err := f.Resolve(ctx, w3cdid.URL("did:example:123"))
	require.NoError(t, err)
	assert.Equal(t, doc.KeyAgreement, resolved.KeyAgreement)

	snaps, err := f.History(ctx, "123", "owner")
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Len(t, snaps[0].Document.KeyAgreement, 1)
	assert.Len(t, snaps[1].Document.KeyAgreement, 2)
	assert.NotEqual(t, snaps[0].CID, snaps[1].CID)
}

func TestFileStoreConflict(t *testing.T) {
	ctx := context.Background()

	f, err := NewFileStore(filepath.Join(t.TempDir(), "identity.yaml"))
	require.NoError(t, err)
	require.NoError(t, f.Create(ctx, testIdentifier(t, "123")))

	a, err := f.Read(ctx, "123", "owner")
	require.NoError(t, err)
	b, err := f.Read(ctx, "123", "owner")
	require.NoError(t, err)

	require.NoError(t, f.AddOrUpdate(ctx, a))
	assert.ErrorIs(t, f.AddOrUpdate(ctx, b), storage.ErrConflict)
	assert.Equal(t, uint64(1), b.Version)

	snaps, err := f.History(ctx, "123", "owner")
	require.NoError(t, err)
	assert.Len(t, snaps, 2)
}

func TestFileStoreRejectsDuplicateEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "identity.yaml")
	require.NoError(t, ioutil.WriteFile(path, []byte("ids:\n- id: a\n- id: a\n"), 0600))

	_, err := NewFileStore(path)
	assert.Error(t, err)
}

func TestFileStoreSharedPath(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "identity.yaml")

	a, err := NewFileStore(path)
	require.NoError(t, err)
	b, err := NewFileStore(path)
	require.NoError(t, err)

	require.NoError(t, a.Create(ctx, testIdentifier(t, "123")))
	require.NoError(t, b.Create(ctx, testIdentifier(t, "456")))
	assert.ErrorIs(t, b.Create(ctx, testIdentifier(t, "123")), storage.ErrAlreadyExists)

	r, err := rotation.NewRotator(a)
	require.NoError(t, err)
	_, err = r.Rotate(ctx, rotation.Request{Identifier: "123", Use: keys.KeyAgreement, Caller: "owner"})
	require.NoError(t, err)

	// neither store's write dropped the other's entry
	f, err := NewFileStore(path)
	require.NoError(t, err)

	other, err := f.Read(ctx, "456", "owner")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), other.Version)

	rotated, err := b.Read(ctx, "123", "owner")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), rotated.Version)

	fromA, err := a.Read(ctx, "123", "owner")
	require.NoError(t, err)
	fromB, err := b.Read(ctx, "123", "owner")
	require.NoError(t, err)

	require.NoError(t, a.AddOrUpdate(ctx, fromA))
	assert.ErrorIs(t, b.AddOrUpdate(ctx, fromB), storage.ErrConflict)

	snaps, err := f.History(ctx, "123", "owner")
	require.NoError(t, err)
	assert.Len(t, snaps, 3)
}
