package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/tcfw/didkms/pkg/did"
	"github.com/tcfw/didkms/pkg/did/w3cdid"
	"github.com/tcfw/didkms/pkg/keys"
)

func testIdentifier(t *testing.T, id string) *did.Identifier {
	ident, err := did.NewIdentifier("example", id, "owner")
	if err != nil {
		t.Fatal(err)
	}

	g, err := keys.NewGenerator()
	if err != nil {
		t.Fatal(err)
	}

	kp, err := g.CreateKey(keys.ECDSA, keys.Signing, 0, keys.P256)
	if err != nil {
		t.Fatal(err)
	}

	if err := ident.Enroll(kp, time.Now()); err != nil {
		t.Fatal(err)
	}

	return ident
}

func TestMemStoreCreateRead(t *testing.T) {
	ctx := context.Background()
	m := NewMemStore()
	ident := testIdentifier(t, "123")

	err := m.Create(ctx, ident)
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, uint64(1), ident.Version)

	read, err := m.Read(ctx, "123", "owner")
	if err != nil {
		t.Fatal(err)
	}

	assert.Equal(t, ident.ID, read.ID)
	assert.Equal(t, ident.Version, read.Version)
	assert.Equal(t, ident.Document.ID, read.Document.ID)
	assert.Len(t, read.Keys, 1)
	assert.True(t, read.Keys[0].HasPrivateKey())
	assert.NoError(t, read.Validate())

	// reads never share instances
	assert.NotSame(t, ident.Keys[0], read.Keys[0])

	assert.ErrorIs(t, m.Create(ctx, testIdentifier(t, "123")), ErrAlreadyExists)
}

func TestMemStoreReadErrors(t *testing.T) {
	ctx := context.Background()
	m := NewMemStore()

	if err := m.Create(ctx, testIdentifier(t, "123")); err != nil {
		t.Fatal(err)
	}

	_, err := m.Read(ctx, "456", "owner")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = m.Read(ctx, "123", "mallory")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = m.Read(ctx, "123", "")
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestMemStoreOptimisticConcurrency(t *testing.T) {
	ctx := context.Background()
	m := NewMemStore()

	if err := m.Create(ctx, testIdentifier(t, "123")); err != nil {
		t.Fatal(err)
	}

	a, err := m.Read(ctx, "123", "owner")
	if err != nil {
		t.Fatal(err)
	}
	b, err := m.Read(ctx, "123", "owner")
	if err != nil {
		t.Fatal(err)
	}

	assert.NoError(t, m.AddOrUpdate(ctx, a))
	assert.Equal(t, uint64(2), a.Version)

	err = m.AddOrUpdate(ctx, b)
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, uint64(1), b.Version)

	stored, err := m.Read(ctx, "123", "owner")
	assert.NoError(t, err)
	assert.Equal(t, uint64(2), stored.Version)
}

func TestMemStoreAddOrUpdateNew(t *testing.T) {
	ctx := context.Background()
	m := NewMemStore()

	ident := testIdentifier(t, "123")
	assert.NoError(t, m.AddOrUpdate(ctx, ident))

	_, err := m.Read(ctx, "123", "owner")
	assert.NoError(t, err)
}

func TestMemStoreRejectsInvalid(t *testing.T) {
	ctx := context.Background()
	m := NewMemStore()

	ident := testIdentifier(t, "123")
	ident.Document.ID = "did:example:999"

	assert.Error(t, m.Create(ctx, ident))
	assert.Equal(t, uint64(0), ident.Version)

	_, err := m.Read(ctx, "123", "owner")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemStoreCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := NewMemStore()
	assert.ErrorIs(t, m.Create(ctx, testIdentifier(t, "123")), context.Canceled)
	assert.Empty(t, m.dids)
}

func TestMemStoreResolveAndHistory(t *testing.T) {
	ctx := context.Background()
	m := NewMemStore()

	ident := testIdentifier(t, "123")
	if err := m.Create(ctx, ident); err != nil {
		t.Fatal(err)
	}

	ident.Document.Service = append(ident.Document.Service, w3cdid.Service{
		ID:              ident.DocumentID() + "#kms",
		Type:            "KeyManagement",
		ServiceEndpoint: "https://kms.example.com",
	})
	if err := m.AddOrUpdate(ctx, ident); err != nil {
		t.Fatal(err)
	}

	doc, err := m.Resolve(ctx, w3cdid.URL("did:example:123"))
	assert.NoError(t, err)
	assert.Len(t, doc.Service, 1)

	_, err = m.Resolve(ctx, w3cdid.URL("did:other:123"))
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = m.Resolve(ctx, w3cdid.URL("did:example:456"))
	assert.ErrorIs(t, err, ErrNotFound)

	hist, err := m.History(ctx, "123", "owner")
	assert.NoError(t, err)
	if assert.Len(t, hist, 2) {
		assert.Equal(t, uint64(1), hist[0].Version)
		assert.Equal(t, uint64(2), hist[1].Version)
		assert.NotEqual(t, hist[0].CID, hist[1].CID)
		assert.Empty(t, hist[0].Document.Service)
	}

	_, err = m.History(ctx, "123", "mallory")
	assert.ErrorIs(t, err, ErrForbidden)
}
