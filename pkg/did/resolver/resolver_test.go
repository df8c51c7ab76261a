package resolver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/tcfw/didkms/pkg/did/w3cdid"
	storageMock "github.com/tcfw/didkms/pkg/storage/mock"
)

func TestResolve(t *testing.T) {
	doc := w3cdid.NewDocument("did:example:123")

	m := &storageMock.MockStore{}
	m.On("Resolve", mock.Anything, w3cdid.URL("did:example:123")).Return(doc, nil)

	r := New()
	r.Register("example", m)

	got, err := r.Resolve(context.Background(), "did:example:123")
	if assert.NoError(t, err) {
		assert.Equal(t, doc, got)
	}

	_, err = r.Resolve(context.Background(), "did:other:123")
	assert.ErrorIs(t, err, ErrUnknownMethod)

	_, err = r.Resolve(context.Background(), "example:123")
	assert.ErrorIs(t, err, ErrInvalidDID)

	m.AssertExpectations(t)
}
