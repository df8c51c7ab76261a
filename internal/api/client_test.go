package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tcfw/didkms/pkg/keys"
)

func newTestServer(t *testing.T, a *Api) *httptest.Server {
	srv := httptest.NewServer(a.Handler())
	t.Cleanup(srv.Close)
	return srv
}

func TestClientRotateRetriesConflicts(t *testing.T) {
	s := &conflictingStore{MemStore: seeded(t), failures: 2}
	srv := newTestServer(t, newTestAPI(t, s))

	c := NewClient(srv.URL+"/", token(t, "owner"), WithBackoff(time.Millisecond, 5*time.Millisecond))

	doc, err := c.Rotate(context.Background(), "123", RotateParams{Use: string(keys.Signing)})
	require.NoError(t, err)
	assert.Len(t, doc.VerificationMethod, 2)

	views, err := c.Keys(context.Background(), "123")
	require.NoError(t, err)
	assert.Len(t, views, 2)

	snaps, err := c.History(context.Background(), "123")
	require.NoError(t, err)
	assert.Len(t, snaps, 2)

	resolved, err := c.Resolve(context.Background(), "123")
	require.NoError(t, err)
	assert.Equal(t, doc.ID, resolved.ID)
}

func TestClientGivesUp(t *testing.T) {
	s := &conflictingStore{MemStore: seeded(t), failures: 10}
	srv := newTestServer(t, newTestAPI(t, s))

	c := NewClient(srv.URL, token(t, "owner"), WithMaxAttempts(3), WithBackoff(time.Millisecond, time.Millisecond))

	_, err := c.Rotate(context.Background(), "123", RotateParams{})

	var re *ResponseError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, http.StatusConflict, re.Status)
	assert.True(t, re.Retryable())
	assert.Equal(t, int32(7), atomic.LoadInt32(&s.failures))
}

func TestClientDoesNotRetryOtherErrors(t *testing.T) {
	s := &conflictingStore{MemStore: seeded(t)}
	srv := newTestServer(t, newTestAPI(t, s))

	c := NewClient(srv.URL, token(t, "owner"), WithBackoff(time.Millisecond, time.Millisecond))

	_, err := c.Rotate(context.Background(), "123", RotateParams{Use: string(keys.KeyAgreement)})

	var re *ResponseError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, http.StatusUnprocessableEntity, re.Status)
	assert.Equal(t, "KeyNotConfigured", re.Code)
	assert.False(t, re.Retryable())

	_, err = NewClient(srv.URL, "").Keys(context.Background(), "123")
	require.True(t, errors.As(err, &re))
	assert.Equal(t, http.StatusUnauthorized, re.Status)
}

func TestParseRotateParams(t *testing.T) {
	p, err := ParseRotateParams("enc", "eddsa", 0, "x25519")
	require.NoError(t, err)
	assert.Equal(t, RotateParams{Use: "KeyAgreement", Algorithm: "EdDSA", Curve: "X25519"}, p)
	assert.Equal(t, "alg=EdDSA&curve=X25519&use=KeyAgreement", p.query().Encode())

	_, err = ParseRotateParams("bogus", "", 0, "")
	assert.Error(t, err)
	_, err = ParseRotateParams("", "dsa", 0, "")
	assert.Error(t, err)
	_, err = ParseRotateParams("", "", -1, "")
	assert.Error(t, err)
}
