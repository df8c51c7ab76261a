package mock

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/tcfw/didkms/pkg/did"
	"github.com/tcfw/didkms/pkg/did/w3cdid"
	"github.com/tcfw/didkms/pkg/storage"
)

var _ storage.Store = (*MockStore)(nil)

// MockStore is a testify mock of storage.Store for injecting store failures
type MockStore struct {
	mock.Mock
}

func (m *MockStore) Read(ctx context.Context, id string, caller did.Principal) (*did.Identifier, error) {
	args := m.Called(ctx, id, caller)
	ident, _ := args.Get(0).(*did.Identifier)
	return ident, args.Error(1)
}

func (m *MockStore) AddOrUpdate(ctx context.Context, ident *did.Identifier) error {
	return m.Called(ctx, ident).Error(0)
}

func (m *MockStore) Create(ctx context.Context, ident *did.Identifier) error {
	return m.Called(ctx, ident).Error(0)
}

func (m *MockStore) Resolve(ctx context.Context, u w3cdid.URL) (*w3cdid.Document, error) {
	args := m.Called(ctx, u)
	doc, _ := args.Get(0).(*w3cdid.Document)
	return doc, args.Error(1)
}

func (m *MockStore) History(ctx context.Context, id string, caller did.Principal) ([]storage.Snapshot, error) {
	args := m.Called(ctx, id, caller)
	snaps, _ := args.Get(0).([]storage.Snapshot)
	return snaps, args.Error(1)
}

func (m *MockStore) Stop() error {
	return m.Called().Error(0)
}
