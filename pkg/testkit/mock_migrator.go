package testkit

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockMigrator is a testify-backed runner.Migrator. By default every call
// succeeds; set expectations on Mock to change that:
//
//	m := testkit.NewMockMigrator()
//	m.Mock.ExpectedCalls = nil
//	m.On("Migrate", mock.Anything).Return(errors.New("exit status 1"))
type MockMigrator struct {
	mock.Mock
}

// NewMockMigrator returns a MockMigrator whose Migrate returns nil.
func NewMockMigrator() *MockMigrator {
	m := &MockMigrator{}
	m.On("Migrate", mock.Anything).Return(nil)
	return m
}

// Failing returns a MockMigrator whose Migrate returns err.
func Failing(err error) *MockMigrator {
	m := &MockMigrator{}
	m.On("Migrate", mock.Anything).Return(err)
	return m
}

func (m *MockMigrator) Migrate(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
