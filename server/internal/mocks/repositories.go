// Package mocks holds testify mocks of the server repositories.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/maynagashev/redactvault/models"
	srvmodels "github.com/maynagashev/redactvault/server/internal/models"
	"github.com/maynagashev/redactvault/server/internal/repository"
)

// UserRepository mocks repository.UserRepository.
type UserRepository struct {
	mock.Mock
}

var _ repository.UserRepository = (*UserRepository)(nil)

func (m *UserRepository) CreateUser(ctx context.Context, user *models.User) (int64, error) {
	args := m.Called(ctx, user)
	return args.Get(0).(int64), args.Error(1) //nolint:errcheck // mock
}

func (m *UserRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1) //nolint:errcheck // mock
}

// VaultEntryRepository mocks repository.VaultEntryRepository.
// MarkReverted invokes the restore callback with RevertRow unless the
// configured error is non-nil.
type VaultEntryRepository struct {
	mock.Mock
	RevertRow srvmodels.EntryRow
}

var _ repository.VaultEntryRepository = (*VaultEntryRepository)(nil)

func (m *VaultEntryRepository) List(ctx context.Context, limit, offset int) ([]models.VaultEntry, int, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]models.VaultEntry), args.Int(1), args.Error(2) //nolint:errcheck // mock
}

func (m *VaultEntryRepository) Get(ctx context.Context, id int64) (*models.VaultEntry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.VaultEntry), args.Error(1) //nolint:errcheck // mock
}

func (m *VaultEntryRepository) Create(ctx context.Context, req *models.CreateEntryRequest) (int64, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(int64), args.Error(1) //nolint:errcheck // mock
}

func (m *VaultEntryRepository) SetArchived(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *VaultEntryRepository) UpsertFeedback(ctx context.Context, id int64, fb models.Feedback) error {
	return m.Called(ctx, id, fb).Error(0)
}

func (m *VaultEntryRepository) MarkReverted(ctx context.Context, id int64, restore repository.RestoreFunc) error {
	if err := m.Called(ctx, id).Error(0); err != nil {
		return err
	}
	return restore(ctx, m.RevertRow)
}

func (m *VaultEntryRepository) Stats(ctx context.Context) (*srvmodels.StatsRow, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*srvmodels.StatsRow), args.Error(1) //nolint:errcheck // mock
}
