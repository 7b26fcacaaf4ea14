package authcore_test

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/halvard-io/authcore"
)

// MockStorage implements authcore.Storage
type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) CreateLocalUser(ctx context.Context, user *authcore.LocalUser, creds authcore.PasswordHashAndSalt) error {
	args := m.Called(ctx, user, creds)
	return args.Error(0)
}

func (m *MockStorage) GetLocalUser(ctx context.Context, name authcore.UserName) (*authcore.LocalUser, error) {
	args := m.Called(ctx, name)
	if u, ok := args.Get(0).(*authcore.LocalUser); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStorage) GetPasswordHashAndSalt(ctx context.Context, name authcore.UserName) (authcore.PasswordHashAndSalt, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(authcore.PasswordHashAndSalt), args.Error(1)
}

func (m *MockStorage) ChangePassword(ctx context.Context, name authcore.UserName, creds authcore.PasswordHashAndSalt, forceReset bool) error {
	args := m.Called(ctx, name, creds, forceReset)
	return args.Error(0)
}

func (m *MockStorage) ForcePasswordReset(ctx context.Context, name authcore.UserName) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}

func (m *MockStorage) ForcePasswordResetAll(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockStorage) CreateUser(ctx context.Context, user *authcore.NewUser) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockStorage) DisableAccount(ctx context.Context, name authcore.UserName, admin authcore.UserName, reason string) error {
	args := m.Called(ctx, name, admin, reason)
	return args.Error(0)
}

func (m *MockStorage) EnableAccount(ctx context.Context, name authcore.UserName, admin authcore.UserName) error {
	args := m.Called(ctx, name, admin)
	return args.Error(0)
}

func (m *MockStorage) GetUser(ctx context.Context, name authcore.UserName) (*authcore.AuthUser, error) {
	args := m.Called(ctx, name)
	if u, ok := args.Get(0).(*authcore.AuthUser); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStorage) GetUserByIdentity(ctx context.Context, remote authcore.RemoteIdentity) (*authcore.AuthUser, error) {
	args := m.Called(ctx, remote)
	if u, ok := args.Get(0).(*authcore.AuthUser); ok {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStorage) GetUserDisplayNames(ctx context.Context, names []authcore.UserName) (map[authcore.UserName]authcore.DisplayName, error) {
	args := m.Called(ctx, names)
	if v, ok := args.Get(0).(map[authcore.UserName]authcore.DisplayName); ok {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStorage) UpdateUser(ctx context.Context, name authcore.UserName, update authcore.UserUpdate) error {
	args := m.Called(ctx, name, update)
	return args.Error(0)
}

func (m *MockStorage) SetLastLogin(ctx context.Context, name authcore.UserName, lastLogin time.Time) error {
	args := m.Called(ctx, name, lastLogin)
	return args.Error(0)
}

func (m *MockStorage) AddPolicyIDs(ctx context.Context, name authcore.UserName, policyIDs []authcore.PolicyID) error {
	args := m.Called(ctx, name, policyIDs)
	return args.Error(0)
}

func (m *MockStorage) RemovePolicyID(ctx context.Context, policyID authcore.PolicyID) error {
	args := m.Called(ctx, policyID)
	return args.Error(0)
}

func (m *MockStorage) StoreToken(ctx context.Context, token authcore.StoredToken, hash authcore.HashedToken) error {
	args := m.Called(ctx, token, hash)
	return args.Error(0)
}

func (m *MockStorage) GetToken(ctx context.Context, hash authcore.HashedToken) (authcore.StoredToken, error) {
	args := m.Called(ctx, hash)
	return args.Get(0).(authcore.StoredToken), args.Error(1)
}

func (m *MockStorage) GetTokens(ctx context.Context, name authcore.UserName) ([]authcore.StoredToken, error) {
	args := m.Called(ctx, name)
	if v, ok := args.Get(0).([]authcore.StoredToken); ok {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStorage) DeleteToken(ctx context.Context, name authcore.UserName, tokenID uuid.UUID) error {
	args := m.Called(ctx, name, tokenID)
	return args.Error(0)
}

func (m *MockStorage) DeleteTokens(ctx context.Context, name authcore.UserName) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}

func (m *MockStorage) DeleteAllTokens(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockStorage) UpdateRoles(ctx context.Context, name authcore.UserName, add []authcore.Role, remove []authcore.Role) error {
	args := m.Called(ctx, name, add, remove)
	return args.Error(0)
}

func (m *MockStorage) SetCustomRole(ctx context.Context, role authcore.CustomRole) error {
	args := m.Called(ctx, role)
	return args.Error(0)
}

func (m *MockStorage) DeleteCustomRole(ctx context.Context, roleID string) error {
	args := m.Called(ctx, roleID)
	return args.Error(0)
}

func (m *MockStorage) GetCustomRoles(ctx context.Context) ([]authcore.CustomRole, error) {
	args := m.Called(ctx)
	if v, ok := args.Get(0).([]authcore.CustomRole); ok {
		return v, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStorage) UpdateCustomRoles(ctx context.Context, name authcore.UserName, add []string, remove []string) error {
	args := m.Called(ctx, name, add, remove)
	return args.Error(0)
}

func (m *MockStorage) StoreIdentitiesTemporarily(ctx context.Context, token authcore.TemporaryHashedToken, ids []authcore.RemoteIdentityWithLocalID) error {
	args := m.Called(ctx, token, ids)
	return args.Error(0)
}

func (m *MockStorage) StoreErrorTemporarily(ctx context.Context, token authcore.TemporaryHashedToken, errorMsg string, errorCode string) error {
	args := m.Called(ctx, token, errorMsg, errorCode)
	return args.Error(0)
}

func (m *MockStorage) GetTemporaryIdentities(ctx context.Context, hash authcore.HashedToken) (authcore.TemporaryIdentities, error) {
	args := m.Called(ctx, hash)
	return args.Get(0).(authcore.TemporaryIdentities), args.Error(1)
}

func (m *MockStorage) DeleteTemporaryIdentities(ctx context.Context, hash authcore.HashedToken) error {
	args := m.Called(ctx, hash)
	return args.Error(0)
}

func (m *MockStorage) Link(ctx context.Context, name authcore.UserName, remote authcore.RemoteIdentity) error {
	args := m.Called(ctx, name, remote)
	return args.Error(0)
}

func (m *MockStorage) Unlink(ctx context.Context, name authcore.UserName, id authcore.RemoteIdentityID) error {
	args := m.Called(ctx, name, id)
	return args.Error(0)
}

func (m *MockStorage) UpdateConfig(ctx context.Context, update authcore.AuthConfigUpdate, overwrite bool) error {
	args := m.Called(ctx, update, overwrite)
	return args.Error(0)
}

func (m *MockStorage) GetConfig(ctx context.Context) (authcore.AuthConfig, map[string]string, error) {
	args := m.Called(ctx)
	return args.Get(0).(authcore.AuthConfig), args.Get(1).(map[string]string), args.Error(2)
}
