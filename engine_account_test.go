package authcore_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/halvard-io/authcore"
)

func TestCreateLocalUserRequiresCreateAdmin(t *testing.T) {
	store := &MockStorage{}
	plain := testUser(t, "bilbo")
	token, st := tokenFor(t, plain.UserName, authcore.TokenLogin)

	store.On("GetToken", mock.Anything, token.Hash()).Return(st, nil).Once()
	store.On("GetUser", mock.Anything, plain.UserName).Return(plain, nil).Once()

	a := newTestAuth(t, store)

	_, err := a.CreateLocalUser(context.Background(), token,
		authcore.UserName("frodo"), authcore.DisplayName("Frodo"), authcore.UnknownEmail, "pw123456")
	require.Error(t, err)
	assert.ErrorIs(t, err, authcore.ErrUnauthorized)
	store.AssertNotCalled(t, "CreateLocalUser", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateLocalUserFlagsPasswordReset(t *testing.T) {
	store := &MockStorage{}
	admin := testUser(t, "gandalf", authcore.WithRole(authcore.RoleCreateAdmin))
	token, st := tokenFor(t, admin.UserName, authcore.TokenLogin)

	store.On("GetToken", mock.Anything, token.Hash()).Return(st, nil).Once()
	store.On("GetUser", mock.Anything, admin.UserName).Return(admin, nil).Once()
	store.On("CreateLocalUser", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

	a := newTestAuth(t, store)

	lu, err := a.CreateLocalUser(context.Background(), token,
		authcore.UserName("frodo"), authcore.DisplayName("Frodo"), authcore.EmailAddress("f@example.com"), "pw123456")
	require.NoError(t, err)
	assert.True(t, lu.ForcePasswordReset)
	assert.True(t, lu.IsLocal())
	assert.Equal(t, authcore.EmailAddress("f@example.com"), lu.Email)
	store.AssertExpectations(t)
}

func TestCreateLocalUserRejectsRootName(t *testing.T) {
	store := &MockStorage{}
	a := newTestAuth(t, store)

	_, err := a.CreateLocalUser(context.Background(), "whatever",
		authcore.RootUserName, authcore.DisplayName("root"), authcore.UnknownEmail, "pw123456")
	require.Error(t, err)
	assert.True(t, authcore.IsValidationError(err))
	store.AssertNotCalled(t, "GetToken", mock.Anything, mock.Anything)
}

func TestCreateUserConsumesHandshakeAndLogsIn(t *testing.T) {
	store := &MockStorage{}
	tempToken := authcore.IncomingToken("temp-secret")
	localID := uuid.New()
	remote := authcore.RemoteIdentity{
		ID:      authcore.RemoteIdentityID{Provider: "globus", ProviderUserID: "u-123"},
		Details: authcore.RemoteIdentityDetails{Username: "bilbo@globus", Email: "b@example.com"},
	}
	ids := authcore.TemporaryIdentities{
		ID:         uuid.New(),
		Created:    testTime.Add(-time.Minute),
		Expires:    testTime.Add(time.Minute),
		Identities: []authcore.RemoteIdentityWithLocalID{remote.WithLocalID(localID)},
	}

	store.On("GetTemporaryIdentities", mock.Anything, tempToken.Hash()).Return(ids, nil).Once()
	store.On("CreateUser", mock.Anything, mock.Anything).Return(nil).Once()
	store.On("DeleteTemporaryIdentities", mock.Anything, tempToken.Hash()).Return(nil).Once()
	store.On("SetLastLogin", mock.Anything, authcore.UserName("bilbo"), testTime).Return(nil).Once()
	store.On("GetConfig", mock.Anything).
		Return(authcore.AuthConfig{}, map[string]string{}, nil).Once()
	store.On("StoreToken", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

	a := newTestAuth(t, store)

	nu, nt, err := a.CreateUser(context.Background(), tempToken, remote.WithLocalID(localID),
		authcore.UserName("bilbo"), authcore.DisplayName("Bilbo"), authcore.UnknownEmail)
	require.NoError(t, err)
	assert.False(t, nu.IsLocal())
	assert.Len(t, nu.Identities, 1)
	assert.Equal(t, authcore.TokenLogin, nt.Type)
	assert.Equal(t, authcore.UserName("bilbo"), nt.UserName)
	store.AssertExpectations(t)
}

func TestCreateUserRejectsUnknownLocalID(t *testing.T) {
	store := &MockStorage{}
	tempToken := authcore.IncomingToken("temp-secret")
	remote := authcore.RemoteIdentity{
		ID:      authcore.RemoteIdentityID{Provider: "globus", ProviderUserID: "u-123"},
		Details: authcore.RemoteIdentityDetails{Username: "bilbo@globus"},
	}
	ids := authcore.TemporaryIdentities{
		ID:         uuid.New(),
		Identities: []authcore.RemoteIdentityWithLocalID{remote.WithLocalID(uuid.New())},
	}

	store.On("GetTemporaryIdentities", mock.Anything, tempToken.Hash()).Return(ids, nil).Once()

	a := newTestAuth(t, store)

	_, _, err := a.CreateUser(context.Background(), tempToken, remote.WithLocalID(uuid.New()),
		authcore.UserName("bilbo"), authcore.DisplayName("Bilbo"), authcore.UnknownEmail)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not authorized to create a user with remote identity")
	store.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
}

func TestCreateUserSurfacesHandshakeError(t *testing.T) {
	store := &MockStorage{}
	tempToken := authcore.IncomingToken("temp-secret")
	ids := authcore.TemporaryIdentities{
		ID:        uuid.New(),
		Error:     "provider timed out",
		ErrorCode: "provider_error",
	}

	store.On("GetTemporaryIdentities", mock.Anything, tempToken.Hash()).Return(ids, nil).Once()

	a := newTestAuth(t, store)

	_, _, err := a.CreateUser(context.Background(), tempToken,
		authcore.RemoteIdentityWithLocalID{LocalID: uuid.New(), RemoteIdentity: authcore.RemoteIdentity{
			ID: authcore.RemoteIdentityID{Provider: "globus", ProviderUserID: "u-123"},
		}},
		authcore.UserName("bilbo"), authcore.DisplayName("Bilbo"), authcore.UnknownEmail)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "provider timed out")
	store.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
}

func TestDisableAccountPurgesTokensFirst(t *testing.T) {
	store := &MockStorage{}
	admin := testUser(t, "gandalf", authcore.WithRole(authcore.RoleAdmin))
	token, st := tokenFor(t, admin.UserName, authcore.TokenLogin)
	target := authcore.UserName("frodo")

	store.On("GetToken", mock.Anything, token.Hash()).Return(st, nil).Once()
	store.On("GetUser", mock.Anything, admin.UserName).Return(admin, nil).Once()
	store.On("DeleteTokens", mock.Anything, target).Return(nil).Once()
	store.On("DisableAccount", mock.Anything, target, admin.UserName, "spamming").Return(nil).Once()

	a := newTestAuth(t, store)

	require.NoError(t, a.DisableAccount(context.Background(), token, target, "spamming"))
	store.AssertExpectations(t)
}

func TestDisableAccountRequiresReason(t *testing.T) {
	store := &MockStorage{}
	a := newTestAuth(t, store)

	err := a.DisableAccount(context.Background(), "whatever", authcore.UserName("frodo"), "   ")
	require.Error(t, err)
	assert.True(t, authcore.IsValidationError(err))
}

func TestDisableAccountExcludesRoot(t *testing.T) {
	store := &MockStorage{}
	a := newTestAuth(t, store)

	err := a.DisableAccount(context.Background(), "whatever", authcore.RootUserName, "because")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "root account may not be disabled")
	store.AssertNotCalled(t, "DisableAccount", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestEnableAccountRequiresAdmin(t *testing.T) {
	store := &MockStorage{}
	plain := testUser(t, "bilbo")
	token, st := tokenFor(t, plain.UserName, authcore.TokenLogin)

	store.On("GetToken", mock.Anything, token.Hash()).Return(st, nil).Once()
	store.On("GetUser", mock.Anything, plain.UserName).Return(plain, nil).Once()

	a := newTestAuth(t, store)

	err := a.EnableAccount(context.Background(), token, authcore.UserName("frodo"))
	require.Error(t, err)
	assert.ErrorIs(t, err, authcore.ErrUnauthorized)
	store.AssertNotCalled(t, "EnableAccount", mock.Anything, mock.Anything, mock.Anything)
}
