package authcore_test

import (
	"context"
	"testing"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/halvard-io/authcore"
)

func testRemoteIdentity(provider, providerUserID string) authcore.RemoteIdentity {
	return authcore.RemoteIdentity{
		ID:      authcore.RemoteIdentityID{Provider: provider, ProviderUserID: providerUserID},
		Details: authcore.RemoteIdentityDetails{Username: "someone@" + provider},
	}
}

func TestLinkRejectsLocalAccount(t *testing.T) {
	store := &MockStorage{}
	user := testUser(t, "bilbo", authcore.WithLocal())
	token, st := tokenFor(t, user.UserName, authcore.TokenLogin)

	store.On("GetToken", mock.Anything, token.Hash()).Return(st, nil).Once()
	store.On("GetUser", mock.Anything, user.UserName).Return(user, nil).Once()

	a := newTestAuth(t, store)

	err := a.Link(context.Background(), token, testRemoteIdentity("globus", "u-1"))
	require.Error(t, err)
	assert.ErrorIs(t, err, authcore.ErrLinkFailed)
	store.AssertNotCalled(t, "Link", mock.Anything, mock.Anything, mock.Anything)
}

func TestLinkRejectsRoot(t *testing.T) {
	store := &MockStorage{}
	root := rootUser(t)
	token, st := tokenFor(t, root.UserName, authcore.TokenLogin)

	store.On("GetToken", mock.Anything, token.Hash()).Return(st, nil).Once()
	store.On("GetUser", mock.Anything, root.UserName).Return(root, nil).Once()

	a := newTestAuth(t, store)

	err := a.Link(context.Background(), token, testRemoteIdentity("globus", "u-1"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "root account may not be linked")
	store.AssertNotCalled(t, "Link", mock.Anything, mock.Anything, mock.Anything)
}

func TestLinkDelegatesToStorage(t *testing.T) {
	store := &MockStorage{}
	user := testUser(t, "bilbo", authcore.WithIdentities(testRemoteIdentity("globus", "u-1")))
	token, st := tokenFor(t, user.UserName, authcore.TokenLogin)
	remote := testRemoteIdentity("orcid", "0000-0001")

	store.On("GetToken", mock.Anything, token.Hash()).Return(st, nil).Once()
	store.On("GetUser", mock.Anything, user.UserName).Return(user, nil).Once()
	store.On("Link", mock.Anything, user.UserName, remote).Return(nil).Once()

	a := newTestAuth(t, store)

	require.NoError(t, a.Link(context.Background(), token, remote))
	store.AssertExpectations(t)
}

func TestLinkSurfacesIdentityConflict(t *testing.T) {
	store := &MockStorage{}
	user := testUser(t, "bilbo", authcore.WithIdentities(testRemoteIdentity("globus", "u-1")))
	token, st := tokenFor(t, user.UserName, authcore.TokenLogin)
	remote := testRemoteIdentity("orcid", "0000-0001")

	store.On("GetToken", mock.Anything, token.Hash()).Return(st, nil).Once()
	store.On("GetUser", mock.Anything, user.UserName).Return(user, nil).Once()
	store.On("Link", mock.Anything, user.UserName, remote).Return(authcore.ErrIdentityLinked).Once()

	a := newTestAuth(t, store)

	err := a.Link(context.Background(), token, remote)
	require.Error(t, err)
	assert.ErrorIs(t, err, authcore.ErrIdentityLinked)
	store.AssertExpectations(t)
}

func TestUnlinkDelegatesToStorage(t *testing.T) {
	store := &MockStorage{}
	user := testUser(t, "bilbo",
		authcore.WithIdentities(testRemoteIdentity("globus", "u-1"), testRemoteIdentity("orcid", "0000-0001")))
	token, st := tokenFor(t, user.UserName, authcore.TokenLogin)
	id := authcore.RemoteIdentityID{Provider: "orcid", ProviderUserID: "0000-0001"}

	store.On("GetToken", mock.Anything, token.Hash()).Return(st, nil).Once()
	store.On("GetUser", mock.Anything, user.UserName).Return(user, nil).Once()
	store.On("Unlink", mock.Anything, user.UserName, id).Return(nil).Once()

	a := newTestAuth(t, store)

	require.NoError(t, a.Unlink(context.Background(), token, id))
	store.AssertExpectations(t)
}

func TestGetTemporaryIdentitiesCollapsesAbsentToInvalid(t *testing.T) {
	store := &MockStorage{}
	token := authcore.IncomingToken("temp-secret")
	store.On("GetTemporaryIdentities", mock.Anything, token.Hash()).
		Return(authcore.TemporaryIdentities{}, authcore.ErrNoSuchToken).Once()

	a := newTestAuth(t, store)

	_, err := a.GetTemporaryIdentities(context.Background(), token)
	require.Error(t, err)
	assert.ErrorIs(t, err, authcore.ErrInvalidToken)
	store.AssertExpectations(t)
}

func TestGetTemporaryIdentitiesSurfacesStoredError(t *testing.T) {
	store := &MockStorage{}
	token := authcore.IncomingToken("temp-secret")
	ids := authcore.TemporaryIdentities{
		ID:        uuid.New(),
		Error:     "provider rejected the request",
		ErrorCode: "provider_error",
	}
	store.On("GetTemporaryIdentities", mock.Anything, token.Hash()).Return(ids, nil).Once()

	a := newTestAuth(t, store)

	_, err := a.GetTemporaryIdentities(context.Background(), token)
	require.Error(t, err)

	var richErr *errors.Error
	require.True(t, errors.As(err, &richErr))
	assert.Equal(t, "provider rejected the request", richErr.Message)
	assert.Equal(t, "provider_error", richErr.TextCode)
	assert.Equal(t, errors.CategoryAuth, richErr.Category)
	store.AssertExpectations(t)
}

func TestGetTemporaryIdentitiesReturnsIdentitySet(t *testing.T) {
	store := &MockStorage{}
	token := authcore.IncomingToken("temp-secret")
	ids := authcore.TemporaryIdentities{
		ID: uuid.New(),
		Identities: []authcore.RemoteIdentityWithLocalID{
			testRemoteIdentity("globus", "u-1").WithLocalID(uuid.New()),
		},
	}
	store.On("GetTemporaryIdentities", mock.Anything, token.Hash()).Return(ids, nil).Once()

	a := newTestAuth(t, store)

	got, err := a.GetTemporaryIdentities(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, ids.ID, got.ID)
	assert.Len(t, got.Identities, 1)
	store.AssertExpectations(t)
}
