package authcore_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/halvard-io/authcore"
)

func TestUpdateRolesRejectsRootRole(t *testing.T) {
	store := &MockStorage{}
	a := newTestAuth(t, store)

	err := a.UpdateRoles(context.Background(), "whatever", authcore.UserName("frodo"),
		[]authcore.Role{authcore.RoleRoot}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "root role may not be granted")
	store.AssertNotCalled(t, "UpdateRoles", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateRolesExcludesRootTarget(t *testing.T) {
	store := &MockStorage{}
	a := newTestAuth(t, store)

	err := a.UpdateRoles(context.Background(), "whatever", authcore.RootUserName,
		[]authcore.Role{authcore.RoleAdmin}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "root account's roles may not be changed")
}

func TestUpdateRolesAdminGrantNeedsCreateAdmin(t *testing.T) {
	store := &MockStorage{}
	admin := testUser(t, "gandalf", authcore.WithRole(authcore.RoleAdmin))
	token, st := tokenFor(t, admin.UserName, authcore.TokenLogin)

	store.On("GetToken", mock.Anything, token.Hash()).Return(st, nil).Once()
	store.On("GetUser", mock.Anything, admin.UserName).Return(admin, nil).Once()

	a := newTestAuth(t, store)

	err := a.UpdateRoles(context.Background(), token, authcore.UserName("frodo"),
		[]authcore.Role{authcore.RoleAdmin}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "only create-administrators may grant the administrator role")
	store.AssertNotCalled(t, "UpdateRoles", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateRolesCreateAdminGrantNeedsRoot(t *testing.T) {
	store := &MockStorage{}
	admin := testUser(t, "gandalf",
		authcore.WithRole(authcore.RoleAdmin), authcore.WithRole(authcore.RoleCreateAdmin))
	token, st := tokenFor(t, admin.UserName, authcore.TokenLogin)

	store.On("GetToken", mock.Anything, token.Hash()).Return(st, nil).Once()
	store.On("GetUser", mock.Anything, admin.UserName).Return(admin, nil).Once()

	a := newTestAuth(t, store)

	err := a.UpdateRoles(context.Background(), token, authcore.UserName("frodo"),
		[]authcore.Role{authcore.RoleCreateAdmin}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "only the root account may grant the create-administrator role")
	store.AssertNotCalled(t, "UpdateRoles", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateRolesRootGrantsAnything(t *testing.T) {
	store := &MockStorage{}
	root := rootUser(t)
	token, st := tokenFor(t, root.UserName, authcore.TokenLogin)
	target := authcore.UserName("frodo")
	add := []authcore.Role{authcore.RoleCreateAdmin, authcore.RoleAdmin}
	remove := []authcore.Role{authcore.RoleDevToken}

	store.On("GetToken", mock.Anything, token.Hash()).Return(st, nil).Once()
	store.On("GetUser", mock.Anything, root.UserName).Return(root, nil).Once()
	store.On("UpdateRoles", mock.Anything, target, add, remove).Return(nil).Once()

	a := newTestAuth(t, store)

	require.NoError(t, a.UpdateRoles(context.Background(), token, target, add, remove))
	store.AssertExpectations(t)
}

func TestUpdateRolesAdminMayRevokeAndGrantTokenRoles(t *testing.T) {
	store := &MockStorage{}
	admin := testUser(t, "gandalf", authcore.WithRole(authcore.RoleAdmin))
	token, st := tokenFor(t, admin.UserName, authcore.TokenLogin)
	target := authcore.UserName("frodo")
	add := []authcore.Role{authcore.RoleDevToken}
	remove := []authcore.Role{authcore.RoleServToken, authcore.RoleAdmin}

	store.On("GetToken", mock.Anything, token.Hash()).Return(st, nil).Once()
	store.On("GetUser", mock.Anything, admin.UserName).Return(admin, nil).Once()
	store.On("UpdateRoles", mock.Anything, target, add, remove).Return(nil).Once()

	a := newTestAuth(t, store)

	require.NoError(t, a.UpdateRoles(context.Background(), token, target, add, remove))
	store.AssertExpectations(t)
}

func TestSetCustomRoleRequiresAdmin(t *testing.T) {
	store := &MockStorage{}
	plain := testUser(t, "bilbo")
	token, st := tokenFor(t, plain.UserName, authcore.TokenLogin)

	store.On("GetToken", mock.Anything, token.Hash()).Return(st, nil).Once()
	store.On("GetUser", mock.Anything, plain.UserName).Return(plain, nil).Once()

	a := newTestAuth(t, store)

	role, err := authcore.NewCustomRole("curator", "May curate datasets")
	require.NoError(t, err)

	err = a.SetCustomRole(context.Background(), token, role)
	require.Error(t, err)
	assert.ErrorIs(t, err, authcore.ErrUnauthorized)
	store.AssertNotCalled(t, "SetCustomRole", mock.Anything, mock.Anything)
}

func TestDeleteCustomRoleValidatesID(t *testing.T) {
	store := &MockStorage{}
	a := newTestAuth(t, store)

	err := a.DeleteCustomRole(context.Background(), "whatever", "bad id!")
	require.Error(t, err)
	assert.True(t, authcore.IsValidationError(err))
	store.AssertNotCalled(t, "GetToken", mock.Anything, mock.Anything)
}

func TestGetCustomRolesAllowsAnyValidToken(t *testing.T) {
	store := &MockStorage{}
	user := testUser(t, "bilbo")
	token, st := tokenFor(t, user.UserName, authcore.TokenAgent)
	roles := []authcore.CustomRole{{ID: "curator", Description: "May curate datasets"}}

	store.On("GetToken", mock.Anything, token.Hash()).Return(st, nil).Once()
	store.On("GetUser", mock.Anything, user.UserName).Return(user, nil).Once()
	store.On("GetCustomRoles", mock.Anything).Return(roles, nil).Once()

	a := newTestAuth(t, store)

	got, err := a.GetCustomRoles(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, roles, got)
	store.AssertExpectations(t)
}

func TestUpdateCustomRolesValidatesIDs(t *testing.T) {
	store := &MockStorage{}
	a := newTestAuth(t, store)

	err := a.UpdateCustomRoles(context.Background(), "whatever", authcore.UserName("frodo"),
		[]string{"not ok?"}, nil)
	require.Error(t, err)
	assert.True(t, authcore.IsValidationError(err))
}

func TestUpdateConfigRequiresAdmin(t *testing.T) {
	store := &MockStorage{}
	plain := testUser(t, "bilbo")
	token, st := tokenFor(t, plain.UserName, authcore.TokenLogin)

	store.On("GetToken", mock.Anything, token.Hash()).Return(st, nil).Once()
	store.On("GetUser", mock.Anything, plain.UserName).Return(plain, nil).Once()

	a := newTestAuth(t, store)

	err := a.UpdateConfig(context.Background(), token, authcore.AuthConfigUpdate{}, true)
	require.Error(t, err)
	assert.ErrorIs(t, err, authcore.ErrUnauthorized)
	store.AssertNotCalled(t, "UpdateConfig", mock.Anything, mock.Anything, mock.Anything)
}
