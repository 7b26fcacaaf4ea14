package authcore

import (
	"context"
	"strings"
)

// CreateLocalUser creates a password backed account. Only CreateAdmin (or
// root) may do this; the new account is flagged for a password reset so the
// admin-chosen password cannot outlive first login. The root name is
// reserved and can never be created here.
func (a *Auth) CreateLocalUser(
	ctx context.Context,
	token IncomingToken,
	name UserName,
	display DisplayName,
	email EmailAddress,
	password string,
) (*LocalUser, error) {
	if name == "" {
		return nil, missingParameter("user name")
	}
	if name.IsRoot() {
		return nil, illegalParameter("the root user cannot be created")
	}
	if password == "" {
		return nil, missingParameter("password")
	}
	if _, err := a.getAdmin(ctx, token, RoleCreateAdmin); err != nil {
		return nil, err
	}
	creds, err := a.hasher.Hash(password)
	if err != nil {
		return nil, err
	}
	opts := []AuthUserOption{}
	if email.IsKnown() {
		opts = append(opts, WithEmail(email))
	}
	lu, err := NewLocalUser(name, display, a.now(), true, opts...)
	if err != nil {
		return nil, err
	}
	if err := a.storage.CreateLocalUser(ctx, lu, creds); err != nil {
		return nil, err
	}
	return lu, nil
}

// CreateUser creates a federated account from a handshake identity and logs
// it in. The temporary token must resolve to an identity set containing the
// given local correlation id; a stored handshake error is surfaced instead
// when present. The consumed handshake record is deleted on success.
func (a *Auth) CreateUser(
	ctx context.Context,
	tempToken IncomingToken,
	identity RemoteIdentityWithLocalID,
	name UserName,
	display DisplayName,
	email EmailAddress,
) (*NewUser, *NewToken, error) {
	if name == "" {
		return nil, nil, missingParameter("user name")
	}
	if name.IsRoot() {
		return nil, nil, illegalParameter("the root user cannot be created")
	}
	ids, err := a.GetTemporaryIdentities(ctx, tempToken)
	if err != nil {
		return nil, nil, err
	}
	remote, ok := pickIdentity(ids, identity)
	if !ok {
		return nil, nil, unauthorized("not authorized to create a user with remote identity " +
			identity.ID.Provider + "/" + identity.ID.ProviderUserID)
	}
	opts := []AuthUserOption{}
	if email.IsKnown() {
		opts = append(opts, WithEmail(email))
	}
	nu, err := NewUserWithIdentity(name, display, a.now(), remote, opts...)
	if err != nil {
		return nil, nil, err
	}
	if err := a.storage.CreateUser(ctx, nu); err != nil {
		return nil, nil, err
	}
	if err := a.storage.DeleteTemporaryIdentities(ctx, tempToken.Hash()); err != nil {
		return nil, nil, err
	}
	if err := a.storage.SetLastLogin(ctx, name, a.now()); err != nil {
		return nil, nil, err
	}
	cfg, _, err := a.storage.GetConfig(ctx)
	if err != nil {
		return nil, nil, err
	}
	nt, err := a.issueToken(ctx, TokenLogin, "", name, cfg.TokenLifetime(TokenLogin))
	if err != nil {
		return nil, nil, err
	}
	return nu, nt, nil
}

func pickIdentity(ids TemporaryIdentities, want RemoteIdentityWithLocalID) (RemoteIdentityWithLocalID, bool) {
	for _, ri := range ids.Identities {
		if ri.LocalID == want.LocalID {
			return ri, true
		}
	}
	return RemoteIdentityWithLocalID{}, false
}

// DisableAccount disables the named account, overwriting any previous
// disabled state (last write wins), and immediately revokes all of its
// tokens. Admin only; root is excluded from the transition.
func (a *Auth) DisableAccount(ctx context.Context, token IncomingToken, name UserName, reason string) error {
	if name == "" {
		return missingParameter("user name")
	}
	if strings.TrimSpace(reason) == "" {
		return missingParameter("reason")
	}
	if name.IsRoot() {
		return unauthorized("the root account may not be disabled")
	}
	admin, err := a.getAdmin(ctx, token, RoleAdmin)
	if err != nil {
		return err
	}
	// Tokens go first so a concurrent request cannot authenticate against
	// a not-yet-disabled record after its tokens would have been spared.
	if err := a.storage.DeleteTokens(ctx, name); err != nil {
		return err
	}
	return a.storage.DisableAccount(ctx, name, admin.UserName, strings.TrimSpace(reason))
}

// EnableAccount re-enables a disabled account. Admin only; root is excluded
// (it can never be disabled).
func (a *Auth) EnableAccount(ctx context.Context, token IncomingToken, name UserName) error {
	if name == "" {
		return missingParameter("user name")
	}
	if name.IsRoot() {
		return unauthorized("the root account may not be enabled")
	}
	admin, err := a.getAdmin(ctx, token, RoleAdmin)
	if err != nil {
		return err
	}
	return a.storage.EnableAccount(ctx, name, admin.UserName)
}
