package authcore

import (
	"context"

	"github.com/goliatone/go-errors"
)

// Login authenticates a local account and issues a login token. Absent
// accounts and bad passwords collapse to ErrInvalidCredentials. Disabled
// accounts have their tokens purged and fail ErrDisabledUser. An account
// flagged for a forced reset fails ErrPasswordResetRequired. The flag is
// checked here, at login, never retroactively against live sessions.
func (a *Auth) Login(ctx context.Context, name UserName, password string, tokenName string) (*NewToken, error) {
	if name == "" {
		return nil, missingParameter("user name")
	}
	if password == "" {
		return nil, missingParameter("password")
	}
	creds, err := a.storage.GetPasswordHashAndSalt(ctx, name)
	if err != nil {
		if errors.Is(err, ErrNoSuchLocalUser) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := a.hasher.Compare(password, creds); err != nil {
		return nil, err
	}
	lu, err := a.storage.GetLocalUser(ctx, name)
	if err != nil {
		return nil, err
	}
	if lu.IsDisabled() {
		if err := a.storage.DeleteTokens(ctx, name); err != nil {
			return nil, err
		}
		return nil, ErrDisabledUser
	}
	cfg, _, err := a.storage.GetConfig(ctx)
	if err != nil {
		return nil, err
	}
	if !cfg.IsLoginAllowed() && !lu.IsAdmin() {
		return nil, unauthorized("non-admin login is disabled")
	}
	if lu.ForcePasswordReset {
		return nil, ErrPasswordResetRequired
	}
	if err := a.storage.SetLastLogin(ctx, name, a.now()); err != nil {
		return nil, err
	}
	return a.issueToken(ctx, TokenLogin, tokenName, name, cfg.TokenLifetime(TokenLogin))
}

// ChangePassword verifies the old password and installs a new one, clearing
// any forced-reset flag. Outstanding session tokens stay valid.
func (a *Auth) ChangePassword(ctx context.Context, name UserName, oldPassword, newPassword string) error {
	if name == "" {
		return missingParameter("user name")
	}
	if oldPassword == "" {
		return missingParameter("old password")
	}
	if newPassword == "" {
		return missingParameter("new password")
	}
	if oldPassword == newPassword {
		return illegalParameter("the new password must differ from the old password")
	}
	creds, err := a.storage.GetPasswordHashAndSalt(ctx, name)
	if err != nil {
		if errors.Is(err, ErrNoSuchLocalUser) {
			return ErrInvalidCredentials
		}
		return err
	}
	if err := a.hasher.Compare(oldPassword, creds); err != nil {
		return err
	}
	lu, err := a.storage.GetLocalUser(ctx, name)
	if err != nil {
		return err
	}
	if lu.IsDisabled() {
		if err := a.storage.DeleteTokens(ctx, name); err != nil {
			return err
		}
		return ErrDisabledUser
	}
	newCreds, err := a.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	return a.storage.ChangePassword(ctx, name, newCreds, false)
}

// ForcePasswordReset flags a single local account so its next login must
// set a new password. Admin only.
func (a *Auth) ForcePasswordReset(ctx context.Context, token IncomingToken, name UserName) error {
	if name == "" {
		return missingParameter("user name")
	}
	if _, err := a.getAdmin(ctx, token, RoleAdmin); err != nil {
		return err
	}
	return a.storage.ForcePasswordReset(ctx, name)
}

// ForcePasswordResetAll flags every local account. Admin only. Active
// sessions are unaffected; the reset bites at next login.
func (a *Auth) ForcePasswordResetAll(ctx context.Context, token IncomingToken) error {
	if _, err := a.getAdmin(ctx, token, RoleAdmin); err != nil {
		return err
	}
	return a.storage.ForcePasswordResetAll(ctx)
}
