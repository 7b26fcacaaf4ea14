package authcore

import (
	"context"

	"github.com/goliatone/go-errors"
)

// Link attaches a remote identity to the presenter's account. Local
// accounts cannot hold identities (ErrLinkFailed); an identity owned by a
// different account fails ErrIdentityLinked; re-linking an identity the
// account already holds succeeds and refreshes the stored provider details.
func (a *Auth) Link(ctx context.Context, token IncomingToken, remote RemoteIdentity) error {
	if remote.ID.Provider == "" {
		return missingParameter("remote identity")
	}
	u, _, err := a.getUserFromToken(ctx, token)
	if err != nil {
		return err
	}
	if u.IsLocal() {
		return ErrLinkFailed
	}
	if u.IsRoot() {
		return unauthorized("the root account may not be linked to a remote identity")
	}
	return a.storage.Link(ctx, u.UserName, remote)
}

// Unlink removes a remote identity from the presenter's account. The last
// identity can never be removed: an account must always retain at least one
// authentication method.
func (a *Auth) Unlink(ctx context.Context, token IncomingToken, id RemoteIdentityID) error {
	if id.Provider == "" {
		return missingParameter("identity id")
	}
	u, _, err := a.getUserFromToken(ctx, token)
	if err != nil {
		return err
	}
	return a.storage.Unlink(ctx, u.UserName, id)
}

// GetTemporaryIdentities resolves a handshake token to its payload. When
// the federated callback failed, the stored error is surfaced instead of an
// identity set. Reading does not consume the record; the caller must
// delete it via DeleteTemporaryIdentities once acted upon.
func (a *Auth) GetTemporaryIdentities(ctx context.Context, token IncomingToken) (TemporaryIdentities, error) {
	if token == "" {
		return TemporaryIdentities{}, missingParameter("token")
	}
	ids, err := a.storage.GetTemporaryIdentities(ctx, token.Hash())
	if err != nil {
		if errors.Is(err, ErrNoSuchToken) {
			return TemporaryIdentities{}, ErrInvalidToken
		}
		return TemporaryIdentities{}, err
	}
	if ids.HasError() {
		return TemporaryIdentities{}, errors.New(ids.Error, errors.CategoryAuth).
			WithTextCode(ids.ErrorCode).
			WithCode(errors.CodeUnauthorized)
	}
	return ids, nil
}

// DeleteTemporaryIdentities removes a consumed handshake record. Deleting
// an already-removed record is a no-op.
func (a *Auth) DeleteTemporaryIdentities(ctx context.Context, token IncomingToken) error {
	if token == "" {
		return missingParameter("token")
	}
	return a.storage.DeleteTemporaryIdentities(ctx, token.Hash())
}
