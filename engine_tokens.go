package authcore

import (
	"context"
	"time"

	"github.com/google/uuid"
)

func (a *Auth) issueToken(
	ctx context.Context,
	tokenType TokenType,
	tokenName string,
	user UserName,
	lifetime time.Duration,
) (*NewToken, error) {
	secret, err := a.generateToken()
	if err != nil {
		return nil, err
	}
	now := a.now()
	st, err := NewStoredToken(tokenType, uuid.New(), tokenName, user, now, now.Add(lifetime))
	if err != nil {
		return nil, err
	}
	if err := a.storage.StoreToken(ctx, st, hashToken(secret)); err != nil {
		return nil, err
	}
	return &NewToken{StoredToken: st, Token: secret}, nil
}

// CreateToken issues a non-interactive token for the owner of the presented
// login token. Agent tokens are available to every user; developer and
// service tokens require the matching token-issuance role (or Admin/root).
// Lifetimes come from the stored configuration.
func (a *Auth) CreateToken(ctx context.Context, token IncomingToken, tokenName string, tokenType TokenType) (*NewToken, error) {
	if !tokenType.IsValid() {
		return nil, illegalParameter("illegal token type: " + string(tokenType))
	}
	if tokenType == TokenLogin {
		return nil, illegalParameter("login tokens are only issued by the login flow")
	}
	st, err := a.GetToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if st.Type != TokenLogin {
		return nil, unauthorized(st.Type.Description() + " tokens are not allowed for this operation")
	}
	u, err := a.loadTokenOwner(ctx, st)
	if err != nil {
		return nil, err
	}
	switch tokenType {
	case TokenDev:
		if !u.HasRole(RoleDevToken) && !u.HasRole(RoleAdmin) && !u.IsRoot() {
			return nil, unauthorized("user " + u.UserName.String() + " is not authorized to create developer tokens")
		}
	case TokenServ:
		if !u.HasRole(RoleServToken) && !u.HasRole(RoleAdmin) && !u.IsRoot() {
			return nil, unauthorized("user " + u.UserName.String() + " is not authorized to create service tokens")
		}
	}
	cfg, _, err := a.storage.GetConfig(ctx)
	if err != nil {
		return nil, err
	}
	return a.issueToken(ctx, tokenType, tokenName, u.UserName, cfg.TokenLifetime(tokenType))
}

// GetTokens lists every live token owned by the presenter.
func (a *Auth) GetTokens(ctx context.Context, token IncomingToken) ([]StoredToken, error) {
	u, _, err := a.getUserFromToken(ctx, token)
	if err != nil {
		return nil, err
	}
	return a.storage.GetTokens(ctx, u.UserName)
}

// RevokeToken deletes one of the presenter's tokens by id. The secret is
// not needed; ownership is checked by the storage layer.
func (a *Auth) RevokeToken(ctx context.Context, token IncomingToken, tokenID uuid.UUID) error {
	if tokenID == uuid.Nil {
		return missingParameter("token id")
	}
	u, _, err := a.getUserFromToken(ctx, token)
	if err != nil {
		return err
	}
	return a.storage.DeleteToken(ctx, u.UserName, tokenID)
}

// RevokeTokens deletes every token the presenter owns, including the one
// presented.
func (a *Auth) RevokeTokens(ctx context.Context, token IncomingToken) error {
	u, _, err := a.getUserFromToken(ctx, token)
	if err != nil {
		return err
	}
	return a.storage.DeleteTokens(ctx, u.UserName)
}

// RevokeAllTokens deletes every token in the system. Admin only; the admin
// logs themselves out too.
func (a *Auth) RevokeAllTokens(ctx context.Context, token IncomingToken) error {
	if _, err := a.getAdmin(ctx, token, RoleAdmin); err != nil {
		return err
	}
	return a.storage.DeleteAllTokens(ctx)
}
