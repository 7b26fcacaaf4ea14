package authcore

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Storage is the persistence contract the engine depends on. Implementations
// must uphold, for every method:
//
//   - Mutations are atomic with respect to their uniqueness constraints
//     (user name, token id, token hash, temporary token id/hash, remote
//     identity link). A race between two conflicting writes admits exactly
//     one winner; the loser gets the specific conflict error, never a bare
//     backend error.
//   - Lookups return a complete value or a specific not-found error, never
//     a partially populated record.
//   - Timestamps round-trip at millisecond precision only.
//   - Expired tokens and temporary tokens are indistinguishable from absent
//     on the read path; background sweeping is the implementation's job.
//   - Connectivity failure surfaces as an ErrStorage-tagged error and is
//     never retried here or in the engine.
type Storage interface {
	// CreateLocalUser atomically creates the account plus credential. Fails
	// ErrUserExists if the name is taken and ErrNoSuchRole if the user
	// references an undefined custom role.
	CreateLocalUser(ctx context.Context, user *LocalUser, creds PasswordHashAndSalt) error

	// GetLocalUser returns a local account, failing ErrNoSuchLocalUser for
	// absent or non-local accounts.
	GetLocalUser(ctx context.Context, name UserName) (*LocalUser, error)

	// GetPasswordHashAndSalt returns the account credential, failing
	// ErrNoSuchLocalUser for absent or non-local accounts.
	GetPasswordHashAndSalt(ctx context.Context, name UserName) (PasswordHashAndSalt, error)

	// ChangePassword replaces the credential and sets the forced-reset
	// flag. Fails ErrNoSuchLocalUser for absent or non-local accounts.
	ChangePassword(ctx context.Context, name UserName, creds PasswordHashAndSalt, forceReset bool) error

	// ForcePasswordReset flags a single local account for reset at next
	// login. Fails ErrNoSuchLocalUser for absent or non-local accounts.
	ForcePasswordReset(ctx context.Context, name UserName) error

	// ForcePasswordResetAll flags every local account. Outstanding session
	// tokens are not touched.
	ForcePasswordResetAll(ctx context.Context) error

	// CreateUser atomically creates a federated account with its single
	// remote identity. Fails ErrUserExists on a taken name,
	// ErrIdentityLinked if the identity already belongs to a different
	// account, and ErrNoSuchRole on an undefined custom role. The
	// identity-taken check and the insert are one atomic step.
	CreateUser(ctx context.Context, user *NewUser) error

	// DisableAccount moves the account to the disabled state, overwriting
	// any previous disabled state (last write wins). Fails ErrNoSuchUser.
	DisableAccount(ctx context.Context, name UserName, admin UserName, reason string) error

	// EnableAccount clears the disabled state. Fails ErrNoSuchUser.
	EnableAccount(ctx context.Context, name UserName, admin UserName) error

	// GetUser returns the account record. Fails ErrNoSuchUser.
	GetUser(ctx context.Context, name UserName) (*AuthUser, error)

	// GetUserByIdentity returns the account linked to the identity, or
	// (nil, nil) when there is none. When the stored provider details
	// differ from the passed-in identity the stored copy is refreshed,
	// a side effect on read.
	GetUserByIdentity(ctx context.Context, remote RemoteIdentity) (*AuthUser, error)

	// GetUserDisplayNames maps names to display names. Absent users are
	// left out; disabled users are never returned.
	GetUserDisplayNames(ctx context.Context, names []UserName) (map[UserName]DisplayName, error)

	// UpdateUser applies a display name / email change. Fails ErrNoSuchUser.
	UpdateUser(ctx context.Context, name UserName, update UserUpdate) error

	// SetLastLogin records the most recent login. Fails ErrNoSuchUser.
	SetLastLogin(ctx context.Context, name UserName, lastLogin time.Time) error

	// AddPolicyIDs adds to the user's accepted policy set. Fails
	// ErrNoSuchUser.
	AddPolicyIDs(ctx context.Context, name UserName, policyIDs []PolicyID) error

	// RemovePolicyID strips a policy id from every user.
	RemovePolicyID(ctx context.Context, policyID PolicyID) error

	// StoreToken persists a token under its hash. A duplicate id or hash is
	// a programming error and fails ErrTokenAlreadyExists.
	StoreToken(ctx context.Context, token StoredToken, hash HashedToken) error

	// GetToken resolves a token by hash, failing ErrNoSuchToken for absent
	// or expired tokens.
	GetToken(ctx context.Context, hash HashedToken) (StoredToken, error)

	// GetTokens returns all live tokens owned by the user.
	GetTokens(ctx context.Context, name UserName) ([]StoredToken, error)

	// DeleteToken removes one token by owner and id, failing ErrNoSuchToken
	// if the owner holds no such token.
	DeleteToken(ctx context.Context, name UserName, tokenID uuid.UUID) error

	// DeleteTokens removes every token owned by the user.
	DeleteTokens(ctx context.Context, name UserName) error

	// DeleteAllTokens removes every token in the system.
	DeleteAllTokens(ctx context.Context) error

	// UpdateRoles adds and removes built-in roles in one step. A role in
	// both sets is removed; removing an unheld role is a no-op. Fails
	// ErrNoSuchUser.
	UpdateRoles(ctx context.Context, name UserName, add []Role, remove []Role) error

	// SetCustomRole creates the role or updates its description.
	SetCustomRole(ctx context.Context, role CustomRole) error

	// DeleteCustomRole removes the definition and strips the role from
	// every holder, atomically from the caller's perspective. Fails
	// ErrNoSuchRole.
	DeleteCustomRole(ctx context.Context, roleID string) error

	// GetCustomRoles returns all custom role definitions.
	GetCustomRoles(ctx context.Context) ([]CustomRole, error)

	// UpdateCustomRoles adds and removes custom roles in one step with the
	// same remove-wins semantics as UpdateRoles. Fails ErrNoSuchUser, and
	// ErrNoSuchRole if an input role is not defined.
	UpdateCustomRoles(ctx context.Context, name UserName, add []string, remove []string) error

	// StoreIdentitiesTemporarily persists a handshake identity set (empty
	// allowed) under the token. Duplicate id or hash fails
	// ErrTokenAlreadyExists.
	StoreIdentitiesTemporarily(ctx context.Context, token TemporaryHashedToken, ids []RemoteIdentityWithLocalID) error

	// StoreErrorTemporarily persists a handshake failure under the token.
	// Duplicate id or hash fails ErrTokenAlreadyExists.
	StoreErrorTemporarily(ctx context.Context, token TemporaryHashedToken, errorMsg string, errorCode string) error

	// GetTemporaryIdentities resolves a handshake token, failing
	// ErrNoSuchToken for absent or expired records. Reading does not
	// consume the record.
	GetTemporaryIdentities(ctx context.Context, hash HashedToken) (TemporaryIdentities, error)

	// DeleteTemporaryIdentities removes the handshake record. Deleting an
	// absent record is not an error.
	DeleteTemporaryIdentities(ctx context.Context, hash HashedToken) error

	// Link attaches a remote identity to an account. Fails ErrNoSuchUser,
	// ErrLinkFailed if the account is local, and ErrIdentityLinked if the
	// identity belongs to a different account. That check and the insert
	// are one atomic step. Linking an identity the account already holds
	// succeeds and refreshes the stored provider details.
	Link(ctx context.Context, name UserName, remote RemoteIdentity) error

	// Unlink detaches a remote identity. Fails ErrNoSuchUser,
	// ErrNoSuchIdentity if the account does not hold it, and
	// ErrUnlinkFailed if the account is local or the identity is its last.
	Unlink(ctx context.Context, name UserName, id RemoteIdentityID) error

	// UpdateConfig applies a configuration update, replacing stored values
	// when overwrite is set and filling only absent keys otherwise.
	UpdateConfig(ctx context.Context, update AuthConfigUpdate, overwrite bool) error

	// GetConfig returns the core configuration plus the raw external
	// key/value map.
	GetConfig(ctx context.Context) (AuthConfig, map[string]string, error)
}
