package authcore

import (
	"time"
)

// UserDisabledState records whether and why an account is disabled. The
// zero value means enabled. A disabled state always carries the reason, the
// admin who toggled it, and the time of the toggle.
type UserDisabledState struct {
	Reason     string
	DisabledBy UserName
	Time       time.Time
}

// NewUserDisabledState validates and builds a disabled state.
func NewUserDisabledState(reason string, admin UserName, when time.Time) (UserDisabledState, error) {
	if reason == "" {
		return UserDisabledState{}, missingParameter("reason")
	}
	if admin == "" {
		return UserDisabledState{}, missingParameter("admin")
	}
	if when.IsZero() {
		return UserDisabledState{}, missingParameter("time")
	}
	return UserDisabledState{
		Reason:     reason,
		DisabledBy: admin,
		Time:       when.Truncate(time.Millisecond),
	}, nil
}

// IsDisabled reports whether the account is disabled.
func (s UserDisabledState) IsDisabled() bool {
	return !s.Time.IsZero()
}

// PasswordHashAndSalt is an opaque salted password digest. The engine only
// ever passes it to a PasswordHasher for comparison; the algorithm is not
// its concern.
type PasswordHashAndSalt struct {
	Hash []byte
	Salt []byte
}

// NewPasswordHashAndSalt validates the credential pair. The salt may be
// empty for algorithms that embed it in the hash.
func NewPasswordHashAndSalt(hash, salt []byte) (PasswordHashAndSalt, error) {
	if len(hash) == 0 {
		return PasswordHashAndSalt{}, missingParameter("password hash")
	}
	return PasswordHashAndSalt{Hash: hash, Salt: salt}, nil
}

// AuthUser is a full account record. Accounts are either local (password
// credential, no remote identities) or federated (at least one remote
// identity, no password), never both. Construct via NewAuthUser; fields
// are not meant to be mutated afterwards.
type AuthUser struct {
	UserName    UserName
	DisplayName DisplayName
	Email       EmailAddress
	Created     time.Time
	LastLogin   *time.Time
	Roles       []Role
	CustomRoles []string
	PolicyIDs   []PolicyID
	Identities  []RemoteIdentity
	Disabled    UserDisabledState
	Local       bool
}

// AuthUserOption configures optional account fields at construction.
type AuthUserOption func(*AuthUser)

// WithEmail sets the account email address.
func WithEmail(email EmailAddress) AuthUserOption {
	return func(u *AuthUser) { u.Email = email }
}

// WithRole grants a built-in role.
func WithRole(role Role) AuthUserOption {
	return func(u *AuthUser) { u.Roles = append(u.Roles, role) }
}

// WithCustomRoles sets the custom role id set.
func WithCustomRoles(ids ...string) AuthUserOption {
	return func(u *AuthUser) { u.CustomRoles = append(u.CustomRoles, ids...) }
}

// WithPolicyIDs records accepted policy ids.
func WithPolicyIDs(ids ...PolicyID) AuthUserOption {
	return func(u *AuthUser) { u.PolicyIDs = append(u.PolicyIDs, ids...) }
}

// WithIdentities sets the linked remote identities, marking the account
// federated.
func WithIdentities(ids ...RemoteIdentity) AuthUserOption {
	return func(u *AuthUser) { u.Identities = append(u.Identities, ids...) }
}

// WithLocal marks the account as password backed.
func WithLocal() AuthUserOption {
	return func(u *AuthUser) { u.Local = true }
}

// WithDisabledState sets the disabled state.
func WithDisabledState(state UserDisabledState) AuthUserOption {
	return func(u *AuthUser) { u.Disabled = state }
}

// WithLastLogin records the most recent login time.
func WithLastLogin(t time.Time) AuthUserOption {
	return func(u *AuthUser) {
		t = t.Truncate(time.Millisecond)
		u.LastLogin = &t
	}
}

// NewAuthUser validates and builds an account record, rejecting states the
// data model forbids: a local account with identities, a root account that
// is local, disabled, or holds identities, and granting the Root role to a
// non-root name.
func NewAuthUser(name UserName, display DisplayName, created time.Time, opts ...AuthUserOption) (*AuthUser, error) {
	if name == "" {
		return nil, missingParameter("user name")
	}
	if display == "" {
		return nil, missingParameter("display name")
	}
	if created.IsZero() {
		return nil, missingParameter("created")
	}
	u := &AuthUser{
		UserName:    name,
		DisplayName: display,
		Created:     created.Truncate(time.Millisecond),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(u)
		}
	}
	if u.Local && len(u.Identities) > 0 {
		return nil, illegalParameter("a local user cannot have remote identities")
	}
	if name.IsRoot() {
		if u.Local {
			return nil, illegalParameter("the root user cannot be local")
		}
		if u.Disabled.IsDisabled() {
			return nil, illegalParameter("the root user cannot be disabled")
		}
		if len(u.Identities) > 0 {
			return nil, illegalParameter("the root user cannot have remote identities")
		}
	}
	for _, r := range u.Roles {
		if !r.IsValid() {
			return nil, illegalParameter("illegal role: " + string(r))
		}
		if r == RoleRoot && !name.IsRoot() {
			return nil, illegalParameter("only the root user may hold the root role")
		}
	}
	return u, nil
}

// IsRoot reports whether this is the root account.
func (u *AuthUser) IsRoot() bool {
	return u.UserName.IsRoot()
}

// IsLocal reports whether the account authenticates with a password.
func (u *AuthUser) IsLocal() bool {
	return u.Local
}

// IsDisabled reports whether the account is disabled.
func (u *AuthUser) IsDisabled() bool {
	return u.Disabled.IsDisabled()
}

// HasRole reports whether the account holds the given built-in role. The
// root account implicitly holds RoleRoot.
func (u *AuthUser) HasRole(role Role) bool {
	if role == RoleRoot && u.IsRoot() {
		return true
	}
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the account may view any user: Admin and root
// subsume CreateAdmin for this purpose.
func (u *AuthUser) IsAdmin() bool {
	return u.IsRoot() || u.HasRole(RoleAdmin) || u.HasRole(RoleCreateAdmin)
}

// Identity returns the linked identity with the given provider id, if any.
func (u *AuthUser) Identity(id RemoteIdentityID) (RemoteIdentity, bool) {
	for _, ri := range u.Identities {
		if ri.ID == id {
			return ri, true
		}
	}
	return RemoteIdentity{}, false
}

// LocalUser is a password backed account. The credential itself lives in
// storage; the record only carries the forced-reset flag checked at login.
type LocalUser struct {
	AuthUser
	ForcePasswordReset bool
}

// NewLocalUser validates and builds a local account record.
func NewLocalUser(name UserName, display DisplayName, created time.Time, forceReset bool, opts ...AuthUserOption) (*LocalUser, error) {
	if name.IsRoot() {
		return nil, illegalParameter("standard users cannot be root")
	}
	opts = append(opts, WithLocal())
	base, err := NewAuthUser(name, display, created, opts...)
	if err != nil {
		return nil, err
	}
	return &LocalUser{AuthUser: *base, ForcePasswordReset: forceReset}, nil
}

// NewUser is an account record for the federated creation path. It carries
// exactly one remote identity; further identities are added via Link.
type NewUser struct {
	AuthUser
	identity RemoteIdentityWithLocalID
}

// NewUserWithIdentity validates and builds a federated creation record.
func NewUserWithIdentity(
	name UserName,
	display DisplayName,
	created time.Time,
	remote RemoteIdentityWithLocalID,
	opts ...AuthUserOption,
) (*NewUser, error) {
	if name.IsRoot() {
		return nil, illegalParameter("standard users cannot be root")
	}
	if remote.ID.Provider == "" {
		return nil, missingParameter("remote identity")
	}
	opts = append(opts, WithIdentities(remote.RemoteIdentity))
	base, err := NewAuthUser(name, display, created, opts...)
	if err != nil {
		return nil, err
	}
	return &NewUser{AuthUser: *base, identity: remote}, nil
}

// Identity returns the single identity the account is created with.
func (u *NewUser) Identity() RemoteIdentityWithLocalID {
	return u.identity
}

// ViewableUser is a read-only projection of an account for display to other
// users. The email address is included only when the viewer is the subject
// or an admin. Never persisted.
type ViewableUser struct {
	user         *AuthUser
	includeEmail bool
}

// NewViewableUser builds the projection.
func NewViewableUser(user *AuthUser, includeEmail bool) ViewableUser {
	return ViewableUser{user: user, includeEmail: includeEmail}
}

// UserName returns the subject's handle.
func (v ViewableUser) UserName() UserName {
	return v.user.UserName
}

// DisplayName returns the subject's display name.
func (v ViewableUser) DisplayName() DisplayName {
	return v.user.DisplayName
}

// Email returns the subject's address, or UnknownEmail when redacted.
func (v ViewableUser) Email() EmailAddress {
	if !v.includeEmail {
		return UnknownEmail
	}
	return v.user.Email
}

// Created returns the account creation time.
func (v ViewableUser) Created() time.Time {
	return v.user.Created
}

// UserUpdate describes a display name and/or email change. Nil fields are
// left untouched.
type UserUpdate struct {
	DisplayName *DisplayName
	Email       *EmailAddress
}

// HasUpdates reports whether the update would change anything.
func (u UserUpdate) HasUpdates() bool {
	return u.DisplayName != nil || u.Email != nil
}
