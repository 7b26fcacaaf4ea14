package authcore

import (
	"context"
	"time"

	"github.com/goliatone/go-errors"
)

// Auth is the authentication engine. It validates tokens, authorizes
// actions by the owner's current roles, runs the disable cascade and the
// identity link protocol, and manages credentials and configuration. All
// state lives behind the Storage contract; Auth itself is safe for
// concurrent use and performs no locking.
type Auth struct {
	storage       Storage
	logger        Logger
	hasher        PasswordHasher
	now           func() time.Time
	generateToken TokenGenerator
}

// Option configures the engine at construction.
type Option func(*Auth)

// WithLogger overrides the default stdout logger.
func WithLogger(logger Logger) Option {
	return func(a *Auth) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithClock injects a custom clock (useful for tests).
func WithClock(clock func() time.Time) Option {
	return func(a *Auth) {
		if clock != nil {
			a.now = clock
		}
	}
}

// WithTokenGenerator overrides the token secret source.
func WithTokenGenerator(gen TokenGenerator) Option {
	return func(a *Auth) {
		if gen != nil {
			a.generateToken = gen
		}
	}
}

// WithPasswordHasher overrides the default bcrypt hasher.
func WithPasswordHasher(hasher PasswordHasher) Option {
	return func(a *Auth) {
		if hasher != nil {
			a.hasher = hasher
		}
	}
}

// New builds an engine over the given storage.
func New(storage Storage, opts ...Option) (*Auth, error) {
	if storage == nil {
		return nil, missingParameter("storage")
	}
	a := &Auth{
		storage:       storage,
		logger:        defLogger{},
		hasher:        BcryptHasher{},
		now:           time.Now,
		generateToken: DefaultTokenGenerator,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a, nil
}

// GetToken resolves a caller-presented token to its stored form. Malformed,
// absent, and expired tokens all collapse to ErrInvalidToken so the error
// cannot be used as an oracle.
func (a *Auth) GetToken(ctx context.Context, token IncomingToken) (StoredToken, error) {
	if token == "" {
		return StoredToken{}, missingParameter("token")
	}
	st, err := a.storage.GetToken(ctx, token.Hash())
	if err != nil {
		if errors.Is(err, ErrNoSuchToken) {
			return StoredToken{}, ErrInvalidToken
		}
		return StoredToken{}, err
	}
	return st, nil
}

// getUserFromToken resolves the token and loads its owner, applying the
// disable cascade: a disabled owner has every token purged before the call
// fails. A valid token whose owner is missing is a referential integrity
// break and escalates to ErrRuntimeConsistency.
func (a *Auth) getUserFromToken(ctx context.Context, token IncomingToken) (*AuthUser, StoredToken, error) {
	st, err := a.GetToken(ctx, token)
	if err != nil {
		return nil, StoredToken{}, err
	}
	u, err := a.loadTokenOwner(ctx, st)
	if err != nil {
		return nil, StoredToken{}, err
	}
	return u, st, nil
}

func (a *Auth) loadTokenOwner(ctx context.Context, st StoredToken) (*AuthUser, error) {
	u, err := a.storage.GetUser(ctx, st.UserName)
	if err != nil {
		if errors.Is(err, ErrNoSuchUser) {
			a.logger.Error("storage consistency violation: token %s was valid but user %s is missing",
				st.ID, st.UserName)
			return nil, errors.Wrap(err, errors.CategoryInternal,
				"there seems to be an error in the storage system: token was valid, but no user").
				WithTextCode(TextCodeConsistency).
				WithCode(errors.CodeInternal)
		}
		return nil, err
	}
	if u.IsDisabled() {
		// Lazy session-wide revocation: tokens issued between disablement
		// and the last sweep die on first use.
		if err := a.storage.DeleteTokens(ctx, u.UserName); err != nil {
			return nil, err
		}
		return nil, ErrDisabledUser
	}
	return u, nil
}

// getAdmin resolves the token, requires an interactive login token, and
// checks the owner's current roles against the given set. Root always
// qualifies. Role membership is evaluated at call time, never cached from
// token issuance.
func (a *Auth) getAdmin(ctx context.Context, token IncomingToken, roles ...Role) (*AuthUser, error) {
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
	if u.IsRoot() {
		return u, nil
	}
	for _, r := range roles {
		if u.HasRole(r) {
			return u, nil
		}
	}
	return nil, ErrUnauthorized
}

func unauthorized(msg string) *errors.Error {
	return errors.New(msg, errors.CategoryAuthz).
		WithTextCode(TextCodeUnauthorized).
		WithCode(errors.CodeForbidden)
}

// GetUser returns the full account record for the token's own owner.
func (a *Auth) GetUser(ctx context.Context, token IncomingToken) (*AuthUser, error) {
	u, _, err := a.getUserFromToken(ctx, token)
	return u, err
}

// GetUserView returns a view of the named account for the token's owner.
// Viewing yourself yields full detail; viewing anyone else yields a
// projection with the email redacted. A disabled target reads as absent.
func (a *Auth) GetUserView(ctx context.Context, token IncomingToken, name UserName) (ViewableUser, error) {
	if name == "" {
		return ViewableUser{}, missingParameter("user name")
	}
	viewer, _, err := a.getUserFromToken(ctx, token)
	if err != nil {
		return ViewableUser{}, err
	}
	if viewer.UserName == name {
		return NewViewableUser(viewer, true), nil
	}
	target, err := a.storage.GetUser(ctx, name)
	if err != nil {
		return ViewableUser{}, err
	}
	if target.IsDisabled() {
		return ViewableUser{}, ErrNoSuchUser
	}
	return NewViewableUser(target, false), nil
}

// GetUserAsAdmin returns the full, unredacted record of any account. The
// presented token must be a login token (agent, developer, and service
// tokens are rejected with a type-specific message) and its owner must
// currently hold Admin or CreateAdmin, or be root.
func (a *Auth) GetUserAsAdmin(ctx context.Context, token IncomingToken, name UserName) (*AuthUser, error) {
	if name == "" {
		return nil, missingParameter("user name")
	}
	if _, err := a.getAdmin(ctx, token, RoleAdmin, RoleCreateAdmin); err != nil {
		return nil, err
	}
	return a.storage.GetUser(ctx, name)
}

// GetUserDisplayNames maps the given names to display names. Absent and
// disabled accounts are left out. Any valid token may ask.
func (a *Auth) GetUserDisplayNames(ctx context.Context, token IncomingToken, names []UserName) (map[UserName]DisplayName, error) {
	if _, _, err := a.getUserFromToken(ctx, token); err != nil {
		return nil, err
	}
	return a.storage.GetUserDisplayNames(ctx, names)
}

// UpdateUser changes the token owner's display name and/or email.
func (a *Auth) UpdateUser(ctx context.Context, token IncomingToken, update UserUpdate) error {
	u, _, err := a.getUserFromToken(ctx, token)
	if err != nil {
		return err
	}
	if !update.HasUpdates() {
		return nil
	}
	return a.storage.UpdateUser(ctx, u.UserName, update)
}

// AddPolicyIDs records policy acceptance for the token's owner.
func (a *Auth) AddPolicyIDs(ctx context.Context, token IncomingToken, ids ...PolicyID) error {
	if len(ids) == 0 {
		return missingParameter("policy ids")
	}
	u, _, err := a.getUserFromToken(ctx, token)
	if err != nil {
		return err
	}
	return a.storage.AddPolicyIDs(ctx, u.UserName, ids)
}

// RemovePolicyID strips a policy id from every account. Admin only.
func (a *Auth) RemovePolicyID(ctx context.Context, token IncomingToken, id PolicyID) error {
	if id == "" {
		return missingParameter("policy id")
	}
	if _, err := a.getAdmin(ctx, token, RoleAdmin); err != nil {
		return err
	}
	return a.storage.RemovePolicyID(ctx, id)
}
