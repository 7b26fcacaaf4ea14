package authcore

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base32"
	"encoding/base64"
	"strings"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// TokenType discriminates the authorization semantics of a stored token.
type TokenType string

const (
	// TokenLogin is an interactive session token. Only login tokens may be
	// used for administrative operations.
	TokenLogin TokenType = "Login"
	// TokenAgent is issued to software acting on behalf of the user.
	TokenAgent TokenType = "Agent"
	// TokenDev is a long lived token for developers.
	TokenDev TokenType = "Dev"
	// TokenServ is a long lived token for services.
	TokenServ TokenType = "Serv"
)

// IsValid reports whether the token type is one of the defined types.
func (t TokenType) IsValid() bool {
	switch t {
	case TokenLogin, TokenAgent, TokenDev, TokenServ:
		return true
	default:
		return false
	}
}

// Description is the human readable name of the token type, used in
// authorization failure messages.
func (t TokenType) Description() string {
	switch t {
	case TokenLogin:
		return "Login"
	case TokenAgent:
		return "Agent"
	case TokenDev:
		return "Developer"
	case TokenServ:
		return "Service"
	default:
		return string(t)
	}
}

// StoredToken is the persisted form of a session token. The raw secret is
// never stored; only its hash, which is the lookup key. The id exists so an
// owner can delete a single token without presenting the secret.
type StoredToken struct {
	Type      TokenType
	ID        uuid.UUID
	TokenName string
	UserName  UserName
	Created   time.Time
	Expires   time.Time
}

// NewStoredToken validates and builds a stored token. The optional token
// name is a user-assigned label, not an identifier.
func NewStoredToken(
	tokenType TokenType,
	id uuid.UUID,
	tokenName string,
	userName UserName,
	created time.Time,
	expires time.Time,
) (StoredToken, error) {
	if !tokenType.IsValid() {
		return StoredToken{}, illegalParameter("illegal token type: " + string(tokenType))
	}
	if id == uuid.Nil {
		return StoredToken{}, missingParameter("token id")
	}
	if userName == "" {
		return StoredToken{}, missingParameter("user name")
	}
	if created.IsZero() || expires.IsZero() {
		return StoredToken{}, missingParameter("token lifetime")
	}
	if expires.Before(created) {
		return StoredToken{}, illegalParameter("token expiration is before creation")
	}
	return StoredToken{
		Type:      tokenType,
		ID:        id,
		TokenName: strings.TrimSpace(tokenName),
		UserName:  userName,
		Created:   created.Truncate(time.Millisecond),
		Expires:   expires.Truncate(time.Millisecond),
	}, nil
}

// NewToken couples a freshly stored token with its raw secret. The secret
// is surfaced exactly once, at issuance.
type NewToken struct {
	StoredToken
	Token string
}

// IncomingToken is a raw caller-presented token secret. The engine hashes
// it; the transport layer never does.
type IncomingToken string

// NewIncomingToken validates a raw token string.
func NewIncomingToken(token string) (IncomingToken, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", missingParameter("token")
	}
	return IncomingToken(token), nil
}

// Hash derives the storage lookup key for this token.
func (t IncomingToken) Hash() HashedToken {
	return hashToken(string(t))
}

// HashedToken is the SHA-256/base64 digest of a raw token secret, the only
// form in which secrets touch storage.
type HashedToken string

func hashToken(token string) HashedToken {
	sum := sha256.Sum256([]byte(token))
	return HashedToken(base64.StdEncoding.EncodeToString(sum[:]))
}

// TokenGenerator produces raw token secrets. The default draws 160 bits
// from crypto/rand; implementations must supply enough entropy that hash
// collisions are not a practical concern.
type TokenGenerator func() (string, error)

// DefaultTokenGenerator is the production token secret source.
func DefaultTokenGenerator() (string, error) {
	b := make([]byte, 20)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to read random bytes")
	}
	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(b), nil
}

// TemporaryToken is a short lived handshake token minted during federated
// login, stored hashed exactly like session tokens.
type TemporaryToken struct {
	ID      uuid.UUID
	Token   string
	Created time.Time
	Expires time.Time
}

// NewTemporaryToken validates and builds a temporary token with the given
// lifetime.
func NewTemporaryToken(id uuid.UUID, token string, created time.Time, lifetime time.Duration) (TemporaryToken, error) {
	if id == uuid.Nil {
		return TemporaryToken{}, missingParameter("token id")
	}
	if strings.TrimSpace(token) == "" {
		return TemporaryToken{}, missingParameter("token")
	}
	if created.IsZero() {
		return TemporaryToken{}, missingParameter("created")
	}
	if lifetime < 0 {
		return TemporaryToken{}, illegalParameter("token lifetime must be >= 0")
	}
	created = created.Truncate(time.Millisecond)
	return TemporaryToken{
		ID:      id,
		Token:   token,
		Created: created,
		Expires: created.Add(lifetime),
	}, nil
}

// HashedToken is the storage form of the temporary token.
func (t TemporaryToken) HashedToken() TemporaryHashedToken {
	return TemporaryHashedToken{
		ID:      t.ID,
		Hash:    hashToken(t.Token),
		Created: t.Created,
		Expires: t.Expires,
	}
}

// TemporaryHashedToken is a temporary token with its secret replaced by the
// secret's hash.
type TemporaryHashedToken struct {
	ID      uuid.UUID
	Hash    HashedToken
	Created time.Time
	Expires time.Time
}

// TemporaryIdentities is the payload resolved from a temporary token: either
// a set of candidate remote identities (possibly empty) or a handshake error
// to be surfaced to the caller, never both.
type TemporaryIdentities struct {
	ID         uuid.UUID
	Created    time.Time
	Expires    time.Time
	Identities []RemoteIdentityWithLocalID
	Error      string
	ErrorCode  string
}

// HasError reports whether the handshake stored a failure instead of
// identities.
func (t TemporaryIdentities) HasError() bool {
	return t.Error != ""
}
