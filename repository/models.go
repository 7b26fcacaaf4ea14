package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Timestamps are persisted as unix milliseconds so they round-trip at the
// precision the storage contract promises, regardless of driver.

type userModel struct {
	bun.BaseModel `bun:"table:users,alias:usr"`

	UserName    string `bun:"user_name,pk"`
	DisplayName string `bun:"display_name,notnull"`
	Email       string `bun:"email"`
	Created     int64  `bun:"created,notnull"`
	LastLogin   *int64 `bun:"last_login"`
	Local       bool   `bun:"is_local,notnull"`

	PasswordHash  []byte `bun:"password_hash"`
	PasswordSalt  []byte `bun:"password_salt"`
	ForcePwdReset bool   `bun:"force_password_reset"`

	DisabledReason string `bun:"disabled_reason"`
	DisabledBy     string `bun:"disabled_by"`
	DisabledAt     *int64 `bun:"disabled_at"`

	Roles       []*userRoleModel       `bun:"rel:has-many,join:user_name=user_name"`
	CustomRoles []*userCustomRoleModel `bun:"rel:has-many,join:user_name=user_name"`
	PolicyIDs   []*userPolicyModel     `bun:"rel:has-many,join:user_name=user_name"`
	Identities  []*identityModel       `bun:"rel:has-many,join:user_name=user_name"`
}

func (m *userModel) isDisabled() bool {
	return m.DisabledAt != nil
}

type userRoleModel struct {
	bun.BaseModel `bun:"table:user_roles,alias:url"`

	UserName string `bun:"user_name,pk"`
	Role     string `bun:"role,pk"`
}

type userCustomRoleModel struct {
	bun.BaseModel `bun:"table:user_custom_roles,alias:ucr"`

	UserName string `bun:"user_name,pk"`
	RoleID   string `bun:"role_id,pk"`
}

type userPolicyModel struct {
	bun.BaseModel `bun:"table:user_policy_ids,alias:upl"`

	UserName string `bun:"user_name,pk"`
	PolicyID string `bun:"policy_id,pk"`
}

// identityModel keys on the provider pair; the pk doubles as the uniqueness
// constraint that makes concurrent link attempts admit one winner.
type identityModel struct {
	bun.BaseModel `bun:"table:identities,alias:idn"`

	Provider       string `bun:"provider,pk"`
	ProviderUserID string `bun:"provider_user_id,pk"`
	UserName       string `bun:"user_name,notnull"`
	Username       string `bun:"username,notnull"`
	FullName       string `bun:"full_name"`
	Email          string `bun:"email"`
}

type tokenModel struct {
	bun.BaseModel `bun:"table:tokens,alias:tkn"`

	ID        uuid.UUID `bun:"id,pk,type:uuid"`
	Hash      string    `bun:"hash,notnull,unique"`
	TokenType string    `bun:"token_type,notnull"`
	TokenName string    `bun:"token_name"`
	UserName  string    `bun:"user_name,notnull"`
	Created   int64     `bun:"created,notnull"`
	Expires   int64     `bun:"expires,notnull"`
}

// tempTokenModel holds either a JSON identity set or a handshake error,
// never both.
type tempTokenModel struct {
	bun.BaseModel `bun:"table:temp_tokens,alias:tmp"`

	ID         uuid.UUID `bun:"id,pk,type:uuid"`
	Hash       string    `bun:"hash,notnull,unique"`
	Created    int64     `bun:"created,notnull"`
	Expires    int64     `bun:"expires,notnull"`
	Identities []byte    `bun:"identities"`
	Error      string    `bun:"error"`
	ErrorCode  string    `bun:"error_code"`
}

type customRoleModel struct {
	bun.BaseModel `bun:"table:custom_roles,alias:crl"`

	ID          string `bun:"id,pk"`
	Description string `bun:"description,notnull"`
}

type configModel struct {
	bun.BaseModel `bun:"table:config,alias:cfg"`

	Scope string `bun:"scope,pk"`
	Key   string `bun:"key,pk"`
	Value string `bun:"value,notnull"`
}

func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func toMillisPtr(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	ms := t.UnixMilli()
	return &ms
}
