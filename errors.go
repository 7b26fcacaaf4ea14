package authcore

import (
	"github.com/goliatone/go-errors"
)

// Text codes shared with API consumers. Callers should branch on these (or
// on the sentinel errors below via errors.Is) rather than on message text.
const (
	TextCodeNoSuchUser        = "no_such_user"
	TextCodeNoSuchLocalUser   = "no_such_local_user"
	TextCodeNoSuchToken       = "no_such_token"
	TextCodeNoSuchRole        = "no_such_role"
	TextCodeNoSuchIdentity    = "no_such_identity"
	TextCodeUserExists        = "user_exists"
	TextCodeTokenExists       = "token_exists"
	TextCodeInvalidToken      = "invalid_token"
	TextCodeInvalidCredential = "invalid_credential"
	TextCodeDisabledUser      = "account_disabled"
	TextCodeUnauthorized      = "unauthorized"
	TextCodeIdentityLinked    = "identity_linked"
	TextCodeLinkFailed        = "link_failed"
	TextCodeUnlinkFailed      = "unlink_failed"
	TextCodePasswordReset     = "password_reset_required"
	TextCodeIllegalParameter  = "illegal_parameter"
	TextCodeMissingParameter  = "missing_parameter"
	TextCodeConfigMapping     = "external_config_mapping"
	TextCodeStorage           = "storage_unavailable"
	TextCodeConsistency       = "storage_consistency"
)

// ErrNoSuchUser is returned when a user name does not resolve to an account.
var ErrNoSuchUser = errors.New("no such user", errors.CategoryNotFound).
	WithTextCode(TextCodeNoSuchUser).
	WithCode(errors.CodeNotFound)

// ErrNoSuchLocalUser is returned when the account exists but is not local,
// or does not exist at all, on operations that require a password credential.
var ErrNoSuchLocalUser = errors.New("no such local user", errors.CategoryNotFound).
	WithTextCode(TextCodeNoSuchLocalUser).
	WithCode(errors.CodeNotFound)

// ErrNoSuchToken is returned by storage lookups when a token hash or id is
// absent, including records that have passed their expiry.
var ErrNoSuchToken = errors.New("no such token", errors.CategoryNotFound).
	WithTextCode(TextCodeNoSuchToken).
	WithCode(errors.CodeNotFound)

// ErrNoSuchRole is returned when a referenced custom role is not defined.
var ErrNoSuchRole = errors.New("no such role", errors.CategoryNotFound).
	WithTextCode(TextCodeNoSuchRole).
	WithCode(errors.CodeNotFound)

// ErrNoSuchIdentity is returned when an account does not hold the remote
// identity named in the request.
var ErrNoSuchIdentity = errors.New("no such identity", errors.CategoryNotFound).
	WithTextCode(TextCodeNoSuchIdentity).
	WithCode(errors.CodeNotFound)

// ErrUserExists is returned when an account creation races or repeats a
// taken user name.
var ErrUserExists = errors.New("user already exists", errors.CategoryConflict).
	WithTextCode(TextCodeUserExists).
	WithCode(errors.CodeConflict)

// ErrTokenAlreadyExists signals a duplicate token id or hash on store. Token
// ids and secrets are generated internally, so a collision is a caller or
// generator defect, not a recoverable domain condition.
var ErrTokenAlreadyExists = errors.New("token already exists", errors.CategoryInternal).
	WithTextCode(TextCodeTokenExists).
	WithCode(errors.CodeInternal)

// ErrInvalidToken is returned for any token that does not resolve: absent,
// expired, or malformed all collapse to this error so the caller learns
// nothing about which it was.
var ErrInvalidToken = errors.New("invalid token", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidToken).
	WithCode(errors.CodeUnauthorized)

// ErrInvalidCredentials is returned on a failed password comparison.
var ErrInvalidCredentials = errors.New("invalid credentials", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredential).
	WithCode(errors.CodeUnauthorized)

// ErrDisabledUser is returned when a disabled account presents a token or
// credentials. Raised lazily on use, after the account's tokens are purged.
var ErrDisabledUser = errors.New("account disabled", errors.CategoryAuth).
	WithTextCode(TextCodeDisabledUser).
	WithCode(errors.CodeUnauthorized)

// ErrUnauthorized is returned when the caller's current roles or token type
// do not permit the operation.
var ErrUnauthorized = errors.New("unauthorized", errors.CategoryAuthz).
	WithTextCode(TextCodeUnauthorized).
	WithCode(errors.CodeForbidden)

// ErrIdentityLinked is returned when a remote identity already belongs to a
// different account.
var ErrIdentityLinked = errors.New("remote identity already linked", errors.CategoryConflict).
	WithTextCode(TextCodeIdentityLinked).
	WithCode(errors.CodeConflict)

// ErrLinkFailed is returned when an identity cannot be linked to the
// account, e.g. because the account is local.
var ErrLinkFailed = errors.New("link failed", errors.CategoryValidation).
	WithTextCode(TextCodeLinkFailed).
	WithCode(errors.CodeBadRequest)

// ErrUnlinkFailed is returned when removing an identity would leave the
// account without any authentication method, or the account is local.
var ErrUnlinkFailed = errors.New("unlink failed", errors.CategoryValidation).
	WithTextCode(TextCodeUnlinkFailed).
	WithCode(errors.CodeBadRequest)

// ErrPasswordResetRequired is returned at login when the account must set a
// new password before proceeding.
var ErrPasswordResetRequired = errors.New("password reset required", errors.CategoryAuth).
	WithTextCode(TextCodePasswordReset).
	WithCode(errors.CodeUnauthorized)

// ErrConfigMapping is returned when the injected external config mapper
// rejects the stored key/value map. Distinct from storage failure.
var ErrConfigMapping = errors.New("external config mapping failed", errors.CategoryBadInput).
	WithTextCode(TextCodeConfigMapping).
	WithCode(errors.CodeBadRequest)

// ErrStorage is returned for storage connectivity or backend failure. The
// engine never retries; retry policy belongs to the storage implementation
// or its caller.
var ErrStorage = errors.New("storage unavailable", errors.CategoryInternal).
	WithTextCode(TextCodeStorage).
	WithCode(errors.CodeInternal)

// ErrRuntimeConsistency signals broken referential integrity inside the
// storage system (e.g. a valid token whose owner record is missing). It is
// a defect, is never caught in the core, and must terminate the request
// path loudly.
var ErrRuntimeConsistency = errors.New("storage consistency violation", errors.CategoryInternal).
	WithTextCode(TextCodeConsistency).
	WithCode(errors.CodeInternal)

// illegalParameter builds a validation error for a malformed value object.
func illegalParameter(msg string) *errors.Error {
	return errors.New(msg, errors.CategoryValidation).
		WithTextCode(TextCodeIllegalParameter).
		WithCode(errors.CodeBadRequest)
}

// missingParameter builds a validation error for an absent required value.
func missingParameter(name string) *errors.Error {
	return errors.New("missing argument: "+name, errors.CategoryValidation).
		WithTextCode(TextCodeMissingParameter).
		WithCode(errors.CodeBadRequest)
}

// storageError wraps a backend failure, preserving the cause for logs while
// callers match on ErrStorage.
func storageError(err error, msg string) *errors.Error {
	return errors.Wrap(err, errors.CategoryInternal, msg).
		WithTextCode(TextCodeStorage).
		WithCode(errors.CodeInternal)
}

// IsValidationError reports whether err came from value object construction.
func IsValidationError(err error) bool {
	var rich *errors.Error
	if !errors.As(err, &rich) {
		return false
	}
	return rich.Category == errors.CategoryValidation &&
		(rich.TextCode == TextCodeIllegalParameter || rich.TextCode == TextCodeMissingParameter)
}
