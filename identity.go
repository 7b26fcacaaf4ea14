package authcore

import (
	"strings"

	"github.com/google/uuid"
)

// RemoteIdentityID uniquely keys a provider-issued identity. At most one
// account may hold a given id at any time; the repository enforces this
// with a uniqueness constraint so the guarantee holds under concurrent
// link attempts.
type RemoteIdentityID struct {
	Provider       string
	ProviderUserID string
}

// NewRemoteIdentityID validates and returns a remote identity id.
func NewRemoteIdentityID(provider, providerUserID string) (RemoteIdentityID, error) {
	provider = strings.TrimSpace(provider)
	providerUserID = strings.TrimSpace(providerUserID)
	if provider == "" {
		return RemoteIdentityID{}, missingParameter("provider")
	}
	if providerUserID == "" {
		return RemoteIdentityID{}, missingParameter("provider user id")
	}
	return RemoteIdentityID{Provider: provider, ProviderUserID: providerUserID}, nil
}

// RemoteIdentityDetails are the provider-supplied, mutable parts of a
// remote identity. They are refreshed whenever the provider reports new
// values; equality of the identity itself is decided by RemoteIdentityID.
type RemoteIdentityDetails struct {
	Username string
	FullName string
	Email    string
}

// NewRemoteIdentityDetails validates and returns identity details. Full
// name and email may be empty; the provider username is required.
func NewRemoteIdentityDetails(username, fullName, email string) (RemoteIdentityDetails, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return RemoteIdentityDetails{}, missingParameter("provider username")
	}
	return RemoteIdentityDetails{
		Username: username,
		FullName: strings.TrimSpace(fullName),
		Email:    strings.TrimSpace(email),
	}, nil
}

// RemoteIdentity is an external-provider-issued identity record.
type RemoteIdentity struct {
	ID      RemoteIdentityID
	Details RemoteIdentityDetails
}

// NewRemoteIdentity builds a remote identity from its parts.
func NewRemoteIdentity(id RemoteIdentityID, details RemoteIdentityDetails) (RemoteIdentity, error) {
	if id.Provider == "" || id.ProviderUserID == "" {
		return RemoteIdentity{}, missingParameter("remote identity id")
	}
	if details.Username == "" {
		return RemoteIdentity{}, missingParameter("remote identity details")
	}
	return RemoteIdentity{ID: id, Details: details}, nil
}

// SameIdentity reports whether the two records name the same provider
// identity, regardless of detail differences.
func (r RemoteIdentity) SameIdentity(other RemoteIdentity) bool {
	return r.ID == other.ID
}

// WithLocalID attaches a locally generated correlation id for use during
// the temporary token handshake.
func (r RemoteIdentity) WithLocalID(id uuid.UUID) RemoteIdentityWithLocalID {
	return RemoteIdentityWithLocalID{LocalID: id, RemoteIdentity: r}
}

// RemoteIdentityWithLocalID is a remote identity plus a correlation uuid.
// The local id exists only so callers can pick one identity out of a
// handshake set; it is never persisted as the link itself.
type RemoteIdentityWithLocalID struct {
	LocalID uuid.UUID
	RemoteIdentity
}
