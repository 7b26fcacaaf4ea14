package authcore_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halvard-io/authcore"
)

func TestNewUserNameAcceptsValidNames(t *testing.T) {
	for _, s := range []string{"a", "bilbo", "frodo_baggins", "x9", "user_2"} {
		n, err := authcore.NewUserName(s)
		require.NoError(t, err, s)
		assert.Equal(t, s, n.String())
		assert.False(t, n.IsRoot())
	}
}

func TestNewUserNameRejectsIllegalNames(t *testing.T) {
	for _, s := range []string{"", "9lives", "_under", "UPPER", "has space", "has-dash", "***ROOT***"} {
		_, err := authcore.NewUserName(s)
		require.Error(t, err, s)
		assert.True(t, authcore.IsValidationError(err), s)
	}
}

func TestRootSentinelCannotBeConstructed(t *testing.T) {
	_, err := authcore.NewUserName(string(authcore.RootUserName))
	require.Error(t, err)
	assert.True(t, authcore.RootUserName.IsRoot())
}

func TestNewDisplayNameRejectsControlCharacters(t *testing.T) {
	_, err := authcore.NewDisplayName("Bilbo\x00Baggins")
	require.Error(t, err)

	d, err := authcore.NewDisplayName("  Bilbo Baggins  ")
	require.NoError(t, err)
	assert.Equal(t, "Bilbo Baggins", d.String())
}

func TestNewEmailAddressValidates(t *testing.T) {
	e, err := authcore.NewEmailAddress("bilbo@example.com")
	require.NoError(t, err)
	assert.True(t, e.IsKnown())

	_, err = authcore.NewEmailAddress("not an email")
	require.Error(t, err)

	assert.False(t, authcore.UnknownEmail.IsKnown())
}

func TestNewCustomRoleValidatesID(t *testing.T) {
	role, err := authcore.NewCustomRole(" curator ", " May curate datasets ")
	require.NoError(t, err)
	assert.Equal(t, "curator", role.ID)
	assert.Equal(t, "May curate datasets", role.Description)

	_, err = authcore.NewCustomRole("cur ator", "desc")
	require.Error(t, err)

	_, err = authcore.NewCustomRole("curator", "")
	require.Error(t, err)
}

func TestNewPolicyIDRejectsWhitespace(t *testing.T) {
	p, err := authcore.NewPolicyID("data-terms.2")
	require.NoError(t, err)
	assert.Equal(t, "data-terms.2", p.String())

	_, err = authcore.NewPolicyID("has space")
	require.Error(t, err)

	_, err = authcore.NewPolicyID("this_policy_id_is_way_too_long")
	require.Error(t, err)
}

func TestParseRole(t *testing.T) {
	r, ok := authcore.ParseRole("Admin")
	assert.True(t, ok)
	assert.Equal(t, authcore.RoleAdmin, r)

	_, ok = authcore.ParseRole("SuperUser")
	assert.False(t, ok)
}
