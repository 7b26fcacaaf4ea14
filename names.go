package authcore

import (
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// RootUserName is the reserved name of the bootstrap superuser. The root
// account is seeded out-of-band: it can never be produced by NewUserName and
// never created through the standard user creation paths.
const RootUserName UserName = "***ROOT***"

var userNameRegexp = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// UserName is a validated account handle, unique per account and immutable.
type UserName string

// NewUserName validates and returns a user name. Names are lowercase ASCII,
// start with a letter, and are at most 100 characters. The root sentinel is
// rejected here by construction since it cannot match the pattern.
func NewUserName(name string) (UserName, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", missingParameter("user name")
	}
	if err := validation.Validate(name,
		validation.Length(1, 100),
		validation.Match(userNameRegexp),
	); err != nil {
		return "", illegalParameter("illegal user name: " + err.Error())
	}
	return UserName(name), nil
}

// IsRoot reports whether this is the root sentinel.
func (n UserName) IsRoot() bool {
	return n == RootUserName
}

func (n UserName) String() string {
	return string(n)
}

// DisplayName is a validated, non-unique, immutable display string.
type DisplayName string

// NewDisplayName validates and returns a display name.
func NewDisplayName(name string) (DisplayName, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", missingParameter("display name")
	}
	if err := validation.Validate(name,
		validation.Length(1, 100),
		validation.By(noControlChars),
	); err != nil {
		return "", illegalParameter("illegal display name: " + err.Error())
	}
	return DisplayName(name), nil
}

func (n DisplayName) String() string {
	return string(n)
}

// UnknownEmail is the zero email address, used for accounts whose address
// was never provided. It is valid and renders as an empty string.
const UnknownEmail EmailAddress = ""

// EmailAddress is a validated, non-unique, immutable address. The zero value
// means "unknown".
type EmailAddress string

// NewEmailAddress validates and returns an email address.
func NewEmailAddress(email string) (EmailAddress, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", missingParameter("email address")
	}
	if err := validation.Validate(email,
		validation.Length(3, 1000),
		is.Email,
	); err != nil {
		return "", illegalParameter("illegal email address: " + err.Error())
	}
	return EmailAddress(email), nil
}

// IsKnown reports whether the address was actually provided.
func (e EmailAddress) IsKnown() bool {
	return e != UnknownEmail
}

func (e EmailAddress) String() string {
	return string(e)
}

func noControlChars(value any) error {
	s, _ := value.(string)
	for _, r := range s {
		if r < 0x20 || r == 0x7f {
			return errControlChars
		}
	}
	return nil
}

var errControlChars = illegalParameter("control characters are not allowed")
