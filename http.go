package authcore

import (
	"math"
	"time"

	"github.com/gofiber/fiber/v2"
)

// TokenCookieName is the cookie carrying the bearer token secret.
const TokenCookieName = "authtoken"

// CookieMaxAge computes the Max-Age attribute for a token cookie. Session
// cookies get -1 so the browser drops them on close. Persistent cookies get
// the whole seconds remaining until expiry, never negative, clamped to the
// int32 range some agents require.
func CookieMaxAge(expires time.Time, now time.Time, session bool) int {
	if session {
		return -1
	}
	secs := expires.Sub(now).Milliseconds() / 1000
	if secs < 0 {
		return 0
	}
	if secs > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(secs)
}

// TokenFromCookie extracts the bearer token from the request cookie. An
// absent cookie yields the empty token; callers decide whether that is an
// error.
func TokenFromCookie(c *fiber.Ctx) IncomingToken {
	return IncomingToken(c.Cookies(TokenCookieName))
}

// RolesFromForm maps checked role form fields to the role enum. Unknown
// field names are ignored so the form can carry unrelated inputs.
func RolesFromForm(c *fiber.Ctx) []Role {
	roles := []Role{}
	for _, r := range Roles() {
		if r == RoleRoot {
			continue
		}
		if c.FormValue(string(r)) != "" {
			roles = append(roles, r)
		}
	}
	return roles
}
