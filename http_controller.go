package authcore

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// Controller exposes the engine over HTTP. It stays thin: parse, call,
// translate the error, and nothing else.
type Controller struct {
	auth   *Auth
	logger Logger
}

func NewController(auth *Auth, logger Logger) *Controller {
	if logger == nil {
		logger = defLogger{}
	}
	return &Controller{auth: auth, logger: logger}
}

// RegisterRoutes mounts the endpoints on the given router group.
func (ctl *Controller) RegisterRoutes(r fiber.Router) {
	r.Post("/login", ctl.Login)
	r.Post("/logout", ctl.Logout)
	r.Get("/me", ctl.Me)
	r.Get("/users/:name", ctl.User)
	r.Get("/tokens", ctl.Tokens)
	r.Post("/tokens", ctl.CreateToken)
	r.Delete("/tokens/:id", ctl.RevokeToken)
}

type loginRequest struct {
	Username  string `json:"username" form:"username"`
	Password  string `json:"password" form:"password"`
	TokenName string `json:"token_name" form:"token_name"`
	Session   bool   `json:"session" form:"session"`
}

func (ctl *Controller) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return ctl.fail(c, illegalParameter("malformed login request"))
	}
	name, err := NewUserName(req.Username)
	if err != nil {
		return ctl.fail(c, err)
	}
	nt, err := ctl.auth.Login(c.Context(), name, req.Password, req.TokenName)
	if err != nil {
		return ctl.fail(c, err)
	}
	c.Cookie(&fiber.Cookie{
		Name:     TokenCookieName,
		Value:    nt.Token,
		MaxAge:   CookieMaxAge(nt.Expires, nt.Created, req.Session),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
	return c.JSON(fiber.Map{
		"id":      nt.ID,
		"user":    nt.UserName,
		"created": nt.Created.UnixMilli(),
		"expires": nt.Expires.UnixMilli(),
	})
}

func (ctl *Controller) Logout(c *fiber.Ctx) error {
	token := TokenFromCookie(c)
	st, err := ctl.auth.GetToken(c.Context(), token)
	if err != nil {
		return ctl.fail(c, err)
	}
	if err := ctl.auth.RevokeToken(c.Context(), token, st.ID); err != nil {
		return ctl.fail(c, err)
	}
	c.Cookie(&fiber.Cookie{
		Name:     TokenCookieName,
		Value:    "",
		MaxAge:   0,
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
	return c.SendStatus(http.StatusNoContent)
}

func (ctl *Controller) Me(c *fiber.Ctx) error {
	u, err := ctl.auth.GetUser(c.Context(), TokenFromCookie(c))
	if err != nil {
		return ctl.fail(c, err)
	}
	return c.JSON(u)
}

func (ctl *Controller) User(c *fiber.Ctx) error {
	name, err := NewUserName(c.Params("name"))
	if err != nil {
		return ctl.fail(c, err)
	}
	view, err := ctl.auth.GetUserView(c.Context(), TokenFromCookie(c), name)
	if err != nil {
		return ctl.fail(c, err)
	}
	return c.JSON(fiber.Map{
		"user":    view.UserName(),
		"display": view.DisplayName(),
		"email":   view.Email(),
	})
}

func (ctl *Controller) Tokens(c *fiber.Ctx) error {
	tokens, err := ctl.auth.GetTokens(c.Context(), TokenFromCookie(c))
	if err != nil {
		return ctl.fail(c, err)
	}
	return c.JSON(tokens)
}

type createTokenRequest struct {
	Name string `json:"name" form:"name"`
	Type string `json:"type" form:"type"`
}

func (ctl *Controller) CreateToken(c *fiber.Ctx) error {
	var req createTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return ctl.fail(c, illegalParameter("malformed token request"))
	}
	nt, err := ctl.auth.CreateToken(c.Context(), TokenFromCookie(c), req.Name, TokenType(req.Type))
	if err != nil {
		return ctl.fail(c, err)
	}
	return c.JSON(fiber.Map{
		"id":      nt.ID,
		"token":   nt.Token,
		"type":    nt.Type,
		"expires": nt.Expires.UnixMilli(),
	})
}

func (ctl *Controller) RevokeToken(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return ctl.fail(c, illegalParameter("malformed token id"))
	}
	if err := ctl.auth.RevokeToken(c.Context(), TokenFromCookie(c), id); err != nil {
		return ctl.fail(c, err)
	}
	return c.SendStatus(http.StatusNoContent)
}

func (ctl *Controller) fail(c *fiber.Ctx, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	if richErr.Category == errors.CategoryInternal {
		ctl.logger.Error("Request failed: %s (%s)", richErr.Message, richErr.TextCode)
	} else {
		ctl.logger.Debug("Request rejected: %s (%s)", richErr.Message, richErr.TextCode)
	}

	status := richErr.Code
	if status < http.StatusBadRequest || status > http.StatusNetworkAuthenticationRequired {
		status = http.StatusInternalServerError
	}
	return c.Status(status).JSON(fiber.Map{
		"error":     richErr.Message,
		"text_code": richErr.TextCode,
	})
}
