package controllers

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/luispontes/ContaCerta/app/repository"
	"github.com/luispontes/ContaCerta/internal/pkg/middleware"
	"github.com/luispontes/ContaCerta/internal/pkg/session"
	"github.com/luispontes/ContaCerta/internal/pkg/usercontext"
)

// AuthController handles session login for provisioned accounts.
type AuthController struct {
	Users repository.UserRepository
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// HandleLogin verifies credentials and opens a session. Unknown email and
// wrong password produce the same response on purpose.
func (ac *AuthController) HandleLogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{
			Error:   "bad_request",
			Message: "Corpo da requisição inválido.",
		})
	}
	if err := validator.New().Struct(req); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(errorResponse{
			Error:   "validation_failed",
			Message: err.Error(),
		})
	}

	user, err := ac.Users.GetByEmail(req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return invalidCredentials(c)
		}
		return writeError(c, err)
	}
	if !user.CheckPassword(req.Password) {
		return invalidCredentials(c)
	}
	if !user.IsActive() {
		return c.Status(fiber.StatusForbidden).JSON(errorResponse{
			Error:   "account_disabled",
			Message: "Esta conta está desativada. Entre em contato com o suporte.",
		})
	}

	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		return writeError(c, err)
	}
	sess.Set(middleware.SessionKeyUserID, user.ID)
	sess.Set(middleware.SessionKeyUserName, user.Name)
	sess.Set(middleware.SessionKeyIsAdmin, user.IsAdmin())
	if err := sess.Save(); err != nil {
		return writeError(c, err)
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := ac.Users.Update(user); err != nil {
		log.Errorf("[Auth] updating last login for user %d: %v", user.ID, err)
	}

	return c.JSON(fiber.Map{"user": user})
}

// HandleLogout destroys the session.
func (ac *AuthController) HandleLogout(c *fiber.Ctx) error {
	sess, err := session.GetSessionStore().Get(c)
	if err == nil {
		_ = sess.Destroy()
	}
	return c.JSON(fiber.Map{"logged_out": true})
}

// HandleMe returns the logged-in user's profile.
func (ac *AuthController) HandleMe(c *fiber.Ctx) error {
	user, err := ac.Users.GetByID(usercontext.GetUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"user": user})
}

func invalidCredentials(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(errorResponse{
		Error:   "invalid_credentials",
		Message: "E-mail ou senha incorretos.",
	})
}
