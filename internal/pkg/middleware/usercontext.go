package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/luispontes/ContaCerta/internal/pkg/session"
	"github.com/luispontes/ContaCerta/internal/pkg/usercontext"
)

// Session keys written at login.
const (
	SessionKeyUserID   = "user_id"
	SessionKeyUserName = "username"
	SessionKeyIsAdmin  = "is_admin"
)

// UserContextMiddleware resolves the session into a UserContext for every
// request. Anonymous requests get a zero context rather than an error.
func UserContextMiddleware(c *fiber.Ctx) error {
	store := session.GetSessionStore()
	if store == nil {
		usercontext.Set(c, usercontext.UserContext{})
		return c.Next()
	}

	sess, err := store.Get(c)
	if err != nil {
		usercontext.Set(c, usercontext.UserContext{})
		return c.Next()
	}

	userID, ok := sess.Get(SessionKeyUserID).(uint)
	if !ok || userID == 0 {
		usercontext.Set(c, usercontext.UserContext{})
		return c.Next()
	}

	username, _ := sess.Get(SessionKeyUserName).(string)
	isAdmin, _ := sess.Get(SessionKeyIsAdmin).(bool)

	usercontext.Set(c, usercontext.UserContext{
		UserID:     userID,
		Username:   username,
		IsLoggedIn: true,
		IsAdmin:    isAdmin,
	})
	return c.Next()
}
