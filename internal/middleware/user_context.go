package middleware

import (
	"context"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"insurance-dms/internal/models"
)

const (
	SessionUserID  = "user_id"
	currentUserKey = "CurrentUser"
)

// UserLoader загружает пользователя по id; реализуется accounts.Service.
type UserLoader interface {
	Get(ctx context.Context, id uint) (*models.User, error)
}

// InjectUser кладёт в контекст активного пользователя из сессии.
// Удалённый или отключённый пользователь из сессии выкидывается.
func InjectUser(users UserLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := sessions.Default(c)

		if uid, ok := sess.Get(SessionUserID).(uint); ok && uid > 0 {
			u, err := users.Get(c.Request.Context(), uid)
			if err == nil && u.IsActive {
				SetCurrentUser(c, u)
			} else {
				sess.Delete(SessionUserID)
				_ = sess.Save()
			}
		}

		c.Next()
	}
}

func SetCurrentUser(c *gin.Context, u *models.User) {
	c.Set(currentUserKey, u)
}

// CurrentUser возвращает пользователя запроса или nil.
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(currentUserKey)
	if !ok {
		return nil
	}
	u, _ := v.(*models.User)
	return u
}

// Actor возвращает права текущего пользователя (пустой Actor для анонима).
func Actor(c *gin.Context) models.Actor {
	return models.ActorFor(CurrentUser(c))
}
