package middleware

import (
	"errors"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yukikurage/project-tracker-api/internal/auth"
	"github.com/yukikurage/project-tracker-api/internal/constants"
	apierrors "github.com/yukikurage/project-tracker-api/internal/errors"
	"github.com/yukikurage/project-tracker-api/internal/models"
	"github.com/yukikurage/project-tracker-api/internal/repository"
	"gorm.io/gorm"
)

// ResolveIdentity loads the caller from a bearer token or the session and
// stores it in the context. It never rejects a request; the gates that
// follow decide what an anonymous caller may do.
func ResolveIdentity(userRepo repository.UserRepository, tokens *auth.TokenIssuer, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := bearerUserID(c, tokens)
		if !ok {
			userID, ok = sessionUserID(c)
		}

		if ok {
			user, err := userRepo.FindByID(userID)
			switch {
			case err == nil:
				c.Set(constants.ContextKeyCaller, user)
				c.Set(constants.ContextKeyUserID, user.ID)
			case !errors.Is(err, gorm.ErrRecordNotFound):
				log.WithError(err).WithField("user_id", userID).Error("Failed to resolve caller")
			}
		}

		c.Next()
	}
}

// RequireAuth rejects requests without a resolved caller
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetCaller(c) == nil {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetCaller returns the resolved caller, or nil for anonymous requests
func GetCaller(c *gin.Context) *models.User {
	value, exists := c.Get(constants.ContextKeyCaller)
	if !exists {
		return nil
	}
	user, _ := value.(*models.User)
	return user
}

// GetUserID retrieves the current user ID from context
func GetUserID(c *gin.Context) (uint64, bool) {
	userID, exists := c.Get(constants.ContextKeyUserID)
	if !exists {
		return 0, false
	}
	return toUint64(userID)
}

func bearerUserID(c *gin.Context, tokens *auth.TokenIssuer) (uint64, bool) {
	header := c.GetHeader("Authorization")
	if header == "" || tokens == nil {
		return 0, false
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return 0, false
	}

	userID, err := tokens.Parse(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, false
	}
	return userID, true
}

func sessionUserID(c *gin.Context) (uint64, bool) {
	// Routers without a session store still resolve bearer tokens
	if _, exists := c.Get(sessions.DefaultKey); !exists {
		return 0, false
	}

	session := sessions.Default(c)
	value := session.Get(constants.ContextKeyUserID)
	if value == nil {
		return 0, false
	}
	return toUint64(value)
}

func toUint64(value interface{}) (uint64, bool) {
	switch v := value.(type) {
	case uint64:
		return v, true
	case uint:
		return uint64(v), true
	case int:
		if v < 0 {
			return 0, false
		}
		return uint64(v), true
	case int64:
		if v < 0 {
			return 0, false
		}
		return uint64(v), true
	default:
		return 0, false
	}
}
