package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"imgnote/models"
)

const userContextKey = "imgnote.user"

// accessToken reads the bearer token, falling back to the access_token cookie.
func accessToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	cookie, err := c.Cookie(accessTokenCookie)
	if err != nil {
		return ""
	}
	return cookie
}

func (impl *ServerImpl) authenticate(c *gin.Context) (*models.User, error) {
	token := accessToken(c)
	if token == "" {
		return nil, errInvalidCredentials
	}
	claims, err := impl.parseJWT(token)
	if err != nil {
		return nil, err
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, errInvalidCredentials
	}
	user, err := impl.repo.GetUser(c.Request.Context(), userID)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// OptionalUser stores the caller in the context when a valid token is sent and lets
// anonymous requests through.
func (impl *ServerImpl) OptionalUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if user, err := impl.authenticate(c); err == nil {
			c.Set(userContextKey, user)
		}
		c.Next()
	}
}

// RequireUser rejects requests without a valid token with 401.
func (impl *ServerImpl) RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := impl.authenticate(c)
		if err != nil {
			if !errors.Is(err, errInvalidCredentials) && !errors.Is(err, models.ErrNotFound) {
				impl.logger.Debug("Reject token", slog.Any("error", err))
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, messageView{Message: "Authentication required"})
			return
		}
		c.Set(userContextKey, user)
		c.Next()
	}
}

// RequireAdmin must run after RequireUser.
func (impl *ServerImpl) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, messageView{Message: "Authentication required"})
			return
		}
		if !impl.isAdmin(user) {
			c.AbortWithStatusJSON(http.StatusForbidden, messageView{Message: "Admin only"})
			return
		}
		c.Next()
	}
}

func currentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(userContextKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok && user != nil
}

func (impl *ServerImpl) isAdmin(user *models.User) bool {
	return user != nil && impl.adminID != uuid.Nil && user.ID == impl.adminID
}

// reservedUsername reports whether name is the configured admin name, which only
// the bootstrapped admin account may carry.
func (impl *ServerImpl) reservedUsername(name string) bool {
	admin := impl.config.Auth.AdminUsername
	return admin != "" && strings.EqualFold(strings.TrimSpace(name), admin)
}

func (impl *ServerImpl) ownerOrAdmin(user *models.User, ownerID uuid.UUID) bool {
	return user != nil && (user.ID == ownerID || impl.isAdmin(user))
}

// canView reports whether viewer (possibly nil) may see image.
func (impl *ServerImpl) canView(viewer *models.User, image *models.Image) bool {
	return image.IsPublic || impl.ownerOrAdmin(viewer, image.UserID)
}
