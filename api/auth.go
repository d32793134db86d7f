package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"imgnote/models"
)

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password" binding:"required"`
}

type loginResponse struct {
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
	User        userView  `json:"user"`
}

// postLogin accepts a username or an email with the password, answers with a token
// and also sets it as an HTTP only cookie.
func (impl *ServerImpl) postLogin(c *gin.Context) {
	const op = "postLogin"
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid login request")
		return
	}
	ctx := c.Request.Context()
	var (
		user *models.User
		err  error
	)
	switch {
	case req.Username != "":
		user, err = impl.repo.GetUserByUsername(ctx, req.Username)
	case req.Email != "":
		user, err = impl.repo.GetUserByEmail(ctx, req.Email)
	default:
		badRequest(c, "Username or email is required")
		return
	}
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		impl.respondError(c, op, err)
		return
	}
	if user == nil || !checkPassword(user.PasswordHash, req.Password) {
		c.JSON(http.StatusUnauthorized, messageView{Message: errInvalidCredentials.Error()})
		return
	}

	token, expiresAt, err := impl.issueJWT(user)
	if err != nil {
		impl.respondError(c, op, err)
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(accessTokenCookie, token, int(time.Until(expiresAt).Seconds()), "/", "", impl.config.Auth.SecureCookie, true)
	c.JSON(http.StatusOK, loginResponse{
		AccessToken: token,
		ExpiresAt:   expiresAt,
		User:        newUserView(*user),
	})
}
