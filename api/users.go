package api

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"imgnote/models"
)

type createUserRequest struct {
	Username string `json:"username" binding:"required,max=64"`
	Email    string `json:"email" binding:"required,email,max=120"`
	Password string `json:"password" binding:"required,min=6"`
}

type updateUserRequest struct {
	Username *string `json:"username" binding:"omitempty,min=1,max=64"`
	Email    *string `json:"email" binding:"omitempty,email,max=120"`
	Password *string `json:"password" binding:"omitempty,min=6"`
}

func (impl *ServerImpl) postUser(c *gin.Context) {
	const op = "postUser"
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid user")
		return
	}
	if impl.reservedUsername(req.Username) {
		badRequest(c, "Username is reserved")
		return
	}
	hash, err := hashPassword(req.Password)
	if err != nil {
		impl.respondError(c, op, err)
		return
	}
	user := models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
	}
	if err := impl.repo.CreateUser(c.Request.Context(), &user); err != nil {
		impl.respondError(c, op, err)
		return
	}
	c.Header("Location", fmt.Sprintf("/user/%s", user.ID))
	c.JSON(http.StatusCreated, newUserView(user))
}

func (impl *ServerImpl) getUsers(c *gin.Context) {
	users, err := impl.repo.ListUsers(c.Request.Context())
	if err != nil {
		impl.respondError(c, "getUsers", err)
		return
	}
	c.JSON(http.StatusOK, mapViews(users, newUserView))
}

func (impl *ServerImpl) getUser(c *gin.Context) {
	id, ok := uuidParam(c, "userID")
	if !ok {
		return
	}
	user, err := impl.repo.GetUser(c.Request.Context(), id)
	if err != nil {
		impl.respondError(c, "getUser", err)
		return
	}
	c.JSON(http.StatusOK, newUserView(*user))
}

func (impl *ServerImpl) getUserByEmail(c *gin.Context) {
	user, err := impl.repo.GetUserByEmail(c.Request.Context(), c.Param("email"))
	if err != nil {
		impl.respondError(c, "getUserByEmail", err)
		return
	}
	c.JSON(http.StatusOK, newUserView(*user))
}

func (impl *ServerImpl) getUserByUsername(c *gin.Context) {
	user, err := impl.repo.GetUserByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		impl.respondError(c, "getUserByUsername", err)
		return
	}
	c.JSON(http.StatusOK, newUserView(*user))
}

func (impl *ServerImpl) putUser(c *gin.Context) {
	const op = "putUser"
	id, ok := uuidParam(c, "userID")
	if !ok {
		return
	}
	caller, _ := currentUser(c)
	if !impl.ownerOrAdmin(caller, id) {
		forbidden(c)
		return
	}
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid user")
		return
	}
	ctx := c.Request.Context()
	user, err := impl.repo.GetUser(ctx, id)
	if err != nil {
		impl.respondError(c, op, err)
		return
	}
	if req.Username != nil {
		if impl.isAdmin(user) && *req.Username != user.Username {
			badRequest(c, "The admin account cannot be renamed")
			return
		}
		if !impl.isAdmin(user) && impl.reservedUsername(*req.Username) {
			badRequest(c, "Username is reserved")
			return
		}
		user.Username = *req.Username
	}
	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.Password != nil {
		hash, err := hashPassword(*req.Password)
		if err != nil {
			impl.respondError(c, op, err)
			return
		}
		user.PasswordHash = hash
	}
	if err := impl.repo.UpdateUser(ctx, user); err != nil {
		impl.respondError(c, op, err)
		return
	}
	c.JSON(http.StatusOK, newUserView(*user))
}

// deleteUser removes the account with its images and comments, then refreshes the
// summaries of the images the user had commented on.
func (impl *ServerImpl) deleteUser(c *gin.Context) {
	const op = "deleteUser"
	id, ok := uuidParam(c, "userID")
	if !ok {
		return
	}
	caller, _ := currentUser(c)
	if !impl.ownerOrAdmin(caller, id) {
		forbidden(c)
		return
	}
	ctx := c.Request.Context()
	user, err := impl.repo.GetUser(ctx, id)
	if err != nil {
		impl.respondError(c, op, err)
		return
	}
	if impl.isAdmin(user) {
		badRequest(c, "The admin account cannot be deleted")
		return
	}
	images, err := impl.repo.ListImagesByUser(ctx, id)
	if err != nil {
		impl.respondError(c, op, err)
		return
	}
	touched, err := impl.repo.DeleteUser(ctx, id)
	if err != nil {
		impl.respondError(c, op, err)
		return
	}
	for _, image := range images {
		impl.deleteObject(c, image.URL)
	}
	for _, imageID := range touched {
		if _, err := impl.summaries.Recompute(ctx, imageID); err != nil {
			impl.respondError(c, op, err)
			return
		}
	}
	impl.logger.Info("User deleted", slog.String("user", id.String()), slog.Int("images", len(images)))
	c.Status(http.StatusNoContent)
}
