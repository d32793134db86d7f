package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"imgnote/models"
)

type createCommentRequest struct {
	ImageID uuid.UUID `json:"imageId" binding:"required"`
	Body    string    `json:"body" binding:"required"`
}

type updateCommentRequest struct {
	Body string `json:"body" binding:"required"`
}

// sanitizeBody strips every HTML tag from a comment body.
func (impl *ServerImpl) sanitizeBody(body string) string {
	return strings.TrimSpace(impl.htmlChecker.Sanitize(body))
}

// postComment stores the comment of the caller and refreshes the image summary.
func (impl *ServerImpl) postComment(c *gin.Context) {
	const op = "postComment"
	var req createCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid comment")
		return
	}
	body := impl.sanitizeBody(req.Body)
	if body == "" {
		badRequest(c, "Comment body is empty")
		return
	}
	ctx := c.Request.Context()
	user, _ := currentUser(c)
	image, err := impl.repo.GetImage(ctx, req.ImageID)
	if err != nil {
		impl.respondError(c, op, err)
		return
	}
	if !impl.canView(user, image) {
		forbidden(c)
		return
	}
	comment := models.Comment{
		Body:    body,
		UserID:  user.ID,
		ImageID: image.ID,
	}
	if err := impl.repo.CreateComment(ctx, &comment); err != nil {
		impl.respondError(c, op, err)
		return
	}
	if _, err := impl.summaries.Recompute(ctx, image.ID); err != nil {
		impl.respondError(c, op, err)
		return
	}
	c.Header("Location", fmt.Sprintf("/comment/%s", comment.ID))
	c.JSON(http.StatusCreated, newCommentView(comment))
}

func (impl *ServerImpl) getComments(c *gin.Context) {
	const op = "getComments"
	comments, err := impl.repo.ListComments(c.Request.Context())
	if err != nil {
		impl.respondError(c, op, err)
		return
	}
	visible, err := impl.visibleComments(c, comments)
	if err != nil {
		impl.respondError(c, op, err)
		return
	}
	c.JSON(http.StatusOK, mapViews(visible, newCommentView))
}

func (impl *ServerImpl) getComment(c *gin.Context) {
	const op = "getComment"
	id, ok := uuidParam(c, "commentID")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	comment, err := impl.repo.GetComment(ctx, id)
	if err != nil {
		impl.respondError(c, op, err)
		return
	}
	image, err := impl.repo.GetImage(ctx, comment.ImageID)
	if err != nil {
		impl.respondError(c, op, err)
		return
	}
	viewer, _ := currentUser(c)
	if !impl.canView(viewer, image) {
		forbidden(c)
		return
	}
	c.JSON(http.StatusOK, newCommentView(*comment))
}

func (impl *ServerImpl) getCommentsByUser(c *gin.Context) {
	const op = "getCommentsByUser"
	id, ok := uuidParam(c, "userID")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if _, err := impl.repo.GetUser(ctx, id); err != nil {
		impl.respondError(c, op, err)
		return
	}
	comments, err := impl.repo.ListCommentsByUser(ctx, id)
	if err != nil {
		impl.respondError(c, op, err)
		return
	}
	visible, err := impl.visibleComments(c, comments)
	if err != nil {
		impl.respondError(c, op, err)
		return
	}
	c.JSON(http.StatusOK, mapViews(visible, newCommentView))
}

// visibleComments drops the comments on images the caller may not view.
func (impl *ServerImpl) visibleComments(c *gin.Context, comments []models.Comment) ([]models.Comment, error) {
	viewer, _ := currentUser(c)
	allowed := make(map[uuid.UUID]bool)
	visible := make([]models.Comment, 0, len(comments))
	for _, comment := range comments {
		ok, seen := allowed[comment.ImageID]
		if !seen {
			image, err := impl.repo.GetImage(c.Request.Context(), comment.ImageID)
			switch {
			case errors.Is(err, models.ErrNotFound):
				ok = false
			case err != nil:
				return nil, err
			default:
				ok = impl.canView(viewer, image)
			}
			allowed[comment.ImageID] = ok
		}
		if ok {
			visible = append(visible, comment)
		}
	}
	return visible, nil
}

func (impl *ServerImpl) getCommentsByImage(c *gin.Context) {
	impl.getImageComments(c)
}

func (impl *ServerImpl) putComment(c *gin.Context) {
	const op = "putComment"
	id, ok := uuidParam(c, "commentID")
	if !ok {
		return
	}
	var req updateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid comment")
		return
	}
	body := impl.sanitizeBody(req.Body)
	if body == "" {
		badRequest(c, "Comment body is empty")
		return
	}
	ctx := c.Request.Context()
	comment, err := impl.repo.GetComment(ctx, id)
	if err != nil {
		impl.respondError(c, op, err)
		return
	}
	caller, _ := currentUser(c)
	if !impl.ownerOrAdmin(caller, comment.UserID) {
		forbidden(c)
		return
	}
	updated, err := impl.repo.UpdateComment(ctx, id, body)
	if err != nil {
		impl.respondError(c, op, err)
		return
	}
	if _, err := impl.summaries.Recompute(ctx, updated.ImageID); err != nil {
		impl.respondError(c, op, err)
		return
	}
	c.JSON(http.StatusOK, newCommentView(*updated))
}

// deleteComment keeps the image id of the comment before removing it so that the
// summary of that image can be recomputed afterwards.
func (impl *ServerImpl) deleteComment(c *gin.Context) {
	const op = "deleteComment"
	id, ok := uuidParam(c, "commentID")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	comment, err := impl.repo.GetComment(ctx, id)
	if err != nil {
		impl.respondError(c, op, err)
		return
	}
	caller, _ := currentUser(c)
	if !impl.ownerOrAdmin(caller, comment.UserID) {
		forbidden(c)
		return
	}
	imageID := comment.ImageID
	if err := impl.repo.DeleteComment(ctx, id); err != nil {
		impl.respondError(c, op, err)
		return
	}
	if _, err := impl.summaries.Recompute(ctx, imageID); err != nil {
		impl.respondError(c, op, err)
		return
	}
	c.Status(http.StatusNoContent)
}
