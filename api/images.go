package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"imgnote/adapters/database"
	internalS3 "imgnote/adapters/s3"
	"imgnote/models"
)

const (
	defaultUploadMaxBytes = 10 << 20
	sseKeepAlive          = 30 * time.Second
)

type updateImageRequest struct {
	Filename *string `json:"filename" binding:"omitempty,min=1,max=255"`
	IsPublic *bool   `json:"isPublic"`
}

func (impl *ServerImpl) getImages(c *gin.Context) {
	images, err := impl.repo.ListImages(c.Request.Context())
	if err != nil {
		impl.respondError(c, "getImages", err)
		return
	}
	c.JSON(http.StatusOK, impl.visibleImages(c, images))
}

// getImagesByUser accepts either the user id or the username.
func (impl *ServerImpl) getImagesByUser(c *gin.Context) {
	const op = "getImagesByUser"
	ctx := c.Request.Context()
	userID, err := uuid.Parse(c.Param("userID"))
	if err != nil {
		user, err := impl.repo.GetUserByUsername(ctx, c.Param("userID"))
		if err != nil {
			impl.respondError(c, op, err)
			return
		}
		userID = user.ID
	} else if _, err := impl.repo.GetUser(ctx, userID); err != nil {
		impl.respondError(c, op, err)
		return
	}
	images, err := impl.repo.ListImagesByUser(ctx, userID)
	if err != nil {
		impl.respondError(c, op, err)
		return
	}
	c.JSON(http.StatusOK, impl.visibleImages(c, images))
}

func (impl *ServerImpl) visibleImages(c *gin.Context, images []models.Image) []imageView {
	viewer, _ := currentUser(c)
	images = lo.Filter(images, func(img models.Image, _ int) bool {
		return impl.canView(viewer, &img)
	})
	return mapViews(images, newImageView)
}

// postImage stores a multipart upload under the field "file". The optional form
// fields "filename" and "isPublic" override the uploaded name and default visibility.
func (impl *ServerImpl) postImage(c *gin.Context) {
	const op = "postImage"
	user, _ := currentUser(c)
	ctx := c.Request.Context()

	if limit := impl.config.Upload.RateLimitPerHour; limit > 0 {
		n, err := impl.repo.CountImagesSince(ctx, user.ID, time.Now().Add(-time.Hour))
		if err != nil {
			impl.respondError(c, op, err)
			return
		}
		if n >= limit {
			c.JSON(http.StatusTooManyRequests, messageView{Message: fmt.Sprintf("Upload limit of %d images per hour reached", limit)})
			return
		}
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "Missing file")
		return
	}
	content, err := impl.readUpload(fileHeader)
	var limitErr *internalS3.ReachLimitError
	if errors.As(err, &limitErr) {
		badRequest(c, fmt.Sprintf("File too large, %s", limitErr))
		return
	}
	if err != nil {
		impl.respondError(c, op, err)
		return
	}
	mimeType := http.DetectContentType(content)
	ok, ext := internalS3.CheckSecureImageAndGetExtension(mimeType)
	if !ok {
		badRequest(c, fmt.Sprintf("Unsupported file type %s", mimeType))
		return
	}

	filename := filepath.Base(strings.TrimSpace(c.DefaultPostForm("filename", fileHeader.Filename)))
	if filename == "" || filename == "." || filename == "/" {
		filename = "image." + ext
	}
	isPublic := true
	if raw, ok := c.GetPostForm("isPublic"); ok {
		isPublic, err = strconv.ParseBool(raw)
		if err != nil {
			badRequest(c, "Invalid isPublic")
			return
		}
	}

	image := models.Image{
		UserID:   user.ID,
		Filename: filename,
		IsPublic: isPublic,
	}
	if impl.uploader != nil {
		key := fmt.Sprintf("%s/%s.%s", user.ID, uuid.NewString(), ext)
		image.URL, err = impl.uploader.UploadFileToS3(ctx, key, mimeType, content)
		if err != nil {
			impl.respondError(c, op, err)
			return
		}
	}
	if err := impl.repo.CreateImage(ctx, &image); err != nil {
		impl.deleteObject(c, image.URL)
		impl.respondError(c, op, err)
		return
	}
	if _, err := impl.summaries.Recompute(ctx, image.ID); err != nil {
		impl.respondError(c, op, err)
		return
	}
	impl.logger.Info("Image uploaded",
		slog.String("image", image.ID.String()),
		slog.String("user", user.ID.String()),
		slog.String("size", internalS3.FormatBytes(int64(len(content)))),
	)
	c.Header("Location", fmt.Sprintf("/image/%s", image.ID))
	c.JSON(http.StatusCreated, newImageView(image))
}

func (impl *ServerImpl) readUpload(fileHeader *multipart.FileHeader) ([]byte, error) {
	f, err := fileHeader.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	maxBytes := impl.config.Upload.MaxBytes
	if maxBytes <= 0 {
		maxBytes = defaultUploadMaxBytes
	}
	return io.ReadAll(internalS3.NewMaxSizeReader(f, maxBytes))
}

// loadVisibleImage answers 404 or 403 itself and reports whether the caller may go on.
func (impl *ServerImpl) loadVisibleImage(c *gin.Context, op string) (*models.Image, bool) {
	id, ok := uuidParam(c, "imageID")
	if !ok {
		return nil, false
	}
	image, err := impl.repo.GetImage(c.Request.Context(), id)
	if err != nil {
		impl.respondError(c, op, err)
		return nil, false
	}
	viewer, _ := currentUser(c)
	if !impl.canView(viewer, image) {
		forbidden(c)
		return nil, false
	}
	return image, true
}

// getImage is the observation that drives the annotation status forward.
func (impl *ServerImpl) getImage(c *gin.Context) {
	const op = "getImage"
	image, ok := impl.loadVisibleImage(c, op)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if err := impl.annotations.Trigger(ctx, image.ID); err != nil {
		impl.respondError(c, op, err)
		return
	}
	detail, err := impl.repo.GetImageDetail(ctx, image.ID)
	if err != nil {
		impl.respondError(c, op, err)
		return
	}
	c.JSON(http.StatusOK, newImageView(*detail))
}

func (impl *ServerImpl) putImage(c *gin.Context) {
	const op = "putImage"
	id, ok := uuidParam(c, "imageID")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	image, err := impl.repo.GetImage(ctx, id)
	if err != nil {
		impl.respondError(c, op, err)
		return
	}
	caller, _ := currentUser(c)
	if !impl.ownerOrAdmin(caller, image.UserID) {
		forbidden(c)
		return
	}
	var req updateImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid image")
		return
	}
	if req.Filename != nil {
		req.Filename = lo.ToPtr(filepath.Base(strings.TrimSpace(*req.Filename)))
	}
	updated, err := impl.repo.UpdateImage(ctx, id, database.ImageUpdate{
		Filename: req.Filename,
		IsPublic: req.IsPublic,
	})
	if err != nil {
		impl.respondError(c, op, err)
		return
	}
	c.JSON(http.StatusOK, newImageView(*updated))
}

func (impl *ServerImpl) deleteImage(c *gin.Context) {
	const op = "deleteImage"
	id, ok := uuidParam(c, "imageID")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	image, err := impl.repo.GetImage(ctx, id)
	if err != nil {
		impl.respondError(c, op, err)
		return
	}
	caller, _ := currentUser(c)
	if !impl.ownerOrAdmin(caller, image.UserID) {
		forbidden(c)
		return
	}
	if err := impl.repo.DeleteImage(ctx, id); err != nil {
		impl.respondError(c, op, err)
		return
	}
	impl.deleteObject(c, image.URL)
	c.Status(http.StatusNoContent)
}

// deleteObject removes a stored file; a failure leaves an orphan object and is only logged.
func (impl *ServerImpl) deleteObject(c *gin.Context, url string) {
	if impl.uploader == nil || url == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), 10*time.Second)
	defer cancel()
	if err := impl.uploader.DeleteObject(ctx, url); err != nil {
		impl.logger.Warn("Fail to delete stored image", slog.String("url", url), slog.Any("error", err))
	}
}

func (impl *ServerImpl) getImageComments(c *gin.Context) {
	const op = "getImageComments"
	image, ok := impl.loadVisibleImage(c, op)
	if !ok {
		return
	}
	comments, err := impl.repo.ListCommentsByImage(c.Request.Context(), image.ID)
	if err != nil {
		impl.respondError(c, op, err)
		return
	}
	c.JSON(http.StatusOK, mapViews(comments, newCommentView))
}

func (impl *ServerImpl) getImageSummary(c *gin.Context) {
	const op = "getImageSummary"
	image, ok := impl.loadVisibleImage(c, op)
	if !ok {
		return
	}
	summary, err := impl.repo.FindSummaryByImage(c.Request.Context(), image.ID)
	if errors.Is(err, models.ErrNotFound) {
		notFound(c, "Summary")
		return
	}
	if err != nil {
		impl.respondError(c, op, err)
		return
	}
	c.JSON(http.StatusOK, newSummaryView(*summary))
}

// getImageEvents streams the annotation and summary events of one image.
func (impl *ServerImpl) getImageEvents(c *gin.Context) {
	const op = "getImageEvents"
	image, ok := impl.loadVisibleImage(c, op)
	if !ok {
		return
	}
	channel := image.ID.String()
	ch, err := impl.sseManager.Subscribe(channel)
	if err != nil {
		impl.respondError(c, op, err)
		return
	}
	defer impl.sseManager.Unsubscribe(channel, ch)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Writer.WriteHeaderNow()
	c.Writer.Flush()
	ticker := time.NewTicker(sseKeepAlive)
	defer ticker.Stop()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case event, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent(string(event.Kind), event)
			return true
		case <-ticker.C:
			// comment line so that proxies keep the connection open
			_, err := io.WriteString(w, ":\n\n")
			return err == nil
		}
	})
}
