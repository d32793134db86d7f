package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"imgnote/models"
)

// imageFilter reports whether the caller may see an image.
func (impl *ServerImpl) imageFilter(c *gin.Context) func(*models.Image) bool {
	viewer, _ := currentUser(c)
	return func(image *models.Image) bool {
		return impl.canView(viewer, image)
	}
}

type annotationRequest struct {
	Name string `json:"name" binding:"required,max=50"`
}

func (impl *ServerImpl) getAnnotations(c *gin.Context) {
	tags, err := impl.repo.ListAnnotationsWithImages(c.Request.Context())
	if err != nil {
		impl.respondError(c, "getAnnotations", err)
		return
	}
	visible := impl.imageFilter(c)
	c.JSON(http.StatusOK, mapViews(tags, func(tag models.Annotation) annotationView {
		return newAnnotationView(tag, visible)
	}))
}

func (impl *ServerImpl) getAnnotation(c *gin.Context) {
	id, ok := uuidParam(c, "annotationID")
	if !ok {
		return
	}
	tag, err := impl.repo.GetAnnotation(c.Request.Context(), id)
	if err != nil {
		impl.respondError(c, "getAnnotation", err)
		return
	}
	c.JSON(http.StatusOK, newAnnotationView(*tag, impl.imageFilter(c)))
}

func (impl *ServerImpl) postAnnotation(c *gin.Context) {
	var req annotationRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		badRequest(c, "Invalid annotation")
		return
	}
	tag, err := impl.repo.CreateAnnotation(c.Request.Context(), strings.TrimSpace(req.Name))
	if err != nil {
		impl.respondError(c, "postAnnotation", err)
		return
	}
	c.Header("Location", fmt.Sprintf("/annotation/%s", tag.ID))
	c.JSON(http.StatusCreated, newAnnotationView(*tag, impl.imageFilter(c)))
}

func (impl *ServerImpl) putAnnotation(c *gin.Context) {
	id, ok := uuidParam(c, "annotationID")
	if !ok {
		return
	}
	var req annotationRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		badRequest(c, "Invalid annotation")
		return
	}
	tag, err := impl.repo.RenameAnnotation(c.Request.Context(), id, strings.TrimSpace(req.Name))
	if err != nil {
		impl.respondError(c, "putAnnotation", err)
		return
	}
	c.JSON(http.StatusOK, newAnnotationView(*tag, impl.imageFilter(c)))
}

// deleteAnnotation detaches the tag from every image; the images stay.
func (impl *ServerImpl) deleteAnnotation(c *gin.Context) {
	id, ok := uuidParam(c, "annotationID")
	if !ok {
		return
	}
	if err := impl.repo.DeleteAnnotation(c.Request.Context(), id); err != nil {
		impl.respondError(c, "deleteAnnotation", err)
		return
	}
	c.Status(http.StatusNoContent)
}
