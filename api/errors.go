package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"imgnote/models"
)

type messageView struct {
	Message string `json:"message"`
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, messageView{Message: message})
}

func forbidden(c *gin.Context) {
	c.JSON(http.StatusForbidden, messageView{Message: "Permission denied"})
}

func notFound(c *gin.Context, what string) {
	c.JSON(http.StatusNotFound, messageView{Message: what + " not found"})
}

// respondError maps err onto a status code; anything unexpected is logged and
// reported as 500 without details.
func (impl *ServerImpl) respondError(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, messageView{Message: "Resource not found"})
	case errors.Is(err, models.ErrConflict):
		c.JSON(http.StatusConflict, messageView{Message: "Resource already exists"})
	default:
		impl.logger.Error("Request failed", slog.String("op", op), slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, messageView{Message: "Internal server error"})
	}
}

// uuidParam parses the path parameter name and answers 400 when it is malformed.
func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		badRequest(c, "Invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}
