package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ayanna/internal/core/apperror"
	appctx "ayanna/internal/core/context"
	"ayanna/internal/core/id"
	"ayanna/internal/domain/catalog"
	"ayanna/internal/infrastructure/http/v1/dto"
	"ayanna/internal/infrastructure/http/v1/middleware"
)

// BaseHandler provides common handler utilities.
type BaseHandler struct{}

// NewBaseHandler creates a new base handler.
func NewBaseHandler() *BaseHandler {
	return &BaseHandler{}
}

// BindJSON binds and validates JSON request body.
func (h *BaseHandler) BindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		h.Error(c, apperror.NewValidation("invalid request body").WithDetail("error", err.Error()))
		return false
	}
	return true
}

// BindQuery binds and validates query parameters.
func (h *BaseHandler) BindQuery(c *gin.Context, obj any) bool {
	if err := c.ShouldBindQuery(obj); err != nil {
		h.Error(c, apperror.NewValidation("invalid query parameters").WithDetail("error", err.Error()))
		return false
	}
	return true
}

// Error registers err on the Gin context and aborts the request.
// The JSON body is produced by middleware.ErrorHandler.
func (h *BaseHandler) Error(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// PathID parses the UUID path parameter name.
func (h *BaseHandler) PathID(c *gin.Context, name string) (id.ID, bool) {
	v, err := dto.ParseID(name, c.Param(name))
	if err != nil {
		h.Error(c, err)
		return id.ID{}, false
	}
	return v, true
}

// PathModule parses the :module path parameter.
func (h *BaseHandler) PathModule(c *gin.Context) (catalog.Module, bool) {
	m := catalog.Module(c.Param("module"))
	if !m.Valid() {
		h.Error(c, apperror.NewValidation("unknown module").WithDetail("module", string(m)))
		return "", false
	}
	return m, true
}

// GetUserID returns the acting user, or "" for anonymous requests.
func (h *BaseHandler) GetUserID(c *gin.Context) string {
	if uid := appctx.AuthorID(c.Request.Context()); uid != nil {
		return uid.String()
	}
	return ""
}

// Created sends 201 response with data.
func (h *BaseHandler) Created(c *gin.Context, data any) {
	middleware.CompleteIdempotency(c, http.StatusCreated, "application/json", data)
	c.JSON(http.StatusCreated, data)
}

// OK sends 200 response with data.
func (h *BaseHandler) OK(c *gin.Context, data any) {
	middleware.CompleteIdempotency(c, http.StatusOK, "application/json", data)
	c.JSON(http.StatusOK, data)
}
