package middleware

import (
	"github.com/gin-gonic/gin"

	"ayanna/internal/core/apperror"
	appctx "ayanna/internal/core/context"
	"ayanna/internal/core/id"
)

const (
	HeaderUserID       = "X-User-ID"
	HeaderEnterpriseID = "X-Enterprise-ID"
)

// Author reads the acting user and enterprise from request headers and stores them
// in the request context, where every write records them. Both headers are optional;
// a malformed value is rejected.
func Author() gin.HandlerFunc {
	return func(c *gin.Context) {
		var author appctx.Author
		for _, h := range []struct {
			header string
			dst    *id.ID
		}{
			{HeaderUserID, &author.UserID},
			{HeaderEnterpriseID, &author.EnterpriseID},
		} {
			raw := c.GetHeader(h.header)
			if raw == "" {
				continue
			}
			v, err := id.Parse(raw)
			if err != nil {
				_ = c.Error(apperror.NewValidation("invalid " + h.header + " header").WithDetail("header", h.header))
				c.Abort()
				return
			}
			*h.dst = v
		}

		if !id.IsNil(author.UserID) || !id.IsNil(author.EnterpriseID) {
			c.Request = c.Request.WithContext(appctx.WithAuthor(c.Request.Context(), &author))
			c.Set("user_id", author.UserID.String())
		}
		c.Next()
	}
}
