package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/gophupload/internal/common"
	"github.com/dmitrijs2005/gophupload/internal/server/auth"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	uploaderKey  = "uploader"
	requestIDKey = "requestID"
)

func (s *HTTPServer) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(common.RequestIDHeaderName)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(common.RequestIDHeaderName, id)
		c.Next()
	}
}

// accessToken accepts "Authorization: Bearer <jwt>" or the access_token header.
func (s *HTTPServer) accessToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader(common.AccessTokenHeaderName)
		if h := c.GetHeader("Authorization"); token == "" && h != "" {
			if after, ok := strings.CutPrefix(h, "Bearer "); ok {
				token = strings.TrimSpace(after)
			}
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}

		uploader, err := auth.GetSubjectFromToken(token, s.jwtSecret)
		if err != nil {
			msg := "invalid token"
			if errors.Is(err, common.ErrTokenExpired) {
				msg = "token expired"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
			return
		}

		c.Set(uploaderKey, uploader)
		c.Next()
	}
}
