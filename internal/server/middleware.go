package server

import (
	"github.com/gin-gonic/gin"
)

const (
	contextUserIDKey   = "user_id"
	contextUserRoleKey = "user_role"
)

func serveIndex(c *gin.Context) {
	c.File("./public/index.html")
}

func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := s.sessions.ReadToken(c)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		auth, err := s.authsvc.Authenticate(c.Request.Context(), token)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		c.Set(contextUserIDKey, auth.User.ID.String())
		c.Set(contextUserRoleKey, string(auth.User.Role))
		c.Next()
	}
}

// authorize enforces the casbin policy for the authenticated user. It runs
// after AuthRequired, which stores the user id and role in the gin context.
func (s *Server) authorize(object, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString(contextUserIDKey)
		role := c.GetString(contextUserRoleKey)
		if userID == "" || role == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		if err := s.authzSvc.Authorize(c.Request.Context(), userID, role, object, action); err != nil {
			AbortWithError(c, err)
			return
		}

		c.Next()
	}
}
