package auth

import "github.com/gin-gonic/gin"

const (
	CtxUserID   = "user_id"
	CtxUsername = "username"
	CtxIsStaff  = "is_staff"
)

// CurrentUser extracts the authenticated identity from the Gin context.
// This is set by RequireUser.
func CurrentUser(c *gin.Context) Identity {
	return Identity{
		UserID:   c.GetString(CtxUserID),
		Username: c.GetString(CtxUsername),
		IsStaff:  c.GetBool(CtxIsStaff),
	}
}
