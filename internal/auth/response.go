package auth

import "github.com/gin-gonic/gin"

// Messages returned by guards. Clients match on these strings; keep them stable.
const (
	MsgUnauthorizedAccess = "unauthorize access"
	MsgForbiddenToken     = "forbidden token"
	MsgUnauthorizedUser   = "unauthorize user"
)

// ErrorBody is the JSON shape of every rejected request.
func ErrorBody(message string) gin.H {
	return gin.H{"error": true, "message": message}
}

// Abort stops the handler chain with an error body.
func Abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, ErrorBody(message))
}
