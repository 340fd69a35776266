package response

import "github.com/gin-gonic/gin"

// Error is the extras payload of a failed response.
type Error struct {
	Message string `json:"message"`
}

func (e Error) Error() string {
	return e.Message
}

// AbortWithError writes an error response and stops the remaining handlers.
func AbortWithError(c *gin.Context, code int, message string) {
	ErrorResponse(c, code, message)
	c.Abort()
}
