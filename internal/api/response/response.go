package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the envelope of every REST reply.
type Response struct {
	Success bool `json:"success"`
	Code    int  `json:"code"`
	Extras  any  `json:"extras"`
}

func NewResponse(success bool, code int, extras any) Response {
	return Response{
		Success: success,
		Code:    code,
		Extras:  extras,
	}
}

// SuccessResponseContent returns a JSON response with a success message and content
func SuccessResponseContent(c *gin.Context, content string) {
	SuccessResponse(c, gin.H{"content": content})
}

// SuccessResponseList wraps list as {"list": [...], "count": n}. A nil list is sent as [].
func SuccessResponseList[T any](c *gin.Context, list []T) {
	if list == nil {
		list = []T{}
	}
	SuccessResponse(c, gin.H{
		"list":  list,
		"count": len(list),
	})
}

// SuccessResponse returns a JSON response with a success message with no type limitation
func SuccessResponse(c *gin.Context, extras any) {
	c.JSON(http.StatusOK, NewResponse(true, http.StatusOK, extras))
}

// ErrorResponse returns a JSON response with a failure message
func ErrorResponse(c *gin.Context, code int, message string) {
	c.JSON(code, NewResponse(false, code, Error{Message: message}))
}
