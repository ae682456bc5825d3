package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/glabspro/bee/internal/model"
)

type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Status: "success",
		Data:   data,
	}
}

func NewErrorResponse(message string) *Response {
	return &Response{
		Status:  "error",
		Message: message,
	}
}

// Respond writes a success envelope. A notice from a failed background sync
// travels in the message field.
func Respond(c *gin.Context, status int, data interface{}, notice *model.Notice) {
	resp := NewSuccessResponse(data)
	if notice != nil {
		resp.Message = notice.String()
	}
	c.JSON(status, resp)
}

func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, NewSuccessResponse(data))
}
