package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/glabspro/bee/internal/handler"
	apperrors "github.com/glabspro/bee/pkg/errors"
)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

var validationMessages = map[string]string{
	"required":  "Field is required",
	"email":     "Invalid email format",
	"min":       "Value is too short",
	"max":       "Value is too long",
	"hhmm":      "Must be a time of day as HH:MM",
	"civildate": "Must be a date as YYYY-MM-DD",
}

// ErrorHandler renders the last error a handler attached with c.Error.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err

		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]ValidationError, 0, len(verrs))
			for _, e := range verrs {
				msg := validationMessages[e.Tag()]
				if msg == "" {
					msg = e.Error()
				}
				fields = append(fields, ValidationError{Field: e.Field(), Message: msg})
			}
			resp := handler.NewErrorResponse("validation failed")
			resp.Data = fields
			c.JSON(http.StatusBadRequest, resp)
			return
		}

		status := apperrors.StatusOf(err)
		msg := err.Error()
		if status == http.StatusInternalServerError {
			msg = "internal server error"
		}
		c.JSON(status, handler.NewErrorResponse(msg))
	}
}
