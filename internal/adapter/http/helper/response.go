package helper

import (
	"net/http"

	. "simpletodo/internal/adapter/http/validation"
	"simpletodo/internal/core/model/response"
	"simpletodo/pkg/tracing"

	"github.com/gin-gonic/gin"
)

func SendSuccess(c *gin.Context, statusCode int, data any) {
	c.JSON(statusCode, data)
}

func SendMessage(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, response.MessageResponse{Message: message})
}

// SendError writes the error envelope. detail is the human readable summary
// clients show as is.
func SendError(c *gin.Context, statusCode int, code string, detail string, errors []response.ValidationError, details ...any) {
	if errors == nil {
		errors = []response.ValidationError{}
	}

	errorResponse := response.ErrorResponse{
		Detail: detail,
		Error: response.ResponseError{
			Code:   code,
			Errors: errors,
		},
	}

	if len(details) > 0 {
		errorResponse.Error.Details = details[0]
	}

	c.AbortWithStatusJSON(statusCode, errorResponse)
}

func SendValidationError(c *gin.Context, err error) {
	validationErrors := FormatValidationErrors(err)

	detail := "Validation failed"
	if len(validationErrors) > 0 {
		detail = validationErrors[0].Message
	}

	SendError(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", detail, validationErrors)
}

// SendBadRequestError reports a request that could not be decoded, such as
// malformed JSON or a non integer id. It shares the validation status code.
func SendBadRequestError(c *gin.Context, field string, message string) {
	errors := []response.ValidationError{
		{
			Field:   field,
			Message: message,
		},
	}

	SendError(c, http.StatusUnprocessableEntity, "VALIDATION_ERROR", message, errors)
}

func SendNotFoundError(c *gin.Context, message string) {
	errors := []response.ValidationError{
		{
			Field:   "resource",
			Message: message,
		},
	}

	SendError(c, http.StatusNotFound, "NOT_FOUND", message, errors)
}

func SendInternalError(c *gin.Context, message string) {
	errors := []response.ValidationError{
		{
			Field:   "server",
			Message: message,
		},
	}

	var details any
	if traceID := tracing.GetTraceID(c.Request.Context()); traceID != "" {
		details = map[string]string{"trace_id": traceID}
	}

	SendError(c, http.StatusInternalServerError, "INTERNAL_ERROR", message, errors, details)
}
