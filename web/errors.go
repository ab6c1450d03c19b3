package web

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
)

type apiError struct {
	code    int
	message string
}

func (e *apiError) Error() string {
	return e.message
}

func BadRequestError(message string) error {
	return &apiError{code: http.StatusBadRequest, message: message}
}

func NotFoundError(message string) error {
	return &apiError{code: http.StatusNotFound, message: message}
}

func UnprocessableEntityError(message string) error {
	return &apiError{code: http.StatusUnprocessableEntity, message: message}
}

// ErrorHandler renders errors attached to the context as a JSON response.
// Errors without an attached status code map to 500.
func ErrorHandler(c *gin.Context) {
	c.Next()

	if len(c.Errors) == 0 {
		return
	}

	lastError := c.Errors.Last()

	code := http.StatusInternalServerError
	var typedError *apiError
	if errors.As(lastError.Err, &typedError) {
		code = typedError.code
	}

	c.JSON(code, gin.H{"error": lastError.Error()})
}
