package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Gelou69/Prof-Final-Project-Public-Admin/internal/auth"
	"github.com/Gelou69/Prof-Final-Project-Public-Admin/internal/console"
	"github.com/Gelou69/Prof-Final-Project-Public-Admin/internal/entity"
	"github.com/Gelou69/Prof-Final-Project-Public-Admin/internal/repository"
)

// errorStatus maps domain errors to HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, console.ErrNotSignedIn),
		errors.Is(err, console.ErrBadToken),
		errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrEmailNotConfirmed):
		return http.StatusUnauthorized
	case errors.Is(err, console.ErrNoSelection),
		errors.Is(err, console.ErrNoOpenForm),
		errors.Is(err, auth.ErrEmailTaken):
		return http.StatusConflict
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, repository.ErrForeignKey),
		errors.Is(err, auth.ErrInvalidEmail),
		errors.Is(err, auth.ErrWeakPassword):
		return http.StatusUnprocessableEntity
	case errors.Is(err, entity.ErrInvalidStatus),
		errors.Is(err, entity.ErrInvalidQuantity),
		errors.Is(err, entity.ErrInvalidAmount),
		errors.Is(err, entity.ErrMissingField),
		errors.Is(err, console.ErrUnknownTab),
		errors.Is(err, auth.ErrInvalidToken):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	status := errorStatus(err)
	c.JSON(status, ErrorResponse{
		Error:     http.StatusText(status),
		Message:   err.Error(),
		Timestamp: time.Now().UTC(),
	})
}

// writeAuthError reports a failed sign-in or sign-up with the message the
// console shows the operator.
func writeAuthError(c *gin.Context, err error, message string) {
	status := errorStatus(err)
	c.JSON(status, ErrorResponse{
		Error:     http.StatusText(status),
		Message:   message,
		Timestamp: time.Now().UTC(),
	})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:     "Bad Request",
		Message:   err.Error(),
		Timestamp: time.Now().UTC(),
	})
}
