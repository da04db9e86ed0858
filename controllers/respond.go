// Package controllers holds the gin handlers and the error -> HTTP status mapping they share.
package controllers

import (
	"context"
	"errors"
	"net/http"

	"SECUREATTEND/models"

	"github.com/gin-gonic/gin"
)

// statusClientClosedRequest is nginx's code for a client that went away mid-request.
const statusClientClosedRequest = 499

// ErrorStatus maps the error taxonomy onto HTTP status codes.
func ErrorStatus(err error) int {
	switch {
	case errors.Is(err, context.Canceled):
		return statusClientClosedRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	case errors.Is(err, models.ErrInvalidInput), errors.Is(err, models.ErrInvalidEmbedding):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrNoFaceDetected),
		errors.Is(err, models.ErrMultipleFacesDetected),
		errors.Is(err, models.ErrEmbeddingFailed),
		errors.Is(err, models.ErrDetectionFailed):
		return http.StatusUnprocessableEntity
	case errors.Is(err, models.ErrDuplicateName),
		errors.Is(err, models.ErrDuplicateRegNo),
		errors.Is(err, models.ErrNonMonotonic):
		return http.StatusConflict
	case errors.Is(err, models.ErrIdentityNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrLockTimeout), errors.Is(err, models.ErrPersistence):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// ErrorMessage gives the user actionable guidance for detection failures.
func ErrorMessage(err error) string {
	switch {
	case errors.Is(err, models.ErrNoFaceDetected):
		return "No face detected. Step closer to the camera and try again."
	case errors.Is(err, models.ErrMultipleFacesDetected):
		return "Multiple faces detected. Only one person may be in the photo."
	case errors.Is(err, models.ErrEmbeddingFailed), errors.Is(err, models.ErrDetectionFailed):
		return "Could not process the face. Please retake the photo."
	case errors.Is(err, models.ErrDuplicateName):
		return "User already registered."
	case errors.Is(err, models.ErrDuplicateRegNo):
		return "Registration number already in use."
	case errors.Is(err, models.ErrLockTimeout), errors.Is(err, models.ErrPersistence):
		return "Service is busy, please retry."
	default:
		return err.Error()
	}
}

// RespondError writes {"error": ...} with the mapped status and aborts the chain.
func RespondError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(ErrorStatus(err), gin.H{"error": ErrorMessage(err)})
}
