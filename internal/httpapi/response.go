package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/recall/internal/apperr"
	"github.com/abhisek/recall/internal/attempt"
)

// Error codes returned in the envelope.
const (
	CodeBadRequest       = "bad_request"
	CodeValidation       = "validation_failed"
	CodeInvalidQuality   = "invalid_quality"
	CodeInsufficientData = "insufficient_data"
	CodeNotFound         = "not_found"
	CodeConflict         = "conflict"
	CodeTooLarge         = "body_too_large"
	CodeInternal         = "internal"
)

type APIError struct {
	Message string   `json:"message"`
	Code    string   `json:"code,omitempty"`
	Details []string `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	apiErr := APIError{Message: msg, Code: code}
	var verr *attempt.ValidationError
	if errors.As(err, &verr) {
		for _, p := range verr.Problems {
			apiErr.Details = append(apiErr.Details, p.String())
		}
	}
	c.AbortWithStatusJSON(status, ErrorEnvelope{Error: apiErr})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// RespondFromError maps a domain error to its status and code. Internal
// errors are logged by the request logger and not echoed to the client.
func RespondFromError(c *gin.Context, err error) {
	status, code := classify(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		RespondError(c, status, code, errors.New("internal error"))
		return
	}
	RespondError(c, status, code, err)
}

func classify(err error) (int, string) {
	var verr *attempt.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, CodeValidation
	case errors.Is(err, apperr.ErrInvalidQuality):
		return http.StatusUnprocessableEntity, CodeInvalidQuality
	case errors.Is(err, apperr.ErrInsufficientData):
		return http.StatusNotFound, CodeInsufficientData
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound, CodeNotFound
	case errors.Is(err, apperr.ErrConflict):
		return http.StatusConflict, CodeConflict
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}
