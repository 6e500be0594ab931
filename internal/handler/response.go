package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"studybuddy/internal/domain"
	"studybuddy/internal/extract"
)

// ErrorResponse is the envelope for every failed request.
type ErrorResponse struct {
	OK      bool   `json:"ok"`
	Error   string `json:"error"`
	RawText string `json:"rawText,omitempty"`
}

// RespondOK sends a 200 response. body must carry its own `ok` field.
func RespondOK(c *gin.Context, body interface{}) {
	c.JSON(http.StatusOK, body)
}

// RespondError sends an error response with the given status code.
func RespondError(c *gin.Context, status int, msg string) {
	c.JSON(status, ErrorResponse{OK: false, Error: msg})
}

// MapDomainError translates domain errors to HTTP status codes and messages.
func MapDomainError(err error) (status int, msg string) {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		return http.StatusBadRequest, invalidRequestMessage(err)
	case errors.Is(err, domain.ErrUnsupportedFormat):
		return http.StatusBadRequest, "unsupported format; allowed: csv, xlsx"
	case errors.Is(err, domain.ErrConfiguration):
		return http.StatusInternalServerError, "generation provider is not configured"
	case errors.Is(err, domain.ErrUpstream):
		return http.StatusInternalServerError, "generation provider request failed"
	case errors.Is(err, domain.ErrEmptyInput):
		return http.StatusInternalServerError, "generation provider returned an empty reply"
	case errors.Is(err, domain.ErrUnparsableStructure):
		return http.StatusInternalServerError, "could not parse structured reply"
	default:
		return http.StatusInternalServerError, "an internal error occurred"
	}
}

// invalidRequestMessage keeps the field-level detail ("syllabus required")
// and drops the sentinel suffix.
func invalidRequestMessage(err error) string {
	msg := strings.TrimSuffix(err.Error(), ": "+domain.ErrInvalidRequest.Error())
	if msg == "" || msg == domain.ErrInvalidRequest.Error() {
		return "invalid request"
	}
	return msg
}

// HandleError maps a domain error and sends the appropriate error response.
// Extraction failures carry the (truncated) model text back as rawText.
func HandleError(c *gin.Context, err error) {
	status, msg := MapDomainError(err)
	resp := ErrorResponse{OK: false, Error: msg}

	var exErr *extract.Error
	if errors.As(err, &exErr) {
		resp.RawText = exErr.Text
	}

	if status >= 500 {
		zerolog.Ctx(c.Request.Context()).Error().
			Err(err).
			Msg("request failed")
	}
	c.JSON(status, resp)
}

// MethodNotAllowed answers requests whose path exists under another method.
func MethodNotAllowed(c *gin.Context) {
	msg := "POST only"
	if strings.HasPrefix(c.Request.URL.Path, "/api/health") || strings.HasPrefix(c.Request.URL.Path, "/api/ready") {
		msg = "GET only"
	}
	RespondError(c, http.StatusMethodNotAllowed, msg)
}
