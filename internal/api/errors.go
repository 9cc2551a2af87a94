package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/guestbook-api/internal/validation"
	"github.com/guestbook-api/pkg/apperrors"
	"github.com/rs/zerolog"
)

type errorBody struct {
	Error   string                       `json:"error"`
	Code    apperrors.Code               `json:"code"`
	Details []validation.ValidationError `json:"details,omitempty"`
}

func statusFor(code apperrors.Code) int {
	switch code {
	case apperrors.CodeInvalidArgument:
		return http.StatusBadRequest
	case apperrors.CodeUnauthenticated:
		return http.StatusUnauthorized
	case apperrors.CodePermissionDenied:
		return http.StatusForbidden
	case apperrors.CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as JSON. Internal causes are logged, never returned.
func respondError(c *gin.Context, log zerolog.Logger, err error) {
	code := apperrors.CodeOf(err)
	status := statusFor(code)

	message := "internal server error"
	var appErr *apperrors.AppError
	if status != http.StatusInternalServerError && errors.As(err, &appErr) {
		message = appErr.Message
	}
	if status == http.StatusInternalServerError {
		code = apperrors.CodeInternal
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Request failed")
	}

	c.AbortWithStatusJSON(status, errorBody{Error: message, Code: code})
}

// respondBindError reports a malformed or invalid request body
func respondBindError(c *gin.Context, err error) {
	body := errorBody{Error: "invalid request body", Code: apperrors.CodeInvalidArgument}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		body.Error = "validation failed"
		for _, fe := range verrs {
			body.Details = append(body.Details, validation.ValidationError{
				Field:   fe.Field(),
				Message: describeTag(fe),
				Value:   fe.Value(),
			})
		}
	}

	c.AbortWithStatusJSON(http.StatusBadRequest, body)
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case validation.ContentTag:
		return "must be 1 to 500 characters after trimming"
	case "oneof":
		return "must be one of: " + fe.Param()
	default:
		return "failed " + fe.Tag() + " validation"
	}
}
