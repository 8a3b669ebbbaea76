package api

import (
	"errors"
	"net/http"

	"huletfish/internal/apperror"
	"huletfish/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

const CodeInvalidRequest = "InvalidRequest"

// Validation reasons that describe a lost race for capacity rather than bad
// input.
var conflictReasons = map[string]bool{
	"SlotFull":        true,
	"SlotUnavailable": true,
}

// FieldError describes one failed binding rule.
type FieldError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

// StatusFor maps a classified error to its HTTP status. Unclassified errors
// are internal.
func StatusFor(err error) int {
	appErr, ok := apperror.As(err)
	if !ok {
		return http.StatusInternalServerError
	}

	switch appErr.Kind {
	case apperror.KindValidation:
		if conflictReasons[appErr.Reason] {
			return http.StatusConflict
		}
		return http.StatusBadRequest
	case apperror.KindNotFound:
		return http.StatusNotFound
	case apperror.KindAuthorization:
		return http.StatusForbidden
	case apperror.KindState, apperror.KindConcurrencyConflict:
		return http.StatusConflict
	case apperror.KindCancellationWindow:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// RespondError writes err as an ErrorResponse. Internal errors are logged and
// their text is not exposed.
func RespondError(c *gin.Context, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error("request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"error", err,
		)
		c.JSON(status, ErrorResponse{Error: "internal server error"})
		return
	}

	appErr, _ := apperror.As(err)
	c.JSON(status, ErrorResponse{Error: appErr.Message, Code: appErr.Reason})
}

// RespondBindError reports a request that failed JSON binding or struct
// validation.
func RespondBindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: CodeInvalidRequest})
		return
	}

	details := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, FieldError{
			Field:   fe.Namespace(),
			Tag:     fe.Tag(),
			Message: fieldMessage(fe),
		})
	}
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   "validation failed",
		Code:    CodeInvalidRequest,
		Details: details,
	})
}

func BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message, Code: CodeInvalidRequest})
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return fe.Field() + " must be a valid email address"
	case "min":
		return fe.Field() + " must be at least " + fe.Param()
	case "max":
		return fe.Field() + " must be at most " + fe.Param()
	case "gte":
		return fe.Field() + " must be greater than or equal to " + fe.Param()
	case "lte":
		return fe.Field() + " must be less than or equal to " + fe.Param()
	case "oneof":
		return fe.Field() + " must be one of: " + fe.Param()
	case "hhmm":
		return fe.Field() + " must be a time in HH:MM format"
	case "datetime":
		return fe.Field() + " must match " + fe.Param()
	default:
		return fe.Field() + " is invalid"
	}
}
