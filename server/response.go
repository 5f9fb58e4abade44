package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/plasma-umass/llm-utils/errors"
	"github.com/plasma-umass/llm-utils/validation"
)

// DataResponse is the standard success envelope.
type DataResponse struct {
	Data any `json:"data"`
}

// RespondWithError inspects err: if it is an *apperrors.AppError the status and
// structured body are derived automatically; otherwise a generic 500 is sent.
// The error is attached to the context for the request logger.
func RespondWithError(c *gin.Context, err error) {
	_ = c.Error(err)
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		c.JSON(appErr.HTTPStatus, appErr.ToResponse())
		return
	}
	c.JSON(http.StatusInternalServerError, apperrors.Internal(err).ToResponse())
}

// RespondOK sends a 200 response wrapping data.
func RespondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, DataResponse{Data: data})
}

// bind decodes the JSON body into dst and validates its tags. It writes the
// error response and returns false on failure.
func bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			RespondWithError(c, apperrors.New(apperrors.ErrCodeInvalidInput,
				"Request body too large.", http.StatusRequestEntityTooLarge).WithCause(err))
			return false
		}
		RespondWithError(c, apperrors.InvalidInput("body", err.Error()).WithCause(err))
		return false
	}
	if err := validation.Validate(dst); err != nil {
		RespondWithError(c, err)
		return false
	}
	return true
}
