package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/coursepack/internal/platform/apierr"
)

// ErrorBody is the JSON body of every non-2xx response. Errors lists the
// individual defects (e.g. each validation failure) when there is more than one.
type ErrorBody struct {
	Message string   `json:"message"`
	Code    string   `json:"code,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorBody{Message: msg, Code: code})
}

// RespondAPIError writes err with the status it carries. message overrides the
// error text when set.
func RespondAPIError(c *gin.Context, message string, err error) {
	body := ErrorBody{Message: message}
	var ae *apierr.Error
	if errors.As(err, &ae) {
		body.Code = ae.Code
		body.Errors = ae.Details
	}
	if body.Message == "" {
		body.Message = "unknown error"
		if err != nil {
			body.Message = err.Error()
		}
	}
	c.JSON(apierr.StatusOf(err), body)
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
