package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/coursepack/internal/platform/apierr"
)

func TestRespondAPIError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	err := apierr.New(http.StatusBadRequest, "validation_failed", errors.New("bad")).
		WithDetails([]string{"Course title is required"})
	RespondAPIError(c, "Validation failed", err)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status=%d want 400", rec.Code)
	}
	var body ErrorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Message != "Validation failed" || body.Code != "validation_failed" {
		t.Fatalf("unexpected body %+v", body)
	}
	if len(body.Errors) != 1 || body.Errors[0] != "Course title is required" {
		t.Fatalf("unexpected errors %v", body.Errors)
	}
}

func TestRespondAPIErrorPlain(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	RespondAPIError(c, "", errors.New("disk full"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d want 500", rec.Code)
	}
	var body ErrorBody
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	if body.Message != "disk full" {
		t.Fatalf("message=%q", body.Message)
	}
}
