package export

import (
	"context"
	"errors"
)

// PackageResult is the single outcome every emitter returns.
type PackageResult struct {
	Success     bool     `json:"success"`
	PackagePath string   `json:"packagePath,omitempty"`
	Filename    string   `json:"filename,omitempty"`
	Size        int64    `json:"size,omitempty"`
	Message     string   `json:"message"`
	Errors      []string `json:"errors,omitempty"`

	// Err keeps the typed cause of a failure for callers that map it to a status.
	Err error `json:"-"`
}

func Succeeded(path, filename string, size int64, message string) *PackageResult {
	return &PackageResult{
		Success:     true,
		PackagePath: path,
		Filename:    filename,
		Size:        size,
		Message:     message,
	}
}

// Failed builds a failure result from err. Validation errors contribute their
// full violation list.
func Failed(message string, err error) *PackageResult {
	res := &PackageResult{Success: false, Message: message, Err: err}
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		res.Errors = append([]string(nil), verr.Errors...)
	case err != nil:
		res.Errors = []string{err.Error()}
	}
	return res
}

// Emitter turns a course tree into a zipped package of one format.
type Emitter interface {
	CreatePackage(ctx context.Context, data *CourseData, opts PackageOptions) *PackageResult
}
