package handler

import (
	"encoding/json"
	"errors"
	"io"

	"github.com/gin-gonic/gin"

	apperrors "github.com/jwalitptl/visit-logger/pkg/errors"
)

// ContextDoctorID is the gin context key the auth middleware stores the
// authenticated doctor id under.
const ContextDoctorID = "doctor_id"

// DoctorID returns the authenticated doctor. Routes behind the auth
// middleware always have one.
func DoctorID(c *gin.Context) string {
	return c.GetString(ContextDoctorID)
}

// Fail hands err to the error middleware and stops the chain.
func Fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// BadRequest reports a bind or decode failure.
func BadRequest(c *gin.Context, message string, err error) {
	Fail(c, apperrors.BadRequest(message, err))
}

// BindJSON decodes the body into dst. A missing body or a field of the wrong
// JSON type is reported with shapeMessage; anything else is a malformed body.
func BindJSON(c *gin.Context, dst interface{}, shapeMessage string) bool {
	err := c.ShouldBindJSON(dst)
	if err == nil {
		return true
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) || errors.Is(err, io.EOF) {
		BadRequest(c, shapeMessage, err)
		return false
	}
	BadRequest(c, "Invalid request body", err)
	return false
}
