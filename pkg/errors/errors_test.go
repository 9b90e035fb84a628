package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromStatusCode(t *testing.T) {
	tests := []struct {
		code int
		want ErrorType
	}{
		{401, ErrorTypeAuth},
		{403, ErrorTypeAuth},
		{404, ErrorTypeNotFound},
		{429, ErrorTypeRateLimit},
		{500, ErrorTypeServerError},
		{503, ErrorTypeServerError},
		{400, ErrorTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.code), func(t *testing.T) {
			err := FromStatusCode(tt.code, "boom")
			assert.Equal(t, tt.want, err.Type)
			assert.Equal(t, tt.code, err.Code)
		})
	}
}

func TestIsMatchesByType(t *testing.T) {
	err := fmt.Errorf("cancel alice: %w", FromStatusCode(404, "page not found"))

	assert.True(t, stderrors.Is(err, ReasonNotFound))
	assert.False(t, stderrors.Is(err, ReasonAuth))
}

func TestUnwrap(t *testing.T) {
	inner := stderrors.New("connection reset")
	err := Wrap(ErrorTypeNetwork, "request failed", inner)

	assert.True(t, stderrors.Is(err, inner))
	assert.Equal(t, "network error: request failed", err.Error())
}

func TestInternal(t *testing.T) {
	err := Internal("nil map write")
	assert.Equal(t, ErrorTypeInternal, err.Type)
	assert.Contains(t, err.Error(), "panic: nil map write")

	cause := stderrors.New("index out of range")
	assert.True(t, stderrors.Is(Internal(cause), cause))
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

var _ net.Error = timeoutErr{}

func TestTypeOf(t *testing.T) {
	assert.Equal(t, ErrorType(""), TypeOf(nil))
	assert.Equal(t, ErrorTypeRateLimit, TypeOf(fmt.Errorf("x: %w", ReasonRateLimit)))
	assert.Equal(t, ErrorTypeCanceled, TypeOf(context.Canceled))
	assert.Equal(t, ErrorTypeNetwork, TypeOf(timeoutErr{}))
	assert.Equal(t, ErrorTypeUnknown, TypeOf(stderrors.New("mystery")))
}

func TestIsFatalForRun(t *testing.T) {
	assert.True(t, IsFatalForRun(ErrorTypeAuth))
	assert.False(t, IsFatalForRun(ErrorTypeNotFound))
	assert.False(t, IsFatalForRun(ErrorTypeRateLimit))
}
