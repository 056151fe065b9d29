package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{name: "nil", err: nil, want: CodeUnknown},
		{name: "plain error", err: stderrors.New("boom"), want: CodeUnknown},
		{name: "platform error", err: New(CodeUnbornBranch, "no commits"), want: CodeUnbornBranch},
		{
			name: "wrapped with fmt",
			err:  fmt.Errorf("checkout: %w", New(CodeUncommitted, "dirty")),
			want: CodeUncommitted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetCode(tt.err))
		})
	}
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(New(CodeNetwork, "reset by peer")))
	assert.True(t, IsRetryable(fmt.Errorf("push: %w", New(CodeTimeout, "slow"))))
	assert.False(t, IsRetryable(New(CodeNonFastForward, "rejected")))
	assert.False(t, IsRetryable(stderrors.New("plain")))
	assert.False(t, IsRetryable(nil))
}

func TestIsAndAs(t *testing.T) {
	sentinel := stderrors.New("reference not found")
	err := Wrap(sentinel, CodeNotFound, "failed to resolve HEAD")

	assert.True(t, Is(err, sentinel))

	var platformErr PlatformError
	assert.True(t, As(fmt.Errorf("outer: %w", err), &platformErr))
	assert.Equal(t, CodeNotFound, platformErr.Code())
}
