package errors

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := New(CodeNotFound, "remote not found")

	assert.Equal(t, CodeNotFound, err.Code())
	assert.Equal(t, ClassificationPermanent, err.Classification())
	assert.Equal(t, "remote not found", err.Message())
	assert.Nil(t, err.Context())
	assert.Nil(t, err.Unwrap())
	assert.Equal(t, "[NOT_FOUND] remote not found", err.Error())
}

func TestNewf(t *testing.T) {
	err := Newf(CodeUsage, "merge accepts exactly one reference, got %d", 2)

	assert.Equal(t, CodeUsage, err.Code())
	assert.Equal(t, "merge accepts exactly one reference, got 2", err.Message())
}

func TestWrap(t *testing.T) {
	cause := stderrors.New("dial tcp: connection refused")

	tests := []struct {
		name      string
		err       error
		code      ErrorCode
		wantClass ErrorClassification
	}{
		{
			name:      "plain cause takes code classification",
			err:       cause,
			code:      CodeNetwork,
			wantClass: ClassificationRetryable,
		},
		{
			name:      "platform cause keeps its classification",
			err:       New(CodeNetwork, "fetch failed"),
			code:      CodeInternal,
			wantClass: ClassificationRetryable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := Wrap(tt.err, tt.code, "failed to fetch")
			require.NotNil(t, wrapped)
			assert.Equal(t, tt.code, wrapped.Code())
			assert.Equal(t, tt.wantClass, wrapped.Classification())
			assert.True(t, stderrors.Is(wrapped, tt.err))
		})
	}
}

func TestWrap_Nil(t *testing.T) {
	assert.Nil(t, Wrap(nil, CodeInternal, "nothing"))
	assert.Nil(t, Wrapf(nil, CodeInternal, "nothing %d", 1))
}

func TestWrapf(t *testing.T) {
	cause := stderrors.New("object missing")
	err := Wrapf(cause, CodeNotFound, "commit %s not found", "abc123")

	assert.Equal(t, "commit abc123 not found", err.Message())
	assert.Equal(t, "[NOT_FOUND] commit abc123 not found: object missing", err.Error())
}
