package errors

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorClassification_IsRetryable(t *testing.T) {
	tests := []struct {
		name           string
		classification ErrorClassification
		want           bool
	}{
		{name: "retryable", classification: ClassificationRetryable, want: true},
		{name: "permanent", classification: ClassificationPermanent, want: false},
		{name: "unknown", classification: ErrorClassification("SOMETIMES"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.classification.IsRetryable())
		})
	}
}

func TestGetDefaultClassification(t *testing.T) {
	tests := []struct {
		name string
		code ErrorCode
		want ErrorClassification
	}{
		{name: "network is retryable", code: CodeNetwork, want: ClassificationRetryable},
		{name: "timeout is retryable", code: CodeTimeout, want: ClassificationRetryable},
		{name: "non fast-forward is permanent", code: CodeNonFastForward, want: ClassificationPermanent},
		{name: "uncommitted is permanent", code: CodeUncommitted, want: ClassificationPermanent},
		{name: "usage is permanent", code: CodeUsage, want: ClassificationPermanent},
		{name: "unregistered code is permanent", code: ErrorCode("SOMETHING_ELSE"), want: ClassificationPermanent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, getDefaultClassification(tt.code))
		})
	}
}

func TestEveryCodeHasClassification(t *testing.T) {
	codes := []ErrorCode{
		CodeNotFound, CodeAlreadyExists, CodeConflict,
		CodeUncommitted, CodeUnbornBranch, CodeNonFastForward, CodeMergeConflict,
		CodeUnauthorized, CodeForbidden,
		CodeInvalidInput, CodeUsage, CodeInvalidConfig,
		CodeNetwork, CodeTimeout, CodeExecutionFailed,
		CodeInternal, CodeNotImplemented, CodeUnknown,
	}

	for _, code := range codes {
		_, ok := defaultClassifications[code]
		require.True(t, ok, "missing classification for %s", code)
	}
}
