package git

import (
	"errors"
	"fmt"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/format/index"
	"github.com/go-git/go-git/v5/plumbing/transport"
	platformerrors "github.com/light-tech/MiniGit/errors"
)

// ErrorCode is the integer code delivered to an ErrorReceiver. The values
// are compatible with the engine's error codes so existing callers can keep
// switching on them.
type ErrorCode int

const (
	ErrGeneric        ErrorCode = -1
	ErrNotFound       ErrorCode = -3
	ErrExists         ErrorCode = -4
	ErrUser           ErrorCode = -7
	ErrUnbornBranch   ErrorCode = -9
	ErrNonFastForward ErrorCode = -11
	ErrInvalidSpec    ErrorCode = -12
	ErrConflict       ErrorCode = -13
	ErrAuth           ErrorCode = -16
	ErrUncommitted    ErrorCode = -22
)

// ErrorClass names the subsystem an error originated in.
type ErrorClass int

const (
	ErrorClassNone ErrorClass = iota
	ErrorClassOS
	ErrorClassInvalid
	ErrorClassReference
	ErrorClassRepository
	ErrorClassConfig
	ErrorClassIndex
	ErrorClassObject
	ErrorClassNet
	ErrorClassCheckout
	ErrorClassMerge
	ErrorClassCallback
)

// ErrorDetail is the structured part of an error report.
type ErrorDetail struct {
	Message string
	Class   ErrorClass
}

// engineCodes maps platform error codes to the codes delivered to receivers.
var engineCodes = map[platformerrors.ErrorCode]ErrorCode{
	platformerrors.CodeNotFound:       ErrNotFound,
	platformerrors.CodeAlreadyExists:  ErrExists,
	platformerrors.CodeUnbornBranch:   ErrUnbornBranch,
	platformerrors.CodeNonFastForward: ErrNonFastForward,
	platformerrors.CodeUsage:          ErrInvalidSpec,
	platformerrors.CodeInvalidInput:   ErrInvalidSpec,
	platformerrors.CodeConflict:       ErrConflict,
	platformerrors.CodeMergeConflict:  ErrConflict,
	platformerrors.CodeUnauthorized:   ErrAuth,
	platformerrors.CodeUncommitted:    ErrUncommitted,
}

// engineCode returns the receiver code for err.
func engineCode(err error) ErrorCode {
	if code, ok := engineCodes[platformerrors.GetCode(err)]; ok {
		return code
	}
	return ErrGeneric
}

// wrapError wraps an error with context, classifying it as a platform error type.
// It preserves the original error chain for errors.Is/errors.As compatibility.
// If err is nil, returns nil.
func wrapError(err error, context string) error {
	if err == nil {
		return nil
	}

	return fmt.Errorf("%s: %w", context, classifyError(err))
}

// classifyError maps go-git errors to platform error types. Errors that are
// already platform errors, and unknown errors, pass through unchanged.
//
//nolint:gocyclo,cyclop // each case is a simple mapping
func classifyError(err error) error {
	if err == nil {
		return nil
	}

	var platformErr platformerrors.PlatformError
	if errors.As(err, &platformErr) {
		return err
	}

	switch {
	case errors.Is(err, gogit.ErrRepositoryNotExists):
		return platformerrors.Wrap(err, platformerrors.CodeNotFound, "repository does not exist")
	case errors.Is(err, transport.ErrRepositoryNotFound):
		return platformerrors.Wrap(err, platformerrors.CodeNotFound, "remote repository not found")
	case errors.Is(err, plumbing.ErrReferenceNotFound):
		return platformerrors.Wrap(err, platformerrors.CodeNotFound, "reference not found")
	case errors.Is(err, plumbing.ErrObjectNotFound):
		return platformerrors.Wrap(err, platformerrors.CodeNotFound, "object not found")
	case errors.Is(err, gogit.ErrRemoteNotFound):
		return platformerrors.Wrap(err, platformerrors.CodeNotFound, "remote not found")
	case errors.Is(err, gogit.ErrBranchNotFound):
		return platformerrors.Wrap(err, platformerrors.CodeNotFound, "branch not found")
	case errors.Is(err, index.ErrEntryNotFound):
		return platformerrors.Wrap(err, platformerrors.CodeNotFound, "path is not in the index")
	case errors.Is(err, transport.ErrEmptyRemoteRepository):
		return platformerrors.Wrap(err, platformerrors.CodeNotFound, "remote repository is empty")

	case errors.Is(err, gogit.ErrRepositoryAlreadyExists):
		return platformerrors.Wrap(err, platformerrors.CodeAlreadyExists, "repository already exists")
	case errors.Is(err, gogit.ErrRemoteExists):
		return platformerrors.Wrap(err, platformerrors.CodeAlreadyExists, "remote already exists")
	case errors.Is(err, gogit.ErrBranchExists):
		return platformerrors.Wrap(err, platformerrors.CodeAlreadyExists, "branch already exists")
	case errors.Is(err, gogit.ErrTagExists):
		return platformerrors.Wrap(err, platformerrors.CodeAlreadyExists, "tag already exists")

	case errors.Is(err, transport.ErrAuthenticationRequired):
		return platformerrors.Wrap(err, platformerrors.CodeUnauthorized, "authentication required")
	case errors.Is(err, transport.ErrAuthorizationFailed):
		return platformerrors.Wrap(err, platformerrors.CodeUnauthorized, "authorization failed")
	case errors.Is(err, transport.ErrInvalidAuthMethod):
		return platformerrors.Wrap(err, platformerrors.CodeUnauthorized, "invalid auth method")

	case errors.Is(err, gogit.ErrWorktreeNotClean):
		return platformerrors.Wrap(err, platformerrors.CodeUncommitted, "worktree is not clean")
	case errors.Is(err, gogit.ErrUnstagedChanges):
		return platformerrors.Wrap(err, platformerrors.CodeUncommitted, "worktree contains unstaged changes")
	case errors.Is(err, gogit.ErrEmptyCommit):
		return platformerrors.Wrap(err, platformerrors.CodeConflict, "nothing to commit")
	case errors.Is(err, gogit.ErrForceNeeded), errors.Is(err, gogit.ErrNonFastForwardUpdate),
		errors.Is(err, gogit.ErrFastForwardMergeNotPossible):
		return platformerrors.Wrap(err, platformerrors.CodeNonFastForward, "non-fast-forward update")

	case errors.Is(err, gogit.ErrIsBareRepository):
		return platformerrors.Wrap(err, platformerrors.CodeUsage, "operation requires a working tree")
	case errors.Is(err, gogit.ErrMissingURL), errors.Is(err, gogit.ErrEmptyUrls):
		return platformerrors.Wrap(err, platformerrors.CodeInvalidInput, "URL is required")
	case errors.Is(err, gogit.ErrMissingAuthor):
		return platformerrors.Wrap(err, platformerrors.CodeInvalidInput, "author signature is not configured")
	case errors.Is(err, plumbing.ErrInvalidReferenceName):
		return platformerrors.Wrap(err, platformerrors.CodeInvalidInput, "invalid reference name")
	case errors.Is(err, gogit.ErrMissingName):
		return platformerrors.Wrap(err, platformerrors.CodeInvalidInput, "name is required")
	}

	return err
}

// ErrorRecorder is an ErrorReceiver that keeps the first reported error.
// It is convenient for callers that prefer a Go error after the fact:
//
//	var errs git.ErrorRecorder
//	repo.Commit("message", &errs)
//	if err := errs.Err(); err != nil {
//	    return err
//	}
type ErrorRecorder struct {
	reported bool
	code     ErrorCode
	detail   *ErrorDetail
	context  string
}

// OnError implements ErrorReceiver. Only the first call is recorded.
func (r *ErrorRecorder) OnError(code ErrorCode, detail *ErrorDetail, context string) {
	if r.reported {
		return
	}
	r.reported = true
	r.code = code
	r.detail = detail
	r.context = context
}

// Failed reports whether an error has been recorded.
func (r *ErrorRecorder) Failed() bool {
	return r.reported
}

// Code returns the recorded code, or zero.
func (r *ErrorRecorder) Code() ErrorCode {
	return r.code
}

// Detail returns the recorded detail, or nil.
func (r *ErrorRecorder) Detail() *ErrorDetail {
	return r.detail
}

// Context returns the recorded context label.
func (r *ErrorRecorder) Context() string {
	return r.context
}

// Err converts the recorded report into a platform error, or nil.
func (r *ErrorRecorder) Err() error {
	if !r.reported {
		return nil
	}

	message := "operation failed"
	if r.detail != nil && r.detail.Message != "" {
		message = r.detail.Message
	}

	err := platformerrors.New(platformCodeFor(r.code), message)
	return platformerrors.WithContextMap(err, map[string]interface{}{
		"engine_code": int(r.code),
		"context":     r.context,
	})
}

// platformCodeFor reverses engineCodes, preferring the most specific code.
func platformCodeFor(code ErrorCode) platformerrors.ErrorCode {
	switch code {
	case ErrNotFound:
		return platformerrors.CodeNotFound
	case ErrExists:
		return platformerrors.CodeAlreadyExists
	case ErrUnbornBranch:
		return platformerrors.CodeUnbornBranch
	case ErrNonFastForward:
		return platformerrors.CodeNonFastForward
	case ErrInvalidSpec:
		return platformerrors.CodeUsage
	case ErrConflict:
		return platformerrors.CodeConflict
	case ErrAuth:
		return platformerrors.CodeUnauthorized
	case ErrUncommitted:
		return platformerrors.CodeUncommitted
	default:
		return platformerrors.CodeUnknown
	}
}
