// Package errors provides structured error handling for repository operations.
//
// Every failure produced by the repository layer is a PlatformError: an error
// code identifying what went wrong, a classification deciding whether a
// caller may retry the whole operation, optional context metadata, and the
// wrapped cause. PlatformError values work with the standard library
// errors.Is, errors.As and errors.Unwrap.
//
// # Quick Start
//
// Creating errors:
//
//	err := errors.New(errors.CodeNotFound, "reference not found")
//	err := errors.Newf(errors.CodeUsage, "merge accepts exactly one reference, got %d", n)
//
// Wrapping engine errors:
//
//	if err := wt.Checkout(opts); err != nil {
//	    return errors.Wrap(err, errors.CodeUncommitted, "checkout would overwrite local changes")
//	}
//
// Adding context:
//
//	err = errors.WithContext(err, "ref", "refs/heads/main")
//
// # Error Codes
//
//   - Resource errors: CodeNotFound, CodeAlreadyExists, CodeConflict
//   - Repository state errors: CodeUncommitted, CodeUnbornBranch, CodeNonFastForward, CodeMergeConflict
//   - Permission errors: CodeUnauthorized, CodeForbidden
//   - Validation errors: CodeInvalidInput, CodeUsage, CodeInvalidConfig
//   - Infrastructure errors: CodeNetwork, CodeTimeout, CodeExecutionFailed
//   - System errors: CodeInternal, CodeNotImplemented, CodeUnknown
//
// Network and timeout failures are retryable; everything else is permanent
// unless overridden with WithClassification.
//
// # JSON
//
// ToJSON flattens an error into an ErrorResponse without the wrapped chain,
// which keeps engine internals out of anything shown to users.
package errors
