package errors

// ErrorCode represents a specific error condition.
// Error codes are string-based for debuggability and natural JSON serialization.
type ErrorCode string

const (
	// Resource errors.

	// CodeNotFound indicates a requested repository, reference, remote or object does not exist.
	CodeNotFound ErrorCode = "NOT_FOUND"

	// CodeAlreadyExists indicates a repository, reference or remote already exists.
	CodeAlreadyExists ErrorCode = "ALREADY_EXISTS"

	// CodeConflict indicates a repository state conflict that prevents the operation.
	CodeConflict ErrorCode = "CONFLICT"

	// Repository state errors.

	// CodeUncommitted indicates local changes would be overwritten by the operation.
	CodeUncommitted ErrorCode = "UNCOMMITTED_CHANGES"

	// CodeUnbornBranch indicates the current branch has no commits yet.
	CodeUnbornBranch ErrorCode = "UNBORN_BRANCH"

	// CodeNonFastForward indicates a reference update was rejected because it
	// would discard commits on the other side.
	CodeNonFastForward ErrorCode = "NON_FAST_FORWARD"

	// CodeMergeConflict indicates a merge is in progress or left unresolved conflicts.
	CodeMergeConflict ErrorCode = "MERGE_CONFLICT"

	// Permission errors.

	// CodeUnauthorized indicates the remote requires credentials or rejected the ones supplied.
	CodeUnauthorized ErrorCode = "UNAUTHORIZED"

	// CodeForbidden indicates the authenticated user lacks permission for the operation.
	CodeForbidden ErrorCode = "FORBIDDEN"

	// Validation errors.

	// CodeInvalidInput indicates the provided input is invalid or malformed.
	CodeInvalidInput ErrorCode = "INVALID_INPUT"

	// CodeUsage indicates the operation was called in a way it does not support,
	// such as checking out a symbolic reference.
	CodeUsage ErrorCode = "USAGE"

	// CodeInvalidConfig indicates a configuration error prevents the operation.
	CodeInvalidConfig ErrorCode = "INVALID_CONFIGURATION"

	// Infrastructure errors.

	// CodeNetwork indicates a network operation failed.
	CodeNetwork ErrorCode = "NETWORK_ERROR"

	// CodeTimeout indicates an operation exceeded its time limit.
	CodeTimeout ErrorCode = "TIMEOUT"

	// CodeExecutionFailed indicates an external command failed.
	CodeExecutionFailed ErrorCode = "EXECUTION_FAILED"

	// System errors.

	// CodeInternal indicates an internal error occurred.
	CodeInternal ErrorCode = "INTERNAL_ERROR"

	// CodeNotImplemented indicates the requested functionality is not implemented.
	CodeNotImplemented ErrorCode = "NOT_IMPLEMENTED"

	// CodeUnknown indicates an unknown or unclassified error occurred.
	CodeUnknown ErrorCode = "UNKNOWN"
)
