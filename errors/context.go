package errors

import "maps"

// WithContext adds a single context field to an error. Existing fields are
// preserved. Plain errors are converted with CodeUnknown. Returns nil if err
// is nil.
//
// Example:
//
//	err = errors.WithContext(err, "path", "docs/readme.md")
func WithContext(err error, key string, value interface{}) PlatformError {
	if err == nil {
		return nil
	}
	return WithContextMap(err, map[string]interface{}{key: value})
}

// WithContextMap merges multiple context fields into an error. New fields
// override existing ones with the same key.
func WithContextMap(err error, ctx map[string]interface{}) PlatformError {
	if err == nil {
		return nil
	}

	p := asPlatform(err)
	merged := make(map[string]interface{}, len(ctx))
	maps.Copy(merged, p.Context())
	maps.Copy(merged, ctx)

	return rebuild(p, p.Classification(), merged)
}

// WithClassification overrides the classification of an error.
//
// Example:
//
//	// A rejected credential may succeed after the user fixes it.
//	err = errors.WithClassification(err, errors.ClassificationRetryable)
func WithClassification(err error, classification ErrorClassification) PlatformError {
	if err == nil {
		return nil
	}

	p := asPlatform(err)
	return rebuild(p, classification, p.Context())
}
