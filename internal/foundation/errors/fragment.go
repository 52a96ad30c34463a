package errors

// Context keys attached to fragment errors.
const (
	ContextComponent = "component"
	ContextTarget    = "target"
	ContextURL       = "url"
	ContextStatus    = "status"
)

// FetchError starts a fetch-category error for the named component.
func FetchError(component, message string) *ErrorBuilder {
	return NewError(CategoryFetch, message).WithContext(ContextComponent, component)
}

// MissingTargetError reports that targetID does not exist in the host document.
func MissingTargetError(component, targetID string) *ClassifiedError {
	return NewError(CategoryTarget, "target element not found").
		WithContext(ContextComponent, component).
		WithContext(ContextTarget, targetID).
		UserAction().
		Build()
}

// TransformError wraps a failure raised while rewriting fragment markup.
func TransformError(component string, cause error) *ClassifiedError {
	return WrapError(cause, CategoryTransform, "fragment transform failed").
		WithContext(ContextComponent, component).
		Build()
}

// IsFetchError reports whether err is a fetch-category error.
func IsFetchError(err error) bool { return HasCategory(err, CategoryFetch) }

// IsMissingTarget reports whether err is a missing-target error.
func IsMissingTarget(err error) bool { return HasCategory(err, CategoryTarget) }

// IsTransformError reports whether err is a transform error.
func IsTransformError(err error) bool { return HasCategory(err, CategoryTransform) }
