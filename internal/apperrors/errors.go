package apperrors

import "errors"

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrConflict indicates that the resource is in a state that does not allow the operation.
var ErrConflict = errors.New("resource state conflict")

// ErrConfiguration indicates a setup defect (e.g. a required chart-of-accounts
// entry is missing). Operations failing with this error must not be silently
// retried; the configuration has to be corrected first.
var ErrConfiguration = errors.New("configuration error")
