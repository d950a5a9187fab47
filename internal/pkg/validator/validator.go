package validator

// Validator validates a struct, returning a field-keyed error on failure.
type Validator interface {
	Validate(data any) error
}

var _ Validator = (*V10Validator)(nil)
