package customfield

import "errors"

var (
	// ErrNameRequired rejects field definitions with a blank name.
	ErrNameRequired = errors.New("field name is required")
	// ErrInvalidType rejects field types outside text/number/date/select.
	ErrInvalidType = errors.New("invalid field type")
	// ErrOptionsRequired rejects select fields without a usable option.
	ErrOptionsRequired = errors.New("select fields must have at least one valid option")
)
