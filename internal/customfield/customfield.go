// Package customfield resolves ad hoc field values attached to deals.
// A deal's value set is keyed by field id: at most one value per field, and
// blank or type-invalid input removes the value instead of storing a marker.
package customfield

import (
	"math"
	"strconv"
	"strings"

	"github.com/dealdesk/dealdesk/internal/model"
)

// Resolve coerces raw input for one field. The second return reports whether
// a value should be stored at all: blank input, an unparseable number, or a
// select value outside the configured option set all resolve to "drop".
func Resolve(field model.CustomField, input string) (any, bool) {
	v := strings.TrimSpace(input)
	if v == "" {
		return nil, false
	}
	switch field.Type {
	case model.FieldTypeNumber:
		n, err := strconv.ParseFloat(v, 64)
		if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
			// ParseFloat accepts "NaN" and "Inf" spellings; neither is a
			// storable number, and NaN is not even representable in JSON.
			return nil, false
		}
		return n, true
	case model.FieldTypeSelect:
		for _, opt := range field.Options {
			if opt == v {
				return v, true
			}
		}
		return nil, false
	default: // text, date
		return v, true
	}
}

// Apply sets (or clears) one field's value in the deal's value set, replacing
// any prior value for the same field id.
func Apply(values model.FieldValues, field model.CustomField, input string) model.FieldValues {
	out := make(model.FieldValues, 0, len(values)+1)
	for _, fv := range values {
		if fv.FieldID != field.ID {
			out = append(out, fv)
		}
	}
	if v, ok := Resolve(field, input); ok {
		out = append(out, model.FieldValue{FieldID: field.ID, Value: v})
	}
	return out
}

// Lookup returns the stored value for a field id, if any.
func Lookup(values model.FieldValues, fieldID string) (any, bool) {
	for _, fv := range values {
		if fv.FieldID == fieldID {
			return fv.Value, true
		}
	}
	return nil, false
}

// ValidateDefinition checks a field definition before it is stored: the name
// must be non-blank, the type must be one of the known types, and select
// fields need at least one non-blank option. Options are trimmed and blank
// entries dropped; the cleaned definition is returned.
func ValidateDefinition(field model.CustomField) (model.CustomField, error) {
	field.Name = strings.TrimSpace(field.Name)
	if field.Name == "" {
		return field, ErrNameRequired
	}
	switch field.Type {
	case model.FieldTypeText, model.FieldTypeNumber, model.FieldTypeDate:
		field.Options = nil
	case model.FieldTypeSelect:
		opts := make(model.StringSlice, 0, len(field.Options))
		for _, o := range field.Options {
			if o = strings.TrimSpace(o); o != "" {
				opts = append(opts, o)
			}
		}
		if len(opts) == 0 {
			return field, ErrOptionsRequired
		}
		field.Options = opts
	default:
		return field, ErrInvalidType
	}
	return field, nil
}
