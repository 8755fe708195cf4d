// internal/bundle/validate.go
//
// Thin wrapper around go-playground/validator for bundles.
//
// Context
// -------
// Every merged bundle is validated before it is written to the store.  A
// failing bundle is still handed back to the caller for in-memory use, but
// it is never persisted.  validateBundle flattens the validator errors into
// a field → rule map so the log line carries every failing field.
package bundle

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

var v = validator.New()

// validateBundle returns nil on success, or a map of namespaced field to
// failing rule.
func validateBundle(b *Bundle) map[string]string {
	err := v.Struct(b)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"": err.Error()}
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		out[fe.Namespace()] = fe.Tag()
	}
	return out
}
