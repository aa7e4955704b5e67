package httpx

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldErrors flattens validator errors into a field -> rule map keyed by the
// lowercased struct field name.
func FieldErrors(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make(map[string]string, len(verrs))
	for _, fieldErr := range verrs {
		rule := fieldErr.Tag()
		if fieldErr.Param() != "" {
			rule += "=" + fieldErr.Param()
		}
		out[strings.ToLower(fieldErr.Field())] = rule
	}
	return out
}
