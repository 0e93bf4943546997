package leadcapture

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/uglyrobot/docsbot-widget-core/internal/models"
)

// emailRegex validates email addresses per RFC 5322 (simplified).
var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// ValidationError reports why a field blocks submission. It never reaches
// the network layer.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("field %q: %s", e.Field, e.Reason)
}

// Validate checks submitted values against the form's field specs.
// Prefilled fields are read-only and skip validation.
func Validate(fields []models.FieldSpec, values map[string]string) error {
	for _, f := range fields {
		if f.IsPrefilled {
			continue
		}
		v := strings.TrimSpace(values[f.Key])
		if v == "" {
			if f.Required {
				return &ValidationError{Field: f.Key, Reason: "required"}
			}
			continue
		}

		switch f.Type {
		case models.FieldEmail:
			if len(v) > 254 || !emailRegex.MatchString(v) {
				return &ValidationError{Field: f.Key, Reason: "invalid email"}
			}
		case models.FieldNumber:
			n, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return &ValidationError{Field: f.Key, Reason: "not a number"}
			}
			if f.Min != nil && n < *f.Min {
				return &ValidationError{Field: f.Key, Reason: "below minimum"}
			}
			if f.Max != nil && n > *f.Max {
				return &ValidationError{Field: f.Key, Reason: "above maximum"}
			}
		case models.FieldSelect:
			if len(f.Options) > 0 && !containsOption(f.Options, v) {
				return &ValidationError{Field: f.Key, Reason: "not an option"}
			}
		}

		if f.Pattern != "" {
			re, err := regexp.Compile(f.Pattern)
			if err != nil {
				continue // malformed pattern never blocks the user
			}
			if !re.MatchString(v) {
				return &ValidationError{Field: f.Key, Reason: "does not match pattern"}
			}
		}
	}
	return nil
}

// Resolve produces the submitted field metadata: prefilled fields always
// submit their fixed value, the rest the user's input.
func Resolve(fields []models.FieldSpec, values map[string]string) map[string]string {
	out := make(map[string]string, len(fields))
	for _, f := range fields {
		if f.IsPrefilled {
			out[f.Key] = f.Value
			continue
		}
		if v := strings.TrimSpace(values[f.Key]); v != "" {
			out[f.Key] = v
		}
	}
	return out
}

func containsOption(options []string, v string) bool {
	for _, o := range options {
		if o == v {
			return true
		}
	}
	return false
}
