package issuance

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/xeipuuv/gojsonschema"
)

// FieldKind enumerates the primitive kinds a template field can declare.
type FieldKind string

const (
	FieldString  FieldKind = "string"
	FieldNumber  FieldKind = "number"
	FieldBoolean FieldKind = "boolean"
	FieldDate    FieldKind = "date"
)

// dateLayout is the calendar-date form accepted for date-kind fields.
const dateLayout = "2006-01-02"

// TemplateField declares one typed field of a credential family.
type TemplateField struct {
	Name     string    `json:"name"`
	Kind     FieldKind `json:"kind"`
	Required bool      `json:"required"`
}

// Template is the schema for a credential family: its types, typed fields
// and target envelope format. Schema optionally carries a JSON Schema that
// is checked in addition to the typed field rules.
type Template struct {
	Name   string          `json:"name"`
	Types  []string        `json:"types"`
	Fields []TemplateField `json:"fields"`
	Format Format          `json:"format"`
	Schema json.RawMessage `json:"schema,omitempty"`
}

// ValidateSubject walks the template's declared fields over the subject data
// and returns every violation: missing required fields and kind mismatches.
// Optional absent fields are skipped.
func ValidateSubject(tmpl Template, subject map[string]any) []string {
	var problems []string

	for _, field := range tmpl.Fields {
		value, present := subject[field.Name]
		if !present {
			if field.Required {
				problems = append(problems, fmt.Sprintf("required field %q is missing", field.Name))
			}
			continue
		}
		if reason := checkKind(field, value); reason != "" {
			problems = append(problems, reason)
		}
	}

	if len(tmpl.Schema) > 0 {
		problems = append(problems, validateSchema(tmpl.Schema, subject)...)
	}

	return problems
}

func checkKind(field TemplateField, value any) string {
	switch field.Kind {
	case FieldString:
		if _, ok := value.(string); !ok {
			return kindMismatch(field.Name, "string")
		}
	case FieldNumber:
		switch value.(type) {
		case float64, float32, int, int32, int64, json.Number:
		default:
			return kindMismatch(field.Name, "number")
		}
	case FieldBoolean:
		if _, ok := value.(bool); !ok {
			return kindMismatch(field.Name, "boolean")
		}
	case FieldDate:
		s, ok := value.(string)
		if !ok {
			return kindMismatch(field.Name, "date")
		}
		if _, err := time.Parse(dateLayout, s); err != nil {
			return fmt.Sprintf("field %q is not a valid date: %q", field.Name, s)
		}
	}
	return ""
}

func kindMismatch(name, want string) string {
	return fmt.Sprintf("field %q must be a %s", name, want)
}

// validateSchema applies the template's optional JSON Schema to the subject.
// Schema load failures surface as a single problem rather than an error so
// template validation stays total.
func validateSchema(schema json.RawMessage, subject map[string]any) []string {
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schema),
		gojsonschema.NewGoLoader(subject),
	)
	if err != nil {
		return []string{fmt.Sprintf("template schema is unusable: %v", err)}
	}
	if result.Valid() {
		return nil
	}
	problems := make([]string, 0, len(result.Errors()))
	for _, re := range result.Errors() {
		problems = append(problems, "schema: "+re.String())
	}
	return problems
}
