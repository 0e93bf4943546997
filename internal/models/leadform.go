package models

// FieldType is the input type of a lead form field.
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldEmail    FieldType = "email"
	FieldNumber   FieldType = "number"
	FieldSelect   FieldType = "select"
	FieldTextarea FieldType = "textarea"
	FieldHidden   FieldType = "hidden"
)

// FieldSpec drives rendering and validation of a single lead form field.
// Prefilled fields are read-only and always submit their fixed Value.
type FieldSpec struct {
	Key         string    `json:"key"`
	Label       string    `json:"label,omitempty"`
	Type        FieldType `json:"type"`
	Required    bool      `json:"required"`
	Options     []string  `json:"options,omitempty"`
	Placeholder string    `json:"placeholder,omitempty"`
	Help        string    `json:"help,omitempty"`
	Min         *float64  `json:"min,omitempty"`
	Max         *float64  `json:"max,omitempty"`
	Step        *float64  `json:"step,omitempty"`
	Pattern     string    `json:"pattern,omitempty"`
	IsPrefilled bool      `json:"isPrefilled"`
	Value       string    `json:"value,omitempty"`
}

// LeadForm is the set of fields interposed before an escalation completes.
type LeadForm struct {
	Fields []FieldSpec `json:"fields"`
}
