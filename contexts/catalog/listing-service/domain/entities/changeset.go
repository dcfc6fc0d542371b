package entities

type Field string

const (
	FieldName        Field = "name"
	FieldDescription Field = "description"
	FieldRepository  Field = "repository"
	FieldPreviewURL  Field = "preview_url"
	FieldVisibility  Field = "visibility"
	FieldTechStack   Field = "tech_stack"
	FieldCategoryIDs Field = "category_ids"
)

type ValueKind string

const (
	ValueKindScalar ValueKind = "scalar"
	ValueKindSet    ValueKind = "set"
)

// fieldKinds is the closed registry of editable listing fields and the
// value shape each one carries.
var fieldKinds = map[Field]ValueKind{
	FieldName:        ValueKindScalar,
	FieldDescription: ValueKindScalar,
	FieldRepository:  ValueKindScalar,
	FieldPreviewURL:  ValueKindScalar,
	FieldVisibility:  ValueKindScalar,
	FieldTechStack:   ValueKindSet,
	FieldCategoryIDs: ValueKindSet,
}

// FieldKind returns the value shape for a field, or false for fields
// outside the editable registry.
func FieldKind(field Field) (ValueKind, bool) {
	kind, ok := fieldKinds[field]
	return kind, ok
}

// ProposedValue is a tagged variant: exactly one of Scalar or Set is
// meaningful, selected by Kind. An empty Scalar or empty Set is a valid
// proposal (it clears the live value).
type ProposedValue struct {
	Kind   ValueKind `json:"kind"`
	Scalar string    `json:"scalar,omitempty"`
	Set    []string  `json:"set,omitempty"`
}

func ScalarValue(value string) ProposedValue {
	return ProposedValue{Kind: ValueKindScalar, Scalar: value}
}

func SetValue(values []string) ProposedValue {
	return ProposedValue{Kind: ValueKindSet, Set: values}
}

// ChangeSet is a sparse edit: key presence marks intent to change that
// field, absence leaves it untouched.
type ChangeSet map[Field]ProposedValue
