// Package schema declares the field lists of every node label. The lists act as a
// whitelist: only declared fields ever reach a query's bound parameters.
package schema

// FieldType is the semantic type of a node property
type FieldType string

const (
	String    FieldType = "string"
	Int       FieldType = "int"
	Float     FieldType = "float"
	Bool      FieldType = "bool"
	Timestamp FieldType = "timestamp" // epoch millis assigned by the store
)

// Field is a single declared property
type Field struct {
	Name string
	Type FieldType
}

// Schema describes one node label
type Schema struct {
	Label  string
	Fields []Field
	index  map[string]int
}

// New builds a schema; field order is kept for deterministic query text
func New(label string, fields ...Field) *Schema {
	s := &Schema{Label: label, Fields: fields, index: make(map[string]int, len(fields))}
	for i, f := range fields {
		s.index[f.Name] = i
	}
	return s
}

// Has reports whether name is a declared field
func (s *Schema) Has(name string) bool {
	_, ok := s.index[name]
	return ok
}

// Type returns the declared type of a field
func (s *Schema) Type(name string) (FieldType, bool) {
	i, ok := s.index[name]
	if !ok {
		return "", false
	}
	return s.Fields[i].Type, true
}

// Names returns the declared field names in declaration order
func (s *Schema) Names() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// Project keeps only declared fields with non-nil values. Unknown fields are dropped.
func (s *Schema) Project(params map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{})
	for _, f := range s.Fields {
		if v, ok := params[f.Name]; ok && v != nil {
			out[f.Name] = v
		}
	}
	return out
}

func str(name string) Field { return Field{Name: name, Type: String} }

// Node labels
const (
	LabelUser     = "User"
	LabelSkill    = "Skill"
	LabelLocation = "Location"
	LabelJob      = "Job"
	LabelUsers    = "Users" // singleton collection node
)

var (
	// User is keyed by id (LinkedIn id)
	User = New(LabelUser,
		str("id"),
		str("firstname"),
		str("lastname"),
		str("email"),
		str("linkedInToken"),
		str("profileImage"),
	)

	// Skill is keyed by name
	Skill = New(LabelSkill,
		str("name"),
		str("normalized"),
	)

	// Location is keyed by city
	Location = New(LabelLocation,
		str("city"),
		str("state"),
		str("country"),
	)

	// Job mirrors the ingestion payload; nested objects arrive serialized as JSON text
	Job = New(LabelJob,
		str("id"),
		str("title"),
		str("created"),
		str("company"),
		str("salary"),
		str("equity"),
		str("roles"),
		str("skills"),
		str("loc"),
	)
)

// ByLabel looks up a schema by its node label
func ByLabel(label string) (*Schema, bool) {
	switch label {
	case LabelUser:
		return User, true
	case LabelSkill:
		return Skill, true
	case LabelLocation:
		return Location, true
	case LabelJob:
		return Job, true
	}
	return nil, false
}
