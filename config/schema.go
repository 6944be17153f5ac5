package config

import (
	"encoding/json"
	"reflect"
	"strings"
	"sync"

	"github.com/grovetools/termestra/schema"
	"github.com/invopop/jsonschema"
)

// GenerateSchema generates the JSON Schema for termestra configuration files.
// Top-level keys outside Config are extension sections and are allowed.
func GenerateSchema() ([]byte, error) {
	r := &jsonschema.Reflector{
		AllowAdditionalProperties: true,
		Anonymous:                 true,
		// Expand struct references instead of using $ref for cleaner base schema.
		ExpandedStruct: true,
		// Use YAML field names for property names
		FieldNameTag: "yaml",
	}

	s := r.Reflect(&Config{})
	s.Title = "termestra Configuration"
	s.Description = "Schema for termestra.yml / termestra.toml."

	return json.MarshalIndent(s, "", "  ")
}

// SchemaValidator validates raw configuration documents against the
// generated schema.
type SchemaValidator struct {
	validator *schema.Validator
}

var (
	validatorOnce sync.Once
	validatorErr  error
	sharedSchema  *schema.Validator
)

// NewSchemaValidator returns a validator for the configuration schema. The
// schema is generated and compiled once per process.
func NewSchemaValidator() (*SchemaValidator, error) {
	validatorOnce.Do(func() {
		var data []byte
		data, validatorErr = GenerateSchema()
		if validatorErr != nil {
			return
		}
		sharedSchema, validatorErr = schema.NewValidator("termestra.json", data)
	})
	if validatorErr != nil {
		return nil, validatorErr
	}
	return &SchemaValidator{validator: sharedSchema}, nil
}

// Validate validates configuration data against the schema.
func (v *SchemaValidator) Validate(configData interface{}) error {
	return v.validator.Validate(configData)
}

// knownKeys lists the top-level keys Config decodes itself.
func knownKeys() map[string]bool {
	keys := map[string]bool{}
	t := reflect.TypeOf(Config{})
	for i := 0; i < t.NumField(); i++ {
		name := strings.Split(t.Field(i).Tag.Get("yaml"), ",")[0]
		if name != "" && name != "-" {
			keys[name] = true
		}
	}
	return keys
}
