package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/grovetools/grw/errors"
	"github.com/invopop/jsonschema"
	santhosh "github.com/santhosh-tekuri/jsonschema/v5"
)

const schemaResource = "grw.schema.json"

var (
	compiledOnce   sync.Once
	compiledSchema *santhosh.Schema
	compileErr     error
)

// GenerateSchema generates the JSON Schema for the grw config file.
func GenerateSchema() ([]byte, error) {
	r := &jsonschema.Reflector{
		// Unknown keys are almost always typos.
		AllowAdditionalProperties:  false,
		ExpandedStruct:             true,
		// logging.Config and config.Config share a type name, so $defs
		// would collide. Inline every nested struct instead.
		DoNotReference:             true,
		FieldNameTag:               "yaml",
		RequiredFromJSONSchemaTags: true,
		Anonymous:                  true,
	}

	schema := r.Reflect(&Config{})
	schema.Title = "grw configuration"
	schema.Description = "Settings for the grw repository watcher."

	return json.MarshalIndent(schema, "", "  ")
}

func compiled() (*santhosh.Schema, error) {
	compiledOnce.Do(func() {
		data, err := GenerateSchema()
		if err != nil {
			compileErr = fmt.Errorf("failed to generate schema: %w", err)
			return
		}
		compiler := santhosh.NewCompiler()
		if err := compiler.AddResource(schemaResource, bytes.NewReader(data)); err != nil {
			compileErr = fmt.Errorf("failed to add schema resource: %w", err)
			return
		}
		compiledSchema, compileErr = compiler.Compile(schemaResource)
	})
	return compiledSchema, compileErr
}

// ValidateSchema checks raw config data in the given format against the
// generated schema. Empty documents are valid.
func ValidateSchema(data []byte, format string) error {
	var raw interface{}
	if err := decode(data, format, &raw); err != nil {
		return errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to parse configuration").
			WithDetail("format", format)
	}
	if raw == nil {
		return nil
	}

	// Round trip through JSON so numbers and maps have the shapes the
	// validator expects regardless of the source format.
	jsonData, err := json.Marshal(raw)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeConfigInvalid, "configuration is not representable as JSON")
	}
	var doc interface{}
	if err := json.Unmarshal(jsonData, &doc); err != nil {
		return errors.Wrap(err, errors.ErrCodeConfigInvalid, "configuration is not representable as JSON")
	}

	schema, err := compiled()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "config schema is unusable")
	}

	if err := schema.Validate(doc); err != nil {
		if validationErr, ok := err.(*santhosh.ValidationError); ok {
			var problems []string
			collectErrors(validationErr, &problems)
			return errors.New(errors.ErrCodeConfigValidation,
				"schema validation failed:\n"+strings.Join(problems, "\n")).
				WithDetail("problems", problems)
		}
		return errors.Wrap(err, errors.ErrCodeConfigValidation, "schema validation failed")
	}
	return nil
}

// collectErrors recursively collects all validation errors into a slice
func collectErrors(err *santhosh.ValidationError, messages *[]string) {
	if err.InstanceLocation != "" {
		*messages = append(*messages, fmt.Sprintf("- %s: %s", err.InstanceLocation, err.Message))
	}
	for _, cause := range err.Causes {
		collectErrors(cause, messages)
	}
}
