// Package schemas validates LLM and API payloads against the embedded JSON Schemas.
package schemas

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// StarStory is the name of the schema for generated STAR story drafts.
const StarStory = "star_story"

//go:embed star_story.schema.json
var starStorySchema []byte

var (
	compileOnce sync.Once
	compiled    map[string]*gojsonschema.Schema
	compileErr  error
)

func load(name string) (*gojsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiled = make(map[string]*gojsonschema.Schema)
		s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(starStorySchema))
		if err != nil {
			compileErr = &SchemaLoadError{Schema: StarStory, Message: "invalid embedded schema", Cause: err}
			return
		}
		compiled[StarStory] = s
	})
	if compileErr != nil {
		return nil, compileErr
	}
	s, ok := compiled[name]
	if !ok {
		return nil, &SchemaLoadError{Schema: name, Message: "unknown schema"}
	}
	return s, nil
}

// Validate checks a JSON document against the named embedded schema.
func Validate(name string, document []byte) error {
	s, err := load(name)
	if err != nil {
		return err
	}
	result, err := s.Validate(gojsonschema.NewBytesLoader(document))
	if err != nil {
		return &SchemaLoadError{Schema: name, Message: "document is not valid JSON", Cause: err}
	}
	return toValidationError(name, result)
}

// ValidateStory checks a generated story draft.
func ValidateStory(document []byte) error {
	return Validate(StarStory, document)
}

// ValidateJSONString validates JSON content against an ad-hoc schema string.
func ValidateJSONString(schemaContent, jsonContent string) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schemaContent),
		gojsonschema.NewStringLoader(jsonContent),
	)
	if err != nil {
		return &SchemaLoadError{Schema: "(string schema)", Message: "validation failed during load", Cause: err}
	}
	return toValidationError("(string schema)", result)
}

func toValidationError(name string, result *gojsonschema.Result) error {
	if result.Valid() {
		return nil
	}
	ve := &ValidationError{
		Schema: name,
		Errors: make([]FieldError, 0, len(result.Errors())),
	}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		ve.Errors = append(ve.Errors, FieldError{Field: field, Message: desc.Description()})
	}
	return ve
}

// MustCompile panics if an embedded schema fails to compile. It is called at startup.
func MustCompile() {
	if _, err := load(StarStory); err != nil {
		panic(fmt.Sprintf("schemas: %v", err))
	}
}
