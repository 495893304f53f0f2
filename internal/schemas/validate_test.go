package schemas

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateStory(t *testing.T) {
	tests := []struct {
		name       string
		doc        string
		wantFields []string
	}{
		{
			name: "complete draft",
			doc: `{"title":"Cut p99 latency","situation":"s","task":"t","action":"a","result":"r",
				"key_themes":["Leadership"],"talking_points":["Measured first"]}`,
		},
		{
			name:       "missing result",
			doc:        `{"title":"x","situation":"s","task":"t","action":"a"}`,
			wantFields: []string{"(root)"},
		},
		{
			name:       "empty title",
			doc:        `{"title":"","situation":"s","task":"t","action":"a","result":"r"}`,
			wantFields: []string{"title"},
		},
		{
			name:       "talking points wrong type",
			doc:        `{"title":"x","situation":"s","task":"t","action":"a","result":"r","talking_points":"one"}`,
			wantFields: []string{"talking_points"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStory([]byte(tt.doc))
			if tt.wantFields == nil {
				assert.NoError(t, err)
				return
			}
			var ve *ValidationError
			require.True(t, errors.As(err, &ve), "got %v", err)
			assert.Equal(t, tt.wantFields, ve.Fields())
			assert.Contains(t, ve.Error(), "star_story validation failed")
		})
	}
}

func TestValidateStory_MalformedJSON(t *testing.T) {
	err := ValidateStory([]byte(`{ not json`))
	var le *SchemaLoadError
	require.True(t, errors.As(err, &le))
	assert.NotNil(t, le.Unwrap())
}

func TestValidate_UnknownSchema(t *testing.T) {
	err := Validate("nope", []byte(`{}`))
	var le *SchemaLoadError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, "nope", le.Schema)
}

func TestValidateJSONString(t *testing.T) {
	schema := `{"type":"object","required":["id"],"properties":{"id":{"type":"string"}}}`

	assert.NoError(t, ValidateJSONString(schema, `{"id":"abc"}`))

	err := ValidateJSONString(schema, `{"id":7}`)
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, []string{"id"}, ve.Fields())
}

func TestMustCompile(t *testing.T) {
	assert.NotPanics(t, MustCompile)
}
