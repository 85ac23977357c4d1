package panelfile

import (
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

const recordSchema = `{
  "type": "object",
  "required": ["url", "filter", "is_with_css", "output_option"],
  "properties": {
    "url": {"type": "string"},
    "filter": {"type": "string"},
    "is_with_css": {"type": "boolean"},
    "output_option": {"type": "integer", "minimum": 0, "maximum": 2}
  }
}`

var compiledSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewStringLoader(recordSchema))
})

// validateRecord returns one message per schema violation.
func validateRecord(data []byte) []string {
	schema, err := compiledSchema()
	if err != nil {
		return []string{"schema: " + err.Error()}
	}
	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return []string{err.Error()}
	}
	if result.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return msgs
}
