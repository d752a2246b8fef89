package progress

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

const recordSchemaURL = "schema://learner-progress.json"

// recordSchema describes the persisted blob. Fields are optional so that
// records written by older versions still load; their types and ranges
// are not.
var recordSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"lessonProgress": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"levelId":      map[string]any{"type": "string"},
					"lessonId":     map[string]any{"type": "string"},
					"completedAt":  map[string]any{"type": "integer"},
					"score":        map[string]any{"type": []any{"number", "null"}},
					"nextReviewAt": map[string]any{"type": []any{"integer", "null"}},
				},
				"required": []any{"levelId", "lessonId", "completedAt"},
			},
		},
		"weakAreas": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"topicId":     map[string]any{"type": "string"},
					"topicLabel":  map[string]any{"type": "string"},
					"missCount":   map[string]any{"type": "integer"},
					"lastAttempt": map[string]any{"type": "integer"},
				},
			},
		},
		"streakDays":            map[string]any{"type": "integer", "minimum": 0},
		"lastActivityDate":      map[string]any{"type": "string", "pattern": `^(\d{4}-\d{2}-\d{2})?$`},
		"totalLessonsCompleted": map[string]any{"type": "integer", "minimum": 0},
	},
}

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

func compiledRecordSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		// The compiler wants a parsed JSON value, not Go literals.
		defBytes, err := json.Marshal(recordSchema)
		if err != nil {
			compileErr = fmt.Errorf("marshal schema definition: %w", err)
			return
		}
		def, err := jsonschema.UnmarshalJSON(bytes.NewReader(defBytes))
		if err != nil {
			compileErr = fmt.Errorf("parse schema definition: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(recordSchemaURL, def); err != nil {
			compileErr = fmt.Errorf("add resource: %w", err)
			return
		}
		compiled, compileErr = c.Compile(recordSchemaURL)
	})
	return compiled, compileErr
}

// validateRecord checks raw against the record schema.
func validateRecord(raw []byte) error {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	schema, err := compiledRecordSchema()
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}
