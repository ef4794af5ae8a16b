package attempt

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

const rawSchemaURL = "schema://attempt.json"

// rawSchema is the wire contract for a single raw attempt. The Go-level
// checks in Normalize still run after it passes.
var rawSchema = map[string]any{
	"type":     "object",
	"required": []any{"learner_id", "item_id", "topic", "time_taken_seconds"},
	"properties": map[string]any{
		"learner_id":         map[string]any{"type": "string", "minLength": 1},
		"item_id":            map[string]any{"type": "string", "minLength": 1},
		"topic":              map[string]any{"type": "string", "minLength": 1},
		"document_id":        map[string]any{"type": "string"},
		"is_correct":         map[string]any{"type": []any{"boolean", "null"}},
		"time_taken_seconds": map[string]any{"type": "number", "minimum": 0},
		"was_skipped":        map[string]any{"type": "boolean"},
		"hesitation_count":   map[string]any{"type": "integer", "minimum": 0},
		"answer_changed":     map[string]any{"type": "boolean"},
		"marked_tricky":      map[string]any{"type": "boolean"},
		"occurred_at":        map[string]any{"type": "string"},
	},
	// An answered attempt must say whether it was correct.
	"if": map[string]any{
		"properties": map[string]any{"was_skipped": map[string]any{"const": true}},
		"required":   []any{"was_skipped"},
	},
	"else": map[string]any{
		"required":   []any{"is_correct"},
		"properties": map[string]any{"is_correct": map[string]any{"type": "boolean"}},
	},
}

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

func schema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		// The compiler wants a plain decoded JSON value, so round-trip the
		// Go literal through encoding/json.
		b, err := json.Marshal(rawSchema)
		if err != nil {
			compileErr = fmt.Errorf("marshal schema: %w", err)
			return
		}
		var doc any
		if err := json.Unmarshal(b, &doc); err != nil {
			compileErr = fmt.Errorf("parse schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(rawSchemaURL, doc); err != nil {
			compileErr = fmt.Errorf("add resource: %w", err)
			return
		}
		compiled, compileErr = c.Compile(rawSchemaURL)
	})
	return compiled, compileErr
}

// DecodeRaw validates one JSON object against the attempt schema and
// decodes it. Schema violations are reported as *ValidationError.
func DecodeRaw(payload []byte) (Raw, error) {
	var parsed any
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return Raw{}, &ValidationError{Problems: []FieldError{{Message: fmt.Sprintf("invalid JSON: %v", err)}}}
	}
	return decodeParsed(parsed, payload)
}

func decodeParsed(parsed any, payload []byte) (Raw, error) {
	sch, err := schema()
	if err != nil {
		return Raw{}, fmt.Errorf("attempt schema: %w", err)
	}
	if err := sch.Validate(parsed); err != nil {
		return Raw{}, schemaProblems(err)
	}
	var raw Raw
	if err := json.Unmarshal(payload, &raw); err != nil {
		return Raw{}, &ValidationError{Problems: []FieldError{{Message: fmt.Sprintf("decode: %v", err)}}}
	}
	return raw, nil
}

// DecodeBatch accepts a single attempt object, a JSON array of attempts,
// or an object of the form {"events": [...]}. Each element is validated
// independently; problems are returned by index.
func DecodeBatch(payload []byte) ([]Raw, map[int]error, error) {
	var probe any
	if err := json.Unmarshal(payload, &probe); err != nil {
		return nil, nil, &ValidationError{Problems: []FieldError{{Message: fmt.Sprintf("invalid JSON: %v", err)}}}
	}

	var elems []json.RawMessage
	switch v := probe.(type) {
	case []any:
		if err := json.Unmarshal(payload, &elems); err != nil {
			return nil, nil, fmt.Errorf("decode batch: %w", err)
		}
	case map[string]any:
		if _, ok := v["events"]; ok {
			var env struct {
				Events []json.RawMessage `json:"events"`
			}
			if err := json.Unmarshal(payload, &env); err != nil {
				return nil, nil, &ValidationError{Problems: []FieldError{{Field: "events", Message: err.Error()}}}
			}
			elems = env.Events
		} else {
			elems = []json.RawMessage{payload}
		}
	default:
		return nil, nil, &ValidationError{Problems: []FieldError{{Message: "expected an attempt object or a list of attempts"}}}
	}

	raws := make([]Raw, len(elems))
	var problems map[int]error
	for i, el := range elems {
		raw, err := DecodeRaw(el)
		if err != nil {
			if problems == nil {
				problems = make(map[int]error)
			}
			problems[i] = err
			continue
		}
		raws[i] = raw
	}
	return raws, problems, nil
}

// schemaProblems flattens a jsonschema error tree into field problems.
func schemaProblems(err error) error {
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return &ValidationError{Problems: []FieldError{{Message: err.Error()}}}
	}
	out := &ValidationError{}
	var walk func(*jsonschema.ValidationError)
	walk = func(v *jsonschema.ValidationError) {
		if len(v.Causes) == 0 {
			out.add(strings.Join(v.InstanceLocation, "."), "violates "+strings.Join(v.ErrorKind.KeywordPath(), "/"))
			return
		}
		for _, c := range v.Causes {
			walk(c)
		}
	}
	walk(ve)
	if len(out.Problems) == 0 {
		out.add("", ve.Error())
	}
	return out
}
