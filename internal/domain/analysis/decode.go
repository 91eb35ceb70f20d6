package analysis

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMalformedResponse means the model output could not be parsed as JSON
	// of the expected overall shape.
	ErrMalformedResponse = errors.New("response is not valid JSON")
	// ErrIncompleteResponse means required analysis fields are absent or of the wrong kind.
	ErrIncompleteResponse = errors.New("response is missing required fields")
	// ErrMissingFields means a refactor object lacks one of its keys.
	ErrMissingFields = errors.New("response is missing fields")
	// ErrNotArray means a batch response was not a JSON array.
	ErrNotArray = errors.New("response is not an array")
)

// FieldError lists the offending field paths of a structurally invalid response.
type FieldError struct {
	Fields []string
	Err    error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%v: %s", e.Err, strings.Join(e.Fields, ", "))
}

func (e *FieldError) Unwrap() error { return e.Err }

type kind int

const (
	kindString kind = iota
	kindNumber
	kindArray
	kindObject
)

func (k kind) String() string {
	switch k {
	case kindString:
		return "string"
	case kindNumber:
		return "number"
	case kindArray:
		return "array"
	default:
		return "object"
	}
}

// field describes one required key. For arrays, elem is the element kind and
// fields the required keys of object elements; for objects, fields are the
// required keys of the object itself.
type field struct {
	name   string
	kind   kind
	elem   kind
	fields []field
}

func str(name string) field { return field{name: name, kind: kindString} }

func strList(name string) field { return field{name: name, kind: kindArray, elem: kindString} }

func objList(name string, keys ...string) field {
	f := field{name: name, kind: kindArray, elem: kindObject}
	for _, k := range keys {
		f.fields = append(f.fields, str(k))
	}
	return f
}

func obj(name string, fields ...field) field {
	return field{name: name, kind: kindObject, fields: fields}
}

var resultShape = []field{
	str("summary"),
	strList("strengths"),
	strList("weaknesses"),
	strList("suggestions"),
	objList("commandBreakdown", "part", "explanation"),
	objList("securityAudit", "vulnerability", "recommendation"),
	objList("performanceProfile", "issue", "suggestion"),
	obj("portabilityAnalysis",
		field{name: "score", kind: kindNumber},
		str("summary"),
		strList("issues"),
	),
	obj("testSuite", str("framework"), str("content")),
	obj("translations", str("python"), str("powershell")),
	str("mermaidFlowchart"),
	obj("githubRepo",
		str("readmeContent"),
		str("gitignoreContent"),
		str("fileStructure"),
		str("dockerfileContent"),
		str("manPageContent"),
		str("pullRequestTitle"),
		str("pullRequestBody"),
	),
}

var refactorShape = []field{
	str("originalCode"),
	str("refactoredCode"),
	str("explanation"),
}

var refactorAllShape = []field{
	str("suggestion"),
	str("originalCode"),
	str("refactoredCode"),
	str("explanation"),
}

// DecodeResult parses, validates and normalizes an analysis response.
// It never returns a partially populated result.
func DecodeResult(raw string) (*Result, error) {
	body := cleanJSON(raw)
	obj, err := decodeObject(body)
	if err != nil {
		return nil, err
	}
	if missing := checkShape(obj, resultShape, ""); len(missing) > 0 {
		return nil, &FieldError{Fields: missing, Err: ErrIncompleteResponse}
	}
	var r Result
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	r.Normalize()
	return &r, nil
}

// DecodeRefactor parses a single refactor object.
func DecodeRefactor(raw string) (*RefactorResult, error) {
	body := cleanJSON(raw)
	obj, err := decodeObject(body)
	if err != nil {
		return nil, err
	}
	if missing := checkShape(obj, refactorShape, ""); len(missing) > 0 {
		return nil, &FieldError{Fields: missing, Err: ErrMissingFields}
	}
	var r RefactorResult
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	r.Normalize()
	return &r, nil
}

// DecodeRefactorAll parses a batch of refactor objects. One invalid element
// invalidates the whole batch.
func DecodeRefactorAll(raw string) ([]RefactorResult, error) {
	body := cleanJSON(raw)
	if len(body) == 0 || body[0] != '[' {
		if !json.Valid(body) {
			return nil, ErrMalformedResponse
		}
		return nil, ErrNotArray
	}
	var items []json.RawMessage
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	var missing []string
	for i, item := range items {
		prefix := fmt.Sprintf("[%d]", i)
		if kindOf(item) != kindObject {
			missing = append(missing, prefix)
			continue
		}
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(item, &obj); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		missing = append(missing, checkShape(obj, refactorAllShape, prefix)...)
	}
	if len(missing) > 0 {
		return nil, &FieldError{Fields: missing, Err: ErrMissingFields}
	}
	out := make([]RefactorResult, 0, len(items))
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	for i := range out {
		out[i].Normalize()
	}
	return out, nil
}

// cleanJSON trims whitespace and strips a surrounding markdown code fence,
// which some models add even in JSON mode.
func cleanJSON(raw string) []byte {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if nl := strings.IndexByte(s, '\n'); nl >= 0 {
			s = s[nl+1:]
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
		s = strings.TrimSpace(s)
	}
	return []byte(s)
}

func decodeObject(body []byte) (map[string]json.RawMessage, error) {
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: empty response", ErrMalformedResponse)
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if obj == nil {
		return nil, fmt.Errorf("%w: null response", ErrMalformedResponse)
	}
	return obj, nil
}

func checkShape(obj map[string]json.RawMessage, shape []field, prefix string) []string {
	var missing []string
	for _, f := range shape {
		path := f.name
		if prefix != "" {
			path = prefix + "." + f.name
		}
		raw, ok := obj[f.name]
		if !ok || kindOf(raw) != f.kind {
			missing = append(missing, path)
			continue
		}
		switch f.kind {
		case kindObject:
			var inner map[string]json.RawMessage
			if err := json.Unmarshal(raw, &inner); err != nil {
				missing = append(missing, path)
				continue
			}
			missing = append(missing, checkShape(inner, f.fields, path)...)
		case kindArray:
			var items []json.RawMessage
			if err := json.Unmarshal(raw, &items); err != nil {
				missing = append(missing, path)
				continue
			}
			for i, item := range items {
				itemPath := fmt.Sprintf("%s[%d]", path, i)
				if kindOf(item) != f.elem {
					missing = append(missing, itemPath)
					continue
				}
				if f.elem != kindObject {
					continue
				}
				var inner map[string]json.RawMessage
				if err := json.Unmarshal(item, &inner); err != nil {
					missing = append(missing, itemPath)
					continue
				}
				missing = append(missing, checkShape(inner, f.fields, itemPath)...)
			}
		}
	}
	return missing
}

// kindOf reports the JSON kind of raw; null and booleans map to -1.
func kindOf(raw json.RawMessage) kind {
	b := bytes.TrimSpace(raw)
	if len(b) == 0 {
		return -1
	}
	switch c := b[0]; {
	case c == '"':
		return kindString
	case c == '[':
		return kindArray
	case c == '{':
		return kindObject
	case c == '-' || (c >= '0' && c <= '9'):
		return kindNumber
	default:
		return -1
	}
}
