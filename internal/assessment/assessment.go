// Package assessment decodes the result an assessment agent prints: either a
// JSON envelope listing per-file patches or a bare unified diff.
package assessment

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/futureCreator/patchgate/internal/assets"
	"github.com/futureCreator/patchgate/internal/patch"
)

const schemaURL = "https://schemas.patchgate.dev/assessment.schema.json"

// ErrInvalidEnvelope is returned when output looks like a JSON envelope but
// does not match the assessment schema.
var ErrInvalidEnvelope = errors.New("invalid assessment envelope")

// Change is one file's patch as reported by the agent.
type Change struct {
	Path  string `json:"path"`
	Patch string `json:"patch"`
}

// Result is the decoded agent output.
type Result struct {
	Changes    []Change `json:"changes"`
	HadChanges bool     `json:"hadChanges"`
	PRBody     string   `json:"prBody,omitempty"`
}

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		data, err := assets.LoadSchema("assessment.schema.json")
		if err != nil {
			schemaErr = err
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(schemaURL, bytes.NewReader(data)); err != nil {
			schemaErr = fmt.Errorf("add schema resource: %w", err)
			return
		}
		schema, schemaErr = compiler.Compile(schemaURL)
		if schemaErr != nil {
			schemaErr = fmt.Errorf("compile schema: %w", schemaErr)
		}
	})
	return schema, schemaErr
}

// Parse decodes agent output. Output whose first meaningful character is "{"
// (optionally inside a ```json fence) must satisfy the envelope schema;
// anything else is taken as a bare diff for a single change.
func Parse(output string) (*Result, error) {
	body, ok := envelopeBody(output)
	if !ok {
		return &Result{
			Changes:    []Change{{Patch: output}},
			HadChanges: strings.TrimSpace(output) != "",
		}, nil
	}

	var doc any
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}
	sch, err := compiledSchema()
	if err != nil {
		return nil, err
	}
	if err := sch.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}

	var res Result
	if err := json.Unmarshal([]byte(body), &res); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}
	return &res, nil
}

// envelopeBody extracts a JSON object from output, unwrapping a ```json
// fence when present.
func envelopeBody(output string) (string, bool) {
	text := strings.TrimSpace(output)
	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
	}
	if !strings.HasPrefix(text, "{") {
		return "", false
	}
	return text, true
}

// Paths lists the files the agent claims to change.
func (r *Result) Paths() []string {
	paths := make([]string, 0, len(r.Changes))
	for _, c := range r.Changes {
		if c.Path != "" {
			paths = append(paths, c.Path)
		}
	}
	return paths
}

// Input joins every change's patch into one inline pipeline input.
func (r *Result) Input() patch.RawInput {
	parts := make([]string, 0, len(r.Changes))
	for _, c := range r.Changes {
		parts = append(parts, c.Patch)
	}
	return patch.Join(parts...)
}
