// Package assets provides the embedded config template and the JSON Schema
// for assessment envelopes.
package assets

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"text/template"
)

//go:embed templates/*
var templatesFS embed.FS

//go:embed schemas/*.json
var schemasFS embed.FS

// LoadTemplate returns the content of a template by file name.
// Override lookup order: project .patchgate/templates/ > user ~/.patchgate/templates/ > embedded.
func LoadTemplate(name string) (string, error) {
	return loadWithOverride("templates", name, templatesFS)
}

// RenderTemplate loads a template and executes it with data.
func RenderTemplate(name string, data any) (string, error) {
	content, err := LoadTemplate(name)
	if err != nil {
		return "", err
	}
	tmpl, err := template.New(name).Parse(content)
	if err != nil {
		return "", fmt.Errorf("parsing template %s: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering template %s: %w", name, err)
	}
	return buf.String(), nil
}

// LoadSchema returns an embedded JSON Schema by file name. Schemas are not
// overridable; they describe the contract with the agent.
func LoadSchema(name string) ([]byte, error) {
	data, err := schemasFS.ReadFile(path.Join("schemas", name))
	if err != nil {
		return nil, fmt.Errorf("schema %q not found", name)
	}
	return data, nil
}

func loadWithOverride(dir, filename string, embedded embed.FS) (string, error) {
	// 1. project-level override
	projectPath := filepath.Join(".patchgate", dir, filename)
	if data, err := os.ReadFile(projectPath); err == nil {
		return string(data), nil
	}

	// 2. user-level override
	if home, err := os.UserHomeDir(); err == nil {
		userPath := filepath.Join(home, ".patchgate", dir, filename)
		if data, err := os.ReadFile(userPath); err == nil {
			return string(data), nil
		}
	}

	// 3. embedded default
	data, err := embedded.ReadFile(path.Join(dir, filename))
	if err != nil {
		return "", fmt.Errorf("%s %q not found", dir, filename)
	}
	return string(data), nil
}
