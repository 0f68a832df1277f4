// Package render produces display fragments for missions. It is a thin
// contract around html/template: deterministic for identical inputs and
// free of mission state.
package render

import (
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"
)

// Renderer turns a named template plus a data context into a fragment.
type Renderer interface {
	Render(name string, data map[string]any) (string, error)
}

// TemplateRenderer loads templates from a directory on demand and caches
// the parsed form. Template source errors surface on first use.
type TemplateRenderer struct {
	dir   string
	cache map[string]*template.Template
}

func NewTemplateRenderer(dir string) *TemplateRenderer {
	return &TemplateRenderer{dir: dir, cache: make(map[string]*template.Template)}
}

func (r *TemplateRenderer) Render(name string, data map[string]any) (string, error) {
	tmpl, err := r.lookup(name)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return sb.String(), nil
}

func (r *TemplateRenderer) lookup(name string) (*template.Template, error) {
	if tmpl, ok := r.cache[name]; ok {
		return tmpl, nil
	}
	path := filepath.Join(r.dir, name)
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("template source %s: %w", path, err)
	}
	tmpl, err := template.New(name).Parse(string(src))
	if err != nil {
		return nil, fmt.Errorf("parse template %s: %w", path, err)
	}
	r.cache[name] = tmpl
	return tmpl, nil
}

// MergeContext overlays caller-supplied values on instance defaults without
// mutating either map.
func MergeContext(defaults, extra map[string]any) map[string]any {
	merged := make(map[string]any, len(defaults)+len(extra))
	for k, v := range defaults {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	return merged
}
