// Package prompt renders prompt templates against workflow state or agent
// variables.
package prompt

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

var funcs = template.FuncMap{
	"default": func(defaultVal any, val any) any {
		if val == nil || val == "" {
			return defaultVal
		}
		return val
	},
	"upper": strings.ToUpper,
	"lower": strings.ToLower,
	"trim":  strings.TrimSpace,
	"join": func(sep string, items any) string {
		switch v := items.(type) {
		case []string:
			return strings.Join(v, sep)
		case []any:
			strs := make([]string, len(v))
			for i, item := range v {
				strs[i] = fmt.Sprintf("%v", item)
			}
			return strings.Join(strs, sep)
		case nil:
			return ""
		default:
			return fmt.Sprintf("%v", v)
		}
	},
	"bullets": func(items any) string {
		var lines []string
		switch v := items.(type) {
		case []string:
			lines = v
		case []any:
			for _, item := range v {
				lines = append(lines, fmt.Sprintf("%v", item))
			}
		}
		var b strings.Builder
		for _, l := range lines {
			b.WriteString("- ")
			b.WriteString(l)
			b.WriteString("\n")
		}
		return strings.TrimRight(b.String(), "\n")
	},
}

// Template is a parsed prompt template.
type Template struct {
	name string
	tmpl *template.Template
}

// Parse parses text as a prompt template. Missing keys evaluate to nil, so
// optional fields can be guarded with if or default.
func Parse(name, text string) (*Template, error) {
	t, err := template.New(name).Option("missingkey=zero").Funcs(funcs).Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse prompt %s: %w", name, err)
	}
	return &Template{name: name, tmpl: t}, nil
}

// MustParse is like Parse but panics on error. Intended for package-level prompts.
func MustParse(name, text string) *Template {
	t, err := Parse(name, text)
	if err != nil {
		panic(err)
	}
	return t
}

// Render executes the template with data.
func (t *Template) Render(data map[string]any) (string, error) {
	var buf bytes.Buffer
	if err := t.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render prompt %s: %w", t.name, err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// Render is a one-shot helper. Text without template markers is returned as is.
func Render(text string, data map[string]any) (string, error) {
	if !strings.Contains(text, "{{") {
		return text, nil
	}
	t, err := Parse("prompt", text)
	if err != nil {
		return "", err
	}
	return t.Render(data)
}
