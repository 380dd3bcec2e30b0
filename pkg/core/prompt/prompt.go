// Package prompt is the central library of model prompts. Templates are
// registered once at startup and read-only afterwards.
package prompt

import (
	"bytes"
	"fmt"
	"text/template"
)

// Template is a reusable prompt with metadata. UserTmpl is a Go text/template
// rendered against per-call variables.
type Template struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Category     string `json:"category"`
	Description  string `json:"description"`
	SystemPrompt string `json:"system_prompt"`
	UserTmpl     string `json:"user_prompt_template"`
	Version      string `json:"version"`
}

// RenderUser fills the user template with vars.
func (t *Template) RenderUser(vars map[string]interface{}) (string, error) {
	tmpl, err := template.New(t.ID).Parse(t.UserTmpl)
	if err != nil {
		return "", fmt.Errorf("PROMPT_TEMPLATE_ERROR: %s: %v", t.ID, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, vars); err != nil {
		return "", fmt.Errorf("PROMPT_RENDER_ERROR: %s: %v", t.ID, err)
	}
	return buf.String(), nil
}
