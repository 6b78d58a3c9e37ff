package llm

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"text/template"
)

// PromptTemplate wraps a text/template with a content digest so callers can
// tie a rendered prompt back to the exact template revision that produced it.
type PromptTemplate struct {
	name  string
	funcs template.FuncMap

	mu   sync.RWMutex
	tmpl *template.Template
	hash string
}

// NewPromptTemplate parses template text under the given name using the
// provided template functions.
func NewPromptTemplate(name, text string, funcs template.FuncMap) (*PromptTemplate, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("prompt template name is empty")
	}
	t := &PromptTemplate{
		name:  name,
		funcs: funcs,
	}
	if err := t.parse(text); err != nil {
		return nil, err
	}
	return t, nil
}

// Render executes the template with the provided data.
func (t *PromptTemplate) Render(data any) (string, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.tmpl == nil {
		return "", fmt.Errorf("prompt template %q not parsed", t.name)
	}

	var buf bytes.Buffer
	if err := t.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute prompt template %q: %w", t.name, err)
	}
	return buf.String(), nil
}

func (t *PromptTemplate) parse(text string) error {
	t.hash = computeDigest([]byte(text))

	tmpl := template.New(t.name).Option("missingkey=error")
	if len(t.funcs) > 0 {
		tmpl = tmpl.Funcs(t.funcs)
	}
	if _, err := tmpl.Parse(text); err != nil {
		return fmt.Errorf("parse prompt template %q: %w", t.name, err)
	}
	t.tmpl = tmpl
	return nil
}

// Digest returns the sha256 hash of the template content.
func (t *PromptTemplate) Digest() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.hash
}

// DigestString returns the sha256 digest for the provided string.
func DigestString(s string) string {
	return computeDigest([]byte(s))
}

func computeDigest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
