package llm

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed prompts/*.yaml
var embeddedPrompts embed.FS

// PromptTemplate is a system/user prompt pair with text/template
// placeholders.
type PromptTemplate struct {
	System string `yaml:"system_prompt"`
	User   string `yaml:"user_prompt"`
}

// Render executes both templates against data.
func (t *PromptTemplate) Render(data any) (system, user string, err error) {
	system, err = renderTemplate("system", t.System, data)
	if err != nil {
		return "", "", err
	}
	user, err = renderTemplate("user", t.User, data)
	if err != nil {
		return "", "", err
	}
	return system, user, nil
}

func renderTemplate(name, text string, data any) (string, error) {
	tpl, err := template.New(name).Option("missingkey=error").Parse(text)
	if err != nil {
		return "", fmt.Errorf("parse %s prompt template: %w", name, err)
	}
	var sb strings.Builder
	if err := tpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("render %s prompt template: %w", name, err)
	}
	return sb.String(), nil
}

// PromptSet resolves prompt templates by file name and key. Files in the
// override directory take precedence over the embedded defaults.
type PromptSet struct {
	dir string
}

// NewPromptSet creates a resolver; dir may be empty to use only embedded
// prompts.
func NewPromptSet(dir string) *PromptSet {
	return &PromptSet{dir: dir}
}

// Load reads the named prompt file and selects key within it. A file holding
// a single prompt uses the empty key.
func (ps *PromptSet) Load(name, key string) (*PromptTemplate, error) {
	data, source, err := ps.read(name)
	if err != nil {
		return nil, err
	}

	if key == "" {
		var tpl PromptTemplate
		if err := yaml.Unmarshal(data, &tpl); err != nil {
			return nil, fmt.Errorf("parse prompt file %s (%s): %w", name, source, err)
		}
		if tpl.System == "" || tpl.User == "" {
			return nil, fmt.Errorf("prompt file %s (%s) must contain system_prompt and user_prompt", name, source)
		}
		return &tpl, nil
	}

	var multi map[string]PromptTemplate
	if err := yaml.Unmarshal(data, &multi); err != nil {
		return nil, fmt.Errorf("parse prompt file %s (%s): %w", name, source, err)
	}
	tpl, ok := multi[key]
	if !ok {
		return nil, fmt.Errorf("prompt key %q not found in %s (%s)", key, name, source)
	}
	if tpl.System == "" || tpl.User == "" {
		return nil, fmt.Errorf("prompt %s.%s (%s) must contain system_prompt and user_prompt", name, key, source)
	}
	return &tpl, nil
}

func (ps *PromptSet) read(name string) (data []byte, source string, err error) {
	filename := name + ".yaml"
	if ps.dir != "" {
		override := filepath.Join(ps.dir, filename)
		if b, err := os.ReadFile(override); err == nil {
			return b, "file", nil
		}
	}
	b, err := embeddedPrompts.ReadFile("prompts/" + filename)
	if err != nil {
		return nil, "", fmt.Errorf("prompt file %s not found: %w", filename, err)
	}
	return b, "embedded", nil
}
