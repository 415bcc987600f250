package config

import (
	"fmt"
	"os"
)

const sampleConfig = `# pagecraft configuration
llm:
  base_url: https://api.openai.com/v1
  model: gpt-4o-mini
  api_key: ${OPENAI_API_KEY}
  temperature: 0.7
  timeout: 60s
  max_retries: 2

output:
  directory: ./pages
  pretty: true
  preview: false

metrics:
  enabled: false

events:
  enabled: false
  # url: nats://localhost:4222
  # subject: pagecraft.runs

store:
  enabled: false
  # path: ./pagecraft-runs.db

watch:
  debounce: 500ms
  # interval: 1h
`

// Init writes a sample configuration file.
func Init(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", path)
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o600); err != nil {
		return fmt.Errorf("write configuration file: %w", err)
	}
	return nil
}
