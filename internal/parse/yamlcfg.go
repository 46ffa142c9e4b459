package parse

import "gopkg.in/yaml.v3"

// ParseYAMLConfig best-effort parses a watched docker-compose or generic
// YAML file's content into a structured form for ConfigurationSnapshot's
// parsed_data. A parse failure is never fatal to the snapshot insert; the
// caller records validation_status=error and keeps the raw content.
func ParseYAMLConfig(content string) (map[string]any, error) {
	var out map[string]any
	if err := yaml.Unmarshal([]byte(content), &out); err != nil {
		return nil, err
	}
	return out, nil
}
