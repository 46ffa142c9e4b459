package parse

import "encoding/json"

// ParseJSONConfig best-effort parses a watched JSON configuration file's
// content for ConfigurationSnapshot's parsed_data.
func ParseJSONConfig(content string) (map[string]any, error) {
	var out map[string]any
	if err := json.Unmarshal([]byte(content), &out); err != nil {
		return nil, err
	}
	return out, nil
}
