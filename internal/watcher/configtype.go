package watcher

import "strings"

// ConfigType classifies a watched file by its path, per spec.md's
// path-pattern table: proxy-confs directories are nginx reverse-proxy
// stanzas, docker-compose.* files are compose manifests, and so on down
// to a generic catch-all by extension.
type ConfigType string

const (
	ConfigNginxProxy    ConfigType = "nginx_proxy"
	ConfigDockerCompose ConfigType = "docker_compose"
	ConfigTraefik       ConfigType = "traefik"
	ConfigApache        ConfigType = "apache"
	ConfigYAML          ConfigType = "yaml_config"
	ConfigJSON          ConfigType = "json_config"
	ConfigGeneric       ConfigType = "generic_config"
	ConfigUnknown       ConfigType = "unknown"
)

// ClassifyPath determines the config_type for a watched path, checking
// directory-level patterns before falling back to extension.
func ClassifyPath(path string) ConfigType {
	lower := strings.ToLower(path)

	switch {
	case strings.Contains(lower, "proxy-confs"):
		return ConfigNginxProxy
	case strings.Contains(lower, "docker-compose"):
		return ConfigDockerCompose
	case strings.Contains(lower, "/traefik/"):
		return ConfigTraefik
	case strings.Contains(lower, "/apache2/"), strings.Contains(lower, "/apache/"):
		return ConfigApache
	case strings.HasSuffix(lower, ".yml"), strings.HasSuffix(lower, ".yaml"):
		return ConfigYAML
	case strings.HasSuffix(lower, ".json"):
		return ConfigJSON
	case strings.HasSuffix(lower, ".conf"):
		return ConfigGeneric
	default:
		return ConfigUnknown
	}
}
