// Package registry is the command catalog: the single source of truth for
// what the core may ask a remote host, and how to tell a good answer from a
// bad one. It is process-global read-only state once New is populated —
// no component outside this package ever mutates a CommandDefinition.
package registry

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
)

// Category is the closed set of command categories from spec §4.1.
type Category string

const (
	CategorySystemInfo          Category = "system_info"
	CategorySystemMonitoring    Category = "system_monitoring"
	CategoryContainerManagement Category = "container_management"
	CategoryDockerCompose       Category = "docker_compose"
	CategoryZFSManagement       Category = "zfs_management"
	CategoryDriveHealth         Category = "drive_health"
	CategoryNetworkInfo         Category = "network_info"
	CategoryProcessManagement   Category = "process_management"
	CategoryServiceManagement   Category = "service_management"
	CategoryFileOperations      Category = "file_operations"
	CategoryConfiguration       Category = "configuration"
	CategoryLogs                Category = "logs"
)

// CommandDefinition is an immutable catalog entry. Fields are set once at
// Register time; ValidationRegexps/ErrorRegexps are compiled eagerly so
// that ValidateOutput/DetectErrors never pay regexp.Compile on the hot
// path.
type CommandDefinition struct {
	Name               string
	CommandTemplate    string
	Category           Category
	Description        string
	TimeoutSeconds     int
	RetryCount         int
	RetryDelaySeconds  float64
	ExpectedExitCodes  map[int]bool
	RequiresSudo       bool
	CacheTTLSeconds    int
	FreshnessThreshold int
	ValidationPatterns []string
	ErrorPatterns      []string

	validationRegexps []*regexp.Regexp
	errorRegexps      []*regexp.Regexp
}

var placeholderPattern = regexp.MustCompile(`\{([a-zA-Z_][a-zA-Z0-9_]*)\}`)

// Registry is a concurrency-safe catalog, guarded the same way
// internal/device.MemStore guards its maps.
type Registry struct {
	mu   sync.RWMutex
	defs map[string]*CommandDefinition
}

// New creates an empty registry. Use NewWithCatalog for the pre-seeded
// fleet catalog (spec §4.7).
func New() *Registry {
	return &Registry{defs: make(map[string]*CommandDefinition)}
}

// Register inserts or replaces a definition by name, compiling its
// validation/error patterns.
func (r *Registry) Register(def CommandDefinition) error {
	if def.Name == "" {
		return fmt.Errorf("command definition requires a name")
	}
	if def.ExpectedExitCodes == nil {
		def.ExpectedExitCodes = map[int]bool{0: true}
	}

	compiled := make([]*regexp.Regexp, 0, len(def.ValidationPatterns))
	for _, p := range def.ValidationPatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return fmt.Errorf("command %q: invalid validation pattern %q: %w", def.Name, p, err)
		}
		compiled = append(compiled, re)
	}
	def.validationRegexps = compiled

	errCompiled := make([]*regexp.Regexp, 0, len(def.ErrorPatterns))
	for _, p := range def.ErrorPatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return fmt.Errorf("command %q: invalid error pattern %q: %w", def.Name, p, err)
		}
		errCompiled = append(errCompiled, re)
	}
	def.errorRegexps = errCompiled

	d := def
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defs[d.Name] = &d
	return nil
}

// MustRegister panics on registration failure; used only for the built-in
// catalog, where a bad pattern is a programmer error caught at startup.
func (r *Registry) MustRegister(def CommandDefinition) {
	if err := r.Register(def); err != nil {
		panic(err)
	}
}

// Get retrieves a definition by name, or nil if unknown.
func (r *Registry) Get(name string) *CommandDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defs[name]
}

// ByCategory filters the catalog to one category, sorted by name for
// deterministic CLI/test output.
func (r *Registry) ByCategory(cat Category) []*CommandDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*CommandDefinition, 0)
	for _, d := range r.defs {
		if d.Category == cat {
			out = append(out, d)
		}
	}
	sortDefsByName(out)
	return out
}

// All returns every registered definition, sorted by name.
func (r *Registry) All() []*CommandDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*CommandDefinition, 0, len(r.defs))
	for _, d := range r.defs {
		out = append(out, d)
	}
	sortDefsByName(out)
	return out
}

func sortDefsByName(defs []*CommandDefinition) {
	for i := 1; i < len(defs); i++ {
		for j := i; j > 0 && defs[j-1].Name > defs[j].Name; j-- {
			defs[j-1], defs[j] = defs[j], defs[j-1]
		}
	}
}

// Format substitutes {placeholder} parameters into the command's template.
// It returns ("", false) if a placeholder has no corresponding entry in
// params — the caller must report this as a validation failure, never
// silently drop a placeholder.
func (r *Registry) Format(name string, params map[string]string) (string, bool) {
	def := r.Get(name)
	if def == nil {
		return "", false
	}

	missing := false
	result := placeholderPattern.ReplaceAllStringFunc(def.CommandTemplate, func(match string) string {
		key := match[1 : len(match)-1]
		v, ok := params[key]
		if !ok {
			missing = true
			return match
		}
		return v
	})
	if missing {
		return "", false
	}
	return result, true
}

// ValidateOutput reports whether stdout satisfies every validation pattern
// for name. An unknown command name validates as false.
func (r *Registry) ValidateOutput(name, stdout string) bool {
	def := r.Get(name)
	if def == nil {
		return false
	}
	for _, re := range def.validationRegexps {
		if !re.MatchString(stdout) {
			return false
		}
	}
	return true
}

// DetectErrors returns the list of error patterns (as their source string)
// that matched stdout.
func (r *Registry) DetectErrors(name, stdout string) []string {
	def := r.Get(name)
	if def == nil {
		return nil
	}
	var matched []string
	for i, re := range def.errorRegexps {
		if re.MatchString(stdout) {
			matched = append(matched, def.ErrorPatterns[i])
		}
	}
	return matched
}

// ParamsFromKV parses a "k=v,k2=v2" flag value into a params map, the shape
// the fleetctl CLI's --param flag produces.
func ParamsFromKV(pairs []string) map[string]string {
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		parts := strings.SplitN(p, "=", 2)
		if len(parts) != 2 {
			continue
		}
		out[parts[0]] = parts[1]
	}
	return out
}
