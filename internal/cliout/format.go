// Package cliout formats core results for the fleetctl CLI, the same way
// the teacher's internal/status formats port-forward state: one Format*
// function per output mode (table/json/yaml), switched on by the caller.
package cliout

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jmagar/fleetctl/internal/collect"
	"github.com/jmagar/fleetctl/internal/registry"
)

// Format is the output mode shared by every fleetctl subcommand.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// Valid reports whether f is one of the three supported modes.
func (f Format) Valid() bool {
	switch f {
	case FormatTable, FormatJSON, FormatYAML:
		return true
	}
	return false
}

// resultView is the stable on-wire shape for a collect.Result; Data is
// rendered as its own field rather than forced through Result's `any`.
type resultView struct {
	OperationID      string `json:"operation_id" yaml:"operation_id"`
	OperationName    string `json:"operation_name" yaml:"operation_name"`
	DeviceID         string `json:"device_id" yaml:"device_id"`
	Success          bool   `json:"success" yaml:"success"`
	Cached           bool   `json:"cached" yaml:"cached"`
	ExecutionTimeMs  int64  `json:"execution_time_ms" yaml:"execution_time_ms"`
	ValidationPassed bool   `json:"validation_passed" yaml:"validation_passed"`
	ErrorCode        string `json:"error_code,omitempty" yaml:"error_code,omitempty"`
	ErrorMessage     string `json:"error_message,omitempty" yaml:"error_message,omitempty"`
	Data             any    `json:"data,omitempty" yaml:"data,omitempty"`
}

func toResultView(r *collect.Result) resultView {
	return resultView{
		OperationID:      r.OperationID,
		OperationName:    r.OperationName,
		DeviceID:         r.DeviceID,
		Success:          r.Success,
		Cached:           r.Cached,
		ExecutionTimeMs:  r.ExecutionTimeMs,
		ValidationPassed: r.ValidationPassed,
		ErrorCode:        r.ErrorCode,
		ErrorMessage:     r.ErrorMessage,
		Data:             r.Data,
	}
}

// FormatResult renders one collect() outcome in the requested mode.
func FormatResult(r *collect.Result, format Format) string {
	view := toResultView(r)

	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(view, "", "  ")
		if err != nil {
			return fmt.Sprintf(`{"error": "failed to marshal JSON: %s"}`, err.Error())
		}
		return string(data) + "\n"
	case FormatYAML:
		data, err := yaml.Marshal(view)
		if err != nil {
			return fmt.Sprintf("error: failed to marshal YAML: %s\n", err.Error())
		}
		return string(data)
	default:
		return resultTable(r)
	}
}

func resultTable(r *collect.Result) string {
	var sb strings.Builder
	status := "OK"
	if !r.Success {
		status = "FAILED"
	}
	if r.Cached {
		status += " (cached)"
	}

	sb.WriteString(fmt.Sprintf("operation:   %s\n", r.OperationName))
	sb.WriteString(fmt.Sprintf("device:      %s\n", r.DeviceID))
	sb.WriteString(fmt.Sprintf("status:      %s\n", status))
	sb.WriteString(fmt.Sprintf("duration:    %dms\n", r.ExecutionTimeMs))
	if !r.Success {
		sb.WriteString(fmt.Sprintf("error_code:  %s\n", r.ErrorCode))
		sb.WriteString(fmt.Sprintf("error:       %s\n", r.ErrorMessage))
		return sb.String()
	}
	if data, ok := r.Data.(string); ok {
		sb.WriteString("---\n")
		sb.WriteString(data)
		if !strings.HasSuffix(data, "\n") {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// FormatStats renders a collection-service statistics snapshot.
func FormatStats(snap collect.Snapshot, format Format) string {
	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(snap, "", "  ")
		if err != nil {
			return fmt.Sprintf(`{"error": "failed to marshal JSON: %s"}`, err.Error())
		}
		return string(data) + "\n"
	case FormatYAML:
		data, err := yaml.Marshal(snap)
		if err != nil {
			return fmt.Sprintf("error: failed to marshal YAML: %s\n", err.Error())
		}
		return string(data)
	default:
		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("%-20s %d\n", "total:", snap.Total))
		sb.WriteString(fmt.Sprintf("%-20s %d\n", "successful:", snap.Successful))
		sb.WriteString(fmt.Sprintf("%-20s %d\n", "failed:", snap.Failed))
		sb.WriteString(fmt.Sprintf("%-20s %d\n", "timeout:", snap.Timeout))
		sb.WriteString(fmt.Sprintf("%-20s %.2f\n", "cache_hit_ratio:", snap.CacheHitRatio))
		sb.WriteString(fmt.Sprintf("%-20s %dms\n", "avg_duration:", snap.AvgDurationMs))
		sb.WriteString(fmt.Sprintf("%-20s %dms\n", "min_duration:", snap.MinDurationMs))
		sb.WriteString(fmt.Sprintf("%-20s %dms\n", "max_duration:", snap.MaxDurationMs))
		sb.WriteString(fmt.Sprintf("%-20s %ds\n", "uptime:", snap.UptimeSeconds))
		sb.WriteString(fmt.Sprintf("%-20s %d\n", "registry_size:", snap.RegistrySize))
		return sb.String()
	}
}

// registryRow is the stable on-wire shape for `fleetctl registry list`.
type registryRow struct {
	Name            string `json:"name" yaml:"name"`
	Category        string `json:"category" yaml:"category"`
	Description     string `json:"description,omitempty" yaml:"description,omitempty"`
	CacheTTLSeconds int    `json:"cache_ttl_seconds" yaml:"cache_ttl_seconds"`
	RequiresSudo    bool   `json:"requires_sudo" yaml:"requires_sudo"`
}

// FormatRegistry renders the catalog of registered operations.
func FormatRegistry(defs []*registry.CommandDefinition, format Format) string {
	rows := make([]registryRow, 0, len(defs))
	for _, d := range defs {
		rows = append(rows, registryRow{
			Name:            d.Name,
			Category:        string(d.Category),
			Description:     d.Description,
			CacheTTLSeconds: d.CacheTTLSeconds,
			RequiresSudo:    d.RequiresSudo,
		})
	}

	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(rows, "", "  ")
		if err != nil {
			return fmt.Sprintf(`{"error": "failed to marshal JSON: %s"}`, err.Error())
		}
		return string(data) + "\n"
	case FormatYAML:
		data, err := yaml.Marshal(rows)
		if err != nil {
			return fmt.Sprintf("error: failed to marshal YAML: %s\n", err.Error())
		}
		return string(data)
	default:
		if len(rows) == 0 {
			return "No registered operations\n"
		}
		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("%-28s %-24s %-8s %s\n", "NAME", "CATEGORY", "TTL(s)", "SUDO"))
		sb.WriteString(strings.Repeat("-", 80))
		sb.WriteString("\n")
		for _, row := range rows {
			sb.WriteString(fmt.Sprintf("%-28s %-24s %-8d %v\n", row.Name, row.Category, row.CacheTTLSeconds, row.RequiresSudo))
		}
		return sb.String()
	}
}
