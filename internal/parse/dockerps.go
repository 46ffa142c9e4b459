package parse

import (
	"encoding/json"
	"strings"
)

// Container is one row of `docker ps -a --format table ...` output.
type Container struct {
	ID     string
	Names  string
	Status string
	Image  string
	Ports  string
}

// ParseDockerPS parses the tab-separated table list_containers produces.
// The first line is the header and is skipped;
// short rows (a container with no published ports) are tolerated.
func ParseDockerPS(stdout string) []Container {
	lines := splitNonEmptyLines(stdout)
	if len(lines) < 2 {
		return nil
	}

	var out []Container
	for _, line := range lines[1:] {
		cols := strings.Split(line, "\t")
		c := Container{}
		if len(cols) > 0 {
			c.ID = strings.TrimSpace(cols[0])
		}
		if len(cols) > 1 {
			c.Names = strings.TrimSpace(cols[1])
		}
		if len(cols) > 2 {
			c.Status = strings.TrimSpace(cols[2])
		}
		if len(cols) > 3 {
			c.Image = strings.TrimSpace(cols[3])
		}
		if len(cols) > 4 {
			c.Ports = strings.TrimSpace(cols[4])
		}
		out = append(out, c)
	}
	return out
}

// ContainerStat is one row of `docker stats --no-stream` table output.
type ContainerStat struct {
	Container string
	CPUPerc   string
	MemUsage  string
	NetIO     string
	BlockIO   string
}

func ParseDockerStats(stdout string) []ContainerStat {
	lines := splitNonEmptyLines(stdout)
	if len(lines) < 2 {
		return nil
	}
	var out []ContainerStat
	for _, line := range lines[1:] {
		cols := strings.Split(line, "\t")
		s := ContainerStat{}
		if len(cols) > 0 {
			s.Container = strings.TrimSpace(cols[0])
		}
		if len(cols) > 1 {
			s.CPUPerc = strings.TrimSpace(cols[1])
		}
		if len(cols) > 2 {
			s.MemUsage = strings.TrimSpace(cols[2])
		}
		if len(cols) > 3 {
			s.NetIO = strings.TrimSpace(cols[3])
		}
		if len(cols) > 4 {
			s.BlockIO = strings.TrimSpace(cols[4])
		}
		out = append(out, s)
	}
	return out
}

// ParseDockerInspect decodes the JSON array `docker inspect` emits into
// a generic shape; callers that need typed fields index into it, which
// keeps this parser free of the full Docker API's inspect schema.
func ParseDockerInspect(stdout string) ([]map[string]any, error) {
	var out []map[string]any
	if err := json.Unmarshal([]byte(stdout), &out); err != nil {
		return nil, err
	}
	return out, nil
}
