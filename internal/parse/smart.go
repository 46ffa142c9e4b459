package parse

import (
	"regexp"
	"strconv"
	"strings"
)

// AccessDeniedSentinel is emitted by the analyzer's graceful smartctl
// fallback chain when neither sudo nor plain smartctl succeeds.
const AccessDeniedSentinel = "SMART_ACCESS_DENIED"

// SMARTData is the parsed subset of a smartctl -a invocation the
// analyzer persists. Every field is optional: unparseable values stay
// at their zero value and never abort the drive or the analysis.
type SMARTData struct {
	PowerOnHours       *int64
	TemperatureCelsius *int
	HealthStatus       string
	ReallocatedSectors *int64
	Available          bool
}

var (
	minMaxParenPattern = regexp.MustCompile(`(\d+)\s*\(Min/Max`)
	digitsPattern      = regexp.MustCompile(`^[\d,]+$`)
)

// ParseSMART implements the rules in the analyzer's SMART parsing
// section: power-on hours from any known label variant, temperature
// from the traditional raw-value column or the NVMe "Temperature: N
// Celsius" form (rejecting implausible low first-candidates in favor of
// an adjacent "N (Min/Max ...)" reading), reallocated sectors from
// attribute ID 5, and health from either the classic or NVMe health
// line. Unparseable fields are left nil rather than failing the parse.
func ParseSMART(stdout string) SMARTData {
	var data SMARTData

	if strings.Contains(stdout, AccessDeniedSentinel) {
		return data
	}
	data.Available = true

	for _, rawLine := range strings.Split(stdout, "\n") {
		line := strings.TrimSpace(rawLine)

		switch {
		case strings.Contains(line, "Power_On_Hours"),
			strings.Contains(line, "Power On Hours"),
			strings.Contains(line, "Power on Hours:"):
			if hours := extractPowerOnHours(line); hours != nil {
				data.PowerOnHours = hours
			}

		case strings.Contains(line, "Temperature_Celsius"),
			strings.Contains(line, "Temperature") && strings.Contains(line, "Celsius"):
			if temp := extractTemperature(line); temp != nil {
				data.TemperatureCelsius = temp
			}

		case strings.Contains(line, "SMART overall-health self-assessment test result:"):
			parts := strings.SplitN(line, ":", 2)
			if len(parts) == 2 {
				data.HealthStatus = strings.TrimSpace(parts[1])
			}

		case strings.Contains(line, "SMART Health Status: OK"):
			data.HealthStatus = "OK"

		case strings.Contains(line, "Reallocated_Sector_Ct"):
			if sectors := extractReallocatedSectors(line); sectors != nil {
				data.ReallocatedSectors = sectors
			}
		}
	}

	return data
}

func extractPowerOnHours(line string) *int64 {
	parts := strings.Fields(line)

	// Attribute table row: the hours are in the raw-value column; the
	// earlier numeric columns are normalized/worst/threshold values.
	if strings.Contains(line, "Power_On_Hours") && len(parts) >= 10 {
		clean := strings.ReplaceAll(parts[9], ",", "")
		if digitsPattern.MatchString(clean) {
			if v, err := strconv.ParseInt(clean, 10, 64); err == nil {
				return &v
			}
		}
		return nil
	}

	for i, part := range parts {
		if i == 0 {
			continue
		}
		clean := strings.ReplaceAll(part, ",", "")
		if digitsPattern.MatchString(clean) {
			if v, err := strconv.ParseInt(clean, 10, 64); err == nil {
				return &v
			}
		}
	}
	return nil
}

func extractTemperature(line string) *int {
	parts := strings.Fields(line)

	// Traditional SMART attribute table: "Temperature_Celsius 0x0022 ... raw"
	if strings.Contains(line, "Temperature_Celsius") && len(parts) >= 10 {
		if v, err := strconv.Atoi(parts[9]); err == nil {
			if v >= 0 && v <= 100 {
				return preferMinMaxReading(line, v)
			}
		}
	}

	// NVMe / generic: "Temperature: 45 Celsius"
	if strings.Contains(line, "Temperature:") && strings.Contains(line, "Celsius") {
		for i, part := range parts {
			v, err := strconv.Atoi(part)
			if err != nil {
				continue
			}
			if i+1 < len(parts) {
				unit := strings.ToLower(parts[i+1])
				if (unit == "celsius" || unit == "c" || unit == "°c") && v >= 0 && v <= 100 {
					return preferMinMaxReading(line, v)
				}
			}
		}
	}

	return nil
}

// preferMinMaxReading implements the analyzer's tie-break: a raw
// temperature under 15 is often a SMART attribute's normalized/worst
// column bleeding through rather than the actual reading, so when a
// "N (Min/Max ...)" pattern is present elsewhere on the line, the N
// immediately before the parenthesis wins.
func preferMinMaxReading(line string, candidate int) *int {
	if candidate >= 15 {
		return &candidate
	}
	if m := minMaxParenPattern.FindStringSubmatch(line); m != nil {
		if v, err := strconv.Atoi(m[1]); err == nil && v >= 0 && v <= 100 {
			return &v
		}
	}
	return &candidate
}

func extractReallocatedSectors(line string) *int64 {
	parts := strings.Fields(line)
	for i, part := range parts {
		if i <= 5 {
			continue
		}
		if digitsPattern.MatchString(part) {
			if v, err := strconv.ParseInt(part, 10, 64); err == nil {
				return &v
			}
		}
	}
	return nil
}
