package parse

import (
	"strconv"
	"strings"
)

// MemInfo is a decoded subset of /proc/meminfo, keyed by field name
// with the trailing "kB" unit stripped (values stay in kB).
type MemInfo map[string]int64

func ParseMemInfo(stdout string) MemInfo {
	info := make(MemInfo)
	for _, line := range splitNonEmptyLines(stdout) {
		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		valueField := strings.Fields(strings.TrimSpace(parts[1]))
		if len(valueField) == 0 {
			continue
		}
		if v, err := strconv.ParseInt(valueField[0], 10, 64); err == nil {
			info[key] = v
		}
	}
	return info
}

// LoadAvg is the decoded content of /proc/loadavg.
type LoadAvg struct {
	Load1, Load5, Load15 float64
	RunnableProcesses    int
	TotalProcesses       int
	LastPID              int
}

func ParseLoadAvg(stdout string) (LoadAvg, bool) {
	fields := strings.Fields(strings.TrimSpace(stdout))
	if len(fields) < 5 {
		return LoadAvg{}, false
	}
	var la LoadAvg
	la.Load1, _ = strconv.ParseFloat(fields[0], 64)
	la.Load5, _ = strconv.ParseFloat(fields[1], 64)
	la.Load15, _ = strconv.ParseFloat(fields[2], 64)

	runnable := strings.SplitN(fields[3], "/", 2)
	if len(runnable) == 2 {
		la.RunnableProcesses, _ = strconv.Atoi(runnable[0])
		la.TotalProcesses, _ = strconv.Atoi(runnable[1])
	}
	la.LastPID, _ = strconv.Atoi(fields[4])
	return la, true
}

// CPUTimes is the first line of /proc/stat, the aggregate CPU jiffy
// counters used to derive utilization between two samples.
type CPUTimes struct {
	User, Nice, System, Idle, IOWait, IRQ, SoftIRQ, Steal int64
}

func ParseProcStatCPU(stdout string) (CPUTimes, bool) {
	for _, line := range splitNonEmptyLines(stdout) {
		if !strings.HasPrefix(line, "cpu ") {
			continue
		}
		fields := strings.Fields(line)[1:]
		get := func(i int) int64 {
			if i >= len(fields) {
				return 0
			}
			v, _ := strconv.ParseInt(fields[i], 10, 64)
			return v
		}
		return CPUTimes{
			User: get(0), Nice: get(1), System: get(2), Idle: get(3),
			IOWait: get(4), IRQ: get(5), SoftIRQ: get(6), Steal: get(7),
		}, true
	}
	return CPUTimes{}, false
}

// DiskUsage is one df row.
type DiskUsage struct {
	Filesystem string
	Size       string
	Used       string
	Avail      string
	UsePercent string
	MountedOn  string
}

func ParseDF(stdout string) []DiskUsage {
	lines := splitNonEmptyLines(stdout)
	if len(lines) < 2 {
		return nil
	}
	var out []DiskUsage
	for _, line := range lines[1:] {
		f := strings.Fields(line)
		if len(f) < 6 {
			continue
		}
		out = append(out, DiskUsage{
			Filesystem: f[0], Size: f[1], Used: f[2], Avail: f[3],
			UsePercent: f[4], MountedOn: strings.Join(f[5:], " "),
		})
	}
	return out
}

// NetDevCounters is one interface's line from /proc/net/dev.
type NetDevCounters struct {
	Interface            string
	RxBytes, TxBytes     int64
	RxPackets, TxPackets int64
}

func ParseProcNetDev(stdout string) []NetDevCounters {
	var out []NetDevCounters
	for _, line := range splitNonEmptyLines(stdout) {
		if !strings.Contains(line, ":") {
			continue
		}
		parts := strings.SplitN(line, ":", 2)
		iface := strings.TrimSpace(parts[0])
		if iface == "" || iface == "Inter-|" || strings.HasPrefix(iface, "face") {
			continue
		}
		fields := strings.Fields(parts[1])
		if len(fields) < 10 {
			continue
		}
		rxBytes, _ := strconv.ParseInt(fields[0], 10, 64)
		rxPackets, _ := strconv.ParseInt(fields[1], 10, 64)
		txBytes, _ := strconv.ParseInt(fields[8], 10, 64)
		txPackets, _ := strconv.ParseInt(fields[9], 10, 64)
		out = append(out, NetDevCounters{
			Interface: iface, RxBytes: rxBytes, RxPackets: rxPackets,
			TxBytes: txBytes, TxPackets: txPackets,
		})
	}
	return out
}
