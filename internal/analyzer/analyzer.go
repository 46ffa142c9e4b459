// Package analyzer implements the composite device probe of spec.md
// §4.6: a single Analyze call that walks an ordered list of step
// functions against a device over the SSH pool, collecting partial data
// and non-fatal per-step errors, and deriving the capability tags that
// the rest of the core treats as ground truth.
package analyzer

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jmagar/fleetctl/internal/device"
	"github.com/jmagar/fleetctl/internal/parse"
	"github.com/jmagar/fleetctl/internal/sshpool"
)

// Options requests one analysis run.
type Options struct {
	IncludeProcesses bool
	StoreResults     bool
	Timeout          time.Duration

	SMARTMonitoringEnabled bool
	SMARTRequireSudo       bool
	SMARTGracefulFallback  bool
}

// DriveInfo is one enumerated block device plus its optional SMART data.
type DriveInfo struct {
	Name   string
	Type   string
	Size   string
	Model  string
	Serial string
	SMART  parse.SMARTData
	Error  string
}

// Report is the accumulated output of one Analyze call. Every step
// writes into it independently; a failed step leaves its section zero
// and records the reason in StepErrors rather than aborting the run.
type Report struct {
	DeviceID string

	Reachable  bool
	PacketLoss float64
	AvgRTTMs   float64

	SSHOK      bool
	SSHUser    string
	SSHHost    string
	FatalError string

	CPUTimes   parse.CPUTimes
	LoadAvg    parse.LoadAvg
	NumCPU     int
	MemInfo    parse.MemInfo
	Disks      []parse.DiskUsage
	NetDev     []parse.NetDevCounters
	KernelInfo string
	UptimeRaw  string
	BootTime   string

	DockerAvailable bool
	DockerInfoJSON  string
	ComposeDirs     []string
	AppdataDirs     []string
	SwagRunning     bool
	ProxyConfsCount int

	ZPools    []parse.ZPool
	Snapshots []parse.ZSnapshot

	CPUModel   string
	MemHuman   string
	GPUEntries []string

	OSRelease string
	Uptime    string

	VirshAvailable bool
	VMs            []string

	Drives []DriveInfo

	TopProcesses string

	Capabilities  map[string]bool
	CanonicalTags map[string]any

	StepErrors map[string]string
}

// Analyzer runs the composite probe against the pool.
type Analyzer struct {
	pool    *sshpool.Pool
	devices device.Store
	logger  *slog.Logger
}

func New(pool *sshpool.Pool, devices device.Store, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{pool: pool, devices: devices, logger: logger}
}

// Analyze runs every probe step in order against deviceID, stopping
// early only if the SSH handshake step fails.
func (a *Analyzer) Analyze(ctx context.Context, deviceID string, opts Options) (*Report, error) {
	dev, err := a.devices.Resolve(deviceID)
	if err != nil {
		return nil, err
	}

	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	stepCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	report := &Report{
		DeviceID:      dev.ID,
		Capabilities:  make(map[string]bool),
		CanonicalTags: make(map[string]any),
		StepErrors:    make(map[string]string),
	}

	sshURL := device.SSHURL(dev)

	a.stepPing(dev.Hostname, report)

	if err := a.stepSSHHandshake(stepCtx, sshURL, report); err != nil {
		report.FatalError = err.Error()
		return report, nil
	}

	a.stepSystemMetrics(stepCtx, sshURL, report)
	a.stepDocker(stepCtx, sshURL, report)
	a.stepZFS(stepCtx, sshURL, report)
	a.stepHardware(stepCtx, sshURL, report)
	a.stepOS(stepCtx, sshURL, report)
	a.stepVirtualization(stepCtx, sshURL, report)
	a.stepDriveHealth(stepCtx, sshURL, report, opts)
	if opts.IncludeProcesses {
		a.stepTopProcesses(stepCtx, sshURL, report)
	}

	deriveCapabilities(report)

	if opts.StoreResults {
		a.storeResults(dev, report)
	}

	return report, nil
}

func (a *Analyzer) recordError(report *Report, step string, err error) {
	if err == nil {
		return
	}
	report.StepErrors[step] = err.Error()
	a.logger.Warn("analyzer step failed", "step", step, "error", err.Error())
}

// stepPing runs a local ping (the core process's own network stack, not
// over SSH) to measure raw reachability ahead of attempting a handshake.
func (a *Analyzer) stepPing(hostname string, report *Report) {
	// #nosec G204 - hostname comes from the device store, not request input
	cmd := exec.Command("ping", "-c", "4", "-W", "5", hostname)
	out, err := cmd.CombinedOutput()
	output := string(out)

	report.Reachable = err == nil
	if loss := parsePingLoss(output); loss >= 0 {
		report.PacketLoss = loss
	}
	if rtt := parsePingAvgRTT(output); rtt >= 0 {
		report.AvgRTTMs = rtt
	}
}

var pingLossPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)% packet loss`)
var pingRTTPattern = regexp.MustCompile(`= [\d.]+/([\d.]+)/`)

func parsePingLoss(output string) float64 {
	m := pingLossPattern.FindStringSubmatch(output)
	if m == nil {
		return -1
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return -1
	}
	return v
}

func parsePingAvgRTT(output string) float64 {
	m := pingRTTPattern.FindStringSubmatch(output)
	if m == nil {
		return -1
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return -1
	}
	return v
}

func (a *Analyzer) stepSSHHandshake(ctx context.Context, sshURL string, report *Report) error {
	res, err := a.pool.Execute(ctx, sshURL, "echo SSH_CONNECTION_TEST && whoami && hostname", 15*time.Second, 1, 1)
	if err != nil {
		return fmt.Errorf("ssh handshake failed: %w", err)
	}
	if res.ExitCode != 0 || !strings.Contains(res.Stdout, "SSH_CONNECTION_TEST") {
		return fmt.Errorf("ssh handshake failed: unexpected output")
	}
	lines := strings.Split(strings.TrimSpace(res.Stdout), "\n")
	report.SSHOK = true
	if len(lines) >= 2 {
		report.SSHUser = strings.TrimSpace(lines[1])
	}
	if len(lines) >= 3 {
		report.SSHHost = strings.TrimSpace(lines[2])
	}
	return nil
}

func (a *Analyzer) stepSystemMetrics(ctx context.Context, sshURL string, report *Report) {
	if res, err := a.pool.Execute(ctx, sshURL, "cat /proc/stat | head -1", 10*time.Second, 1, 1); err == nil {
		if cpu, ok := parse.ParseProcStatCPU(res.Stdout); ok {
			report.CPUTimes = cpu
		}
	} else {
		a.recordError(report, "proc_stat", err)
	}

	if res, err := a.pool.Execute(ctx, sshURL, "cat /proc/loadavg", 10*time.Second, 1, 1); err == nil {
		if la, ok := parse.ParseLoadAvg(res.Stdout); ok {
			report.LoadAvg = la
		}
	} else {
		a.recordError(report, "loadavg", err)
	}

	if res, err := a.pool.Execute(ctx, sshURL, "nproc", 10*time.Second, 1, 1); err == nil {
		if n, err := strconv.Atoi(strings.TrimSpace(res.Stdout)); err == nil {
			report.NumCPU = n
		}
	} else {
		a.recordError(report, "nproc", err)
	}

	if res, err := a.pool.Execute(ctx, sshURL, "cat /proc/meminfo", 10*time.Second, 1, 1); err == nil {
		report.MemInfo = parse.ParseMemInfo(res.Stdout)
	} else {
		a.recordError(report, "meminfo", err)
	}

	if res, err := a.pool.Execute(ctx, sshURL, "df --output=source,size,used,avail,pcent,target", 15*time.Second, 1, 1); err == nil {
		report.Disks = parse.ParseDF(res.Stdout)
	} else {
		a.recordError(report, "df", err)
	}

	if res, err := a.pool.Execute(ctx, sshURL, "cat /proc/net/dev", 10*time.Second, 1, 1); err == nil {
		report.NetDev = parse.ParseProcNetDev(res.Stdout)
	} else {
		a.recordError(report, "net_dev", err)
	}

	if res, err := a.pool.Execute(ctx, sshURL, "uname -a", 10*time.Second, 1, 1); err == nil {
		report.KernelInfo = strings.TrimSpace(res.Stdout)
	} else {
		a.recordError(report, "uname", err)
	}

	if res, err := a.pool.Execute(ctx, sshURL, "cat /proc/uptime", 10*time.Second, 1, 1); err == nil {
		report.UptimeRaw = strings.TrimSpace(res.Stdout)
	} else {
		a.recordError(report, "proc_uptime", err)
	}

	if res, err := a.pool.Execute(ctx, sshURL, "stat -c %Y /proc/1", 10*time.Second, 1, 1); err == nil {
		report.BootTime = strings.TrimSpace(res.Stdout)
	} else {
		a.recordError(report, "boot_time", err)
	}
}

func (a *Analyzer) stepDocker(ctx context.Context, sshURL string, report *Report) {
	res, err := a.pool.Execute(ctx, sshURL, "docker --version && docker info --format json", 15*time.Second, 0, 1)
	if err != nil || res.ExitCode != 0 {
		a.recordError(report, "docker", err)
		return
	}
	report.DockerAvailable = true
	report.DockerInfoJSON = res.Stdout

	report.ComposeDirs = discoverComposeDirs(ctx, a.pool, sshURL)
	report.AppdataDirs = discoverAppdataDirs(ctx, a.pool, sshURL)
	report.SwagRunning, report.ProxyConfsCount = detectSwag(ctx, a.pool, sshURL)
}

func (a *Analyzer) stepZFS(ctx context.Context, sshURL string, report *Report) {
	res, err := a.pool.Execute(ctx, sshURL, "zpool list -H -o name,size,alloc,free,health", 15*time.Second, 0, 1)
	if err != nil || res.ExitCode != 0 {
		return
	}
	report.ZPools = parse.ParseZPoolList(res.Stdout)

	res, err = a.pool.Execute(ctx, sshURL, "zfs list -t snapshot -H -o name,used,creation | head -20", 15*time.Second, 0, 1)
	if err == nil && res.ExitCode == 0 {
		report.Snapshots = parse.ParseZFSSnapshots(res.Stdout)
	}
}

func (a *Analyzer) stepDriveHealth(ctx context.Context, sshURL string, report *Report, opts Options) {
	res, err := a.pool.Execute(ctx, sshURL, "lsblk -d -n -o NAME,TYPE", 10*time.Second, 1, 1)
	if err != nil {
		a.recordError(report, "lsblk", err)
		return
	}

	for _, line := range strings.Split(strings.TrimSpace(res.Stdout), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		name, kind := fields[0], fields[1]
		if kind != "disk" {
			continue
		}

		drive := DriveInfo{Name: name, Type: kind}
		devPath := "/dev/" + name

		if detail, err := a.pool.Execute(ctx, sshURL, fmt.Sprintf("lsblk -d -n -o SIZE,MODEL,SERIAL %s", devPath), 10*time.Second, 1, 1); err == nil {
			fields := strings.Fields(detail.Stdout)
			if len(fields) > 0 {
				drive.Size = fields[0]
			}
			if len(fields) > 1 {
				drive.Model = strings.Join(fields[1:len(fields)-1], " ")
			}
			if len(fields) > 1 {
				drive.Serial = fields[len(fields)-1]
			}
		}

		if opts.SMARTMonitoringEnabled {
			smartCmd := smartctlCommand(devPath, opts.SMARTRequireSudo, opts.SMARTGracefulFallback)
			smartRes, err := a.pool.Execute(ctx, sshURL, smartCmd, 20*time.Second, 0, 1)
			if err != nil {
				if !opts.SMARTGracefulFallback {
					drive.Error = err.Error()
				}
			} else {
				drive.SMART = parse.ParseSMART(smartRes.Stdout)
			}
		}

		report.Drives = append(report.Drives, drive)
	}
}

func (a *Analyzer) stepHardware(ctx context.Context, sshURL string, report *Report) {
	if res, err := a.pool.Execute(ctx, sshURL, "lscpu | grep -E 'Model name|^CPU\\(s\\)'", 10*time.Second, 1, 1); err == nil {
		report.CPUModel = strings.TrimSpace(res.Stdout)
	} else {
		a.recordError(report, "lscpu", err)
	}

	if res, err := a.pool.Execute(ctx, sshURL, "free -h | grep Mem", 10*time.Second, 1, 1); err == nil {
		report.MemHuman = strings.TrimSpace(res.Stdout)
	} else {
		a.recordError(report, "free", err)
	}

	if res, err := a.pool.Execute(ctx, sshURL, "lspci | grep -iE 'vga|nvidia'", 10*time.Second, 1, 1); err == nil {
		for _, line := range strings.Split(strings.TrimSpace(res.Stdout), "\n") {
			if line != "" {
				report.GPUEntries = append(report.GPUEntries, line)
			}
		}
	}
}

func (a *Analyzer) stepOS(ctx context.Context, sshURL string, report *Report) {
	if res, err := a.pool.Execute(ctx, sshURL, "cat /etc/os-release", 10*time.Second, 1, 1); err == nil {
		report.OSRelease = strings.TrimSpace(res.Stdout)
	} else {
		a.recordError(report, "os_release", err)
	}
	if res, err := a.pool.Execute(ctx, sshURL, "uptime", 10*time.Second, 1, 1); err == nil {
		report.Uptime = strings.TrimSpace(res.Stdout)
	} else {
		a.recordError(report, "uptime", err)
	}
}

func (a *Analyzer) stepVirtualization(ctx context.Context, sshURL string, report *Report) {
	res, err := a.pool.Execute(ctx, sshURL, "which virsh && virsh list --all | head -10", 10*time.Second, 0, 1)
	if err != nil || res.ExitCode != 0 {
		return
	}
	report.VirshAvailable = true
	for _, line := range strings.Split(strings.TrimSpace(res.Stdout), "\n") {
		if line != "" {
			report.VMs = append(report.VMs, line)
		}
	}
}

func (a *Analyzer) stepTopProcesses(ctx context.Context, sshURL string, report *Report) {
	res, err := a.pool.Execute(ctx, sshURL, "ps aux --sort=-%cpu | head -11", 15*time.Second, 0, 1)
	if err != nil {
		a.recordError(report, "top_processes", err)
		return
	}
	report.TopProcesses = res.Stdout
}

// deriveCapabilities computes the boolean capability tags spec.md §4.6
// names, storing them both on Capabilities and flattened into
// CanonicalTags for storeResults to persist verbatim.
func deriveCapabilities(report *Report) {
	report.Capabilities["docker"] = report.DockerAvailable
	report.Capabilities["zfs"] = len(report.ZPools) > 0
	report.Capabilities["swag"] = report.SwagRunning || report.ProxyConfsCount > 0
	report.Capabilities["vms"] = report.VirshAvailable
	report.Capabilities["gpu"] = len(report.GPUEntries) > 0

	for k, v := range report.Capabilities {
		report.CanonicalTags[k] = v
	}

	if len(report.ComposeDirs) > 0 {
		report.CanonicalTags["docker_compose_path"] = report.ComposeDirs[0]
		report.CanonicalTags["all_docker_compose_paths"] = report.ComposeDirs
	}
	if len(report.AppdataDirs) > 0 {
		report.CanonicalTags["docker_appdata_path"] = report.AppdataDirs[0]
		report.CanonicalTags["all_appdata_paths"] = report.AppdataDirs
	}
}

// storeResults mutates the device row per spec.md §4.6's "analyzer is
// authoritative producer of capability tags" rule: on SSH success it
// marks the device online, stamps last_seen, and replaces the capability
// tags from a previous analysis with this run's values; other tags are
// kept and the canonical-path and summary tags are overwritten.
func (a *Analyzer) storeResults(dev *device.Device, report *Report) {
	if !report.SSHOK {
		return
	}

	if dev.Tags == nil {
		dev.Tags = make(map[string]any)
	}
	for k := range dev.Tags {
		if _, isCapability := report.Capabilities[k]; isCapability {
			delete(dev.Tags, k)
		}
	}
	for k, v := range report.CanonicalTags {
		dev.Tags[k] = v
	}
	dev.Tags["kernel"] = report.KernelInfo
	dev.Tags["os_release"] = report.OSRelease
	dev.Tags["cpu_model"] = report.CPUModel

	dev.Status = device.StatusOnline
	dev.LastSeen = time.Now()
	dev.LastSuccessfulCollection = time.Now()
	dev.LastCollectionStatus = device.CollectionSuccess

	if len(report.ComposeDirs) > 0 {
		dev.ComposeDir = report.ComposeDirs[0]
	}
	if len(report.AppdataDirs) > 0 {
		dev.AppdataDir = report.AppdataDirs[0]
	}

	if err := a.devices.Save(dev); err != nil {
		a.logger.Warn("failed to persist analyzer results", "device_id", dev.ID, "error", err.Error())
	}
}
