package registry

// NewWithCatalog builds a Registry pre-seeded with the minimum command set
// from spec §4.7. Validation/error patterns are the minimum implied by
// each command's expected output.
func NewWithCatalog() *Registry {
	r := New()
	for _, def := range builtinCatalog {
		r.MustRegister(def)
	}
	return r
}

var builtinCatalog = []CommandDefinition{
	{
		Name:               "get_system_info",
		Category:           CategorySystemInfo,
		CommandTemplate:    "uname -a && cat /etc/os-release && uptime && free -h && df -h",
		Description:        "Kernel, OS release, uptime, memory and disk summary",
		TimeoutSeconds:     30,
		RetryCount:         2,
		RetryDelaySeconds:  1,
		CacheTTLSeconds:    3600,
		FreshnessThreshold: 3600,
		ValidationPatterns: []string{"Linux", "PRETTY_NAME"},
	},
	{
		Name:               "get_memory_info",
		Category:           CategorySystemInfo,
		CommandTemplate:    "cat /proc/meminfo",
		Description:        "Raw /proc/meminfo dump",
		TimeoutSeconds:     10,
		RetryCount:         1,
		RetryDelaySeconds:  1,
		CacheTTLSeconds:    300,
		FreshnessThreshold: 300,
		ValidationPatterns: []string{"MemTotal:"},
	},
	{
		Name:               "get_system_metrics",
		Category:           CategorySystemMonitoring,
		CommandTemplate:    "top -bn1 | head -20 && iostat -x 1 1 && free -m",
		Description:        "Point-in-time CPU, I/O and memory snapshot",
		TimeoutSeconds:     30,
		RetryCount:         1,
		RetryDelaySeconds:  1,
		CacheTTLSeconds:    300,
		FreshnessThreshold: 300,
		ValidationPatterns: []string{"(?i)mem"},
	},
	{
		Name:               "get_disk_usage",
		Category:           CategorySystemMonitoring,
		CommandTemplate:    "df -h && du -sh /var/log /tmp /home 2>/dev/null || true",
		Description:        "Filesystem and key directory usage",
		TimeoutSeconds:     30,
		RetryCount:         1,
		RetryDelaySeconds:  1,
		CacheTTLSeconds:    600,
		FreshnessThreshold: 600,
		ValidationPatterns: []string{"(?i)filesystem|Use%"},
	},
	{
		Name:               "list_containers",
		Category:           CategoryContainerManagement,
		CommandTemplate:    "docker ps -a --format 'table {{.ID}}\t{{.Names}}\t{{.Status}}\t{{.Image}}\t{{.Ports}}'",
		Description:        "All containers, running or stopped",
		TimeoutSeconds:     15,
		RetryCount:         1,
		RetryDelaySeconds:  1,
		CacheTTLSeconds:    30,
		FreshnessThreshold: 30,
		ValidationPatterns: []string{"CONTAINER ID|NAMES"},
	},
	{
		Name:               "get_container_stats",
		Category:           CategoryContainerManagement,
		CommandTemplate:    "docker stats --no-stream --format 'table {{.Container}}\t{{.CPUPerc}}\t{{.MemUsage}}\t{{.NetIO}}\t{{.BlockIO}}'",
		Description:        "One-shot container resource usage",
		TimeoutSeconds:     20,
		RetryCount:         1,
		RetryDelaySeconds:  1,
		CacheTTLSeconds:    60,
		FreshnessThreshold: 60,
	},
	{
		Name:               "inspect_container",
		Category:           CategoryContainerManagement,
		CommandTemplate:    "docker inspect {container_name}",
		Description:        "Full container inspect JSON",
		TimeoutSeconds:     15,
		RetryCount:         1,
		RetryDelaySeconds:  1,
		CacheTTLSeconds:    300,
		FreshnessThreshold: 300,
		ValidationPatterns: []string{`^\s*\[`},
	},
	{
		Name:               "get_container_logs",
		Category:           CategoryContainerManagement,
		CommandTemplate:    "docker logs --tail {tail_lines} {container_name}",
		Description:        "Tail of a container's logs",
		TimeoutSeconds:     20,
		RetryCount:         1,
		RetryDelaySeconds:  1,
		CacheTTLSeconds:    60,
		FreshnessThreshold: 60,
	},
	{
		Name:               "compose_ps",
		Category:           CategoryDockerCompose,
		CommandTemplate:    "cd {compose_path} && docker compose ps --format 'table {{.Name}}\t{{.Status}}\t{{.Ports}}'",
		Description:        "Compose stack status for one project directory",
		TimeoutSeconds:     20,
		RetryCount:         1,
		RetryDelaySeconds:  1,
		CacheTTLSeconds:    60,
		FreshnessThreshold: 60,
	},
	{
		Name:               "list_zfs_pools",
		Category:           CategoryZFSManagement,
		CommandTemplate:    "zpool list -H -o name,size,alloc,free,health",
		Description:        "ZFS pool inventory",
		TimeoutSeconds:     15,
		RetryCount:         1,
		RetryDelaySeconds:  1,
		CacheTTLSeconds:    1800,
		FreshnessThreshold: 1800,
	},
	{
		Name:               "get_zfs_pool_status",
		Category:           CategoryZFSManagement,
		CommandTemplate:    "zpool status {pool_name}",
		Description:        "Detailed status of a single pool",
		TimeoutSeconds:     15,
		RetryCount:         1,
		RetryDelaySeconds:  1,
		CacheTTLSeconds:    600,
		FreshnessThreshold: 600,
	},
	{
		Name:               "list_zfs_datasets",
		Category:           CategoryZFSManagement,
		CommandTemplate:    "zfs list -H -o name,used,avail,refer,mountpoint",
		Description:        "ZFS dataset inventory",
		TimeoutSeconds:     15,
		RetryCount:         1,
		RetryDelaySeconds:  1,
		CacheTTLSeconds:    600,
		FreshnessThreshold: 600,
	},
	{
		Name:               "list_zfs_snapshots",
		Category:           CategoryZFSManagement,
		CommandTemplate:    "zfs list -H -t snapshot -o name,used,creation",
		Description:        "ZFS snapshot inventory",
		TimeoutSeconds:     15,
		RetryCount:         1,
		RetryDelaySeconds:  1,
		CacheTTLSeconds:    300,
		FreshnessThreshold: 300,
	},
	{
		Name:               "get_drive_health",
		Category:           CategoryDriveHealth,
		CommandTemplate:    "lsblk -d -n -o NAME,TYPE,SIZE,MODEL,SERIAL",
		Description:        "Block device inventory, paired with per-drive SMART by the analyzer",
		TimeoutSeconds:     15,
		RetryCount:         1,
		RetryDelaySeconds:  1,
		CacheTTLSeconds:    3600,
		FreshnessThreshold: 3600,
	},
	{
		Name:               "get_smart_status",
		Category:           CategoryDriveHealth,
		CommandTemplate:    "smartctl -H {device_path}",
		Description:        "Quick SMART health verdict for one device",
		TimeoutSeconds:     20,
		RetryCount:         0,
		CacheTTLSeconds:    1800,
		FreshnessThreshold: 1800,
	},
	{
		Name:               "get_network_interfaces",
		Category:           CategoryNetworkInfo,
		CommandTemplate:    "ip addr show && ip route show",
		Description:        "Interface and routing table snapshot",
		TimeoutSeconds:     15,
		RetryCount:         1,
		RetryDelaySeconds:  1,
		CacheTTLSeconds:    300,
		FreshnessThreshold: 300,
	},
	{
		Name:               "get_network_stats",
		Category:           CategoryNetworkInfo,
		CommandTemplate:    "ss -tuln && netstat -i",
		Description:        "Listening sockets and interface counters",
		TimeoutSeconds:     15,
		RetryCount:         1,
		RetryDelaySeconds:  1,
		CacheTTLSeconds:    60,
		FreshnessThreshold: 60,
	},
	{
		Name:               "list_processes",
		Category:           CategoryProcessManagement,
		CommandTemplate:    "ps aux --sort=-%cpu | head -20",
		Description:        "Top CPU consumers",
		TimeoutSeconds:     15,
		RetryCount:         1,
		RetryDelaySeconds:  1,
		CacheTTLSeconds:    60,
		FreshnessThreshold: 60,
	},
	{
		Name:               "list_systemd_services",
		Category:           CategoryServiceManagement,
		CommandTemplate:    "systemctl list-units --type=service --state=running --no-pager",
		Description:        "Running systemd services",
		TimeoutSeconds:     15,
		RetryCount:         1,
		RetryDelaySeconds:  1,
		CacheTTLSeconds:    300,
		FreshnessThreshold: 300,
	},
	{
		Name:               "get_service_status",
		Category:           CategoryServiceManagement,
		CommandTemplate:    "systemctl status {service_name} --no-pager -l",
		Description:        "Detailed status of a single systemd unit",
		TimeoutSeconds:     15,
		RetryCount:         1,
		RetryDelaySeconds:  1,
		CacheTTLSeconds:    60,
		FreshnessThreshold: 60,
	},
	{
		Name:               "read_file",
		Category:           CategoryFileOperations,
		CommandTemplate:    "cat {file_path}",
		Description:        "Read a single remote file",
		TimeoutSeconds:     15,
		RetryCount:         1,
		RetryDelaySeconds:  1,
		CacheTTLSeconds:    300,
		FreshnessThreshold: 300,
	},
	{
		Name:               "list_directory",
		Category:           CategoryFileOperations,
		CommandTemplate:    "ls -la {directory_path}",
		Description:        "Directory listing",
		TimeoutSeconds:     15,
		RetryCount:         1,
		RetryDelaySeconds:  1,
		CacheTTLSeconds:    300,
		FreshnessThreshold: 300,
	},
	{
		Name:               "get_system_logs",
		Category:           CategoryLogs,
		CommandTemplate:    "journalctl --no-pager -n {lines} --since '{since}' --output=json",
		Description:        "Recent journald entries as JSON lines",
		TimeoutSeconds:     30,
		RetryCount:         1,
		RetryDelaySeconds:  1,
		CacheTTLSeconds:    300,
		FreshnessThreshold: 300,
	},
	{
		Name:               "get_service_logs",
		Category:           CategoryLogs,
		CommandTemplate:    "journalctl --no-pager -u {service_name} -n {lines} --output=json",
		Description:        "Recent journald entries for one unit",
		TimeoutSeconds:     30,
		RetryCount:         1,
		RetryDelaySeconds:  1,
		CacheTTLSeconds:    180,
		FreshnessThreshold: 180,
	},
}
