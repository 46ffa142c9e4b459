// Package device defines the fleet's Device record and the Store contract
// the collection core consumes to resolve, read and mutate it. The core
// never owns persistence (spec §1/§6): Store is an interface a relational
// adapter implements outside this module; MemStore here exists so the core
// is independently testable.
package device

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// Status is the device's last observed reachability state.
type Status string

const (
	StatusOnline      Status = "online"
	StatusOffline     Status = "offline"
	StatusUnknown     Status = "unknown"
	StatusMaintenance Status = "maintenance"
)

// CollectionStatus is the outcome of the most recent collect() call against
// this device, independent of Status (which reflects SSH reachability).
type CollectionStatus string

const (
	CollectionNever   CollectionStatus = "never"
	CollectionSuccess CollectionStatus = "success"
	CollectionFailed  CollectionStatus = "failed"
	CollectionPartial CollectionStatus = "partial"
	CollectionTimeout CollectionStatus = "timeout"
)

// Device is the persistent fleet record. Hostname is the canonical public
// key; ID is the stable identifier. Any API accepts either as a device
// reference (see Store.Resolve).
//
// The persistent storage column backing Tags is historically named
// device_metadata (spec §9's noted Python/schema inconsistency); this
// struct exposes it under the stable Tags name and DeviceMetadata is kept
// only as the doc-comment breadcrumb for anyone grepping the old name.
type Device struct {
	ID          string
	Hostname    string
	IPAddress   string
	SSHPort     int
	SSHUser     string
	DeviceType  string
	Location    string
	Description string

	// Tags is the free-form tag map (device_metadata in the original
	// schema). Capability booleans ("docker", "zfs", "swag", "vms", "gpu")
	// and canonical paths ("docker_compose_path", "docker_appdata_path",
	// "all_docker_compose_paths", "all_appdata_paths") live here.
	Tags map[string]any

	ComposeDir string
	AppdataDir string

	MonitoringEnabled bool

	Status                   Status
	LastSeen                 time.Time
	LastSuccessfulCollection time.Time
	LastCollectionStatus     CollectionStatus
	CollectionErrorCount     int
}

// SSHURL builds the ssh://user@host:port string the connection pool keys
// its control sockets on. Port is omitted when zero or 22 so DeriveControlPath
// and ParseHost see the same default-port form every time.
func SSHURL(d *Device) string {
	user := d.SSHUser
	if user == "" {
		user = "root"
	}
	if d.SSHPort == 0 || d.SSHPort == 22 {
		return fmt.Sprintf("ssh://%s@%s", user, d.Hostname)
	}
	return fmt.Sprintf("ssh://%s@%s:%d", user, d.Hostname, d.SSHPort)
}

// Tag returns a tag value and whether it was present.
func (d *Device) Tag(key string) (any, bool) {
	if d.Tags == nil {
		return nil, false
	}
	v, ok := d.Tags[key]
	return v, ok
}

// BoolTag returns a capability tag as a bool, defaulting to false.
func (d *Device) BoolTag(key string) bool {
	v, ok := d.Tag(key)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// ErrNotFound is returned by Store.Resolve when neither hostname nor id
// matches any device.
type ErrNotFound struct {
	Ref string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("device not found: %s", e.Ref)
}

// Store is the external collaborator the core depends on to resolve and
// mutate devices (spec §6's device identity resolver, generalized to also
// cover the analyzer's and collection service's write paths).
type Store interface {
	// Resolve looks a device up by hostname or stable id.
	Resolve(ref string) (*Device, error)
	// Save upserts a device record.
	Save(d *Device) error
	// UpdateLastSeen is the narrow mutation the collection service is
	// allowed to perform (spec §5's "Device row is authored by the
	// analyzer and mutated by the collection service only for last_seen
	// and status fields").
	UpdateLastSeen(ref string, seen time.Time, status Status) error
	// All returns every registered device, for SWAG auto-detection and
	// fleet-wide CLI listing.
	All() []*Device
}

// MemStore is an in-memory Store keyed by both hostname and id, sufficient
// for the core's own tests and for the CLI's offline usage.
type MemStore struct {
	mu     sync.RWMutex
	byID   map[string]*Device
	byHost map[string]*Device
}

func NewMemStore() *MemStore {
	return &MemStore{
		byID:   make(map[string]*Device),
		byHost: make(map[string]*Device),
	}
}

func (s *MemStore) Resolve(ref string) (*Device, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if d, ok := s.byHost[ref]; ok {
		return d, nil
	}
	if d, ok := s.byID[ref]; ok {
		return d, nil
	}
	return nil, &ErrNotFound{Ref: ref}
}

func (s *MemStore) Save(d *Device) error {
	if d.Hostname == "" {
		return fmt.Errorf("device hostname is required")
	}
	if d.ID == "" {
		d.ID = d.Hostname
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[d.ID] = d
	s.byHost[d.Hostname] = d
	return nil
}

func (s *MemStore) UpdateLastSeen(ref string, seen time.Time, status Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.byHost[ref]
	if !ok {
		d, ok = s.byID[ref]
	}
	if !ok {
		return &ErrNotFound{Ref: ref}
	}
	d.LastSeen = seen
	d.Status = status
	return nil
}

func (s *MemStore) All() []*Device {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]bool, len(s.byID))
	out := make([]*Device, 0, len(s.byID))
	for _, d := range s.byID {
		if seen[d.ID] {
			continue
		}
		seen[d.ID] = true
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Hostname < out[j].Hostname })
	return out
}
