package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/jmagar/fleetctl/internal/device"
	"github.com/jmagar/fleetctl/internal/eventbus"
	"github.com/jmagar/fleetctl/internal/sshpool"
)

// Mode is how a watch session observes changes.
type Mode string

const (
	ModeInotify Mode = "inotify"
	ModePolling Mode = "polling"
)

var defaultFallbackPaths = []string{"/etc/nginx", "/etc/apache2", "/etc/traefik"}

// inotifyLinePattern splits the three '|'-separated fields of
// `inotifywait --format '%w%f|%e|%T'` output.
var inotifyLinePattern = regexp.MustCompile(`^(.*)\|([A-Z_,]+)\|(.*)$`)

// Options configures Watcher construction.
type Options struct {
	Pool              *sshpool.Pool
	Devices           device.Store
	Snapshots         SnapshotStore
	Bus               *eventbus.Bus
	Logger            *slog.Logger
	HeartbeatInterval time.Duration
	PollInterval      time.Duration
	MaxReconnects     int
}

// Watcher owns every active FileWatchSession, one per device.
type Watcher struct {
	pool      *sshpool.Pool
	devices   device.Store
	snapshots SnapshotStore
	bus       *eventbus.Bus
	logger    *slog.Logger

	heartbeatInterval time.Duration
	pollInterval      time.Duration
	maxReconnects     int

	mu       sync.Mutex
	sessions map[string]*watchSession
}

func New(opts Options) *Watcher {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.HeartbeatInterval <= 0 {
		opts.HeartbeatInterval = 30 * time.Second
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 30 * time.Second
	}
	if opts.MaxReconnects <= 0 {
		opts.MaxReconnects = 5
	}
	if opts.Snapshots == nil {
		opts.Snapshots = NewMemSnapshotStore()
	}
	return &Watcher{
		pool:              opts.Pool,
		devices:           opts.Devices,
		snapshots:         opts.Snapshots,
		bus:               opts.Bus,
		logger:            opts.Logger,
		heartbeatInterval: opts.HeartbeatInterval,
		pollInterval:      opts.PollInterval,
		maxReconnects:     opts.MaxReconnects,
		sessions:          make(map[string]*watchSession),
	}
}

// watchSession is a FileWatchSession: the live state for one device.
type watchSession struct {
	deviceID string
	sshURL   string
	targets  []string
	excludes []*regexp.Regexp
	mode     Mode

	hb     *heartbeat
	cancel context.CancelFunc

	mu                  sync.Mutex
	consecutiveFailures int
}

// StartWatching resolves targets for deviceID and launches a session.
// paths, if non-empty, overrides tag-derived target resolution.
func (w *Watcher) StartWatching(ctx context.Context, deviceID string, paths []string) error {
	w.mu.Lock()
	if _, exists := w.sessions[deviceID]; exists {
		w.mu.Unlock()
		return fmt.Errorf("device %s is already being watched", deviceID)
	}
	w.mu.Unlock()

	dev, err := w.devices.Resolve(deviceID)
	if err != nil {
		return err
	}

	targets := paths
	if len(targets) == 0 {
		targets = resolveTargetsFromTags(dev)
	}
	if len(targets) == 0 {
		targets = defaultFallbackPaths
	}

	sess := &watchSession{
		deviceID: dev.ID,
		sshURL:   device.SSHURL(dev),
		targets:  targets,
	}

	sessCtx, cancel := context.WithCancel(ctx)
	sess.cancel = cancel

	if w.probeInotify(sessCtx, sess.sshURL) {
		sess.mode = ModeInotify
		if err := w.runInotify(sessCtx, sess); err != nil {
			cancel()
			return err
		}
	} else {
		sess.mode = ModePolling
		w.runPolling(sessCtx, sess)
	}

	sess.hb = newHeartbeat(w.heartbeatInterval, w.maxReconnects, w.logger,
		func(rctx context.Context) error {
			if sess.mode == ModeInotify {
				return w.runInotify(rctx, sess)
			}
			w.runPolling(rctx, sess)
			return nil
		},
		func() {
			w.logger.Warn("watch session abandoned", "device_id", sess.deviceID)
			w.mu.Lock()
			delete(w.sessions, sess.deviceID)
			w.mu.Unlock()
		},
	)
	sess.hb.start(sessCtx)

	w.mu.Lock()
	w.sessions[dev.ID] = sess
	w.mu.Unlock()
	return nil
}

// StopWatching tears down a single device's session.
func (w *Watcher) StopWatching(deviceID string) error {
	w.mu.Lock()
	sess, ok := w.sessions[deviceID]
	if ok {
		delete(w.sessions, deviceID)
	}
	w.mu.Unlock()

	if !ok {
		return fmt.Errorf("device %s is not being watched", deviceID)
	}
	sess.hb.stop()
	sess.cancel()
	return nil
}

// StopAll tears down every active session, process-wide.
func (w *Watcher) StopAll() {
	w.mu.Lock()
	sessions := make([]*watchSession, 0, len(w.sessions))
	for _, s := range w.sessions {
		sessions = append(sessions, s)
	}
	w.sessions = make(map[string]*watchSession)
	w.mu.Unlock()

	for _, s := range sessions {
		s.hb.stop()
		s.cancel()
	}
}

// MonitoredDevices lists device ids with an active session.
func (w *Watcher) MonitoredDevices() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, 0, len(w.sessions))
	for id := range w.sessions {
		out = append(out, id)
	}
	return out
}

func (w *Watcher) probeInotify(ctx context.Context, sshURL string) bool {
	res, err := w.pool.Execute(ctx, sshURL, "command -v inotifywait", 10*time.Second, 0, 1)
	if err != nil || res.ExitCode != 0 {
		return false
	}
	return strings.TrimSpace(res.Stdout) != ""
}

func (w *Watcher) runInotify(ctx context.Context, sess *watchSession) error {
	cmd := fmt.Sprintf(
		"inotifywait -m -r -e modify,create,delete,move --format '%%w%%f|%%e|%%T' --timefmt '%%Y-%%m-%%d %%H:%%M:%%S' %s",
		strings.Join(sess.targets, " "),
	)
	lines, err := w.pool.Stream(ctx, sess.sshURL, cmd)
	if err != nil {
		return err
	}

	go func() {
		for line := range lines {
			if line.Err != nil {
				w.logger.Warn("inotify stream error", "device_id", sess.deviceID, "error", line.Err.Error())
				continue
			}
			w.handleInotifyLine(ctx, sess, line.Text)
			if sess.hb != nil {
				sess.hb.beat()
			}
		}
	}()
	return nil
}

func (w *Watcher) handleInotifyLine(ctx context.Context, sess *watchSession, line string) {
	m := inotifyLinePattern.FindStringSubmatch(line)
	if m == nil {
		return
	}
	path, events := m[1], m[2]
	if sess.isExcluded(path) {
		return
	}

	change := ChangeModify
	switch {
	case strings.Contains(events, "CREATE"):
		change = ChangeCreate
	case strings.Contains(events, "DELETE"):
		change = ChangeDelete
	}

	if change == ChangeDelete {
		w.recordSnapshot(sess.deviceID, path, "", change, SourceEvent)
		return
	}

	res, err := w.pool.Execute(ctx, sess.sshURL, fmt.Sprintf("cat %s", shellQuote(path)), 10*time.Second, 0, 1)
	if err != nil || res.ExitCode != 0 {
		w.recordSnapshot(sess.deviceID, path, "", ChangeError, SourceEvent)
		return
	}
	w.recordSnapshot(sess.deviceID, path, res.Stdout, change, SourceEvent)
}

func (w *Watcher) runPolling(ctx context.Context, sess *watchSession) {
	go func() {
		ticker := time.NewTicker(w.pollInterval)
		defer ticker.Stop()
		w.pollOnce(ctx, sess)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				w.pollOnce(ctx, sess)
			}
		}
	}()
}

func (w *Watcher) pollOnce(ctx context.Context, sess *watchSession) {
	for _, target := range sess.targets {
		cmd := fmt.Sprintf(`find %s -type f \( -iname '*.yml' -o -iname '*.yaml' -o -iname '*.conf' -o -iname '*.json' \) 2>/dev/null`, shellQuote(target))
		res, err := w.pool.Execute(ctx, sess.sshURL, cmd, 15*time.Second, 0, 1)
		if err != nil {
			sess.mu.Lock()
			sess.consecutiveFailures++
			sess.mu.Unlock()
			continue
		}
		for _, path := range strings.Split(strings.TrimSpace(res.Stdout), "\n") {
			if path == "" || sess.isExcluded(path) {
				continue
			}
			contentRes, err := w.pool.Execute(ctx, sess.sshURL, fmt.Sprintf("cat %s", shellQuote(path)), 10*time.Second, 0, 1)
			if err != nil || contentRes.ExitCode != 0 {
				continue
			}
			w.recordSnapshot(sess.deviceID, path, contentRes.Stdout, ChangeModify, SourcePolling)
		}
	}
	if sess.hb != nil {
		sess.hb.beat()
	}
}

// recordSnapshot applies spec.md's dedup-by-content-hash rule: a content
// row is written only when the hash differs from the latest for this
// (device, path) pair. DELETE and ERROR rows are never deduplicated.
func (w *Watcher) recordSnapshot(deviceID, path, content string, change ChangeType, source CollectionSource) {
	hash := ""
	if change != ChangeDelete && change != ChangeError {
		hash = HashContent(content)
	}

	previous, hasPrevious := w.snapshots.Latest(deviceID, path)
	if hasPrevious && previous.ContentHash == hash && change != ChangeDelete && change != ChangeError {
		return
	}

	snap := Snapshot{
		DeviceID:         deviceID,
		Timestamp:        time.Now(),
		ConfigType:       ClassifyPath(path),
		FilePath:         path,
		ContentHash:      hash,
		RawContent:       content,
		ChangeType:       change,
		CollectionSource: source,
		SyncStatus:       "synced",
		ValidationStatus: "unknown",
	}
	if hasPrevious {
		snap.PreviousHash = previous.ContentHash
	}

	if err := w.snapshots.Append(snap); err != nil {
		w.logger.Warn("failed to append configuration snapshot", "device_id", deviceID, "path", path, "error", err.Error())
		return
	}

	if w.bus != nil {
		w.bus.Emit(eventbus.TopicFileChanged, map[string]any{
			"device_id":   deviceID,
			"file_path":   path,
			"change_type": string(change),
			"config_type": string(snap.ConfigType),
			"timestamp":   snap.Timestamp,
		})
	}
}

func (s *watchSession) isExcluded(path string) bool {
	for _, re := range s.excludes {
		if re.MatchString(path) {
			return true
		}
	}
	return false
}

// resolveTargetsFromTags reads the analyzer-authored canonical path tags
// off a device record (spec.md §4.6's SWAG proxy-confs / compose / appdata
// discovery), falling back to nothing so the caller applies the
// conservative default set.
func resolveTargetsFromTags(dev *device.Device) []string {
	var targets []string
	if v, ok := dev.Tag("all_docker_compose_paths"); ok {
		if list, ok := v.([]string); ok {
			targets = append(targets, list...)
		}
	}
	if v, ok := dev.Tag("all_appdata_paths"); ok {
		if list, ok := v.([]string); ok {
			targets = append(targets, list...)
		}
	}
	if v, ok := dev.Tag("swag_proxy_confs_path"); ok {
		if s, ok := v.(string); ok && s != "" {
			targets = append(targets, s)
		}
	}
	return targets
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
