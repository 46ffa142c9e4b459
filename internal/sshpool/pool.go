// Package sshpool manages one SSH ControlMaster per monitored host and
// multiplexes command execution over it. It generalizes a single-master,
// port-forward-only client into a keyed pool that executes arbitrary
// registry-driven remote commands, with per-host and global concurrency
// caps and a backoff retry policy.
package sshpool

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"math"
	"os/exec"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/jmagar/fleetctl/internal/collecterr"
)

// Result is the outcome of one command execution against one host.
type Result struct {
	Host     string
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
	Err      error
}

type hostPool struct {
	master *master
	sem    chan struct{} // per-host concurrency ring
}

// Pool owns one master and one concurrency ring per host, plus a global
// weighted semaphore bounding total in-flight SSH processes across all
// hosts, matching the fleet-wide cap distinct from any single host's cap.
type Pool struct {
	mu           sync.Mutex
	hosts        map[string]*hostPool
	globalSem    *semaphore.Weighted
	perHostLimit int
	logger       *slog.Logger
	reapInterval time.Duration
	reapCancel   context.CancelFunc

	strictHostKeyChecking bool
	knownHostsPath        string
}

// Options configures pool-wide limits.
type Options struct {
	PerHostConcurrency int           // default 4
	GlobalConcurrency  int64         // default 20
	HealthInterval     time.Duration // default 30s
	Logger             *slog.Logger

	// StrictHostKeyChecking rejects unknown host keys instead of the
	// default accept-new-on-first-use posture, validating against
	// KnownHostsPath.
	StrictHostKeyChecking bool
	KnownHostsPath        string
}

func New(opts Options) *Pool {
	if opts.PerHostConcurrency <= 0 {
		opts.PerHostConcurrency = 4
	}
	if opts.GlobalConcurrency <= 0 {
		opts.GlobalConcurrency = 20
	}
	if opts.HealthInterval <= 0 {
		opts.HealthInterval = 30 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Pool{
		hosts:                 make(map[string]*hostPool),
		globalSem:             semaphore.NewWeighted(opts.GlobalConcurrency),
		perHostLimit:          opts.PerHostConcurrency,
		logger:                opts.Logger,
		reapInterval:          opts.HealthInterval,
		strictHostKeyChecking: opts.StrictHostKeyChecking,
		knownHostsPath:        opts.KnownHostsPath,
	}
}

func (p *Pool) getOrCreateHost(ctx context.Context, sshURL string) (*hostPool, error) {
	p.mu.Lock()
	hp, ok := p.hosts[sshURL]
	p.mu.Unlock()
	if ok {
		return hp, nil
	}

	m, err := newMaster(sshURL, p.logger.With("host", sshURL))
	if err != nil {
		return nil, collecterr.Wrap(collecterr.SSHConnectionError, "invalid host", err)
	}
	m.strictHostKeyChecking = p.strictHostKeyChecking
	m.knownHostsPath = p.knownHostsPath
	if err := m.open(ctx); err != nil {
		return nil, collecterr.Wrap(collecterr.SSHConnectionError, "failed to open control master", err)
	}
	m.startHealthMonitor(context.Background(), p.reapInterval)

	hp = &hostPool{master: m, sem: make(chan struct{}, p.perHostLimit)}

	p.mu.Lock()
	p.hosts[sshURL] = hp
	p.mu.Unlock()
	return hp, nil
}

// Execute runs remoteCmd on sshURL through its ControlMaster, retrying on
// transient SSH failures up to retryCount additional attempts. Each retry
// waits retryDelaySeconds * 1.5^attempt, the command definition's own
// backoff shape rather than a pool-wide constant.
func (p *Pool) Execute(ctx context.Context, sshURL, remoteCmd string, timeout time.Duration, retryCount int, retryDelaySeconds float64) (*Result, error) {
	hp, err := p.getOrCreateHost(ctx, sshURL)
	if err != nil {
		return nil, err
	}

	if err := p.globalSem.Acquire(ctx, 1); err != nil {
		return nil, collecterr.Wrap(collecterr.SSHTimeoutError, "global concurrency cap", err)
	}
	defer p.globalSem.Release(1)

	select {
	case hp.sem <- struct{}{}:
		defer func() { <-hp.sem }()
	case <-ctx.Done():
		return nil, collecterr.Wrap(collecterr.SSHTimeoutError, "host concurrency cap", ctx.Err())
	}

	var lastErr error
	var res *Result
	attempts := retryCount + 1
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			delay := calculateBackoff(retryDelaySeconds, attempt-1)
			p.logger.Debug("retrying command", "host", sshURL, "attempt", attempt+1, "delay", delay)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		if err := hp.master.ensureAlive(ctx); err != nil {
			lastErr = err
			continue
		}

		res, lastErr = p.runOnce(ctx, hp, sshURL, remoteCmd, timeout)
		if lastErr == nil {
			return res, nil
		}
	}

	return res, collecterr.Wrap(collecterr.SSHCommandError, fmt.Sprintf("command failed after %d attempts", attempts), lastErr)
}

func (p *Pool) runOnce(ctx context.Context, hp *hostPool, sshURL, remoteCmd string, timeout time.Duration) (*Result, error) {
	runCtx := ctx
	var cancel context.CancelFunc
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	builder, err := NewCommand(sshURL, hp.master.controlPath)
	if err != nil {
		return nil, err
	}
	args := builder.WithRemoteCommand(remoteCmd).Build()

	// #nosec G204 - args built from registry-validated command templates
	cmd := exec.CommandContext(runCtx, "ssh", args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err = cmd.Run()
	elapsed := time.Since(start)

	result := &Result{
		Host:     sshURL,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: elapsed,
	}

	if exitErr, ok := err.(*exec.ExitError); ok {
		result.ExitCode = exitErr.ExitCode()
	} else if err != nil {
		result.Err = err
		return result, err
	}

	return result, nil
}

// ExecuteParallel fans a single command out across multiple hosts
// concurrently, each isolated so that one host's panic or error does not
// abort the others' in-flight commands.
func (p *Pool) ExecuteParallel(ctx context.Context, sshURLs []string, remoteCmd string, timeout time.Duration, retryCount int, retryDelaySeconds float64) map[string]*Result {
	results := make(map[string]*Result, len(sshURLs))
	var mu sync.Mutex

	var g errgroup.Group
	for _, url := range sshURLs {
		url := url
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					mu.Lock()
					results[url] = &Result{Host: url, Err: fmt.Errorf("panic executing on %s: %v", url, r)}
					mu.Unlock()
				}
			}()
			res, execErr := p.Execute(ctx, url, remoteCmd, timeout, retryCount, retryDelaySeconds)
			if res == nil {
				res = &Result{Host: url, Err: execErr}
			}
			mu.Lock()
			results[url] = res
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// TestConnectivity runs "echo connectivity_test" through the pool with a
// 10s timeout and reports an error unless the literal text comes back in
// stdout.
func (p *Pool) TestConnectivity(ctx context.Context, sshURL string) error {
	const probe = "connectivity_test"
	res, err := p.Execute(ctx, sshURL, "echo "+probe, 10*time.Second, 0, 0)
	if err != nil {
		return err
	}
	if !strings.Contains(res.Stdout, probe) {
		return fmt.Errorf("connectivity probe did not echo %q, got: %q", probe, res.Stdout)
	}
	return nil
}

// Close tears down every ControlMaster owned by the pool.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for url, hp := range p.hosts {
		if err := hp.master.close(); err != nil {
			p.logger.Warn("error closing ssh master", "host", url, "error", err.Error())
		}
	}
	p.hosts = make(map[string]*hostPool)
}

// calculateBackoff implements retry_delay_seconds * 1.5^attempt, the
// command definition's own per-operation backoff shape.
func calculateBackoff(retryDelaySeconds float64, attempt int) time.Duration {
	if retryDelaySeconds <= 0 {
		retryDelaySeconds = 1
	}
	seconds := retryDelaySeconds * math.Pow(1.5, float64(attempt))
	return time.Duration(seconds * float64(time.Second))
}
