// Package supervisor owns the agent registration table and the OS
// processes behind it. A registration exists exactly as long as its agent
// is allowed to deliver hook events: created at spawn, removed on kill or
// exit, at which point the nonce is implicitly revoked.
package supervisor

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"sync"
	"syscall"

	"github.com/google/uuid"

	"github.com/masra91/clubhouse/internal/metrics"
	"github.com/masra91/clubhouse/internal/provider"
)

// Registration tracks one live (or recently live) spawned agent instance.
type Registration struct {
	AgentID       string
	WorkspacePath string
	ProviderID    string

	// Nonce is the per-spawn secret. It never leaves this process except
	// embedded in the hook callback configuration handed to the child.
	Nonce string
}

// SpawnRequest describes one agent launch.
type SpawnRequest struct {
	// AgentID is caller-assigned; a uuid is generated when empty.
	AgentID string

	// WorkspacePath is the filesystem root the agent operates in.
	WorkspacePath string

	// ProviderID forces a specific provider; resolved from the workspace
	// when empty.
	ProviderID string

	// Options configure the invocation. Cwd is overwritten with
	// WorkspacePath.
	Options provider.SpawnOptions

	// Profile selects the resolved provider's default permission list when
	// Options.AllowedTools is empty. Ignored when empty.
	Profile provider.AgentKind

	// Headless selects single-shot mode, which requires Options.Mission.
	Headless bool

	// Stdout/Stderr receive the child's output when non-nil.
	Stdout io.Writer
	Stderr io.Writer
}

// Supervisor spawns and kills agent processes and answers registration
// lookups for the ingestion server. Safe for concurrent use.
type Supervisor struct {
	registry *provider.Registry
	prefs    provider.PrefStore
	endpoint func() string
	metrics  *metrics.Metrics

	mu     sync.RWMutex
	agents map[string]*agentProc
}

type agentProc struct {
	reg  Registration
	cmd  *exec.Cmd
	done chan struct{}
}

// New creates a Supervisor. endpoint returns the ingestion server base
// URL and is consulted at each spawn, so the server may be restarted on a
// new port between spawns. prefs and m may be nil.
func New(registry *provider.Registry, prefs provider.PrefStore, endpoint func() string, m *metrics.Metrics) *Supervisor {
	return &Supervisor{
		registry: registry,
		prefs:    prefs,
		endpoint: endpoint,
		metrics:  m,
		agents:   make(map[string]*agentProc),
	}
}

// Lookup returns the registration for an agent id. The second return is
// false for unknown or already-exited agents.
func (s *Supervisor) Lookup(agentID string) (Registration, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	proc, ok := s.agents[agentID]
	if !ok {
		return Registration{}, false
	}
	return proc.reg, true
}

// List returns a snapshot of all live registrations.
func (s *Supervisor) List() []Registration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	regs := make([]Registration, 0, len(s.agents))
	for _, proc := range s.agents {
		regs = append(regs, proc.reg)
	}
	return regs
}

// Spawn registers a new agent, writes its hook configuration, and starts
// the OS process. The registration is removed again when the process
// exits on its own.
func (s *Supervisor) Spawn(req SpawnRequest) (Registration, error) {
	if req.WorkspacePath == "" {
		return Registration{}, fmt.Errorf("supervisor: workspace path is required")
	}

	p, err := s.registry.Resolve(req.WorkspacePath, req.ProviderID, s.prefs)
	if err != nil {
		return Registration{}, fmt.Errorf("resolving provider: %w", err)
	}

	agentID := req.AgentID
	if agentID == "" {
		agentID = uuid.NewString()
	}

	nonce, err := newNonce()
	if err != nil {
		return Registration{}, fmt.Errorf("generating nonce: %w", err)
	}

	reg := Registration{
		AgentID:       agentID,
		WorkspacePath: req.WorkspacePath,
		ProviderID:    p.ID(),
		Nonce:         nonce,
	}

	if p.Capabilities().Hooks {
		hookReg := provider.HookRegistration{Endpoint: s.endpoint(), Nonce: nonce}
		if err := p.WriteHooksConfig(req.WorkspacePath, agentID, hookReg); err != nil {
			return Registration{}, fmt.Errorf("writing hooks config: %w", err)
		}
	}

	req.Options.Cwd = req.WorkspacePath
	if req.Profile != "" && len(req.Options.AllowedTools) == 0 {
		req.Options.AllowedTools = p.DefaultPermissions(req.Profile)
	}
	var spawn provider.SpawnCommand
	if req.Headless {
		headless := p.BuildHeadlessCommand(req.Options)
		if headless == nil {
			return Registration{}, fmt.Errorf("supervisor: headless spawn requires a mission")
		}
		spawn = headless.SpawnCommand
	} else {
		spawn, err = p.BuildSpawnCommand(req.Options)
		if err != nil {
			return Registration{}, fmt.Errorf("building spawn command: %w", err)
		}
	}

	cmd := exec.Command(spawn.Binary, spawn.Args...)
	cmd.Dir = req.WorkspacePath
	cmd.Env = buildEnv(spawn.Env)
	cmd.Stdout = req.Stdout
	cmd.Stderr = req.Stderr
	// Own process group, so Kill can take down the agent's children too.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	s.mu.Lock()
	if _, exists := s.agents[agentID]; exists {
		s.mu.Unlock()
		return Registration{}, fmt.Errorf("supervisor: agent %q already registered", agentID)
	}
	proc := &agentProc{reg: reg, cmd: cmd, done: make(chan struct{})}
	s.agents[agentID] = proc
	s.mu.Unlock()

	if err := cmd.Start(); err != nil {
		s.remove(agentID)
		return Registration{}, fmt.Errorf("starting %s: %w", spawn.Binary, err)
	}

	if s.metrics != nil {
		s.metrics.AgentsSpawned.Inc()
		s.metrics.AgentsLive.Inc()
	}

	go s.reap(proc)

	return reg, nil
}

// reap waits for the process and revokes the registration when it exits.
func (s *Supervisor) reap(proc *agentProc) {
	err := proc.cmd.Wait()
	close(proc.done)
	if err != nil {
		log.Printf("[supervisor] agent %s exited: %v", proc.reg.AgentID, err)
	}
	s.remove(proc.reg.AgentID)
}

// Kill terminates the agent's process group and removes its
// registration. Any further events for the agent id become unknown-agent
// drops.
func (s *Supervisor) Kill(agentID string) error {
	s.mu.RLock()
	proc, ok := s.agents[agentID]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("supervisor: unknown agent %q", agentID)
	}

	if proc.cmd.Process != nil {
		// Negative pid targets the whole group, so children the agent
		// spawned go down with it.
		err := syscall.Kill(-proc.cmd.Process.Pid, syscall.SIGKILL)
		if err != nil && !errors.Is(err, syscall.ESRCH) {
			if err := proc.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
				return fmt.Errorf("killing agent %s: %w", agentID, err)
			}
		}
	}
	<-proc.done
	return nil
}

// Wait blocks until the agent's process exits. Returns immediately for
// unknown agents.
func (s *Supervisor) Wait(agentID string) {
	s.mu.RLock()
	proc, ok := s.agents[agentID]
	s.mu.RUnlock()
	if !ok {
		return
	}
	<-proc.done
}

func (s *Supervisor) remove(agentID string) {
	s.mu.Lock()
	_, ok := s.agents[agentID]
	delete(s.agents, agentID)
	s.mu.Unlock()
	if ok && s.metrics != nil {
		s.metrics.AgentsLive.Dec()
	}
}

// newNonce returns a 128-bit random hex token. uuids are fine as ids but
// not as secrets.
func newNonce() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// buildEnv merges provider-supplied variables over the process
// environment.
func buildEnv(extra map[string]string) []string {
	env := os.Environ()
	for k, v := range extra {
		env = append(env, k+"="+v)
	}
	return env
}
