// Package hookserver is the loopback ingestion endpoint spawned CLI
// agents POST their lifecycle events to. One listener per application
// lifetime; every inbound delivery is authenticated against the agent's
// spawn nonce, normalized by its provider, and fanned out to the event
// bus and any connected UI surfaces.
package hookserver

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/masra91/clubhouse/internal/bus"
	"github.com/masra91/clubhouse/internal/hookcfg"
	"github.com/masra91/clubhouse/internal/metrics"
	"github.com/masra91/clubhouse/internal/provider"
	"github.com/masra91/clubhouse/internal/supervisor"
)

// maxBodySize caps inbound hook payloads. Tool events are small; anything
// bigger is not ours.
const maxBodySize = 1 << 20

// Registrations answers agent lookups. Satisfied by
// *supervisor.Supervisor; tests substitute a map-backed fake.
type Registrations interface {
	Lookup(agentID string) (supervisor.Registration, bool)
}

// Server is the single loopback hook listener. Start binds an ephemeral
// port; Stop releases it so a later Start works cleanly. Safe for
// concurrent Start/Stop and request handling.
type Server struct {
	registrations Registrations
	registry      *provider.Registry
	bus           *bus.Bus
	hub           *Hub
	metrics       *metrics.Metrics

	mu       sync.Mutex
	listener net.Listener
	httpSrv  *http.Server
	port     int
}

// New creates a Server. All collaborators are required except m, which
// may be nil in tests that do not assert on metrics.
func New(regs Registrations, registry *provider.Registry, b *bus.Bus, m *metrics.Metrics) *Server {
	return &Server{
		registrations: regs,
		registry:      registry,
		bus:           b,
		hub:           NewHub(),
		metrics:       m,
	}
}

// Bus returns the fan-out bus events are published to.
func (s *Server) Bus() *bus.Bus { return s.bus }

// Hub returns the websocket surface hub.
func (s *Server) Hub() *Hub { return s.hub }

// Start binds the loopback listener and begins serving. Concurrent and
// repeated calls are safe: every caller observes the same resolved port.
// The only fatal error class here is a bind failure.
func (s *Server) Start() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return s.port, nil
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, fmt.Errorf("binding hook listener: %w", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/hook/", s.handleHook)
	mux.HandleFunc("/surface", s.hub.handleSurface)
	if s.metrics != nil {
		mux.Handle("/metrics", s.metrics.Handler())
	}

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.listener = ln
	s.httpSrv = srv
	s.port = ln.Addr().(*net.TCPAddr).Port

	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			log.Printf("[hooks] listener stopped: %v", err)
		}
	}()

	return s.port, nil
}

// Port returns the bound port, 0 when stopped.
func (s *Server) Port() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port
}

// Endpoint returns the base URL agents POST to, empty when stopped.
func (s *Server) Endpoint() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.port == 0 {
		return ""
	}
	return fmt.Sprintf("http://127.0.0.1:%d", s.port)
}

// Stop closes the listener and resets state for a clean restart.
// In-flight requests are abandoned, not awaited.
func (s *Server) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.httpSrv != nil {
		_ = s.httpSrv.Close()
	}
	s.listener = nil
	s.httpSrv = nil
	s.port = 0
	s.hub.closeAll()
}

// handleHook is POST /hook/{agentId}[/{eventHint}]. Once the request is
// syntactically routable it always answers 200: the subprocess must never
// interpret a normalization failure as a delivery failure. Real
// processing happens after the response bytes are on the wire, on this
// goroutine, so same-connection deliveries stay ordered while distinct
// agents interleave freely.
func (s *Server) handleHook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/hook/")
	agentID, eventHint, _ := strings.Cut(rest, "/")
	if strings.Contains(eventHint, "/") {
		http.NotFound(w, r)
		return
	}
	if agentID == "" {
		http.Error(w, "missing agent id", http.StatusBadRequest)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		body = nil
	}

	w.WriteHeader(http.StatusOK)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}

	s.process(agentID, eventHint, r.Header.Get(hookcfg.NonceHeader), body)
}

// process authenticates, normalizes, and fans out one delivery. Every
// early return is a deliberate silent drop; only authentication failures
// warrant log noise.
func (s *Server) process(agentID, eventHint, nonce string, body []byte) {
	reg, ok := s.registrations.Lookup(agentID)
	if !ok {
		// Normal race: the agent exited, or the caller was never ours.
		s.drop(metrics.DropUnknownAgent)
		return
	}

	if nonce == "" || nonce != reg.Nonce {
		log.Printf("[hooks] rejected event for agent %s: nonce mismatch", agentID)
		s.drop(metrics.DropBadNonce)
		return
	}

	p := s.registry.Get(reg.ProviderID)
	if p == nil {
		s.drop(metrics.DropUnrecognized)
		return
	}

	raw := make(map[string]any)
	if len(body) > 0 {
		if err := json.Unmarshal(body, &raw); err != nil {
			s.drop(metrics.DropUnparseable)
			return
		}
	}

	// Some tools omit the event name from the body and rely on the
	// registered URL to carry it. The payload's own field always wins.
	if eventHint != "" {
		if field := p.HookEventField(); field != "" {
			if _, present := raw[field]; !present {
				raw[field] = eventHint
			}
		}
	}

	ev := p.ParseHookEvent(raw)
	if ev == nil {
		s.drop(metrics.DropUnrecognized)
		return
	}

	if ev.ToolVerb == "" && ev.ToolName != "" {
		ev.ToolVerb = p.ToolVerb(ev.ToolName)
		if ev.ToolVerb == "" {
			ev.ToolVerb = provider.FallbackVerb(ev.ToolName)
		}
	}
	ev.Timestamp = time.Now()

	if s.metrics != nil {
		s.metrics.Received(reg.ProviderID, string(ev.Kind))
	}

	msg := bus.Message{AgentID: agentID, Event: *ev}
	s.bus.Publish(msg)
	s.hub.Broadcast(msg)
}

func (s *Server) drop(reason string) {
	if s.metrics != nil {
		s.metrics.Dropped(reason)
	}
}
