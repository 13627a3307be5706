package registry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonwraymond/toolfoundation/model"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ToolObserver receives a record of every tool execution. Implemented by
// the observe package; nil observers are ignored.
type ToolObserver interface {
	ObserveToolCall(ctx context.Context, tool, status string, seconds float64)
}

// Config configures a Registry.
type Config struct {
	ServerInfo ServerInfo

	// Observer, when non-nil, is notified after every Execute call.
	Observer ToolObserver
}

// ServerInfo describes this MCP server for the initialize response.
type ServerInfo struct {
	Name    string
	Version string
}

// entry pairs a registered tool with how it executes.
type entry struct {
	tool    model.Tool
	handler ToolHandler // nil for federated tools
	backend string      // backend name for federated tools
	remote  string      // tool name on the backend, without the export prefix
}

// Registry is the MCP tool registry: local tools with handlers plus tools
// re-exported from attached MCP backends. Tools are listed in registration
// order. All methods are safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	config Config

	order    []string
	entries  map[string]entry
	backends map[string]*mcpBackend

	started bool
}

// New creates a new Registry with the given config.
func New(cfg Config) *Registry {
	return &Registry{
		config:   cfg,
		entries:  make(map[string]entry),
		backends: make(map[string]*mcpBackend),
	}
}

// RegisterLocal registers a tool with a local execution handler.
// Tool names must be unique across local and federated tools.
func (r *Registry) RegisterLocal(tool model.Tool, handler ToolHandler) error {
	if err := tool.Validate(); err != nil {
		return fmt.Errorf("invalid tool: %w", err)
	}
	if handler == nil {
		return fmt.Errorf("%w: handler is required", ErrInvalidRequest)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[tool.Name]; exists {
		return fmt.Errorf("%w: %s", ErrToolExists, tool.Name)
	}
	r.order = append(r.order, tool.Name)
	r.entries[tool.Name] = entry{tool: tool, handler: handler}
	return nil
}

// RegisterLocalFunc is a convenience for inline tool definition.
func (r *Registry) RegisterLocalFunc(
	name, description string,
	inputSchema map[string]any,
	handler ToolHandler,
	opts ...LocalToolOption,
) error {
	cfg := applyLocalToolOptions(opts)
	tool := buildLocalTool(name, description, inputSchema, cfg)
	return r.RegisterLocal(tool, handler)
}

// ListAll returns all registered tools in registration order.
func (r *Registry) ListAll() []model.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tools := make([]model.Tool, 0, len(r.order))
	for _, name := range r.order {
		tools = append(tools, r.entries[name].tool)
	}
	return tools
}

// GetTool returns a tool by name.
func (r *Registry) GetTool(name string) (model.Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[name]
	if !ok {
		return model.Tool{}, fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}
	return e.tool, nil
}

// Execute runs a tool by name with the given arguments and returns its
// content envelope.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error) {
	r.mu.RLock()
	e, ok := r.entries[name]
	r.mu.RUnlock()
	if !ok {
		r.observe(ctx, name, "not_found", 0)
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}

	start := time.Now()
	result, err := r.execute(ctx, e, name, args)
	status := "ok"
	switch {
	case err != nil:
		status = "error"
	case result != nil && result.IsError:
		status = "tool_error"
	}
	r.observe(ctx, name, status, time.Since(start).Seconds())
	return result, err
}

func (r *Registry) execute(ctx context.Context, e entry, name string, args map[string]any) (*mcp.CallToolResult, error) {
	if e.handler != nil {
		return e.handler(ctx, args)
	}

	r.mu.RLock()
	backend, ok := r.backends[e.backend]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBackendNotFound, e.backend)
	}
	return backend.callTool(ctx, e.remote, args)
}

func (r *Registry) observe(ctx context.Context, tool, status string, seconds float64) {
	if r.config.Observer != nil {
		r.config.Observer.ObserveToolCall(ctx, tool, status, seconds)
	}
}

// Start connects all registered MCP backends and re-exports their tools.
func (r *Registry) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		return ErrAlreadyStarted
	}
	r.started = true
	backends := make(map[string]*mcpBackend, len(r.backends))
	for name, backend := range r.backends {
		backends[name] = backend
	}
	r.mu.Unlock()

	connected := make([]string, 0, len(backends))
	for name, backend := range backends {
		if err := backend.connect(ctx); err != nil {
			r.rollbackStart(backends, connected)
			return fmt.Errorf("failed to connect backend %s: %w", name, err)
		}
		connected = append(connected, name)
		if err := r.exportBackendTools(name, backend.toolsSnapshot()); err != nil {
			r.rollbackStart(backends, connected)
			return fmt.Errorf("failed to register backend %s tools: %w", name, err)
		}
	}
	return nil
}

func (r *Registry) rollbackStart(backends map[string]*mcpBackend, connected []string) {
	for _, name := range connected {
		_ = backends[name].disconnect()
	}
	r.mu.Lock()
	r.started = false
	r.mu.Unlock()
}

// exportBackendTools adds a backend's discovered tools to the listing under
// "<backend>:<tool>" names.
func (r *Registry) exportBackendTools(backendName string, tools []model.Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, tool := range tools {
		remote := tool.Name
		exported := tool
		exported.Namespace = backendName
		name := backendName + ":" + remote
		exported.Tool.Name = name
		if _, exists := r.entries[name]; exists {
			return fmt.Errorf("%w: %s", ErrToolExists, name)
		}
		r.order = append(r.order, name)
		r.entries[name] = entry{tool: exported, backend: backendName, remote: remote}
	}
	return nil
}

// Stop gracefully shuts down all backend connections.
func (r *Registry) Stop() error {
	r.mu.Lock()
	if !r.started {
		r.mu.Unlock()
		return nil
	}
	r.started = false
	backends := make(map[string]*mcpBackend, len(r.backends))
	for name, backend := range r.backends {
		backends[name] = backend
	}
	r.mu.Unlock()

	for name, backend := range backends {
		if err := backend.disconnect(); err != nil {
			return fmt.Errorf("failed to disconnect backend %s: %w", name, err)
		}
	}
	return nil
}

// HealthCheck returns nil if the registry is started and every backend is
// connected.
func (r *Registry) HealthCheck(ctx context.Context) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if !r.started {
		return ErrNotStarted
	}
	for name, backend := range r.backends {
		if !backend.isConnected() {
			return fmt.Errorf("backend %s not connected", name)
		}
	}
	return nil
}

// RegistryStats summarises the registry contents.
type RegistryStats struct {
	TotalTools int
	LocalTools int
	MCPTools   int
	Backends   int
}

// Stats returns registry statistics.
func (r *Registry) Stats() RegistryStats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := RegistryStats{
		TotalTools: len(r.order),
		Backends:   len(r.backends),
	}
	for _, name := range r.order {
		if r.entries[name].handler != nil {
			stats.LocalTools++
		} else {
			stats.MCPTools++
		}
	}
	return stats
}
