package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func TestNew(t *testing.T) {
	cfg := Config{
		ServerInfo: ServerInfo{
			Name:    "test-server",
			Version: "1.0.0",
		},
	}

	reg := New(cfg)

	if reg == nil {
		t.Fatal("expected non-nil registry")
	}
	if reg.config.ServerInfo.Name != "test-server" {
		t.Errorf("expected server name 'test-server', got %s", reg.config.ServerInfo.Name)
	}
}

func TestRegisterLocalAndExecute(t *testing.T) {
	reg := New(Config{
		ServerInfo: ServerInfo{Name: "test", Version: "1.0.0"},
	})

	callCount := 0
	handler := func(ctx context.Context, args map[string]any) (*mcp.CallToolResult, error) {
		callCount++
		msg, _ := args["message"].(string)
		return TextResult("echo: " + msg), nil
	}

	err := reg.RegisterLocalFunc(
		"echo",
		"Echoes back input",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"message": map[string]any{"type": "string"},
			},
		},
		handler,
		WithTags("echo", "utility"),
	)
	if err != nil {
		t.Fatalf("RegisterLocalFunc failed: %v", err)
	}

	ctx := context.Background()
	result, err := reg.Execute(ctx, "echo", map[string]any{"message": "hello"})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if callCount != 1 {
		t.Errorf("expected handler to be called once, got %d", callCount)
	}

	if len(result.Content) != 1 {
		t.Fatalf("expected single-item content, got %d items", len(result.Content))
	}
	text, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("expected *mcp.TextContent, got %T", result.Content[0])
	}
	if text.Text != "echo: hello" {
		t.Errorf("expected 'echo: hello', got %q", text.Text)
	}
}

func TestRegisterLocal_DuplicateName(t *testing.T) {
	reg := New(Config{ServerInfo: ServerInfo{Name: "test", Version: "1.0.0"}})
	handler := func(ctx context.Context, args map[string]any) (*mcp.CallToolResult, error) {
		return TextResult("ok"), nil
	}

	if err := reg.RegisterLocalFunc("dup", "first", map[string]any{"type": "object"}, handler); err != nil {
		t.Fatalf("first registration failed: %v", err)
	}
	err := reg.RegisterLocalFunc("dup", "second", map[string]any{"type": "object"}, handler)
	if !errors.Is(err, ErrToolExists) {
		t.Errorf("expected ErrToolExists, got %v", err)
	}
}

func TestExecute_ToolNotFound(t *testing.T) {
	reg := New(Config{ServerInfo: ServerInfo{Name: "test", Version: "1.0.0"}})

	_, err := reg.Execute(context.Background(), "missing", nil)
	if !errors.Is(err, ErrToolNotFound) {
		t.Errorf("expected ErrToolNotFound, got %v", err)
	}
}

func TestListAll_RegistrationOrder(t *testing.T) {
	reg := New(Config{ServerInfo: ServerInfo{Name: "test", Version: "1.0.0"}})
	handler := func(ctx context.Context, args map[string]any) (*mcp.CallToolResult, error) {
		return TextResult("ok"), nil
	}

	names := []string{"zeta", "alpha", "mid"}
	for _, n := range names {
		if err := reg.RegisterLocalFunc(n, n+" tool", map[string]any{"type": "object"}, handler); err != nil {
			t.Fatalf("register %s: %v", n, err)
		}
	}

	tools := reg.ListAll()
	if len(tools) != len(names) {
		t.Fatalf("expected %d tools, got %d", len(names), len(tools))
	}
	for i, n := range names {
		if tools[i].Name != n {
			t.Errorf("tools[%d]: expected %s, got %s — listing must keep registration order", i, n, tools[i].Name)
		}
	}
}

func TestHandleRequest_Initialize(t *testing.T) {
	reg := New(Config{
		ServerInfo: ServerInfo{Name: "test-server", Version: "1.0.0"},
	})

	resp := reg.HandleRequest(context.Background(), MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "initialize",
	})

	if resp.Error != nil {
		t.Fatalf("unexpected error: %v", resp.Error)
	}
	result, ok := resp.Result.(map[string]any)
	if !ok {
		t.Fatalf("expected map result, got %T", resp.Result)
	}
	info, ok := result["serverInfo"].(map[string]any)
	if !ok {
		t.Fatal("expected serverInfo in result")
	}
	if info["name"] != "test-server" {
		t.Errorf("expected server name test-server, got %v", info["name"])
	}
}

func TestHandleRequest_ToolsList(t *testing.T) {
	reg := New(Config{ServerInfo: ServerInfo{Name: "test", Version: "1.0.0"}})
	handler := func(ctx context.Context, args map[string]any) (*mcp.CallToolResult, error) {
		return TextResult("ok"), nil
	}
	_ = reg.RegisterLocalFunc("lookupComponent", "Look up a component", map[string]any{"type": "object"}, handler)

	resp := reg.HandleRequest(context.Background(), MCPRequest{
		JSONRPC: "2.0",
		ID:      2,
		Method:  "tools/list",
	})
	if resp.Error != nil {
		t.Fatalf("unexpected error: %v", resp.Error)
	}

	result := resp.Result.(map[string]any)
	tools := result["tools"].([]map[string]any)
	if len(tools) != 1 || tools[0]["name"] != "lookupComponent" {
		t.Errorf("unexpected tools list: %v", tools)
	}
}

// The single-item text envelope must serialize exactly as
// {"content":[{"type":"text","text":...}]}.
func TestHandleRequest_ToolsCall_EnvelopeShape(t *testing.T) {
	reg := New(Config{ServerInfo: ServerInfo{Name: "test", Version: "1.0.0"}})
	handler := func(ctx context.Context, args map[string]any) (*mcp.CallToolResult, error) {
		return TextResult("hello world"), nil
	}
	_ = reg.RegisterLocalFunc("greet", "Greets", map[string]any{"type": "object"}, handler)

	resp := reg.HandleRequest(context.Background(), MCPRequest{
		JSONRPC: "2.0",
		ID:      3,
		Method:  "tools/call",
		Params:  json.RawMessage(`{"name": "greet", "arguments": {}}`),
	})
	if resp.Error != nil {
		t.Fatalf("unexpected error: %v", resp.Error)
	}

	raw, err := json.Marshal(resp.Result)
	if err != nil {
		t.Fatalf("marshal result: %v", err)
	}
	want := `{"content":[{"type":"text","text":"hello world"}]}`
	if string(raw) != want {
		t.Errorf("envelope mismatch:\n got %s\nwant %s", raw, want)
	}
}

func TestHandleRequest_ToolsCall_UnknownTool(t *testing.T) {
	reg := New(Config{ServerInfo: ServerInfo{Name: "test", Version: "1.0.0"}})

	resp := reg.HandleRequest(context.Background(), MCPRequest{
		JSONRPC: "2.0",
		ID:      4,
		Method:  "tools/call",
		Params:  json.RawMessage(`{"name": "nope", "arguments": {}}`),
	})
	if resp.Error == nil {
		t.Fatal("expected error for unknown tool")
	}
	if resp.Error.Code != ErrCodeToolNotFound {
		t.Errorf("expected code %d, got %d", ErrCodeToolNotFound, resp.Error.Code)
	}
}

func TestHandleRequest_UnknownMethod(t *testing.T) {
	reg := New(Config{ServerInfo: ServerInfo{Name: "test", Version: "1.0.0"}})

	resp := reg.HandleRequest(context.Background(), MCPRequest{
		JSONRPC: "2.0",
		ID:      5,
		Method:  "resources/list",
	})
	if resp.Error == nil || resp.Error.Code != ErrCodeMethodNotFound {
		t.Errorf("expected method-not-found error, got %+v", resp.Error)
	}
}

func TestServeHTTP(t *testing.T) {
	reg := New(Config{ServerInfo: ServerInfo{Name: "test", Version: "1.0.0"}})
	handler := func(ctx context.Context, args map[string]any) (*mcp.CallToolResult, error) {
		return TextResult("over http"), nil
	}
	_ = reg.RegisterLocalFunc("ping", "Ping", map[string]any{"type": "object"}, handler)

	srv := httptest.NewServer(ServeHTTP(reg))
	defer srv.Close()

	body := `{"jsonrpc": "2.0", "id": 1, "method": "tools/call", "params": {"name": "ping", "arguments": {}}}`
	resp, err := http.Post(srv.URL, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST failed: %v", err)
	}
	defer resp.Body.Close()

	var mcpResp MCPResponse
	if err := json.NewDecoder(resp.Body).Decode(&mcpResp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if mcpResp.Error != nil {
		t.Fatalf("unexpected error: %v", mcpResp.Error)
	}

	raw, _ := json.Marshal(mcpResp.Result)
	if !strings.Contains(string(raw), `"over http"`) {
		t.Errorf("expected tool text in result, got %s", raw)
	}
}

func TestServeHTTP_MethodNotAllowed(t *testing.T) {
	reg := New(Config{ServerInfo: ServerInfo{Name: "test", Version: "1.0.0"}})
	srv := httptest.NewServer(ServeHTTP(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", resp.StatusCode)
	}
}

func TestServeStream_ParseError(t *testing.T) {
	reg := New(Config{ServerInfo: ServerInfo{Name: "test", Version: "1.0.0"}})

	in := strings.NewReader("this is not json\n")
	var out bytes.Buffer
	if err := serveStream(context.Background(), reg, in, &out); err != nil {
		t.Fatalf("serveStream: %v", err)
	}

	var resp MCPResponse
	if err := json.Unmarshal(out.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Error == nil || resp.Error.Code != ErrCodeParseError {
		t.Errorf("expected parse error, got %+v", resp.Error)
	}
}

func TestServeStream_RoundTrip(t *testing.T) {
	reg := New(Config{ServerInfo: ServerInfo{Name: "stdio-test", Version: "1.0.0"}})

	in := strings.NewReader(`{"jsonrpc": "2.0", "id": 1, "method": "initialize"}` + "\n")
	var out bytes.Buffer
	if err := serveStream(context.Background(), reg, in, &out); err != nil {
		t.Fatalf("serveStream: %v", err)
	}

	var resp MCPResponse
	if err := json.Unmarshal(out.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Error != nil {
		t.Fatalf("unexpected error: %v", resp.Error)
	}
}

type recordingObserver struct {
	calls []string
}

func (o *recordingObserver) ObserveToolCall(_ context.Context, tool, status string, _ float64) {
	o.calls = append(o.calls, tool+":"+status)
}

func TestExecute_NotifiesObserver(t *testing.T) {
	obs := &recordingObserver{}
	reg := New(Config{
		ServerInfo: ServerInfo{Name: "test", Version: "1.0.0"},
		Observer:   obs,
	})
	_ = reg.RegisterLocalFunc("ok", "OK", map[string]any{"type": "object"},
		func(ctx context.Context, args map[string]any) (*mcp.CallToolResult, error) {
			return TextResult("fine"), nil
		})
	_ = reg.RegisterLocalFunc("bad", "Bad", map[string]any{"type": "object"},
		func(ctx context.Context, args map[string]any) (*mcp.CallToolResult, error) {
			return ErrorResult("domain failure"), nil
		})

	ctx := context.Background()
	_, _ = reg.Execute(ctx, "ok", nil)
	_, _ = reg.Execute(ctx, "bad", nil)
	_, _ = reg.Execute(ctx, "gone", nil)

	want := []string{"ok:ok", "bad:tool_error", "gone:not_found"}
	if len(obs.calls) != len(want) {
		t.Fatalf("expected %d observations, got %v", len(want), obs.calls)
	}
	for i, w := range want {
		if obs.calls[i] != w {
			t.Errorf("observation[%d]: expected %s, got %s", i, w, obs.calls[i])
		}
	}
}

func TestBackendFederation(t *testing.T) {
	server := mcp.NewServer(&mcp.Implementation{Name: "backend-server"}, nil)

	type echoArgs struct {
		Message string `json:"message"`
	}
	mcp.AddTool(server, &mcp.Tool{
		Name:        "echo",
		Description: "Echo tool",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args echoArgs) (*mcp.CallToolResult, any, error) {
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: "remote: " + args.Message}},
		}, nil, nil
	})

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	ctx := context.Background()
	serverSession, err := server.Connect(ctx, serverTransport, nil)
	if err != nil {
		t.Fatalf("server connect failed: %v", err)
	}
	defer func() {
		_ = serverSession.Close()
	}()

	reg := New(Config{
		ServerInfo: ServerInfo{Name: "test", Version: "1.0.0"},
	})
	if err := reg.RegisterMCP(BackendConfig{
		Name:      "remote",
		Transport: clientTransport,
	}); err != nil {
		t.Fatalf("RegisterMCP failed: %v", err)
	}

	if err := reg.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer func() {
		if err := reg.Stop(); err != nil {
			t.Fatalf("Stop failed: %v", err)
		}
	}()

	// Federated tools are re-exported under "<backend>:<tool>".
	tools := reg.ListAll()
	found := false
	for _, tool := range tools {
		if tool.Name == "remote:echo" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected remote:echo in listing, got %v", tools)
	}

	result, err := reg.Execute(ctx, "remote:echo", map[string]any{"message": "hi"})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if len(result.Content) != 1 {
		t.Fatalf("expected one content item, got %d", len(result.Content))
	}
	text, ok := result.Content[0].(*mcp.TextContent)
	if !ok || text.Text != "remote: hi" {
		t.Errorf("unexpected federated result: %+v", result.Content[0])
	}

	stats := reg.Stats()
	if stats.MCPTools != 1 || stats.Backends != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestHealthCheck(t *testing.T) {
	reg := New(Config{ServerInfo: ServerInfo{Name: "test", Version: "1.0.0"}})

	if err := reg.HealthCheck(context.Background()); !errors.Is(err, ErrNotStarted) {
		t.Errorf("expected ErrNotStarted before Start, got %v", err)
	}

	if err := reg.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer func() { _ = reg.Stop() }()

	if err := reg.HealthCheck(context.Background()); err != nil {
		t.Errorf("expected healthy registry, got %v", err)
	}
}
