// Package registry implements the MCP server core for storybook-mcp: local
// tool registration with handlers, JSON-RPC 2.0 request handling
// (initialize, tools/list, tools/call), and stdio / streamable HTTP / SSE
// transports.
//
// Tools are listed in registration order. Remote MCP servers can be attached
// as backends; their tools are discovered on Start and re-exported alongside
// the local ones.
//
// Example usage:
//
//	reg := registry.New(registry.Config{
//	    ServerInfo: registry.ServerInfo{
//	        Name:    "storybook-mcp",
//	        Version: "0.3.0",
//	    },
//	})
//
//	reg.RegisterLocalFunc(
//	    "lookupComponent",
//	    "Look up a UI component by name",
//	    map[string]any{
//	        "type": "object",
//	        "properties": map[string]any{
//	            "componentName": map[string]any{"type": "string"},
//	        },
//	    },
//	    handler,
//	)
//
//	ctx := context.Background()
//	reg.Start(ctx)
//	defer reg.Stop()
//
//	registry.ServeStdio(ctx, reg)
package registry
