// Command storybook-mcp serves a Storybook component catalog as MCP tools
// over stdio or HTTP, and offers one-shot catalog commands for scripting.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/uilens/storybook-mcp/catalog"
	"github.com/uilens/storybook-mcp/config"
	"github.com/uilens/storybook-mcp/docpage"
	"github.com/uilens/storybook-mcp/observe"
	"github.com/uilens/storybook-mcp/registry"
	"github.com/uilens/storybook-mcp/tools/componentlookup"
	"github.com/uilens/storybook-mcp/tools/docsearch"
)

// version is set during build with -ldflags.
var version = "0.3.0"

var (
	configPath string
	transport  string
	sourceName string
	limitFlag  int
)

var rootCmd = &cobra.Command{
	Use:           "storybook-mcp",
	Short:         "MCP server exposing a Storybook component catalog",
	Long:          `storybook-mcp exposes a remote Storybook component catalog as MCP tools: component lookup, full-text search, fuzzy suggestions, and documentation search. It serves over stdio for MCP clients or over HTTP with a documentation page and Prometheus metrics.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP server",
	Long:  `Runs the MCP server over the selected transport. "stdio" speaks JSON-RPC on stdin/stdout for MCP clients; "http" listens on the configured address and additionally serves the documentation page, /metrics, and /healthz.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		setupLogger(cfg)

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		switch transport {
		case "stdio":
			return serveStdio(ctx, cfg)
		case "http":
			return serveHTTP(ctx, cfg)
		default:
			return fmt.Errorf("unknown transport %q; valid values: stdio, http", transport)
		}
	},
}

var lookupCmd = &cobra.Command{
	Use:   "lookup <component-name>",
	Short: "Look up one component and print its full record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTool(cmd.Context(), "lookupComponent", map[string]any{
			"componentName": args[0],
			"source":        sourceName,
		})
	},
}

var componentsCmd = &cobra.Command{
	Use:   "components",
	Short: "List every component in the catalog",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runTool(cmd.Context(), "lookupComponent", map[string]any{
			"source": sourceName,
		})
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Full-text search over the catalog",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTool(cmd.Context(), "searchComponents", map[string]any{
			"query":  args[0],
			"limit":  limitFlag,
			"source": sourceName,
		})
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the storybook-mcp version",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Println("storybook-mcp " + version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to the YAML configuration file")
	serveCmd.Flags().StringVar(&transport, "transport", "stdio", "transport to serve on: stdio or http")
	lookupCmd.Flags().StringVar(&sourceName, "source", "", "named catalog source (default source when empty)")
	componentsCmd.Flags().StringVar(&sourceName, "source", "", "named catalog source (default source when empty)")
	searchCmd.Flags().StringVar(&sourceName, "source", "", "named catalog source (default source when empty)")
	searchCmd.Flags().IntVar(&limitFlag, "limit", 10, "maximum number of results")
	rootCmd.AddCommand(serveCmd, lookupCmd, componentsCmd, searchCmd, versionCmd)
}

func main() {
	// Best effort; a missing .env file is not an error.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "storybook-mcp: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	if configPath == "" {
		if env := os.Getenv("STORYBOOK_MCP_CONFIG"); env != "" {
			configPath = env
		}
	}
	if configPath == "" {
		return config.Default(), nil
	}
	return config.Load(configPath)
}

func setupLogger(cfg *config.Config) {
	opts := &slog.HandlerOptions{Level: cfg.Server.LogLevel.SlogLevel()}
	var handler slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if cfg.Server.LogJSON {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// buildRegistry assembles the tool registry, catalog sources, and doc store
// from config. metrics may be nil for one-shot commands.
func buildRegistry(cfg *config.Config, metrics *observe.Metrics) (*registry.Registry, *docpage.Store, error) {
	sources := catalog.NewSourceStore()
	for _, src := range cfg.Sources {
		if _, err := sources.RegisterSource(catalog.Source{
			Name:    src.Name,
			URL:     src.URL,
			Headers: src.Headers,
			Default: src.Default,
			Timeout: time.Duration(src.TimeoutSeconds) * time.Second,
		}); err != nil {
			return nil, nil, fmt.Errorf("register source %s: %w", src.Name, err)
		}
	}

	regCfg := registry.Config{
		ServerInfo: registry.ServerInfo{Name: "storybook-mcp", Version: version},
	}
	if metrics != nil {
		regCfg.Observer = metrics
	}
	r := registry.New(regCfg)

	opts := []componentlookup.Option{}
	if metrics != nil {
		opts = append(opts, componentlookup.WithObserver(metrics))
	}
	if err := componentlookup.NewService(sources, opts...).Register(r); err != nil {
		return nil, nil, fmt.Errorf("register catalog tools: %w", err)
	}

	if cfg.SearchAPI.URL != "" {
		client, err := docsearch.NewClient(
			cfg.SearchAPI.URL,
			cfg.SearchAPI.APIKey,
			docsearch.WithTimeout(time.Duration(cfg.SearchAPI.TimeoutSeconds)*time.Second),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("search api: %w", err)
		}
		if err := docsearch.Register(r, client); err != nil {
			return nil, nil, fmt.Errorf("register searchDocs: %w", err)
		}
	}

	for _, b := range cfg.Backends {
		if err := r.RegisterMCP(registry.BackendConfig{
			Name:       b.Name,
			URL:        backendURL(b),
			Headers:    b.Headers,
			MaxRetries: b.MaxRetries,
		}); err != nil {
			return nil, nil, fmt.Errorf("register backend %s: %w", b.Name, err)
		}
	}

	return r, buildDocStore(r), nil
}

// backendURL maps the configured transport onto the URL scheme the registry
// selects transports by. http(s) URLs pass through untouched.
func backendURL(b config.BackendConfig) string {
	switch b.Transport {
	case "sse":
		if rest, ok := strings.CutPrefix(b.URL, "https://"); ok {
			return "sse://" + rest
		}
		if rest, ok := strings.CutPrefix(b.URL, "http://"); ok {
			return "sse://" + rest
		}
		return b.URL
	case "stdio":
		return "stdio://"
	default:
		return b.URL
	}
}

// buildDocStore attaches the hand-written documentation entries for the
// built-in tools.
func buildDocStore(r *registry.Registry) *docpage.Store {
	store := docpage.NewStore(docpage.StoreOptions{Resolver: r})

	// RegisterDoc only fails on oversized example args, which these are not.
	_ = store.RegisterDoc("lookupComponent", docpage.DocEntry{
		Summary: "Resolve one Storybook component by name, or list the whole catalog.",
		Notes: "Matching is case-insensitive and two-phase: exact matches on the title, the title without its category prefix, or the catalog key always win over substring matches. " +
			"The catalog is fetched fresh on every call; a fetch failure is returned as a readable message, not a protocol error.",
		Examples: []docpage.Example{
			{Name: "by base name", Description: "Category prefix may be omitted.", Args: map[string]any{"componentName": "button"}},
			{Name: "full listing", Description: "Omit componentName for a summary of every component.", Args: map[string]any{}},
		},
	})
	_ = store.RegisterDoc("searchComponents", docpage.DocEntry{
		Summary: "Ranked full-text search over component titles, descriptions, props, and stories.",
		Notes:   "Use lookupComponent when you already know the component's name; search is for discovery.",
		Examples: []docpage.Example{
			{Name: "find form controls", Args: map[string]any{"query": "validation input", "limit": 5}},
		},
	})
	_ = store.RegisterDoc("suggestComponents", docpage.DocEntry{
		Summary: "Fuzzy, phonetics-aware suggestions for a misspelled component name.",
		Examples: []docpage.Example{
			{Name: "typo recovery", Args: map[string]any{"name": "buton"}},
		},
	})

	return store
}

func serveStdio(ctx context.Context, cfg *config.Config) error {
	r, _, err := buildRegistry(cfg, nil)
	if err != nil {
		return err
	}
	if err := r.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := r.Stop(); err != nil {
			slog.Error("registry stop failed", "error", err)
		}
	}()

	slog.Info("serving MCP over stdio", "version", version)
	return registry.ServeStdio(ctx, r)
}

func serveHTTP(ctx context.Context, cfg *config.Config) error {
	shutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName:    "storybook-mcp",
		ServiceVersion: version,
	})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			slog.Error("telemetry shutdown failed", "error", err)
		}
	}()

	metrics, err := observe.Default()
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}

	r, docs, err := buildRegistry(cfg, metrics)
	if err != nil {
		return err
	}
	if err := r.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := r.Stop(); err != nil {
			slog.Error("registry stop failed", "error", err)
		}
	}()

	mux := http.NewServeMux()
	mux.Handle("/mcp", registry.ServeHTTP(r))
	mux.Handle("/sse", registry.ServeSSE(r))
	mux.Handle("/docs", docpage.PageHandler("storybook-mcp", docs))
	mux.Handle("/docs.json", docpage.JSONHandler(docs))
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if err := r.HealthCheck(req.Context()); err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})

	srv := &http.Server{
		Addr:    cfg.Server.ListenAddr,
		Handler: observe.Middleware(metrics)(mux),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("serving MCP over HTTP", "addr", cfg.Server.ListenAddr, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutdown signal received, stopping")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// runTool executes one registered tool and prints its text content.
func runTool(ctx context.Context, name string, args map[string]any) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	setupLogger(cfg)

	r, _, err := buildRegistry(cfg, nil)
	if err != nil {
		return err
	}

	res, err := r.Execute(ctx, name, args)
	if err != nil {
		return err
	}
	for _, content := range res.Content {
		if tc, ok := content.(*mcp.TextContent); ok {
			fmt.Println(tc.Text)
		}
	}
	if res.IsError {
		return errors.New("tool reported an error")
	}
	return nil
}
