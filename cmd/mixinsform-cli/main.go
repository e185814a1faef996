package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/goliatone/go-mixinsform/internal/config"
	internalLoader "github.com/goliatone/go-mixinsform/internal/loader"
	"github.com/goliatone/go-mixinsform/pkg/mixins"
	"github.com/goliatone/go-mixinsform/pkg/orchestrator"
	"github.com/goliatone/go-mixinsform/pkg/render"
	"github.com/goliatone/go-mixinsform/pkg/renderers/html"
	"github.com/goliatone/go-mixinsform/pkg/renderers/tui"
	"github.com/goliatone/go-mixinsform/pkg/server"
)

func main() {
	configPath := flag.String("config", "", "YAML configuration file")
	mode := flag.String("mode", "render", "serve, render or edit")
	schemaURL := flag.String("schema-url", "", "catalog schema URL template (overrides config)")
	mixinURL := flag.String("mixin", "", "mixin schema URL to load (appended to config)")
	formID := flag.String("form", "", "schema id to render or edit")
	renderer := flag.String("renderer", "", "renderer to use (overrides config)")
	lang := flag.String("lang", "", "display language (overrides config)")
	addr := flag.String("addr", "", "listen address for serve (overrides config)")
	format := flag.String("format", "json", "edit output format: json, form or pretty")
	output := flag.String("output", "", "output file (stdout if empty)")
	logLevel := flag.String("log-level", "", "log level (overrides config)")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = loaded
	}
	applyOverrides(&cfg, overrides{
		schemaURL: *schemaURL,
		mixinURL:  *mixinURL,
		renderer:  *renderer,
		lang:      *lang,
		addr:      *addr,
		logLevel:  *logLevel,
	})
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	level, _ := cfg.Level()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := newApp(cfg, logger, tui.OutputFormat(*format))
	if err != nil {
		log.Fatalf("Failed to initialise: %v", err)
	}

	switch *mode {
	case "serve":
		if err := app.serve(ctx); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	case "render", "edit":
		req, err := app.request(*formID)
		if err != nil {
			log.Fatalf("Invalid request: %v", err)
		}
		var out []byte
		if *mode == "render" {
			out, err = app.orch.Generate(ctx, req)
		} else {
			out, err = app.edit(ctx, req)
		}
		if err != nil {
			log.Fatalf("Failed to %s form: %v", *mode, err)
		}
		writeOutput(*output, out)
	default:
		log.Fatalf("unknown mode %q", *mode)
	}
}

type overrides struct {
	schemaURL, mixinURL, renderer, lang, addr, logLevel string
}

func applyOverrides(cfg *config.Config, o overrides) {
	if o.schemaURL != "" {
		cfg.Catalog.SchemaURL = o.schemaURL
	}
	if o.mixinURL != "" {
		cfg.Forms.MixinURLs = append(cfg.Forms.MixinURLs, o.mixinURL)
	}
	if o.renderer != "" {
		cfg.Renderer = o.renderer
	}
	if o.lang != "" {
		cfg.Language = o.lang
	}
	if o.addr != "" {
		cfg.Server.Addr = o.addr
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
}

type app struct {
	cfg       config.Config
	logger    *slog.Logger
	orch      *orchestrator.Orchestrator
	persister mixins.Persister
	editor    *tui.Renderer
}

func newApp(cfg config.Config, logger *slog.Logger, format tui.OutputFormat) (*app, error) {
	translator := cfg.Translator()

	htmlOptions := []html.Option{html.WithTranslator(translator)}
	if cfg.Templates != "" {
		htmlOptions = append(htmlOptions, html.WithTemplatesDir(cfg.Templates))
	}
	htmlRenderer, err := html.New(htmlOptions...)
	if err != nil {
		return nil, fmt.Errorf("html renderer: %w", err)
	}

	var persister mixins.Persister
	if cfg.Persister.Endpoint != "" {
		p, err := mixins.NewHTTPPersister(cfg.Persister.Endpoint, &http.Client{Timeout: cfg.Persister.Timeout})
		if err != nil {
			return nil, err
		}
		persister = p
	}

	editorOptions := []tui.Option{
		tui.WithOutputFormat(format),
		tui.WithTranslator(translator),
		tui.WithLogger(logger),
	}
	if persister != nil {
		editorOptions = append(editorOptions, tui.WithPersister(persister))
	}
	editor, err := tui.New(editorOptions...)
	if err != nil {
		return nil, err
	}

	registry, err := render.NewRegistry(htmlRenderer, render.JSONRenderer{}, editor)
	if err != nil {
		return nil, err
	}

	options := []orchestrator.Option{
		orchestrator.WithSchemaLoader(internalLoader.New(cfg.LoaderOptions())),
		orchestrator.WithCatalogConfig(cfg.Catalog.CatalogConfig),
		orchestrator.WithRegistry(registry),
		orchestrator.WithDefaultRenderer(cfg.Renderer),
		orchestrator.WithLogger(logger),
		orchestrator.WithLoaderOptions(
			mixins.WithConcurrency(cfg.Loader.Concurrency),
			mixins.WithMaxRefDepth(cfg.Loader.MaxRefDepth),
		),
	}
	if cfg.Forms.PresetsFile != "" {
		data, err := os.ReadFile(cfg.Forms.PresetsFile)
		if err != nil {
			return nil, fmt.Errorf("read presets: %w", err)
		}
		preset, err := orchestrator.NewPresetTransformer(data)
		if err != nil {
			return nil, err
		}
		options = append(options, orchestrator.WithSchemaTransformer(preset))
	}

	orch := orchestrator.New(options...)
	if err := orch.Err(); err != nil {
		return nil, err
	}
	return &app{cfg: cfg, logger: logger, orch: orch, persister: persister, editor: editor}, nil
}

func (a *app) request(formID string) (orchestrator.Request, error) {
	if strings.TrimSpace(formID) == "" {
		return orchestrator.Request{}, errors.New("-form is required")
	}
	form, err := a.cfg.Request()
	if err != nil {
		return orchestrator.Request{}, err
	}
	return orchestrator.Request{
		Form:     form,
		SchemaID: formID,
		Language: a.cfg.Language,
		RenderOptions: render.RenderOptions{
			Translator: a.cfg.Translator(),
		},
	}, nil
}

func (a *app) edit(ctx context.Context, req orchestrator.Request) ([]byte, error) {
	session, err := a.orch.Session(ctx, req)
	if err != nil {
		return nil, err
	}
	return a.editor.Edit(ctx, session, render.Options{Language: req.Language})
}

func (a *app) serve(ctx context.Context) error {
	form, err := a.cfg.Request()
	if err != nil {
		return err
	}

	options := []server.Option{
		server.WithLogger(a.logger),
		server.WithRequest(form),
		server.WithLanguage(a.cfg.Language),
		server.WithDefaultRenderer(a.cfg.Renderer),
		server.WithRequestTimeout(a.cfg.Server.RequestTimeout),
	}
	if a.persister != nil {
		options = append(options, server.WithPersister(a.persister))
	}
	srv, err := server.New(a.orch, a.orch.Registry(), options...)
	if err != nil {
		return err
	}
	if _, err := srv.Load(ctx); err != nil {
		return fmt.Errorf("load forms: %w", err)
	}

	httpServer := &http.Server{
		Addr:              a.cfg.Server.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("listening", "addr", a.cfg.Server.Addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	}
}

func writeOutput(path string, data []byte) {
	if path != "" {
		if err := os.WriteFile(path, data, 0o644); err != nil {
			log.Fatalf("Failed to write output: %v", err)
		}
		fmt.Printf("Form written to %s\n", path)
		return
	}
	fmt.Println(string(data))
}
