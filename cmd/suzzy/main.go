// Package main provides Suzzy, a terminal assistant that reads the page open
// in a browser tab and answers questions about it.
//
// The default front end is a full-screen panel. -query answers once and
// exits, -plain runs a line-oriented conversation and -dump-snapshot prints
// what Suzzy extracted from the page.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/entrhq/suzzy/pkg/assistant"
	appconfig "github.com/entrhq/suzzy/pkg/config"
	"github.com/entrhq/suzzy/pkg/controller"
	"github.com/entrhq/suzzy/pkg/executor/cli"
	"github.com/entrhq/suzzy/pkg/executor/tui"
	"github.com/entrhq/suzzy/pkg/llm/tokenizer"
	"github.com/entrhq/suzzy/pkg/logging"
	"github.com/entrhq/suzzy/pkg/relay"
)

const version = "0.1.0"

// Config holds the command line options.
type Config struct {
	ConfigPath string
	LogLevel   string

	APIKey  string
	Model   string
	BaseURL string

	Driver      string
	URL         string
	DebuggerURL string
	TabPattern  string
	Headless    bool
	Timeout     time.Duration

	Query        string
	JSON         bool
	NoColor      bool
	Plain        bool
	DumpSnapshot bool
	ShowVersion  bool
}

func main() {
	config := parseFlags()

	if config.ShowVersion {
		fmt.Printf("Suzzy v%s\n", version)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	if err := run(ctx, config); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		cancel()
		log.Fatalf("suzzy: %v", err)
	}
}

// parseFlags parses command line flags
func parseFlags() *Config {
	config := &Config{}

	flag.StringVar(&config.ConfigPath, "config", "", "Config file path (default ~/.suzzy/config.json; .yaml files are YAML)")
	flag.StringVar(&config.LogLevel, "log-level", "info", "Minimum log level: debug, info, warn or error")
	flag.StringVar(&config.APIKey, "api-key", "", "Groq API key for this run only (or set GROQ_API_KEY)")
	flag.StringVar(&config.Model, "model", "", "Completion model (default llama3-8b-8192)")
	flag.StringVar(&config.BaseURL, "base-url", "", "OpenAI-compatible base URL (or set GROQ_BASE_URL)")
	flag.StringVar(&config.Driver, "driver", "", "Page driver: rod, playwright or static")
	flag.StringVar(&config.URL, "url", "", "Page to open (playwright) or read (static: URL or file path)")
	flag.StringVar(&config.DebuggerURL, "debugger-url", "", "DevTools endpoint of a running Chrome (rod)")
	flag.StringVar(&config.TabPattern, "tab", "", "Glob over tab URLs used to pick the active tab (rod)")
	flag.BoolVar(&config.Headless, "headless", false, "Run browsers Suzzy launches without a window")
	flag.DurationVar(&config.Timeout, "timeout", 0, "Page load timeout (default 30s)")
	flag.StringVar(&config.Query, "query", "", "Answer one question and exit")
	flag.BoolVar(&config.JSON, "json", false, "Print answers as JSON (with -query or -plain)")
	flag.BoolVar(&config.NoColor, "no-color", false, "Disable JSON syntax highlighting")
	flag.BoolVar(&config.Plain, "plain", false, "Line-oriented conversation instead of the panel")
	flag.BoolVar(&config.DumpSnapshot, "dump-snapshot", false, "Print the extracted page snapshot and exit")
	flag.BoolVar(&config.ShowVersion, "version", false, "Show version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Suzzy - Smart Web Assistant\n\n")
		fmt.Fprintf(os.Stderr, "Usage: suzzy [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  %-18s Groq API key (not saved)\n", appconfig.EnvAPIKey)
		fmt.Fprintf(os.Stderr, "  %-18s OpenAI-compatible base URL\n", appconfig.EnvBaseURL)
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  # Attach to Chrome started with --remote-debugging-port=9222\n")
		fmt.Fprintf(os.Stderr, "  suzzy\n")
		fmt.Fprintf(os.Stderr, "  suzzy -tab 'https://example.org/*'\n")
		fmt.Fprintf(os.Stderr, "\n  # Launch a browser and open a page\n")
		fmt.Fprintf(os.Stderr, "  suzzy -driver playwright -url https://example.org\n")
		fmt.Fprintf(os.Stderr, "\n  # One-shot questions without a browser\n")
		fmt.Fprintf(os.Stderr, "  suzzy -driver static -url https://example.org -query 'What does this organization do?'\n")
		fmt.Fprintf(os.Stderr, "  suzzy -driver static -url page.html -dump-snapshot\n")
	}

	flag.Parse()
	return config
}

// overrides converts flags into configuration overrides
func (c *Config) overrides() appconfig.Overrides {
	return appconfig.Overrides{
		APIKey:  c.APIKey,
		Model:   c.Model,
		BaseURL: c.BaseURL,
		Browser: appconfig.BrowserSettings{
			Driver:            c.Driver,
			Headless:          c.Headless,
			DebuggerURL:       c.DebuggerURL,
			StartURL:          c.URL,
			TabPattern:        c.TabPattern,
			NavigationTimeout: c.Timeout,
		},
	}
}

// run wires the application together and starts the chosen front end
func run(ctx context.Context, config *Config) (err error) {
	level, err := logging.ParseLevel(config.LogLevel)
	if err != nil {
		return err
	}
	logging.SetLevel(level)

	logger, err := logging.NewLogger("suzzy")
	if err != nil {
		logger.Warnf("file logging unavailable: %v", err)
	}
	defer logger.Close()
	defer func() {
		if err == nil || errors.Is(err, context.Canceled) {
			return
		}
		logger.Errorf("%v", err)
		if path := logger.LogPath(); path != "" {
			err = fmt.Errorf("%w (log: %s)", err, path)
		}
	}()

	settings, err := appconfig.Open(config.ConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := settings.Apply(config.overrides(), os.Getenv); err != nil {
		return err
	}
	logger.Debugf("config %s", settings.Path())
	if settings.CredentialOverridden() {
		logger.Infof("using API key from -api-key or %s", appconfig.EnvAPIKey)
	}

	browser := settings.Browser.Snapshot()
	source, err := openSource(ctx, browser)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := source.Close(); cerr != nil {
			logger.Warnf("failed to close %s driver: %v", browser.Driver, cerr)
		}
	}()
	logger.Infof("session %s using %s driver", logger.SessionID(), browser.Driver)

	ctrl := controller.New(
		relay.New(source, relay.WithLogger(component("relay"))),
		assistant.NewClient(assistant.WithLogger(component("assistant"))),
		settings,
		controller.WithLogger(component("controller")),
	)

	switch {
	case config.DumpSnapshot:
		return newCLI(ctrl, config).DumpSnapshot(ctx)
	case config.Query != "":
		return newCLI(ctrl, config).Ask(ctx, config.Query)
	case config.Plain:
		return newCLI(ctrl, config).Run(ctx)
	}

	opts := []tui.Option{tui.WithLogger(component("tui"))}
	if tok, err := tokenizer.New(); err != nil {
		logger.Warnf("token estimate disabled: %v", err)
	} else {
		opts = append(opts, tui.WithTokenCounter(tok))
	}

	if err := tui.NewExecutor(ctrl, opts...).Run(ctx); err != nil {
		return fmt.Errorf("executor error: %w", err)
	}
	return nil
}

func newCLI(ctrl *controller.Controller, config *Config) *cli.Executor {
	return cli.NewExecutor(ctrl,
		cli.WithJSON(config.JSON),
		cli.WithColor(!config.NoColor),
	)
}

// component returns a logger for name, sharing the session log file.
func component(name string) *logging.Logger {
	l, _ := logging.NewLogger(name)
	return l
}
