package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bastiangx/pathserve/internal/cli"
	"github.com/bastiangx/pathserve/internal/logger"
	"github.com/bastiangx/pathserve/pkg/config"
	"github.com/bastiangx/pathserve/pkg/matcher"
	"github.com/bastiangx/pathserve/pkg/scanner"
	"github.com/bastiangx/pathserve/pkg/scorer"
	"github.com/bastiangx/pathserve/pkg/server"
	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

// options holds the persistent flags shared by every command.
type options struct {
	configPath string
	debug      bool
	version    bool
	root       string
	scorer     string
	watch      bool
	under      string

	cfg        *config.Config
	activePath string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   AppName,
		Short: "Fuzzy path matching server and CLI",
		Long:  "Ranks the files below a directory against an abbreviation, command-t style.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.version {
				showVersion()
				return nil
			}
			return cmd.Help()
		},
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "Path to a config.toml")
	flags.BoolVarP(&opts.debug, "debug", "d", false, "Toggle debug mode")
	flags.StringVar(&opts.root, "root", "", "Directory to scan (overrides scanner.root)")
	flags.StringVar(&opts.scorer, "scorer", "", "Scorer to rank with: path or sahilm (overrides matcher.scorer)")
	flags.BoolVar(&opts.watch, "watch", false, "Keep the candidate set current with filesystem events")
	flags.StringVar(&opts.under, "under", "", "Only match paths below this directory of the root")
	root.Flags().BoolVar(&opts.version, "version", false, "Show current version")

	root.AddCommand(newServeCmd(opts))
	root.AddCommand(newHTTPCmd(opts))
	root.AddCommand(newQueryCmd(opts))
	root.AddCommand(newReplCmd(opts))
	root.AddCommand(newConfigCmd(opts))
	return root
}

// load sets up logging, reads the config file and applies flag overrides.
func (o *options) load(cmd *cobra.Command) error {
	logger.Setup(o.debug)

	cfg, path, err := config.LoadConfigWithPriority(o.configPath)
	if err != nil {
		return err
	}
	log.Debugf("Using config file: (%s)", config.GetActiveConfigPath(path))

	if cmd.Flags().Changed("root") {
		cfg.Scanner.Root = o.root
	}
	if cmd.Flags().Changed("scorer") {
		cfg.Matcher.Scorer = o.scorer
	}
	if cmd.Flags().Changed("watch") {
		cfg.Scanner.Watch = o.watch
	}
	o.cfg = cfg
	o.activePath = path
	return nil
}

func newServeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve msgpack IPC over stdin/stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sigHandler()
			m, stop, err := buildMatcher(opts.cfg, nil, opts.under)
			if err != nil {
				return err
			}
			defer stop()

			if opts.debug {
				showStartupInfo("ipc", opts.cfg.Scanner.Root)
			}
			return server.NewServer(m, opts.cfg).Start()
		},
	}
}

func newHTTPCmd(opts *options) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "http",
		Short: "Serve the matcher over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("addr") {
				opts.cfg.Server.HTTPAddr = addr
			}
			m, stop, err := buildMatcher(opts.cfg, nil, opts.under)
			if err != nil {
				return err
			}
			defer stop()

			if !opts.debug {
				gin.SetMode(gin.ReleaseMode)
			}
			srv := &http.Server{
				Addr:              opts.cfg.Server.HTTPAddr,
				Handler:           server.NewRouter(m, opts.cfg),
				ReadHeaderTimeout: 5 * time.Second,
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			go func() {
				<-ctx.Done()
				shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
				defer done()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					log.Errorf("HTTP shutdown: %v", err)
				}
			}()

			showStartupInfo("http "+srv.Addr, opts.cfg.Scanner.Root)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides server.http_addr)")
	return cmd
}

func newQueryCmd(opts *options) *cobra.Command {
	var (
		limit    int
		useStdin bool
	)
	cmd := &cobra.Command{
		Use:   "query <abbrev>",
		Short: "Print the paths matching an abbreviation, best first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in io.Reader
			if useStdin {
				in = cmd.InOrStdin()
			}
			m, stop, err := buildMatcher(opts.cfg, in, opts.under)
			if err != nil {
				return err
			}
			defer stop()

			if !cmd.Flags().Changed("limit") {
				limit = opts.cfg.Matcher.DefaultLimit
			}
			paths, err := m.SortedMatchesFor(args[0], matcher.QueryOptions{Limit: limit})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, p := range paths {
				fmt.Fprintln(out, p)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum number of paths (0 for all)")
	cmd.Flags().BoolVar(&useStdin, "stdin", false, "Read candidate paths from stdin instead of scanning")
	return cmd
}

func newReplCmd(opts *options) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Query interactively, useful for testing rankings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sigHandler()
			m, stop, err := buildMatcher(opts.cfg, nil, opts.under)
			if err != nil {
				return err
			}
			defer stop()

			if !cmd.Flags().Changed("limit") {
				limit = opts.cfg.Matcher.DefaultLimit
			}
			log.Debug("Input info:", "limit", limit, "root", opts.cfg.Scanner.Root, "scorer", opts.cfg.Matcher.Scorer)
			h := cli.NewInputHandler(m, limit, opts.cfg.Server.MaxQuery, cmd.InOrStdin(), cmd.OutOrStdout())
			return h.Start()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum number of paths per query")
	return cmd
}

func newConfigCmd(opts *options) *cobra.Command {
	var (
		rebuild  bool
		maxLimit int
		maxQuery int
		httpAddr string
	)
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the active config, or rewrite it",
		Long:  "Prints the active config file. --rebuild resets it to the defaults; the server flags update it in place.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.activePath == "" {
				return errors.New("no config file in use, built-in defaults are active")
			}
			if rebuild {
				if _, err := config.RebuildConfigFile(opts.activePath); err != nil {
					return fmt.Errorf("rebuilding %s: %w", opts.activePath, err)
				}
				log.Infof("Rebuilt %s with defaults", opts.activePath)
			}
			// Reload so flag overrides such as --root never reach the file.
			cfg, err := config.LoadConfig(opts.activePath)
			if err != nil {
				return err
			}

			var limitPtr, queryPtr *int
			var addrPtr *string
			if cmd.Flags().Changed("max-limit") {
				if maxLimit < 1 {
					return fmt.Errorf("--max-limit must be positive, got %d", maxLimit)
				}
				limitPtr = &maxLimit
			}
			if cmd.Flags().Changed("max-query") {
				if maxQuery < 1 {
					return fmt.Errorf("--max-query must be positive, got %d", maxQuery)
				}
				queryPtr = &maxQuery
			}
			if cmd.Flags().Changed("http-addr") {
				addrPtr = &httpAddr
			}
			if limitPtr != nil || queryPtr != nil || addrPtr != nil {
				if err := cfg.Update(opts.activePath, limitPtr, queryPtr, addrPtr); err != nil {
					return fmt.Errorf("updating %s: %w", opts.activePath, err)
				}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "# %s\n", config.GetActiveConfigPath(opts.activePath))
			return cfg.Encode(out)
		},
	}
	cmd.Flags().BoolVar(&rebuild, "rebuild", false, "Overwrite the config file with the defaults")
	cmd.Flags().IntVar(&maxLimit, "max-limit", 0, "Set server.max_limit")
	cmd.Flags().IntVar(&maxQuery, "max-query", 0, "Set server.max_query")
	cmd.Flags().StringVar(&httpAddr, "http-addr", "", "Set server.http_addr")
	return cmd
}

// buildScorer picks the scorer named by matcher.scorer.
func buildScorer(name string) (matcher.Scorer, error) {
	switch name {
	case "", config.ScorerPath:
		return scorer.NewPathScorer(), nil
	case config.ScorerSahilm:
		return scorer.NewSahilmScorer(), nil
	default:
		return nil, fmt.Errorf("unknown scorer %q (want %q or %q)", name, config.ScorerPath, config.ScorerSahilm)
	}
}

// buildScanner reads candidates from in when set, otherwise scans the configured root.
// A non-empty under limits a scanned root to one of its subdirectories.
// The returned stop func releases any watcher.
func buildScanner(cfg *config.Config, in io.Reader, under string) (matcher.Scanner, func(), error) {
	noop := func() {}
	if in != nil {
		if under != "" {
			return nil, noop, errors.New("--under needs a scanned root, not --stdin")
		}
		s, err := scanner.FromReader(in)
		return s, noop, err
	}
	if cfg.Scanner.Watch {
		s, err := scanner.NewWatchScanner(cfg.Scanner.Root, cfg.ScannerOptions())
		if err != nil {
			return nil, noop, err
		}
		log.Debugf("Watching %s", s.Root())
		stop := func() {
			if err := s.Stop(); err != nil {
				log.Warnf("Stopping watcher: %v", err)
			}
		}
		if under != "" {
			return s.Under(under), stop, nil
		}
		return s, stop, nil
	}
	s, err := scanner.NewFileScanner(cfg.Scanner.Root, cfg.ScannerOptions())
	if err != nil {
		return nil, noop, err
	}
	log.Debugf("Scanning %s", s.Root())
	if under != "" {
		return s.Under(under), noop, nil
	}
	return s, noop, nil
}

// buildMatcher wires the configured scanner and scorer into a Matcher.
func buildMatcher(cfg *config.Config, in io.Reader, under string) (*matcher.Matcher, func(), error) {
	sc, err := buildScorer(cfg.Matcher.Scorer)
	if err != nil {
		return nil, nil, err
	}
	s, stop, err := buildScanner(cfg, in, under)
	if err != nil {
		return nil, nil, err
	}
	m, err := matcher.New(s, sc, cfg.MatcherOptions())
	if err != nil {
		stop()
		return nil, nil, err
	}
	mc := m.Config()
	log.Debugf("Matcher ready: scorer=%s watch=%v workers=%d threshold=%d", cfg.Matcher.Scorer, cfg.Scanner.Watch, mc.Workers, mc.Threshold)
	return m, stop, nil
}
