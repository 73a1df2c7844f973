package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/tkroman/nailgun"
	logAdapter "github.com/tkroman/nailgun/internal/adapters/log"
	"github.com/tkroman/nailgun/internal/cliconfig"
)

const helpDescription = `
Run a command on a running Nailgun server over its persistent connection,
streaming stdin, stdout, and stderr, and exiting with the remote command's
exit code.

Flags before COMMAND belong to ng; everything after COMMAND is passed to
the remote command untouched. The server address comes from --address,
the NG_ADDRESS or NAILGUN_SERVER/NAILGUN_PORT environment variables, or
$HOME/.ng/config.toml, in that order of precedence.
`

var longHelp = strings.TrimSpace(helpDescription)

var exampleUsage = strings.TrimSpace(`
  ng --address local:/run/ng.sock com.example.HashTool --verbose input.txt
  ng --address 127.0.0.1:2113 --wait 10s ng-version
  echo data | ng com.example.Cat
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

// envMap splits NAME=VALUE pairs, later entries winning per name.
func envMap(pairs []string) map[string]string {
	m := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		if name, value, ok := strings.Cut(pair, "="); ok {
			m[name] = value
		}
	}
	return m
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string
	exitCode := 0

	log := cliconfig.Logger()

	root := &cobra.Command{
		Use:           "ng COMMAND [ARG...]",
		Short:         "Run a command on a running Nailgun server",
		Long:          longHelp,
		Example:       exampleUsage,
		Args:          cobra.MinimumNArgs(1),
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Load config file first (default $HOME/.ng/config.toml), then
			// environment, then flag overrides
			cfgFile := cfgPath
			if cfgFile == "" {
				cfgFile = cliconfig.DefaultConfigPath()
			}

			// Build set of changed flags
			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

			if cfgFile != "" && cliconfig.FileExists(cfgFile) {
				fc, err := cliconfig.LoadFileConfig(cfgFile)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				if err := cliconfig.ApplyFileConfig(&cfg, fc, changed); err != nil {
					return err
				}
			}

			// Apply environment variables (NG_*); these override file
			// config but are overridden by flags (checked via changed map)
			if err := cliconfig.ApplyEnvConfig(&cfg, changed); err != nil {
				return err
			}

			// Validate and set derived defaults
			if err := cfg.Validate(); err != nil {
				return err
			}

			opts := []nailgun.Option{
				nailgun.WithOutput(os.Stdout),
				nailgun.WithErrorOutput(os.Stderr),
				nailgun.WithWorkingDir(cfg.Dir),
				nailgun.WithHeartbeatInterval(cfg.Heartbeat),
			}
			if !cfg.NoInput {
				opts = append(opts, nailgun.WithInput(os.Stdin))
			}
			if len(cfg.Env) > 0 {
				opts = append(opts, nailgun.WithEnv(envMap(cfg.Env)))
			}
			if cfg.Wait > 0 {
				opts = append(opts, nailgun.WithWaitForReady(cfg.Wait))
			}
			if cfg.Lenient {
				opts = append(opts, nailgun.WithUnknownChunkPolicy(nailgun.IgnoreUnknownChunks))
			}
			if cfg.Verbose {
				opts = append(opts, nailgun.WithLogger(
					logAdapter.NewZerologAdapterWithLogger(log.Level(zerolog.DebugLevel)),
				))
			}

			// Setup signal handling: an interrupt aborts the session and
			// exits the way shells expect
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigCh)
			go func() {
				select {
				case <-sigCh:
					cancel()
				case <-ctx.Done():
				}
			}()

			code, err := nailgun.Run(ctx, cfg.Address, args[0], args[1:], opts...)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					exitCode = 130
					return nil
				}
				return fmt.Errorf("run %s: %w", args[0], err)
			}
			exitCode = code
			return nil
		},
	}

	// The first non-flag argument is the remote command; everything after
	// it belongs to that command, not to ng
	root.Flags().SetInterspersed(false)

	root.Flags().StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.ng/config.toml)")
	root.Flags().StringVar(&cfg.Address, "address", cfg.Address, "server address: local:<path> or host:port")
	root.Flags().DurationVar(&cfg.Wait, "wait", cfg.Wait, "how long to wait for the server to accept connections")
	root.Flags().DurationVar(&cfg.Heartbeat, "heartbeat", cfg.Heartbeat, "liveness interval while input is open")
	root.Flags().StringVar(&cfg.Dir, "dir", cfg.Dir, "working directory sent to the server (default: current directory)")
	root.Flags().StringArrayVar(&cfg.Env, "env", nil, "extra NAME=VALUE pair for the remote command (repeatable)")
	root.Flags().BoolVar(&cfg.NoInput, "no-input", cfg.NoInput, "do not forward standard input")
	root.Flags().BoolVar(&cfg.Lenient, "lenient", cfg.Lenient, "ignore unexpected chunks instead of failing")
	root.Flags().BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "log protocol activity to stderr")

	if err := root.Execute(); err != nil {
		log.Error().Err(err).Msg("ng")
		os.Exit(1)
	}
	os.Exit(exitCode)
}
