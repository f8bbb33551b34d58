package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/assetbind/assetbind/internal/config"
	"github.com/assetbind/assetbind/pkg/exitcode"
	"github.com/assetbind/assetbind/pkg/log"
)

// flagKeys maps configuration keys to the flags that override them. Flags
// that a command does not define are skipped.
var flagKeys = map[string]string{
	"logging.level": "log-level",
	"logging.path":  "log-file",
	"logging.json":  "log-json",
	"gen.output":    "output",
	"gen.package":   "package",
}

// app holds what every command needs once flags and configuration are loaded.
type app struct {
	dir        string
	configUsed string
	cfg        *config.Config
	fs         billy.Filesystem
}

// newRootCommand creates a fresh root command instance.
// Tests build their own tree so flag values never leak between runs.
func newRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "assetbind",
		Short: "Generate Go embed bindings for a manifest of template assets",
		Long: `assetbind reads a manifest of entity identifiers, finds each entity's config
file and images under the asset root, and writes a Go file that embeds them
behind GetConfig and GetImage lookups.

Running assetbind without a subcommand is the same as "assetbind generate".`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runGenerate(cmd, false)
		},
	}

	pf := root.PersistentFlags()
	pf.String("config", "", "Config file (default: assetbind.yaml in the project directory, if present)")
	pf.StringP("dir", "C", ".", "Project directory; every configured path is relative to it")
	pf.String("log-level", "", "Log level (trace|debug|info|warn|error)")
	pf.String("log-file", "", "Write logs to this file instead of stderr")
	pf.Bool("log-json", false, "Write JSON logs to stderr")

	root.AddCommand(
		newGenerateCommand(a),
		newInitCommand(a),
		newDoctorCommand(a),
	)
	return root
}

// setup loads the layered configuration and initializes logging. It runs
// before every command.
func (a *app) setup(cmd *cobra.Command) error {
	flags := cmd.Flags()

	dir, _ := flags.GetString("dir")
	abs, err := filepath.Abs(dir)
	if err != nil {
		return &configError{err: err}
	}
	a.dir = abs

	v := viper.New()
	if err := bindFlags(v, flags); err != nil {
		return &configError{err: err}
	}

	configFile, _ := flags.GetString("config")
	cfg, err := config.Load(v, a.dir, configFile)
	if err != nil {
		return &configError{err: err}
	}
	a.cfg = cfg
	a.configUsed = v.ConfigFileUsed()

	logPath := cfg.Logging.Path
	if logPath != "" && !filepath.IsAbs(logPath) {
		logPath = filepath.Join(a.dir, logPath)
	}
	if err := log.Init(logPath, cfg.Logging.Level, cfg.Logging.JSON); err != nil {
		return &configError{err: fmt.Errorf("failed to initialize logging: %w", err)}
	}

	a.fs = osfs.New(a.dir)
	return nil
}

// bindFlags lets the flags in flagKeys override their configuration keys.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for key, name := range flagKeys {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return err
		}
	}
	return nil
}

// Execute runs the CLI and exits with the code mapped from the outcome.
// This is called by main.main().
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := newRootCommand()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	log.Close()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitCode(err)
	}
	return exitcode.Success
}
