package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/specialistvlad/bootloader/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Commands understood by Parse.
const (
	CommandRun     = "run"
	CommandPlan    = "plan"
	CommandResolve = "resolve"
)

// EnvPrefix prefixes every environment variable that can stand in for a flag.
const EnvPrefix = "BOOTLOADER"

// Invocation is a parsed command line.
type Invocation struct {
	Command string
	Config  *app.Config
	// MonitorURL is the socket.io endpoint boot events are streamed to.
	MonitorURL string
	// Symbols are the names to resolve for the resolve command.
	Symbols []string
}

// Parse processes command-line arguments. It returns the Invocation to
// execute, a boolean indicating if the program should exit cleanly, or an
// ExitError.
func Parse(args []string, output io.Writer) (*Invocation, bool, error) {
	slog.Debug("CLI parser started.")

	var inv *Invocation
	root := newRootCommand(func(i *Invocation) { inv = i })
	root.SetArgs(args)
	root.SetOut(output)
	root.SetErr(output)

	if err := root.Execute(); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			return nil, false, exitErr
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	if inv == nil {
		slog.Debug("No command executed, exiting.")
		return nil, true, nil
	}

	slog.Debug("CLI parser finished successfully.", "command", inv.Command, "config", inv.Config)
	return inv, false, nil
}

func newRootCommand(done func(*Invocation)) *cobra.Command {
	v := viper.New()

	root := &cobra.Command{
		Use:   "bootloader",
		Short: "Bootstrap engine for modular packages",
		Long: `bootloader discovers the packages under a directory, resolves their
symbols on demand and activates their loaders in dependency order.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringP("config", "c", "", "Config file (YAML, TOML, JSON or HCL) providing flag values.")
	pf.StringP("packages", "p", "packages", "Directory containing package manifests.")
	pf.String("core-package", app.DefaultCorePackage, "Name of the host package that is always loaded.")
	pf.String("log-format", "json", "Log output format. Options: 'text' or 'json'.")
	pf.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	runCmd := &cobra.Command{
		Use:   "run [PACKAGES_PATH]",
		Short: "Initialize packages and activate every loader",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inv, err := invocation(v, cmd, CommandRun, args)
			if err != nil {
				return err
			}
			inv.MonitorURL = v.GetString("monitor-url")
			done(inv)
			return nil
		},
	}
	runCmd.Flags().Int("healthcheck-port", 0, "Port for the HTTP health check server. 0 is disabled.")
	runCmd.Flags().String("monitor-url", "", "socket.io endpoint that receives boot events.")

	planCmd := &cobra.Command{
		Use:   "plan [PACKAGES_PATH]",
		Short: "Print the order loaders would be activated in",
		Long: `Print the order loaders would be activated in. No loader hook is called,
but packages that have a loader get their dependencies loaded, so their
includes run.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inv, err := invocation(v, cmd, CommandPlan, args)
			if err != nil {
				return err
			}
			done(inv)
			return nil
		},
	}

	resolveCmd := &cobra.Command{
		Use:   "resolve SYMBOL...",
		Short: "Resolve symbols and print the files defining them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inv, err := invocation(v, cmd, CommandResolve, nil)
			if err != nil {
				return err
			}
			inv.Symbols = args
			done(inv)
			return nil
		},
	}

	root.AddCommand(runCmd, planCmd, resolveCmd)
	return root
}

// invocation merges flags, environment and config file into an Invocation.
// Explicit flags win over environment variables, which win over the file.
func invocation(v *viper.Viper, cmd *cobra.Command, command string, args []string) (*Invocation, error) {
	if err := bindFlags(v, cmd.Flags()); err != nil {
		return nil, err
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if cfgFile := v.GetString("config"); cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, &ExitError{Code: 2, Message: fmt.Sprintf("failed to read config file: %v", err)}
		}
	}

	path := v.GetString("packages")
	if len(args) > 0 {
		path = args[0]
	}

	cfg, err := app.NewConfig(app.Config{
		PackagesPath:    path,
		CorePackage:     v.GetString("core-package"),
		LogFormat:       v.GetString("log-format"),
		LogLevel:        v.GetString("log-level"),
		HealthcheckPort: v.GetInt("healthcheck-port"),
	})
	if err != nil {
		return nil, &ExitError{Code: 2, Message: err.Error()}
	}

	return &Invocation{Command: command, Config: cfg}, nil
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	var err error
	flags.VisitAll(func(f *pflag.Flag) {
		if err == nil {
			err = v.BindPFlag(f.Name, f)
		}
	})
	return err
}
